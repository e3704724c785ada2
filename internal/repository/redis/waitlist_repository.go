package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

// WaitlistRepository stores waiting list entries and the per-event indexes
// over them: one FIFO sorted set per (event, group) scored by sequence, and
// one sorted set of offers scored by expiry.
type WaitlistRepository interface {
	Get(ctx context.Context, id string) (*models.WaitingListEntry, error)
	GetMany(ctx context.Context, ids []string) ([]*models.WaitingListEntry, error)
	Save(ctx context.Context, e *models.WaitingListEntry) error

	GetUserEntryID(ctx context.Context, eID, uID string) (string, error)
	SetUserEntry(ctx context.Context, e *models.WaitingListEntry) error
	// NextSequence must be called inside a transaction on eID.
	NextSequence(ctx context.Context, eID string) (int64, error)

	AddWaiting(ctx context.Context, e *models.WaitingListEntry) error
	RemoveWaiting(ctx context.Context, eID, group, id string) error
	ListWaitingIDs(ctx context.Context, eID, group string, limit int) ([]string, error)
	CountWaiting(ctx context.Context, eID, group string) (int64, error)
	WaitingPosition(ctx context.Context, e *models.WaitingListEntry) (int64, error)
	WaitingGroups(ctx context.Context, eID string) ([]string, error)
	RemoveGroup(ctx context.Context, eID, group string) error

	AddOffer(ctx context.Context, e *models.WaitingListEntry) error
	RemoveOffer(ctx context.Context, eID, id string) error
	ListActiveOffers(ctx context.Context, eID string, now time.Time) ([]*models.WaitingListEntry, error)
	ListExpiredOfferIDs(ctx context.Context, eID string, now time.Time, limit int) ([]string, error)
	CountOffers(ctx context.Context, eID string) (int64, error)

	PendingEvents(ctx context.Context) ([]string, error)
	RemovePendingEvent(ctx context.Context, eID string) error
	OfferEvents(ctx context.Context) ([]string, error)
	RemoveOfferEvent(ctx context.Context, eID string) error
}

type redisWaitlistRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisWaitlistRepository(cli *redis.Client, l logger.Logger) WaitlistRepository {
	return &redisWaitlistRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisWaitlistRepository) Get(ctx context.Context, id string) (*models.WaitingListEntry, error) {
	e, err := getJSON[models.WaitingListEntry](ctx, reader(ctx, r.cli), entryKey(id))
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.Get: %v", err)
		return nil, err
	}

	return e, nil
}

func (r *redisWaitlistRepository) GetMany(ctx context.Context, ids []string) ([]*models.WaitingListEntry, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = entryKey(id)
	}

	entries, err := mgetJSON[models.WaitingListEntry](ctx, reader(ctx, r.cli), keys)
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.GetMany: %v", err)
		return nil, err
	}

	return entries, nil
}

func (r *redisWaitlistRepository) Save(ctx context.Context, e *models.WaitingListEntry) error {
	if err := setJSON(ctx, writer(ctx, r.cli), entryKey(e.ID), e); err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.Save: %v", err)
		return err
	}

	return nil
}

func (r *redisWaitlistRepository) GetUserEntryID(ctx context.Context, eID, uID string) (string, error) {
	id, err := reader(ctx, r.cli).Get(ctx, userEntryKey(eID, uID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		r.l.Errorf(ctx, "redisWaitlistRepository.GetUserEntryID: %v", err)
		return "", err
	}

	return id, nil
}

func (r *redisWaitlistRepository) SetUserEntry(ctx context.Context, e *models.WaitingListEntry) error {
	return writer(ctx, r.cli).Set(ctx, userEntryKey(e.EventID, e.UserID), e.ID, 0).Err()
}

func (r *redisWaitlistRepository) NextSequence(ctx context.Context, eID string) (int64, error) {
	if !InTx(ctx) {
		return 0, errors.New("redisWaitlistRepository.NextSequence: called outside transaction")
	}

	cur, err := reader(ctx, r.cli).Get(ctx, sequenceKey(eID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.l.Errorf(ctx, "redisWaitlistRepository.NextSequence: %v", err)
		return 0, err
	}

	next := cur + 1
	if err := writer(ctx, r.cli).Set(ctx, sequenceKey(eID), next, 0).Err(); err != nil {
		return 0, err
	}

	return next, nil
}

func (r *redisWaitlistRepository) AddWaiting(ctx context.Context, e *models.WaitingListEntry) error {
	w := writer(ctx, r.cli)
	group := e.Group()

	if err := w.ZAdd(ctx, waitingKey(e.EventID, group), redis.Z{
		Score:  float64(e.Sequence),
		Member: e.ID,
	}).Err(); err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.AddWaiting: %v", err)
		return err
	}

	if err := w.SAdd(ctx, waitingGroupsKey(e.EventID), group).Err(); err != nil {
		return err
	}

	return w.SAdd(ctx, pendingEventsKey(), e.EventID).Err()
}

func (r *redisWaitlistRepository) RemoveWaiting(ctx context.Context, eID, group, id string) error {
	return writer(ctx, r.cli).ZRem(ctx, waitingKey(eID, group), id).Err()
}

func (r *redisWaitlistRepository) ListWaitingIDs(ctx context.Context, eID, group string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	ids, err := reader(ctx, r.cli).ZRange(ctx, waitingKey(eID, group), 0, int64(limit-1)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.ListWaitingIDs: %v", err)
		return nil, err
	}

	return ids, nil
}

func (r *redisWaitlistRepository) CountWaiting(ctx context.Context, eID, group string) (int64, error) {
	n, err := reader(ctx, r.cli).ZCard(ctx, waitingKey(eID, group)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.CountWaiting: %v", err)
		return 0, err
	}

	return n, nil
}

// WaitingPosition returns the 1-based position of e in its group, or 0 when
// it is not queued.
func (r *redisWaitlistRepository) WaitingPosition(ctx context.Context, e *models.WaitingListEntry) (int64, error) {
	rank, err := reader(ctx, r.cli).ZRank(ctx, waitingKey(e.EventID, e.Group()), e.ID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		r.l.Errorf(ctx, "redisWaitlistRepository.WaitingPosition: %v", err)
		return 0, err
	}

	return rank + 1, nil
}

func (r *redisWaitlistRepository) WaitingGroups(ctx context.Context, eID string) ([]string, error) {
	groups, err := reader(ctx, r.cli).SMembers(ctx, waitingGroupsKey(eID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.WaitingGroups: %v", err)
		return nil, err
	}
	sort.Strings(groups)

	return groups, nil
}

func (r *redisWaitlistRepository) RemoveGroup(ctx context.Context, eID, group string) error {
	return writer(ctx, r.cli).SRem(ctx, waitingGroupsKey(eID), group).Err()
}

func (r *redisWaitlistRepository) AddOffer(ctx context.Context, e *models.WaitingListEntry) error {
	if e.OfferExpiresAt == nil {
		return errors.New("redisWaitlistRepository.AddOffer: entry has no offer expiry")
	}

	w := writer(ctx, r.cli)
	if err := w.ZAdd(ctx, offersKey(e.EventID), redis.Z{
		Score:  float64(e.OfferExpiresAt.UnixMilli()),
		Member: e.ID,
	}).Err(); err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.AddOffer: %v", err)
		return err
	}

	return w.SAdd(ctx, offerEventsKey(), e.EventID).Err()
}

func (r *redisWaitlistRepository) RemoveOffer(ctx context.Context, eID, id string) error {
	return writer(ctx, r.cli).ZRem(ctx, offersKey(eID), id).Err()
}

// ListActiveOffers returns offered entries whose deadline is after now.
// Scores are whole milliseconds, so the range includes now's millisecond and
// HoldsCapacity settles the sub-millisecond remainder.
func (r *redisWaitlistRepository) ListActiveOffers(ctx context.Context, eID string, now time.Time) ([]*models.WaitingListEntry, error) {
	ids, err := reader(ctx, r.cli).ZRangeByScore(ctx, offersKey(eID), &redis.ZRangeBy{
		Min: strconv.FormatInt(now.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.ListActiveOffers: %v", err)
		return nil, err
	}

	entries, err := r.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*models.WaitingListEntry, 0, len(entries))
	for _, e := range entries {
		if e != nil && e.HoldsCapacity(now) {
			out = append(out, e)
		}
	}

	return out, nil
}

func (r *redisWaitlistRepository) ListExpiredOfferIDs(ctx context.Context, eID string, now time.Time, limit int) ([]string, error) {
	ids, err := reader(ctx, r.cli).ZRangeByScore(ctx, offersKey(eID), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.ListExpiredOfferIDs: %v", err)
		return nil, err
	}

	return ids, nil
}

func (r *redisWaitlistRepository) CountOffers(ctx context.Context, eID string) (int64, error) {
	return reader(ctx, r.cli).ZCard(ctx, offersKey(eID)).Result()
}

func (r *redisWaitlistRepository) PendingEvents(ctx context.Context) ([]string, error) {
	ids, err := r.cli.SMembers(ctx, pendingEventsKey()).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.PendingEvents: %v", err)
		return nil, err
	}
	sort.Strings(ids)

	return ids, nil
}

func (r *redisWaitlistRepository) RemovePendingEvent(ctx context.Context, eID string) error {
	return writer(ctx, r.cli).SRem(ctx, pendingEventsKey(), eID).Err()
}

func (r *redisWaitlistRepository) OfferEvents(ctx context.Context) ([]string, error) {
	ids, err := r.cli.SMembers(ctx, offerEventsKey()).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisWaitlistRepository.OfferEvents: %v", err)
		return nil, err
	}
	sort.Strings(ids)

	return ids, nil
}

func (r *redisWaitlistRepository) RemoveOfferEvent(ctx context.Context, eID string) error {
	return writer(ctx, r.cli).SRem(ctx, offerEventsKey(), eID).Err()
}

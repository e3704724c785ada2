package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

// EventRepository is the inventory ledger. Every mutation of an event's
// state, including its waiting list and tickets, runs inside WithTx.
type EventRepository interface {
	WithTx(ctx context.Context, eID string, fn func(ctx context.Context) error) error
	Get(ctx context.Context, eID string) (*models.Event, error)
	Save(ctx context.Context, ev *models.Event) error
	ListTicketTypes(ctx context.Context, eID string) ([]*models.TicketType, error)
	SaveTicketType(ctx context.Context, tt *models.TicketType) error
	GetSoldCount(ctx context.Context, eID string) (int, error)
	IncrSoldCount(ctx context.Context, eID string, n int) error
}

type redisEventRepository struct {
	cli        *redis.Client
	l          logger.Logger
	maxRetries int
}

func NewRedisEventRepository(cli *redis.Client, l logger.Logger, maxRetries int) EventRepository {
	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &redisEventRepository{
		cli:        cli,
		l:          l,
		maxRetries: maxRetries,
	}
}

func (r *redisEventRepository) WithTx(ctx context.Context, eID string, fn func(ctx context.Context) error) error {
	err := runTx(ctx, r.cli, r.maxRetries, eventVersionKey(eID), fn)
	if errors.Is(err, ErrTxConflict) {
		r.l.Warnf(ctx, "redisEventRepository.WithTx: event_id=%s: %v", eID, err)
	}
	return err
}

func (r *redisEventRepository) Get(ctx context.Context, eID string) (*models.Event, error) {
	ev, err := getJSON[models.Event](ctx, reader(ctx, r.cli), eventKey(eID))
	if err != nil {
		r.l.Errorf(ctx, "redisEventRepository.Get: %v", err)
		return nil, err
	}

	return ev, nil
}

func (r *redisEventRepository) Save(ctx context.Context, ev *models.Event) error {
	if err := setJSON(ctx, writer(ctx, r.cli), eventKey(ev.ID), ev); err != nil {
		r.l.Errorf(ctx, "redisEventRepository.Save: %v", err)
		return err
	}

	return nil
}

func (r *redisEventRepository) ListTicketTypes(ctx context.Context, eID string) ([]*models.TicketType, error) {
	rd := reader(ctx, r.cli)

	ids, err := rd.SMembers(ctx, ticketTypesKey(eID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisEventRepository.ListTicketTypes: %v", err)
		return nil, err
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ticketTypeKey(eID, id)
	}

	types, err := mgetJSON[models.TicketType](ctx, rd, keys)
	if err != nil {
		r.l.Errorf(ctx, "redisEventRepository.ListTicketTypes: %v", err)
		return nil, err
	}

	out := make([]*models.TicketType, 0, len(types))
	for _, tt := range types {
		if tt != nil {
			out = append(out, tt)
		}
	}

	return out, nil
}

func (r *redisEventRepository) SaveTicketType(ctx context.Context, tt *models.TicketType) error {
	w := writer(ctx, r.cli)

	if err := setJSON(ctx, w, ticketTypeKey(tt.EventID, tt.ID), tt); err != nil {
		r.l.Errorf(ctx, "redisEventRepository.SaveTicketType: %v", err)
		return err
	}

	return w.SAdd(ctx, ticketTypesKey(tt.EventID), tt.ID).Err()
}

func (r *redisEventRepository) GetSoldCount(ctx context.Context, eID string) (int, error) {
	n, err := reader(ctx, r.cli).Get(ctx, soldCountKey(eID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		r.l.Errorf(ctx, "redisEventRepository.GetSoldCount: %v", err)
		return 0, err
	}

	return n, nil
}

func (r *redisEventRepository) IncrSoldCount(ctx context.Context, eID string, n int) error {
	return writer(ctx, r.cli).IncrBy(ctx, soldCountKey(eID), int64(n)).Err()
}

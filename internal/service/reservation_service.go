package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
	kafka "github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	repo "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/clock"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

// OfferExpiryQueue holds one delayed job per outstanding offer.
const OfferExpiryQueue = "offer_expiry"

const (
	joinOutcomeOffered  = "offered"
	joinOutcomeWaiting  = "waiting"
	joinOutcomeRejected = "rejected"
)

type Repositories struct {
	Events   repo.EventRepository
	Waitlist repo.WaitlistRepository
	Tickets  repo.TicketRepository
	Jobs     repo.JobRepository
}

type reservationService struct {
	repos   Repositories
	limiter RateLimiter
	tokens  OfferTokenService
	prod    producer.Producer
	clk     clock.Clock
	conf    config.ReservationConfig
	l       logger.Logger
}

// NewReservationService wires the reservation engine. prod may be nil when
// Kafka is disabled.
func NewReservationService(
	repos Repositories,
	limiter RateLimiter,
	tokens OfferTokenService,
	prod producer.Producer,
	clk clock.Clock,
	conf config.ReservationConfig,
	l logger.Logger,
) ReservationService {
	return &reservationService{
		repos:   repos,
		limiter: limiter,
		tokens:  tokens,
		prod:    prod,
		clk:     clk,
		conf:    conf,
		l:       l,
	}
}

func (s *reservationService) JoinWaitingList(ctx context.Context, in JoinWaitingListInput) (*JoinWaitingListOutput, error) {
	if in.EventID == "" || in.UserID == "" {
		return nil, ErrInvalidArgument
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	if err := s.limiter.Allow(ctx, in.UserID); err != nil {
		metrics.RecordJoin(joinOutcomeRejected)
		return nil, err
	}

	var (
		entry *models.WaitingListEntry
		nudge bool
	)
	err := s.repos.Events.WithTx(ctx, in.EventID, func(ctx context.Context) error {
		entry, nudge = nil, false
		now := s.clk.Now()

		if err := s.ensureNoActiveEntry(ctx, in.EventID, in.UserID, now); err != nil {
			return err
		}

		ev, err := s.getOpenEvent(ctx, in.EventID)
		if err != nil {
			return err
		}

		inv, err := s.loadInventory(ctx, ev, now)
		if err != nil {
			return err
		}

		group := models.UntypedGroup
		limit := ev.TotalTickets
		if in.TicketTypeID != "" {
			tt, ok := inv.types[in.TicketTypeID]
			if !ok {
				return ErrTicketTypeNotFound
			}
			group = tt.ID
			limit = min(limit, tt.Quantity)
		}
		if in.Quantity > limit {
			return ErrInsufficientInventory
		}

		queued, err := s.repos.Waitlist.CountWaiting(ctx, in.EventID, group)
		if err != nil {
			return err
		}

		seq, err := s.repos.Waitlist.NextSequence(ctx, in.EventID)
		if err != nil {
			return err
		}

		e := &models.WaitingListEntry{
			ID:           uuid.NewString(),
			EventID:      in.EventID,
			UserID:       in.UserID,
			TicketTypeID: in.TicketTypeID,
			Quantity:     in.Quantity,
			Status:       models.EntryStatusWaiting,
			Sequence:     seq,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		// Capacity goes to the head of the queue first.
		if queued == 0 && inv.fits(group, in.Quantity) {
			e.Offer(now, s.conf.OfferDuration)
			if err := s.grantOffer(ctx, e); err != nil {
				return err
			}
		} else {
			if err := s.repos.Waitlist.Save(ctx, e); err != nil {
				return err
			}
			if err := s.repos.Waitlist.AddWaiting(ctx, e); err != nil {
				return err
			}
			nudge = inv.fits(group, 1)
		}

		if err := s.repos.Waitlist.SetUserEntry(ctx, e); err != nil {
			return err
		}

		entry = e
		return nil
	})
	if err != nil {
		metrics.RecordJoin(joinOutcomeRejected)
		s.logFailure(ctx, "reservationService.JoinWaitingList", err)
		return nil, err
	}

	out := &JoinWaitingListOutput{Entry: entry}

	if entry.Status == models.EntryStatusOffered {
		out.OfferToken = s.announceOffer(ctx, entry, false)
		metrics.RecordJoin(joinOutcomeOffered)
		return out, nil
	}

	pos, err := s.repos.Waitlist.WaitingPosition(ctx, entry)
	if err != nil {
		s.l.Warnf(ctx, "reservationService.JoinWaitingList: position lookup failed: %v", err)
	}
	out.Position = pos
	metrics.RecordJoin(joinOutcomeWaiting)

	s.publish(ctx, "PublishWaitlistJoined", func() error {
		return s.prod.PublishWaitlistJoined(ctx, kafka.WaitlistJoinedEvent{
			EntryID:      entry.ID,
			EventID:      entry.EventID,
			UserID:       entry.UserID,
			TicketTypeID: entry.TicketTypeID,
			Quantity:     entry.Quantity,
			Position:     pos,
			JoinedAt:     entry.CreatedAt,
		})
	})

	if nudge {
		s.promoteAfter(ctx, in.EventID)
	}

	return out, nil
}

// getOpenEvent loads an event that still accepts reservations.
func (s *reservationService) getOpenEvent(ctx context.Context, eventID string) (*models.Event, error) {
	ev, err := s.repos.Events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}
	if ev.IsCancelled {
		return nil, ErrEventCancelled
	}
	return ev, nil
}

// ensureNoActiveEntry rejects a join while the user's latest entry for the
// event is still waiting, holds a live offer, or has been purchased.
func (s *reservationService) ensureNoActiveEntry(ctx context.Context, eventID, userID string, now time.Time) error {
	id, err := s.repos.Waitlist.GetUserEntryID(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	prev, err := s.repos.Waitlist.Get(ctx, id)
	if err != nil {
		return err
	}
	if prev == nil {
		return nil
	}

	if prev.IsActive(now) {
		return ErrAlreadyQueued
	}
	if prev.Status == models.EntryStatusPurchased && !s.conf.AllowRepurchase {
		return ErrAlreadyQueued
	}

	return nil
}

// grantOffer persists an entry that was just moved to offered and schedules
// its expiry. Must run inside the event transaction.
func (s *reservationService) grantOffer(ctx context.Context, e *models.WaitingListEntry) error {
	if err := s.repos.Waitlist.Save(ctx, e); err != nil {
		return err
	}
	if err := s.repos.Waitlist.AddOffer(ctx, e); err != nil {
		return err
	}
	return s.repos.Jobs.Schedule(ctx, OfferExpiryQueue, e.ID, *e.OfferExpiresAt)
}

// announceOffer signs the offer token and publishes the grant. The offer is
// already committed, so failures here are logged only.
func (s *reservationService) announceOffer(ctx context.Context, e *models.WaitingListEntry, promoted bool) string {
	token, err := s.tokens.Issue(ctx, e)
	if err != nil {
		s.l.Errorf(ctx, "reservationService.announceOffer: %v", err)
	}

	s.publish(ctx, "PublishOfferGranted", func() error {
		return s.prod.PublishOfferGranted(ctx, kafka.OfferGrantedEvent{
			EntryID:        e.ID,
			EventID:        e.EventID,
			UserID:         e.UserID,
			TicketTypeID:   e.TicketTypeID,
			Quantity:       e.Quantity,
			OfferToken:     token,
			OfferExpiresAt: *e.OfferExpiresAt,
			Promoted:       promoted,
		})
	})

	return token
}

// promoteAfter runs the promoter once capacity may have been freed.
func (s *reservationService) promoteAfter(ctx context.Context, eventID string) {
	if _, err := s.PromoteWaitlist(ctx, eventID, s.conf.PromoteBatchSize); err != nil {
		s.l.Warnf(ctx, "reservationService.promoteAfter: event %s: %v", eventID, err)
	}
}

func (s *reservationService) publish(ctx context.Context, method string, send func() error) {
	if s.prod == nil {
		return
	}
	if err := send(); err != nil {
		s.l.Errorf(ctx, "reservationService.%s: %v", method, err)
	}
}

func (s *reservationService) logFailure(ctx context.Context, method string, err error) {
	if IsBusinessError(err) {
		s.l.Warnf(ctx, "%s: %v", method, err)
		return
	}
	s.l.Errorf(ctx, "%s: %v", method, err)
}

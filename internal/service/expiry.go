package service

import (
	"context"

	kafka "github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
)

const (
	expiryTriggerJob   = "job"
	expiryTriggerSweep = "sweep"
)

// ExpireOffer is the handler of the offer expiry job. It is safe to run any
// number of times: entries that are no longer offered are left alone, and a
// job that fires early is moved to the offer deadline.
func (s *reservationService) ExpireOffer(ctx context.Context, entryID string) (*ExpireOfferOutput, error) {
	return s.expireOffer(ctx, "", entryID, expiryTriggerJob)
}

// expireOffer looks the event up from the entry when eventID is empty.
func (s *reservationService) expireOffer(ctx context.Context, eventID, entryID, trigger string) (*ExpireOfferOutput, error) {
	if eventID == "" {
		e, err := s.repos.Waitlist.Get(ctx, entryID)
		if err != nil {
			s.l.Errorf(ctx, "reservationService.ExpireOffer: %v", err)
			return nil, err
		}
		if e == nil {
			s.l.Debugf(ctx, "reservationService.ExpireOffer: entry %s not found, nothing to do", entryID)
			return &ExpireOfferOutput{}, nil
		}
		eventID = e.EventID
	}

	out := &ExpireOfferOutput{}
	err := s.repos.Events.WithTx(ctx, eventID, func(ctx context.Context) error {
		*out = ExpireOfferOutput{}
		now := s.clk.Now()

		e, err := s.repos.Waitlist.Get(ctx, entryID)
		if err != nil {
			return err
		}
		if e == nil || e.Status != models.EntryStatusOffered {
			out.Entry = e
			return s.repos.Waitlist.RemoveOffer(ctx, eventID, entryID)
		}

		if !e.HasOfferExpired(now) {
			out.Entry = e
			out.Rescheduled = true
			return s.repos.Jobs.Schedule(ctx, OfferExpiryQueue, e.ID, *e.OfferExpiresAt)
		}

		e.Expire(now)
		if err := s.repos.Waitlist.Save(ctx, e); err != nil {
			return err
		}
		if err := s.repos.Waitlist.RemoveOffer(ctx, eventID, e.ID); err != nil {
			return err
		}
		if err := s.repos.Jobs.Cancel(ctx, OfferExpiryQueue, e.ID); err != nil {
			return err
		}

		out.Entry = e
		out.Expired = true
		return nil
	})
	if err != nil {
		s.l.Errorf(ctx, "reservationService.ExpireOffer: entry %s: %v", entryID, err)
		return nil, err
	}

	if !out.Expired {
		return out, nil
	}

	metrics.RecordExpiration(trigger)
	s.l.Infof(ctx, "offer expired - entry: %s, event: %s, trigger: %s", out.Entry.ID, eventID, trigger)

	s.publish(ctx, "PublishOfferExpired", func() error {
		return s.prod.PublishOfferExpired(ctx, kafka.OfferExpiredEvent{
			EntryID:   out.Entry.ID,
			EventID:   out.Entry.EventID,
			UserID:    out.Entry.UserID,
			ExpiredAt: *out.Entry.ExpiredAt,
		})
	})

	s.promoteAfter(ctx, eventID)

	return out, nil
}

package service

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const sweepConcurrency = 4

// CleanupExpiredReservations expires every offer whose deadline has passed.
// It backs up the expiry jobs and may run alongside them; each offer is
// expired at most once.
func (s *reservationService) CleanupExpiredReservations(ctx context.Context) (*CleanupOutput, error) {
	eventIDs, err := s.repos.Waitlist.OfferEvents(ctx)
	if err != nil {
		s.l.Errorf(ctx, "reservationService.CleanupExpiredReservations: %v", err)
		return nil, err
	}

	var expired atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for _, eventID := range eventIDs {
		g.Go(func() error {
			n, err := s.cleanupEvent(gctx, eventID)
			if err != nil {
				// one event must not hold up the others
				s.l.Errorf(gctx, "reservationService.CleanupExpiredReservations: event %s: %v", eventID, err)
			}
			expired.Add(int64(n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &CleanupOutput{Expired: int(expired.Load()), Events: len(eventIDs)}
	if out.Expired > 0 {
		s.l.Infof(ctx, "cleanup expired %d offers across %d events", out.Expired, out.Events)
	}

	return out, nil
}

func (s *reservationService) cleanupEvent(ctx context.Context, eventID string) (int, error) {
	batch := s.conf.PromoteBatchSize
	expired := 0
	seen := make(map[string]struct{})

	for {
		ids, err := s.repos.Waitlist.ListExpiredOfferIDs(ctx, eventID, s.clk.Now(), batch)
		if err != nil {
			return expired, err
		}

		fresh := 0
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			fresh++

			res, err := s.expireOffer(ctx, eventID, id, expiryTriggerSweep)
			if err != nil {
				continue
			}
			if res.Expired {
				expired++
			}
		}

		if len(ids) < batch || fresh == 0 {
			break
		}
	}

	err := s.repos.Events.WithTx(ctx, eventID, func(ctx context.Context) error {
		n, err := s.repos.Waitlist.CountOffers(ctx, eventID)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		return s.repos.Waitlist.RemoveOfferEvent(ctx, eventID)
	})

	return expired, err
}

// ProcessWaitlist promotes up to maxEntries waiting entries across all
// events that have someone waiting.
func (s *reservationService) ProcessWaitlist(ctx context.Context, maxEntries int) (*ProcessWaitlistOutput, error) {
	if maxEntries <= 0 {
		maxEntries = s.conf.PromoteBatchSize
	}

	eventIDs, err := s.repos.Waitlist.PendingEvents(ctx)
	if err != nil {
		s.l.Errorf(ctx, "reservationService.ProcessWaitlist: %v", err)
		return nil, err
	}

	out := &ProcessWaitlistOutput{}
	budget := maxEntries
	for _, eventID := range eventIDs {
		if budget == 0 {
			break
		}

		res, err := s.PromoteWaitlist(ctx, eventID, budget)
		if err != nil {
			continue
		}

		out.Events++
		out.Promoted += len(res.Promoted)
		budget -= len(res.Promoted)
	}

	return out, nil
}

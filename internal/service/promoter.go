package service

import (
	"context"

	"github.com/vogiaan1904/ticketbottle-reservation/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
)

// PromoteWaitlist turns waiting entries of one event into offers, strictly
// in join order within each (event, ticket type) group, for as long as
// capacity allows. A group stops at the first entry that does not fit.
func (s *reservationService) PromoteWaitlist(ctx context.Context, eventID string, maxEntries int) (*PromoteOutput, error) {
	if maxEntries <= 0 {
		maxEntries = s.conf.PromoteBatchSize
	}

	var promoted []*models.WaitingListEntry
	err := s.repos.Events.WithTx(ctx, eventID, func(ctx context.Context) error {
		promoted = nil
		now := s.clk.Now()

		ev, err := s.repos.Events.Get(ctx, eventID)
		if err != nil {
			return err
		}
		if ev == nil {
			s.l.Warnf(ctx, "reservationService.PromoteWaitlist: event %s not found, dropping from pending index", eventID)
			return s.repos.Waitlist.RemovePendingEvent(ctx, eventID)
		}
		// Waiting entries of a cancelled event stay dormant.
		if ev.IsCancelled {
			return s.repos.Waitlist.RemovePendingEvent(ctx, eventID)
		}

		inv, err := s.loadInventory(ctx, ev, now)
		if err != nil {
			return err
		}

		groups, err := s.repos.Waitlist.WaitingGroups(ctx, eventID)
		if err != nil {
			return err
		}

		budget := maxEntries
		drained := 0
		for _, group := range groups {
			if budget == 0 {
				break
			}

			size, err := s.repos.Waitlist.CountWaiting(ctx, eventID, group)
			if err != nil {
				return err
			}
			if size == 0 {
				if err := s.repos.Waitlist.RemoveGroup(ctx, eventID, group); err != nil {
					return err
				}
				drained++
				continue
			}

			if group != models.UntypedGroup {
				if _, ok := inv.types[group]; !ok {
					s.l.Warnf(ctx, "reservationService.PromoteWaitlist: ticket type %s of event %s no longer exists, skipping %d entries", group, eventID, size)
					continue
				}
			}

			ids, err := s.repos.Waitlist.ListWaitingIDs(ctx, eventID, group, budget)
			if err != nil {
				return err
			}
			entries, err := s.repos.Waitlist.GetMany(ctx, ids)
			if err != nil {
				return err
			}

			removed := 0
			for i, e := range entries {
				if budget == 0 {
					break
				}

				if e == nil || e.Status != models.EntryStatusWaiting {
					s.l.Warnf(ctx, "reservationService.PromoteWaitlist: dropping stale queue member %s of event %s", ids[i], eventID)
					if err := s.repos.Waitlist.RemoveWaiting(ctx, eventID, group, ids[i]); err != nil {
						return err
					}
					removed++
					continue
				}

				if !inv.fits(group, e.Quantity) {
					break
				}

				e.Offer(now, s.conf.OfferDuration)
				if err := s.repos.Waitlist.RemoveWaiting(ctx, eventID, group, e.ID); err != nil {
					return err
				}
				if err := s.grantOffer(ctx, e); err != nil {
					return err
				}
				inv.hold(group, e.Quantity)

				promoted = append(promoted, e)
				removed++
				budget--
			}

			if int64(removed) == size {
				if err := s.repos.Waitlist.RemoveGroup(ctx, eventID, group); err != nil {
					return err
				}
				drained++
			}
		}

		if drained == len(groups) {
			return s.repos.Waitlist.RemovePendingEvent(ctx, eventID)
		}

		return nil
	})
	if err != nil {
		s.logFailure(ctx, "reservationService.PromoteWaitlist", err)
		return nil, err
	}

	if len(promoted) > 0 {
		metrics.RecordPromotions(len(promoted))
		s.l.Infof(ctx, "promoted %d waiting entries - event: %s", len(promoted), eventID)
	}

	for _, e := range promoted {
		s.announceOffer(ctx, e, true)
	}

	return &PromoteOutput{EventID: eventID, Promoted: promoted}, nil
}

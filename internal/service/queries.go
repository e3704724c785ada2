package service

import (
	"context"
	"sort"

	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
)

func (s *reservationService) GetQueuePosition(ctx context.Context, eventID, userID string) (*QueuePositionOutput, error) {
	id, err := s.repos.Waitlist.GetUserEntryID(ctx, eventID, userID)
	if err != nil {
		s.l.Errorf(ctx, "reservationService.GetQueuePosition: %v", err)
		return nil, err
	}
	if id == "" {
		return nil, ErrEntryNotFound
	}

	e, err := s.repos.Waitlist.Get(ctx, id)
	if err != nil {
		s.l.Errorf(ctx, "reservationService.GetQueuePosition: %v", err)
		return nil, err
	}
	if e == nil {
		return nil, ErrEntryNotFound
	}

	out := &QueuePositionOutput{Entry: e, Status: e.Status}
	if e.Status == models.EntryStatusOffered && e.HasOfferExpired(s.clk.Now()) {
		out.Status = models.EntryStatusExpired
	}

	if e.Status != models.EntryStatusWaiting {
		return out, nil
	}

	if out.Position, err = s.repos.Waitlist.WaitingPosition(ctx, e); err != nil {
		return nil, err
	}
	if out.QueueLength, err = s.repos.Waitlist.CountWaiting(ctx, e.EventID, e.Group()); err != nil {
		return nil, err
	}

	return out, nil
}

// GetUserTickets returns the user's tickets, most recent purchase first.
func (s *reservationService) GetUserTickets(ctx context.Context, userID string) ([]*models.Ticket, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}

	ids, err := s.repos.Tickets.ListIDsByUser(ctx, userID)
	if err != nil {
		s.l.Errorf(ctx, "reservationService.GetUserTickets: %v", err)
		return nil, err
	}

	tickets, err := s.repos.Tickets.GetMany(ctx, ids)
	if err != nil {
		s.l.Errorf(ctx, "reservationService.GetUserTickets: %v", err)
		return nil, err
	}

	out := compactTickets(tickets)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			return out[i].PurchasedAt.After(out[j].PurchasedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

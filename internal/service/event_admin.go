package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
	kafka "github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
)

func (s *reservationService) CreateEvent(ctx context.Context, in CreateEventInput) (*CreateEventOutput, error) {
	if err := validateCreateEvent(in); err != nil {
		return nil, err
	}

	eventID := in.ID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	var out *CreateEventOutput
	err := s.repos.Events.WithTx(ctx, eventID, func(ctx context.Context) error {
		out = nil
		now := s.clk.Now()

		existing, err := s.repos.Events.Get(ctx, eventID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEventAlreadyExists
		}

		ev := &models.Event{
			ID:           eventID,
			Name:         in.Name,
			OrganizerID:  in.OrganizerID,
			TotalTickets: in.TotalTickets,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repos.Events.Save(ctx, ev); err != nil {
			return err
		}

		types := make([]*models.TicketType, 0, len(in.TicketTypes))
		for _, ti := range in.TicketTypes {
			id := ti.ID
			if id == "" {
				id = uuid.NewString()
			}
			tt := &models.TicketType{
				ID:        id,
				EventID:   eventID,
				Name:      ti.Name,
				Price:     ti.Price,
				Quantity:  ti.Quantity,
				Remaining: ti.Quantity,
				IsSoldOut: ti.Quantity == 0,
				UpdatedAt: now,
			}
			if err := s.repos.Events.SaveTicketType(ctx, tt); err != nil {
				return err
			}
			types = append(types, tt)
		}

		out = &CreateEventOutput{Event: ev, TicketTypes: types}
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "reservationService.CreateEvent", err)
		return nil, err
	}

	s.l.Infof(ctx, "event created - id: %s, total_tickets: %d, ticket_types: %d", eventID, in.TotalTickets, len(out.TicketTypes))

	return out, nil
}

func validateCreateEvent(in CreateEventInput) error {
	if in.TotalTickets < 1 || strings.TrimSpace(in.Name) == "" {
		return ErrInvalidEvent
	}

	seen := make(map[string]struct{}, len(in.TicketTypes))
	for _, tt := range in.TicketTypes {
		if tt.Quantity < 0 || tt.Price < 0 || tt.ID == models.UntypedGroup {
			return ErrInvalidEvent
		}
		if tt.ID == "" {
			continue
		}
		if _, dup := seen[tt.ID]; dup {
			return ErrInvalidEvent
		}
		seen[tt.ID] = struct{}{}
	}

	return nil
}

// CancelEvent marks the event cancelled and cancels its sold tickets.
// Waiting entries are left dormant or expired depending on configuration.
// Cancelling an already cancelled event changes nothing.
func (s *reservationService) CancelEvent(ctx context.Context, in CancelEventInput) (*CancelEventOutput, error) {
	if in.EventID == "" {
		return nil, ErrInvalidArgument
	}

	var (
		out       *CancelEventOutput
		cancelled []string
	)
	err := s.repos.Events.WithTx(ctx, in.EventID, func(ctx context.Context) error {
		out, cancelled = nil, nil
		now := s.clk.Now()

		ev, err := s.repos.Events.Get(ctx, in.EventID)
		if err != nil {
			return err
		}
		if ev == nil {
			return ErrEventNotFound
		}
		if ev.IsCancelled {
			out = &CancelEventOutput{EventID: ev.ID, AlreadyCancelled: true}
			if ev.CancelledAt != nil {
				out.CancelledAt = *ev.CancelledAt
			}
			return nil
		}

		ticketIDs, err := s.repos.Tickets.ListIDsByEvent(ctx, ev.ID)
		if err != nil {
			return err
		}
		tickets, err := s.repos.Tickets.GetMany(ctx, ticketIDs)
		if err != nil {
			return err
		}

		type queued struct {
			group string
			entry *models.WaitingListEntry
		}
		var (
			toExpire []queued
			groups   []string
		)
		if s.conf.WaitingOnCancel == config.WaitingOnCancelExpire {
			groups, err = s.repos.Waitlist.WaitingGroups(ctx, ev.ID)
			if err != nil {
				return err
			}
			for _, g := range groups {
				n, err := s.repos.Waitlist.CountWaiting(ctx, ev.ID, g)
				if err != nil {
					return err
				}
				ids, err := s.repos.Waitlist.ListWaitingIDs(ctx, ev.ID, g, int(n))
				if err != nil {
					return err
				}
				entries, err := s.repos.Waitlist.GetMany(ctx, ids)
				if err != nil {
					return err
				}
				for _, e := range entries {
					if e != nil && e.Status == models.EntryStatusWaiting {
						toExpire = append(toExpire, queued{group: g, entry: e})
					}
				}
			}
		}

		ev.IsCancelled = true
		ev.CancelledAt = &now
		ev.UpdatedAt = now
		if err := s.repos.Events.Save(ctx, ev); err != nil {
			return err
		}

		for _, t := range tickets {
			if t == nil || !t.CountsAsSold() {
				continue
			}
			t.Status = models.TicketStatusCancelled
			t.UpdatedAt = now
			if err := s.repos.Tickets.Save(ctx, t); err != nil {
				return err
			}
			cancelled = append(cancelled, t.ID)
		}

		for _, q := range toExpire {
			q.entry.Expire(now)
			if err := s.repos.Waitlist.Save(ctx, q.entry); err != nil {
				return err
			}
			if err := s.repos.Waitlist.RemoveWaiting(ctx, ev.ID, q.group, q.entry.ID); err != nil {
				return err
			}
		}

		for _, g := range groups {
			if err := s.repos.Waitlist.RemoveGroup(ctx, ev.ID, g); err != nil {
				return err
			}
		}
		if err := s.repos.Waitlist.RemovePendingEvent(ctx, ev.ID); err != nil {
			return err
		}

		out = &CancelEventOutput{
			EventID:          ev.ID,
			CancelledTickets: len(cancelled),
			ExpiredEntries:   len(toExpire),
			CancelledAt:      now,
		}
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "reservationService.CancelEvent", err)
		return nil, err
	}

	if out.AlreadyCancelled {
		return out, nil
	}

	s.l.Infof(ctx, "event cancelled - id: %s, tickets: %d, expired_entries: %d", out.EventID, out.CancelledTickets, out.ExpiredEntries)

	if len(cancelled) > 0 {
		s.publish(ctx, "PublishTicketsCancelled", func() error {
			return s.prod.PublishTicketsCancelled(ctx, kafka.TicketsCancelledEvent{
				EventID:     out.EventID,
				TicketIDs:   cancelled,
				Reason:      in.Reason,
				CancelledAt: out.CancelledAt,
			})
		})
	}

	return out, nil
}

package service

import (
	"context"

	"github.com/google/uuid"
	kafka "github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
)

const (
	purchaseOutcomeCompleted = "completed"
	purchaseOutcomeReplayed  = "replayed"
	purchaseOutcomeRejected  = "rejected"
	purchaseOutcomeFailed    = "failed"
)

func (s *reservationService) Purchase(ctx context.Context, in PurchaseInput) (*PurchaseOutput, error) {
	if in.EventID == "" || in.UserID == "" || in.WaitingListID == "" {
		return nil, ErrInvalidArgument
	}
	if in.Payment.Reference == "" || in.Payment.Amount < 0 {
		return nil, ErrInvalidPayment
	}

	var out *PurchaseOutput
	err := s.repos.Events.WithTx(ctx, in.EventID, func(ctx context.Context) error {
		out = nil
		now := s.clk.Now()

		e, err := s.repos.Waitlist.Get(ctx, in.WaitingListID)
		if err != nil {
			return err
		}
		if e == nil || e.EventID != in.EventID {
			return ErrOfferNotFound
		}

		// A redelivered payment confirmation gets the original tickets back.
		if e.Status == models.EntryStatusPurchased &&
			e.UserID == in.UserID &&
			e.PaymentReference == in.Payment.Reference {
			tickets, err := s.repos.Tickets.GetMany(ctx, e.TicketIDs)
			if err != nil {
				return err
			}
			out = &PurchaseOutput{Entry: e, Tickets: compactTickets(tickets), Replayed: true}
			return nil
		}

		if e.Status != models.EntryStatusOffered {
			return ErrOfferInvalidState
		}
		if e.HasOfferExpired(now) {
			return ErrOfferExpired
		}
		if e.UserID != in.UserID {
			return ErrOfferOwnershipMismatch
		}

		ev, err := s.getOpenEvent(ctx, in.EventID)
		if err != nil {
			return err
		}

		sold, err := s.repos.Events.GetSoldCount(ctx, ev.ID)
		if err != nil {
			return err
		}
		if sold+e.Quantity > ev.TotalTickets {
			return ErrInsufficientInventory
		}

		var tt *models.TicketType
		if e.TicketTypeID != "" {
			types, err := s.repos.Events.ListTicketTypes(ctx, ev.ID)
			if err != nil {
				return err
			}
			for _, t := range types {
				if t.ID == e.TicketTypeID {
					tt = t
					break
				}
			}
			if tt == nil {
				return ErrTicketTypeNotFound
			}
			if tt.Remaining < e.Quantity {
				return ErrInsufficientInventory
			}
		}

		// All reads are done; everything below is buffered into one MULTI.
		if tt != nil {
			tt.Consume(e.Quantity, now)
			if err := s.repos.Events.SaveTicketType(ctx, tt); err != nil {
				return err
			}
		}
		if err := s.repos.Events.IncrSoldCount(ctx, ev.ID, e.Quantity); err != nil {
			return err
		}

		share := in.Payment.Amount / float64(e.Quantity)
		tickets := make([]*models.Ticket, e.Quantity)
		ticketIDs := make([]string, e.Quantity)
		for i := range tickets {
			tickets[i] = &models.Ticket{
				ID:               uuid.NewString(),
				EventID:          e.EventID,
				UserID:           e.UserID,
				TicketTypeID:     e.TicketTypeID,
				WaitingListID:    e.ID,
				Status:           models.TicketStatusValid,
				Amount:           share,
				Currency:         in.Payment.Currency,
				PaymentReference: in.Payment.Reference,
				PurchasedAt:      now,
				UpdatedAt:        now,
			}
			ticketIDs[i] = tickets[i].ID
		}
		if err := s.repos.Tickets.Create(ctx, tickets...); err != nil {
			return err
		}

		e.MarkPurchased(now, in.Payment.Reference, ticketIDs)
		if err := s.repos.Waitlist.Save(ctx, e); err != nil {
			return err
		}
		if err := s.repos.Waitlist.RemoveOffer(ctx, e.EventID, e.ID); err != nil {
			return err
		}
		if err := s.repos.Jobs.Cancel(ctx, OfferExpiryQueue, e.ID); err != nil {
			return err
		}

		out = &PurchaseOutput{Entry: e, Tickets: tickets}
		return nil
	})
	if err != nil {
		if IsBusinessError(err) {
			metrics.RecordPurchase(purchaseOutcomeRejected)
		} else {
			metrics.RecordPurchase(purchaseOutcomeFailed)
		}
		s.logFailure(ctx, "reservationService.Purchase", err)
		return nil, err
	}

	if out.Replayed {
		metrics.RecordPurchase(purchaseOutcomeReplayed)
		s.l.Infof(ctx, "purchase replayed - entry: %s, payment: %s", out.Entry.ID, in.Payment.Reference)
		return out, nil
	}

	metrics.RecordPurchase(purchaseOutcomeCompleted)
	metrics.RecordTicketsSold(len(out.Tickets))
	s.l.Infof(ctx, "purchase completed - entry: %s, event: %s, tickets: %d", out.Entry.ID, out.Entry.EventID, len(out.Tickets))

	s.publish(ctx, "PublishTicketsPurchased", func() error {
		return s.prod.PublishTicketsPurchased(ctx, kafka.TicketsPurchasedEvent{
			EntryID:          out.Entry.ID,
			EventID:          out.Entry.EventID,
			UserID:           out.Entry.UserID,
			TicketTypeID:     out.Entry.TicketTypeID,
			TicketIDs:        out.Entry.TicketIDs,
			Amount:           in.Payment.Amount,
			Currency:         in.Payment.Currency,
			PaymentReference: in.Payment.Reference,
			PurchasedAt:      *out.Entry.PurchasedAt,
		})
	})

	s.promoteAfter(ctx, in.EventID)

	return out, nil
}

// HandlePaymentConfirmed completes a purchase from a payment gateway
// notification. When an offer token is attached it must be genuine and
// must name the same offer as the notification.
func (s *reservationService) HandlePaymentConfirmed(ctx context.Context, in PaymentConfirmedInput) (*PurchaseOutput, error) {
	if in.OfferToken != "" {
		claims, err := s.tokens.Parse(ctx, in.OfferToken)
		if err != nil {
			return nil, err
		}

		if err := bindClaim(&in.WaitingListID, claims.EntryID); err != nil {
			return nil, err
		}
		if err := bindClaim(&in.EventID, claims.EventID); err != nil {
			return nil, err
		}
		if err := bindClaim(&in.UserID, claims.UserID); err != nil {
			return nil, err
		}
	}

	out, err := s.Purchase(ctx, PurchaseInput{
		EventID:       in.EventID,
		UserID:        in.UserID,
		WaitingListID: in.WaitingListID,
		Payment:       in.Payment,
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// bindClaim fills an empty field from the token, or checks that it agrees.
func bindClaim(field *string, claim string) error {
	if *field == "" {
		*field = claim
		return nil
	}
	if *field != claim {
		return ErrTokenMismatch
	}
	return nil
}

func compactTickets(tickets []*models.Ticket) []*models.Ticket {
	out := make([]*models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

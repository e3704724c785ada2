package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
)

func (c *Consumer) HandlePaymentConfirmed(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.PaymentConfirmedEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandlePaymentConfirmed: %v", err)
		return fmt.Errorf("%w: %v", errMalformedMessage, err)
	}

	out, err := c.svc.HandlePaymentConfirmed(ctx, service.PaymentConfirmedInput{
		EventID:       e.EventID,
		UserID:        e.UserID,
		WaitingListID: e.WaitingListID,
		OfferToken:    e.OfferToken,
		Payment: service.PaymentDetails{
			Reference: e.PaymentReference,
			Amount:    e.Amount,
			Currency:  e.Currency,
		},
	})
	if err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandlePaymentConfirmed: %v", err)
		return err
	}

	c.l.Infof(ctx, "payment confirmed - entry: %s, tickets: %d, replayed: %t", e.WaitingListID, len(out.Tickets), out.Replayed)
	return nil
}

func (c *Consumer) HandleEventCancelled(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.EventCancelledEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleEventCancelled: %v", err)
		return fmt.Errorf("%w: %v", errMalformedMessage, err)
	}

	if _, err := c.svc.CancelEvent(ctx, service.CancelEventInput{
		EventID: e.EventID,
		Reason:  e.Reason,
	}); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleEventCancelled: %v", err)
		return err
	}

	return nil
}

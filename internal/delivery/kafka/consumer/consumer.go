package consumer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

// Handler is the part of the reservation service driven by inbound events.
type Handler interface {
	HandlePaymentConfirmed(ctx context.Context, in service.PaymentConfirmedInput) (*service.PurchaseOutput, error)
	CancelEvent(ctx context.Context, in service.CancelEventInput) (*service.CancelEventOutput, error)
}

var errMalformedMessage = errors.New("malformed message")

const (
	defaultRetryBackoff    = 200 * time.Millisecond
	defaultMaxRetryBackoff = 5 * time.Second
)

type Consumer struct {
	consGr sarama.ConsumerGroup
	svc    Handler
	l      logger.Logger
	wg     sync.WaitGroup

	retryBackoff    time.Duration
	maxRetryBackoff time.Duration
}

func NewConsumer(
	consGr sarama.ConsumerGroup,
	svc Handler,
	l logger.Logger,
) *Consumer {
	return &Consumer{
		consGr:          consGr,
		svc:             svc,
		l:               l,
		retryBackoff:    defaultRetryBackoff,
		maxRetryBackoff: defaultMaxRetryBackoff,
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	switch msg.Topic {
	case kafka.TopicPaymentConfirmed:
		return c.HandlePaymentConfirmed(ctx, msg)
	case kafka.TopicEventCancelled:
		return c.HandleEventCancelled(ctx, msg)
	default:
		c.l.Warnf(ctx, "Unknown topic: %s", msg.Topic)
		return nil
	}
}

// shouldCommit reports whether a message is done with: it succeeded, or it
// can never succeed. Infrastructure failures leave it uncommitted so it is
// delivered again.
func shouldCommit(err error) bool {
	return err == nil || errors.Is(err, errMalformedMessage) || service.IsBusinessError(err)
}

// handle processes msg until it is done with or ctx ends, and reports whether
// msg may be marked. A failed message is retried in place so the partition
// offset never moves past it.
func (c *Consumer) handle(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	backoff := c.retryBackoff
	for attempt := 1; ; attempt++ {
		err := c.processMessage(ctx, msg)
		if shouldCommit(err) {
			if err != nil {
				c.l.Warnf(ctx, "delivery.kafka.consumer.consumer.handle: dropping topic %s offset %d: %v",
					msg.Topic, msg.Offset, err)
			}
			return true
		}

		c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.handle: topic %s offset %d attempt %d: %v",
			msg.Topic, msg.Offset, attempt, err)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.maxRetryBackoff)
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	topics := []string{kafka.TopicPaymentConfirmed, kafka.TopicEventCancelled}
	c.wg.Go(func() {
		for {
			if err := c.consGr.Consume(ctx, topics, c); err != nil {
				c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
			}

			if ctx.Err() != nil {
				c.l.Infof(ctx, "delivery.kafka.consumer.consumer.Start: %v", ctx.Err())
				return
			}
		}
	})

	c.wg.Go(func() {
		for err := range c.consGr.Errors() {
			c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
		}
	})

	c.l.Infof(ctx, "Consumer is consuming topics: %v", topics)
	return nil
}

func (c *Consumer) Close() error {
	if err := c.consGr.Close(); err != nil {
		return err
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session started")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session ended")
	return nil
}

func (c *Consumer) ConsumeClaim(ss sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if !c.handle(ss.Context(), message) {
				return nil
			}
			ss.MarkMessage(message, "")

		case <-ss.Context().Done():
			return nil
		}
	}
}

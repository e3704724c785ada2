package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	kafka "github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

type Producer interface {
	PublishWaitlistJoined(ctx context.Context, event kafka.WaitlistJoinedEvent) error
	PublishOfferGranted(ctx context.Context, event kafka.OfferGrantedEvent) error
	PublishOfferExpired(ctx context.Context, event kafka.OfferExpiredEvent) error
	PublishTicketsPurchased(ctx context.Context, event kafka.TicketsPurchasedEvent) error
	PublishTicketsCancelled(ctx context.Context, event kafka.TicketsCancelledEvent) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishWaitlistJoined(ctx context.Context, event kafka.WaitlistJoinedEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, "PublishWaitlistJoined", kafka.TopicWaitlistJoined, event.EventID, event)
}

func (p *implProducer) PublishOfferGranted(ctx context.Context, event kafka.OfferGrantedEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, "PublishOfferGranted", kafka.TopicOfferGranted, event.EventID, event)
}

func (p *implProducer) PublishOfferExpired(ctx context.Context, event kafka.OfferExpiredEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, "PublishOfferExpired", kafka.TopicOfferExpired, event.EventID, event)
}

func (p *implProducer) PublishTicketsPurchased(ctx context.Context, event kafka.TicketsPurchasedEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, "PublishTicketsPurchased", kafka.TopicTicketsPurchased, event.EventID, event)
}

func (p *implProducer) PublishTicketsCancelled(ctx context.Context, event kafka.TicketsCancelledEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, "PublishTicketsCancelled", kafka.TopicTicketsCancelled, event.EventID, event)
}

// send partitions by event id so consumers see one event's history in order.
func (p *implProducer) send(ctx context.Context, method, topic, key string, event any) error {
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.%s: %v", method, err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	if _, _, err := p.prod.SendMessage(msg); err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.%s: %v", method, err)
		return err
	}

	return nil
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}

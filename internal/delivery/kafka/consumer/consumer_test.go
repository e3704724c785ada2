package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

type stubHandler struct {
	payments []service.PaymentConfirmedInput
	cancels  []service.CancelEventInput
	// paymentErrs are returned one per call before falling back to paymentErr.
	paymentErrs []error
	paymentErr  error
}

func (h *stubHandler) HandlePaymentConfirmed(_ context.Context, in service.PaymentConfirmedInput) (*service.PurchaseOutput, error) {
	h.payments = append(h.payments, in)
	if len(h.paymentErrs) > 0 {
		err := h.paymentErrs[0]
		h.paymentErrs = h.paymentErrs[1:]
		if err != nil {
			return nil, err
		}
		return &service.PurchaseOutput{}, nil
	}
	if h.paymentErr != nil {
		return nil, h.paymentErr
	}
	return &service.PurchaseOutput{}, nil
}

func (h *stubHandler) CancelEvent(_ context.Context, in service.CancelEventInput) (*service.CancelEventOutput, error) {
	h.cancels = append(h.cancels, in)
	return &service.CancelEventOutput{EventID: in.EventID}, nil
}

type fakeSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "member-1" }
func (s *fakeSession) GenerationID() int32                      { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context                 { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	msgs chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return kafka.TopicPaymentConfirmed }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func newTestConsumer(h Handler) *Consumer {
	c := NewConsumer(nil, h, logger.NewTestLogger())
	c.retryBackoff = time.Millisecond
	c.maxRetryBackoff = 4 * time.Millisecond
	return c
}

func paymentMessage(offset int64, entryID string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic:     kafka.TopicPaymentConfirmed,
		Partition: 0,
		Offset:    offset,
		Value:     []byte(`{"waiting_list_id":"` + entryID + `"}`),
	}
}

func entryIDs(in []service.PaymentConfirmedInput) []string {
	ids := make([]string, 0, len(in))
	for _, p := range in {
		ids = append(ids, p.WaitingListID)
	}
	return ids
}

func TestProcessMessage_PaymentConfirmed(t *testing.T) {
	h := &stubHandler{}
	c := newTestConsumer(h)

	err := c.processMessage(context.Background(), &sarama.ConsumerMessage{
		Topic: kafka.TopicPaymentConfirmed,
		Value: []byte(`{"event_id":"evt-1","user_id":"user-a","waiting_list_id":"wl-1","offer_token":"tok","payment_reference":"pay-1","amount":150,"currency":"USD"}`),
	})
	require.NoError(t, err)
	require.Len(t, h.payments, 1)

	got := h.payments[0]
	assert.Equal(t, "evt-1", got.EventID)
	assert.Equal(t, "wl-1", got.WaitingListID)
	assert.Equal(t, "tok", got.OfferToken)
	assert.Equal(t, service.PaymentDetails{Reference: "pay-1", Amount: 150, Currency: "USD"}, got.Payment)
}

func TestProcessMessage_EventCancelled(t *testing.T) {
	h := &stubHandler{}
	c := newTestConsumer(h)

	err := c.processMessage(context.Background(), &sarama.ConsumerMessage{
		Topic: kafka.TopicEventCancelled,
		Value: []byte(`{"event_id":"evt-1","reason":"venue closed"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []service.CancelEventInput{{EventID: "evt-1", Reason: "venue closed"}}, h.cancels)
}

func TestProcessMessage_Malformed(t *testing.T) {
	c := newTestConsumer(&stubHandler{})

	err := c.processMessage(context.Background(), &sarama.ConsumerMessage{
		Topic: kafka.TopicPaymentConfirmed,
		Value: []byte(`{not json`),
	})
	assert.ErrorIs(t, err, errMalformedMessage)
	assert.True(t, shouldCommit(err))
}

func TestShouldCommit(t *testing.T) {
	assert.True(t, shouldCommit(nil))
	assert.True(t, shouldCommit(service.ErrOfferExpired))
	assert.True(t, shouldCommit(&service.RateLimitError{}))
	assert.False(t, shouldCommit(errors.New("redis: connection refused")))
}

func TestConsumeClaim_RetriesInfraFailureInPlace(t *testing.T) {
	infra := errors.New("redis: connection refused")
	h := &stubHandler{paymentErrs: []error{infra, infra}}
	c := newTestConsumer(h)

	sess := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 2)}
	claim.msgs <- paymentMessage(1, "wl-1")
	claim.msgs <- paymentMessage(2, "wl-2")
	close(claim.msgs)

	require.NoError(t, c.ConsumeClaim(sess, claim))
	assert.Equal(t, []int64{1, 2}, sess.marked)
	assert.Equal(t, []string{"wl-1", "wl-1", "wl-1", "wl-2"}, entryIDs(h.payments))
}

func TestConsumeClaim_ShutdownLeavesFailedMessageUncommitted(t *testing.T) {
	h := &stubHandler{paymentErr: errors.New("redis: connection refused")}
	c := newTestConsumer(h)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	sess := &fakeSession{ctx: ctx}
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 2)}
	claim.msgs <- paymentMessage(1, "wl-1")
	claim.msgs <- paymentMessage(2, "wl-2")

	require.NoError(t, c.ConsumeClaim(sess, claim))
	assert.Empty(t, sess.marked)
	assert.NotEmpty(t, h.payments)
	assert.NotContains(t, entryIDs(h.payments), "wl-2")
}

func TestConsumeClaim_CommitsBusinessRejections(t *testing.T) {
	h := &stubHandler{paymentErrs: []error{service.ErrOfferExpired}}
	c := newTestConsumer(h)

	sess := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 3)}
	claim.msgs <- paymentMessage(1, "wl-1")
	claim.msgs <- &sarama.ConsumerMessage{Topic: kafka.TopicPaymentConfirmed, Offset: 2, Value: []byte(`{not json`)}
	claim.msgs <- paymentMessage(3, "wl-3")
	close(claim.msgs)

	require.NoError(t, c.ConsumeClaim(sess, claim))
	assert.Equal(t, []int64{1, 2, 3}, sess.marked)
	assert.Equal(t, []string{"wl-1", "wl-3"}, entryIDs(h.payments))
}

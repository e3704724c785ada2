package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	repo "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/clock"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "ticketbottle-reservation"}

type fixture struct {
	mr     *miniredis.Miniredis
	clk    *clock.Manual
	conf   config.ReservationConfig
	repos  Repositories
	tokens OfferTokenService
	svc    ReservationService
}

func newFixture(t *testing.T, opts ...func(*config.ReservationConfig)) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cli.Close() })

	l := logger.NewTestLogger()
	conf := config.ReservationConfig{
		OfferDuration:       15 * time.Minute,
		RateLimitJoinMax:    3,
		RateLimitJoinWindow: 30 * time.Minute,
		PromoteBatchSize:    100,
		TxMaxRetries:        500,
		WaitingOnCancel:     config.WaitingOnCancelDormant,
	}
	for _, opt := range opts {
		opt(&conf)
	}

	clk := clock.NewManual(baseTime)
	repos := Repositories{
		Events:   repo.NewRedisEventRepository(cli, l, conf.TxMaxRetries),
		Waitlist: repo.NewRedisWaitlistRepository(cli, l),
		Tickets:  repo.NewRedisTicketRepository(cli, l),
		Jobs:     repo.NewRedisJobRepository(cli, l),
	}
	limiter := NewJoinRateLimiter(repo.NewRedisRateLimitRepository(cli, l), conf, clk, l)
	tokens := NewOfferTokenService(testJWT, clk, l)

	return &fixture{
		mr:     mr,
		clk:    clk,
		conf:   conf,
		repos:  repos,
		tokens: tokens,
		svc:    NewReservationService(repos, limiter, tokens, nil, clk, conf, l),
	}
}

func (f *fixture) createEvent(t *testing.T, id string, total int, types ...TicketTypeInput) {
	t.Helper()
	_, err := f.svc.CreateEvent(context.Background(), CreateEventInput{
		ID:           id,
		Name:         "Event " + id,
		OrganizerID:  "org-1",
		TotalTickets: total,
		TicketTypes:  types,
	})
	require.NoError(t, err)
}

func (f *fixture) join(t *testing.T, eventID, userID, typeID string, qty int) *JoinWaitingListOutput {
	t.Helper()
	out, err := f.svc.JoinWaitingList(context.Background(), JoinWaitingListInput{
		EventID:      eventID,
		UserID:       userID,
		TicketTypeID: typeID,
		Quantity:     qty,
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) entry(t *testing.T, id string) *models.WaitingListEntry {
	t.Helper()
	e, err := f.repos.Waitlist.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, e)
	return e
}

// assertNoOverAllocation checks sold + held against every cap of the event.
func (f *fixture) assertNoOverAllocation(t *testing.T, eventID string) {
	t.Helper()
	av, err := f.svc.GetAvailability(context.Background(), eventID)
	require.NoError(t, err)

	assert.LessOrEqual(t, av.PurchasedCount+av.ActiveOffers, av.TotalTickets)
	for _, tt := range av.TicketTypes {
		sold := tt.Quantity - tt.Remaining
		assert.LessOrEqual(t, sold+tt.Held, tt.Quantity, "ticket type %s", tt.TicketTypeID)
	}
}

func TestJoinWaitingList_OfferThenWait(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 1)

	a := f.join(t, "evt-1", "user-a", "", 1)
	require.Equal(t, models.EntryStatusOffered, a.Entry.Status)
	require.NotNil(t, a.Entry.OfferExpiresAt)
	assert.Equal(t, int64(900000), a.Entry.OfferExpiresAt.Sub(baseTime).Milliseconds())
	assert.NotEmpty(t, a.OfferToken)

	due, ok, err := f.repos.Jobs.DueAt(ctx, OfferExpiryQueue, a.Entry.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, due.Equal(*a.Entry.OfferExpiresAt))

	b := f.join(t, "evt-1", "user-b", "", 1)
	assert.Equal(t, models.EntryStatusWaiting, b.Entry.Status)
	assert.Nil(t, b.Entry.OfferExpiresAt)
	assert.EqualValues(t, 1, b.Position)
	assert.Empty(t, b.OfferToken)

	av, err := f.svc.GetAvailability(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, av.Available)
	assert.Equal(t, 0, av.AvailableSpots)
	assert.Equal(t, 1, av.ActiveOffers)
}

func TestJoinWaitingList_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 10, TicketTypeInput{ID: "ga", Name: "GA", Price: 10, Quantity: 4})
	f.createEvent(t, "evt-gone", 10)
	_, err := f.svc.CancelEvent(ctx, CancelEventInput{EventID: "evt-gone"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   JoinWaitingListInput
		want error
	}{
		{"unknown event", JoinWaitingListInput{EventID: "nope", UserID: "u1"}, ErrEventNotFound},
		{"cancelled event", JoinWaitingListInput{EventID: "evt-gone", UserID: "u2"}, ErrEventCancelled},
		{"unknown ticket type", JoinWaitingListInput{EventID: "evt-1", UserID: "u3", TicketTypeID: "vip"}, ErrTicketTypeNotFound},
		{"more than the type holds", JoinWaitingListInput{EventID: "evt-1", UserID: "u4", TicketTypeID: "ga", Quantity: 5}, ErrInsufficientInventory},
		{"negative quantity", JoinWaitingListInput{EventID: "evt-1", UserID: "u5", Quantity: -1}, ErrInvalidQuantity},
		{"missing user", JoinWaitingListInput{EventID: "evt-1"}, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.JoinWaitingList(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestJoinWaitingList_AlreadyQueuedThenRateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 1)

	f.join(t, "evt-1", "user-a", "", 1)

	for i := 0; i < 2; i++ {
		_, err := f.svc.JoinWaitingList(ctx, JoinWaitingListInput{EventID: "evt-1", UserID: "user-a"})
		require.ErrorIs(t, err, ErrAlreadyQueued)
	}

	f.clk.Advance(time.Minute)
	_, err := f.svc.JoinWaitingList(ctx, JoinWaitingListInput{EventID: "evt-1", UserID: "user-a"})
	require.ErrorIs(t, err, ErrRateLimitExceeded)

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Greater(t, rl.RetryAfter, time.Duration(0))
	assert.Equal(t, 29*time.Minute, rl.RetryAfter)

	// a rejected attempt leaves no entry behind
	pos, err := f.svc.GetQueuePosition(ctx, "evt-1", "user-a")
	require.NoError(t, err)
	assert.Equal(t, models.EntryStatusOffered, pos.Status)
}

func TestJoinWaitingList_RejoinAfterExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 1)

	first := f.join(t, "evt-1", "user-a", "", 1)
	f.clk.Advance(15 * time.Minute)

	// the stale offer no longer blocks nor holds capacity
	second := f.join(t, "evt-1", "user-a", "", 1)
	assert.NotEqual(t, first.Entry.ID, second.Entry.ID)
	assert.Equal(t, models.EntryStatusOffered, second.Entry.Status)

	res, err := f.svc.ExpireOffer(ctx, first.Entry.ID)
	require.NoError(t, err)
	assert.True(t, res.Expired)
	assert.Equal(t, models.EntryStatusOffered, f.entry(t, second.Entry.ID).Status)
	f.assertNoOverAllocation(t, "evt-1")
}

func TestJoinWaitingList_ConcurrentJoinsForLastSpot(t *testing.T) {
	f := newFixture(t)
	f.createEvent(t, "evt-1", 10, TicketTypeInput{ID: "ga", Name: "GA", Price: 50, Quantity: 1})

	statuses := make([]models.EntryStatus, 2)
	var wg sync.WaitGroup
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := f.svc.JoinWaitingList(context.Background(), JoinWaitingListInput{
				EventID:      "evt-1",
				UserID:       fmt.Sprintf("user-%d", i),
				TicketTypeID: "ga",
				Quantity:     1,
			})
			if assert.NoError(t, err) {
				statuses[i] = out.Entry.Status
			}
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []models.EntryStatus{models.EntryStatusOffered, models.EntryStatusWaiting}, statuses)
	f.assertNoOverAllocation(t, "evt-1")
}

func TestJoinWaitingList_ConcurrentBurst(t *testing.T) {
	f := newFixture(t)
	f.createEvent(t, "evt-1", 5)

	const users = 20
	var (
		mu      sync.Mutex
		offered int
		waiting int
		wg      sync.WaitGroup
	)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := f.svc.JoinWaitingList(context.Background(), JoinWaitingListInput{
				EventID: "evt-1",
				UserID:  fmt.Sprintf("user-%d", i),
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if out.Entry.Status == models.EntryStatusOffered {
				offered++
			} else {
				waiting++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, offered)
	assert.Equal(t, users-5, waiting)
	f.assertNoOverAllocation(t, "evt-1")
}

func TestPurchase_SplitsPaymentAcrossTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 10, TicketTypeInput{ID: "ga", Name: "GA", Price: 30, Quantity: 5})

	offer := f.join(t, "evt-1", "user-a", "ga", 3)
	require.Equal(t, models.EntryStatusOffered, offer.Entry.Status)

	out, err := f.svc.Purchase(ctx, PurchaseInput{
		EventID:       "evt-1",
		UserID:        "user-a",
		WaitingListID: offer.Entry.ID,
		Payment:       PaymentDetails{Reference: "pay-1", Amount: 90, Currency: "USD"},
	})
	require.NoError(t, err)
	require.Len(t, out.Tickets, 3)
	for _, tk := range out.Tickets {
		assert.InDelta(t, 30.0, tk.Amount, 1e-9)
		assert.Equal(t, models.TicketStatusValid, tk.Status)
		assert.Equal(t, "pay-1", tk.PaymentReference)
		assert.Equal(t, "ga", tk.TicketTypeID)
	}

	e := f.entry(t, offer.Entry.ID)
	assert.Equal(t, models.EntryStatusPurchased, e.Status)
	assert.Nil(t, e.OfferExpiresAt)
	assert.Len(t, e.TicketIDs, 3)

	av, err := f.svc.GetAvailability(ctx, "evt-1")
	require.NoError(t, err)
	require.Len(t, av.TicketTypes, 1)
	assert.Equal(t, 2, av.TicketTypes[0].Remaining)
	assert.Equal(t, 3, av.PurchasedCount)
	assert.Equal(t, 0, av.ActiveOffers)
	assert.Equal(t, 7, av.AvailableSpots)

	_, ok, err := f.repos.Jobs.DueAt(ctx, OfferExpiryQueue, offer.Entry.ID)
	require.NoError(t, err)
	assert.False(t, ok, "expiry job is cancelled on purchase")

	tickets, err := f.svc.GetUserTickets(ctx, "user-a")
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
}

func TestPurchase_AfterOfferExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 1)

	offer := f.join(t, "evt-1", "user-a", "", 1)
	f.clk.Advance(16 * time.Minute)

	_, err := f.svc.Purchase(ctx, PurchaseInput{
		EventID:       "evt-1",
		UserID:        "user-a",
		WaitingListID: offer.Entry.ID,
		Payment:       PaymentDetails{Reference: "pay-1", Amount: 10},
	})
	require.ErrorIs(t, err, ErrOfferExpired)

	tickets, err := f.svc.GetUserTickets(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.Equal(t, models.EntryStatusOffered, f.entry(t, offer.Entry.ID).Status)
}

func TestOfferDeadline_SubMillisecondClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 1)

	f.clk.Set(baseTime.Add(700 * time.Microsecond))
	a := f.join(t, "evt-1", "user-a", "", 1)
	require.NotNil(t, a.Entry.OfferExpiresAt)
	assert.Equal(t, baseTime.Add(15*time.Minute), *a.Entry.OfferExpiresAt)

	f.clk.Set(baseTime.Add(15*time.Minute - 300*time.Microsecond))
	b := f.join(t, "evt-1", "user-b", "", 1)
	assert.Equal(t, models.EntryStatusWaiting, b.Entry.Status)
	f.assertNoOverAllocation(t, "evt-1")

	f.clk.Set(baseTime.Add(15*time.Minute + 100*time.Microsecond))
	_, err := f.svc.Purchase(ctx, PurchaseInput{
		EventID:       "evt-1",
		UserID:        "user-a",
		WaitingListID: a.Entry.ID,
		Payment:       PaymentDetails{Reference: "pay-a", Amount: 10},
	})
	require.ErrorIs(t, err, ErrOfferExpired)

	_, err = f.svc.ExpireOffer(ctx, a.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EntryStatusOffered, f.entry(t, b.Entry.ID).Status)
	f.assertNoOverAllocation(t, "evt-1")

	av, err := f.svc.GetAvailability(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 0, av.PurchasedCount)
	assert.Equal(t, 1, av.ActiveOffers)
}

func TestPurchase_Preconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 1)

	offer := f.join(t, "evt-1", "user-a", "", 1)
	waiting := f.join(t, "evt-1", "user-b", "", 1)
	pay := PaymentDetails{Reference: "pay-1", Amount: 10}

	tests := []struct {
		name string
		in   PurchaseInput
		want error
	}{
		{"unknown entry", PurchaseInput{EventID: "evt-1", UserID: "user-a", WaitingListID: "nope", Payment: pay}, ErrOfferNotFound},
		{"entry of another event", PurchaseInput{EventID: "evt-2", UserID: "user-a", WaitingListID: offer.Entry.ID, Payment: pay}, ErrOfferNotFound},
		{"still waiting", PurchaseInput{EventID: "evt-1", UserID: "user-b", WaitingListID: waiting.Entry.ID, Payment: pay}, ErrOfferInvalidState},
		{"someone else's offer", PurchaseInput{EventID: "evt-1", UserID: "user-b", WaitingListID: offer.Entry.ID, Payment: pay}, ErrOfferOwnershipMismatch},
		{"no payment reference", PurchaseInput{EventID: "evt-1", UserID: "user-a", WaitingListID: offer.Entry.ID}, ErrInvalidPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Purchase(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPurchase_ReplayAndDoublePurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 2)

	offer := f.join(t, "evt-1", "user-a", "", 2)
	in := PurchaseInput{
		EventID:       "evt-1",
		UserID:        "user-a",
		WaitingListID: offer.Entry.ID,
		Payment:       PaymentDetails{Reference: "pay-1", Amount: 40},
	}

	first, err := f.svc.Purchase(ctx, in)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	again, err := f.svc.Purchase(ctx, in)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.ElementsMatch(t, first.Entry.TicketIDs, again.Entry.TicketIDs)
	assert.Len(t, again.Tickets, 2)

	in.Payment.Reference = "pay-2"
	_, err = f.svc.Purchase(ctx, in)
	assert.ErrorIs(t, err, ErrOfferInvalidState)

	av, err := f.svc.GetAvailability(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 2, av.PurchasedCount)

	// one purchase per user and event
	_, err = f.svc.JoinWaitingList(ctx, JoinWaitingListInput{EventID: "evt-1", UserID: "user-a"})
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestPurchase_RepurchaseAllowed(t *testing.T) {
	f := newFixture(t, func(c *config.ReservationConfig) { c.AllowRepurchase = true })
	ctx := context.Background()
	f.createEvent(t, "evt-1", 5)

	offer := f.join(t, "evt-1", "user-a", "", 1)
	_, err := f.svc.Purchase(ctx, PurchaseInput{
		EventID: "evt-1", UserID: "user-a", WaitingListID: offer.Entry.ID,
		Payment: PaymentDetails{Reference: "pay-1", Amount: 10},
	})
	require.NoError(t, err)

	again := f.join(t, "evt-1", "user-a", "", 1)
	assert.Equal(t, models.EntryStatusOffered, again.Entry.Status)
}

func TestHandlePaymentConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 3)

	a := f.join(t, "evt-1", "user-a", "", 1)
	b := f.join(t, "evt-1", "user-b", "", 1)

	t.Run("token fills in the offer", func(t *testing.T) {
		out, err := f.svc.HandlePaymentConfirmed(ctx, PaymentConfirmedInput{
			OfferToken: a.OfferToken,
			Payment:    PaymentDetails{Reference: "pay-a", Amount: 15},
		})
		require.NoError(t, err)
		assert.Equal(t, a.Entry.ID, out.Entry.ID)
		assert.Len(t, out.Tickets, 1)
	})

	t.Run("token for another offer", func(t *testing.T) {
		_, err := f.svc.HandlePaymentConfirmed(ctx, PaymentConfirmedInput{
			WaitingListID: b.Entry.ID,
			OfferToken:    a.OfferToken,
			Payment:       PaymentDetails{Reference: "pay-b", Amount: 15},
		})
		assert.ErrorIs(t, err, ErrTokenMismatch)
	})

	t.Run("forged token", func(t *testing.T) {
		_, err := f.svc.HandlePaymentConfirmed(ctx, PaymentConfirmedInput{
			OfferToken: "not-a-token",
			Payment:    PaymentDetails{Reference: "pay-b", Amount: 15},
		})
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("no token", func(t *testing.T) {
		out, err := f.svc.HandlePaymentConfirmed(ctx, PaymentConfirmedInput{
			EventID:       "evt-1",
			UserID:        "user-b",
			WaitingListID: b.Entry.ID,
			Payment:       PaymentDetails{Reference: "pay-b", Amount: 15},
		})
		require.NoError(t, err)
		assert.Equal(t, models.EntryStatusPurchased, out.Entry.Status)
	})
}

func TestGetQueuePosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 1)

	f.join(t, "evt-1", "user-a", "", 1)
	f.join(t, "evt-1", "user-b", "", 1)
	f.join(t, "evt-1", "user-c", "", 1)

	pos, err := f.svc.GetQueuePosition(ctx, "evt-1", "user-c")
	require.NoError(t, err)
	assert.Equal(t, models.EntryStatusWaiting, pos.Status)
	assert.EqualValues(t, 2, pos.Position)
	assert.EqualValues(t, 2, pos.QueueLength)

	_, err = f.svc.GetQueuePosition(ctx, "evt-1", "user-z")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	f.clk.Advance(20 * time.Minute)
	pos, err = f.svc.GetQueuePosition(ctx, "evt-1", "user-a")
	require.NoError(t, err)
	assert.Equal(t, models.EntryStatusExpired, pos.Status)
	assert.Equal(t, models.EntryStatusOffered, pos.Entry.Status)
}

func TestCreateEvent_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, "evt-1", 10)

	_, err := f.svc.CreateEvent(ctx, CreateEventInput{ID: "evt-1", Name: "dup", TotalTickets: 1})
	assert.ErrorIs(t, err, ErrEventAlreadyExists)

	_, err = f.svc.CreateEvent(ctx, CreateEventInput{Name: "empty", TotalTickets: 0})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = f.svc.CreateEvent(ctx, CreateEventInput{
		Name: "dup types", TotalTickets: 5,
		TicketTypes: []TicketTypeInput{{ID: "a", Quantity: 1}, {ID: "a", Quantity: 2}},
	})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	out, err := f.svc.CreateEvent(ctx, CreateEventInput{
		Name: "generated ids", TotalTickets: 5,
		TicketTypes: []TicketTypeInput{{Name: "GA", Quantity: 5}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Event.ID)
	require.Len(t, out.TicketTypes, 1)
	assert.NotEmpty(t, out.TicketTypes[0].ID)
	assert.Equal(t, 5, out.TicketTypes[0].Remaining)
}

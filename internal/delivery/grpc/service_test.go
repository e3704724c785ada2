package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
	repo "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/clock"
	pb "github.com/vogiaan1904/ticketbottle-reservation/pkg/grpc/ticketingv1"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	resp "github.com/vogiaan1904/ticketbottle-reservation/pkg/response"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func newTestClient(t *testing.T) pb.TicketingServiceClient {
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
		TxMaxRetries:        100,
		WaitingOnCancel:     config.WaitingOnCancelDormant,
	}
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	repos := service.Repositories{
		Events:   repo.NewRedisEventRepository(cli, l, conf.TxMaxRetries),
		Waitlist: repo.NewRedisWaitlistRepository(cli, l),
		Tickets:  repo.NewRedisTicketRepository(cli, l),
		Jobs:     repo.NewRedisJobRepository(cli, l),
	}
	limiter := service.NewJoinRateLimiter(repo.NewRedisRateLimitRepository(cli, l), conf, clk, l)
	tokens := service.NewOfferTokenService(config.JWTConfig{Secret: "test-secret", Issuer: "test"}, clk, l)
	svc := service.NewReservationService(repos, limiter, tokens, nil, clk, conf, l)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryLoggingInterceptor(l)))
	pb.RegisterTicketingServiceServer(srv, NewGrpcService(svc, l))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return pb.NewTicketingServiceClient(conn)
}

func TestTicketingService_JoinAndPurchase(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	created, err := c.CreateEvent(ctx, &pb.CreateEventRequest{
		Id:           "evt-1",
		Name:         "Launch",
		TotalTickets: 10,
		TicketTypes:  []*pb.TicketTypeInput{{Id: "vip", Name: "VIP", Price: 50, Quantity: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", created.Event.Id)
	require.Len(t, created.TicketTypes, 1)
	assert.Equal(t, int32(5), created.TicketTypes[0].Remaining)

	joined, err := c.JoinWaitingList(ctx, &pb.JoinWaitingListRequest{
		EventId:      "evt-1",
		UserId:       "user-a",
		TicketTypeId: "vip",
		Quantity:     3,
	})
	require.NoError(t, err)
	assert.Equal(t, "offered", joined.Entry.Status)
	assert.Equal(t, "2026-03-01T12:15:00.000Z", joined.Entry.OfferExpiresAt)
	assert.NotEmpty(t, joined.OfferToken)

	bought, err := c.Purchase(ctx, &pb.PurchaseRequest{
		EventId:          "evt-1",
		UserId:           "user-a",
		WaitingListId:    joined.Entry.Id,
		PaymentReference: "pay-1",
		Amount:           150,
		Currency:         "USD",
	})
	require.NoError(t, err)
	require.Len(t, bought.Tickets, 3)
	for _, tk := range bought.Tickets {
		assert.InDelta(t, 50.0, tk.Amount, 1e-9)
	}
	assert.Equal(t, "purchased", bought.Entry.Status)

	av, err := c.GetAvailability(ctx, &pb.GetAvailabilityRequest{EventId: "evt-1"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), av.PurchasedCount)
	require.Len(t, av.TicketTypes, 1)
	assert.Equal(t, int32(2), av.TicketTypes[0].Remaining)

	tickets, err := c.GetUserTickets(ctx, &pb.GetUserTicketsRequest{UserId: "user-a"})
	require.NoError(t, err)
	assert.Len(t, tickets.Tickets, 3)
}

func TestTicketingService_QueuePosition(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateEvent(ctx, &pb.CreateEventRequest{Id: "evt-1", Name: "Small room", TotalTickets: 1})
	require.NoError(t, err)

	_, err = c.JoinWaitingList(ctx, &pb.JoinWaitingListRequest{EventId: "evt-1", UserId: "user-a"})
	require.NoError(t, err)
	waiting, err := c.JoinWaitingList(ctx, &pb.JoinWaitingListRequest{EventId: "evt-1", UserId: "user-b"})
	require.NoError(t, err)
	assert.Equal(t, "waiting", waiting.Entry.Status)
	assert.Empty(t, waiting.OfferToken)

	pos, err := c.GetQueuePosition(ctx, &pb.GetQueuePositionRequest{EventId: "evt-1", UserId: "user-b"})
	require.NoError(t, err)
	assert.Equal(t, "waiting", pos.Status)
	assert.Equal(t, int64(1), pos.Position)
	assert.Equal(t, int64(1), pos.QueueLength)
}

func TestTicketingService_ErrorCodes(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.JoinWaitingList(ctx, &pb.JoinWaitingListRequest{EventId: "missing", UserId: "user-a"})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "RSV003")

	_, err = c.CreateEvent(ctx, &pb.CreateEventRequest{Id: "evt-1", Name: "Launch", TotalTickets: 2})
	require.NoError(t, err)

	_, err = c.CreateEvent(ctx, &pb.CreateEventRequest{Id: "evt-1", Name: "Launch", TotalTickets: 2})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = c.Purchase(ctx, &pb.PurchaseRequest{EventId: "evt-1", UserId: "user-a", WaitingListId: "nope", PaymentReference: "p", Amount: 1})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "RSV008")

	_, err = c.GetQueuePosition(ctx, &pb.GetQueuePositionRequest{EventId: "evt-1", UserId: "nobody"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestTicketingService_RateLimitCarriesRetryInfo(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateEvent(ctx, &pb.CreateEventRequest{Id: "evt-1", Name: "Launch", TotalTickets: 5})
	require.NoError(t, err)

	_, err = c.JoinWaitingList(ctx, &pb.JoinWaitingListRequest{EventId: "evt-1", UserId: "user-a"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = c.JoinWaitingList(ctx, &pb.JoinWaitingListRequest{EventId: "evt-1", UserId: "user-a"})
		require.Equal(t, codes.AlreadyExists, status.Code(err))
	}

	_, err = c.JoinWaitingList(ctx, &pb.JoinWaitingListRequest{EventId: "evt-1", UserId: "user-a"})
	st := status.Convert(err)
	require.Equal(t, codes.ResourceExhausted, st.Code())
	assert.Contains(t, st.Message(), "RSV001")

	var retry *errdetails.RetryInfo
	for _, d := range st.Details() {
		if ri, ok := d.(*errdetails.RetryInfo); ok {
			retry = ri
		}
	}
	require.NotNil(t, retry)
	assert.Greater(t, retry.RetryDelay.AsDuration(), time.Duration(0))
}

func TestMapGRPCError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{name: "wrapped sentinel", err: errors.Join(errors.New("tx"), service.ErrOfferExpired), code: codes.FailedPrecondition},
		{name: "ownership", err: service.ErrOfferOwnershipMismatch, code: codes.PermissionDenied},
		{name: "token", err: service.ErrTokenInvalid, code: codes.Unauthenticated},
		{name: "contention", err: repo.ErrTxConflict, code: codes.Aborted},
		{name: "storage failure", err: errors.New("connection refused"), code: codes.Internal},
		{name: "deadline", err: context.DeadlineExceeded, code: codes.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := status.Code(resp.ParseGRPCError(mapGRPCError(tt.err)))
			assert.Equal(t, tt.code, got)
		})
	}
}

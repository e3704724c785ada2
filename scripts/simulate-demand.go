package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	pkgGrpc "github.com/vogiaan1904/ticketbottle-reservation/pkg/grpc"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/grpc/ticketingv1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	addr         = flag.String("addr", "localhost:50057", "Reservation service gRPC address")
	eventID      = flag.String("event", "", "Event ID (created when missing)")
	totalTickets = flag.Int("tickets", 100, "Capacity of the event created by the simulator")
	numUsers     = flag.Int("users", 300, "Number of users competing for tickets")
	quantity     = flag.Int("quantity", 1, "Tickets requested per user")
	concurrency  = flag.Int("concurrency", 50, "Concurrent joins in flight")
	purchaseRate = flag.Float64("purchase-rate", 0.7, "Probability an offered user completes the purchase (0.0-1.0)")
	price        = flag.Float64("price", 25, "Price per ticket paid by simulated users")
)

type stats struct {
	offered     atomic.Int64
	waiting     atomic.Int64
	purchased   atomic.Int64
	rateLimited atomic.Int64
	rejected    atomic.Int64
	failed      atomic.Int64
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli, closeCli, err := pkgGrpc.NewTicketingClient(*addr)
	if err != nil {
		fmt.Printf("Failed to connect to %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer closeCli()

	if *eventID == "" {
		*eventID = "sim-" + uuid.NewString()[:8]
	}
	if err := ensureEvent(ctx, cli, *eventID); err != nil {
		fmt.Printf("Failed to prepare event: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Event %s ready (%d tickets)\n", *eventID, *totalTickets)

	var (
		st  stats
		wg  sync.WaitGroup
		sem = make(chan struct{}, *concurrency)
	)

	start := time.Now()
	for i := 0; i < *numUsers; i++ {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			defer func() { <-sem }()
			simulateUser(ctx, cli, userID, &st)
		}(fmt.Sprintf("sim-user-%04d", i))
	}
	wg.Wait()

	fmt.Printf("\n📊 Joins finished in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("   offered:      %d\n", st.offered.Load())
	fmt.Printf("   waiting:      %d\n", st.waiting.Load())
	fmt.Printf("   purchased:    %d\n", st.purchased.Load())
	fmt.Printf("   rate limited: %d\n", st.rateLimited.Load())
	fmt.Printf("   rejected:     %d\n", st.rejected.Load())
	fmt.Printf("   failed:       %d\n", st.failed.Load())

	av, err := cli.GetAvailability(ctx, &ticketingv1.GetAvailabilityRequest{EventId: *eventID})
	if err != nil {
		fmt.Printf("Failed to read availability: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n🎟  sold: %d, held: %d, spots left: %d of %d\n",
		av.PurchasedCount, av.ActiveOffers, av.AvailableSpots, av.TotalTickets)

	if av.PurchasedCount+av.ActiveOffers > av.TotalTickets {
		fmt.Println("❌ capacity exceeded")
		os.Exit(1)
	}
}

func ensureEvent(ctx context.Context, cli ticketingv1.TicketingServiceClient, id string) error {
	_, err := cli.CreateEvent(ctx, &ticketingv1.CreateEventRequest{
		Id:           id,
		Name:         "Simulated demand " + id,
		TotalTickets: int32(*totalTickets),
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	return err
}

func simulateUser(ctx context.Context, cli ticketingv1.TicketingServiceClient, userID string, st *stats) {
	joined, err := cli.JoinWaitingList(ctx, &ticketingv1.JoinWaitingListRequest{
		EventId:  *eventID,
		UserId:   userID,
		Quantity: int32(*quantity),
	})
	switch status.Code(err) {
	case codes.OK:
	case codes.ResourceExhausted:
		st.rateLimited.Add(1)
		return
	case codes.AlreadyExists, codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound:
		st.rejected.Add(1)
		return
	default:
		st.failed.Add(1)
		fmt.Printf("join %s: %v\n", userID, err)
		return
	}

	if joined.Entry.Status != "offered" {
		st.waiting.Add(1)
		return
	}
	st.offered.Add(1)

	if rand.Float64() >= *purchaseRate {
		return
	}

	time.Sleep(time.Duration(rand.Intn(200)) * time.Millisecond)
	_, err = cli.Purchase(ctx, &ticketingv1.PurchaseRequest{
		EventId:          *eventID,
		UserId:           userID,
		WaitingListId:    joined.Entry.Id,
		PaymentReference: "sim-pay-" + uuid.NewString(),
		Amount:           *price * float64(*quantity),
		Currency:         "USD",
	})
	if err != nil {
		st.failed.Add(1)
		fmt.Printf("purchase %s: %v\n", userID, err)
		return
	}
	st.purchased.Add(1)
}

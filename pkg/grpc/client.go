package grpc

import (
	"log"

	"github.com/vogiaan1904/ticketbottle-reservation/pkg/grpc/ticketingv1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type CleanupFunc func()

// NewTicketingClient dials the reservation service. Extra options are applied
// after the insecure transport credentials, so callers may override them.
func NewTicketingClient(addr string, opts ...grpc.DialOption) (ticketingv1.TicketingServiceClient, CleanupFunc, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		log.Println("gRpc Ticketing client connection failed.", err)
		return nil, nil, err
	}

	log.Println("gRpc Ticketing client connection established.")
	return ticketingv1.NewTicketingServiceClient(conn), func() { conn.Close() }, nil
}

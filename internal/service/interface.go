package service

import (
	"context"

	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
)

type ReservationService interface {
	// Admission
	JoinWaitingList(ctx context.Context, in JoinWaitingListInput) (*JoinWaitingListOutput, error)
	Purchase(ctx context.Context, in PurchaseInput) (*PurchaseOutput, error)
	HandlePaymentConfirmed(ctx context.Context, in PaymentConfirmedInput) (*PurchaseOutput, error)

	// Scheduling
	PromoteWaitlist(ctx context.Context, eventID string, maxEntries int) (*PromoteOutput, error)
	ExpireOffer(ctx context.Context, entryID string) (*ExpireOfferOutput, error)

	// Queries
	GetAvailability(ctx context.Context, eventID string) (*Availability, error)
	GetQueuePosition(ctx context.Context, eventID, userID string) (*QueuePositionOutput, error)
	GetUserTickets(ctx context.Context, userID string) ([]*models.Ticket, error)

	// Administration
	CreateEvent(ctx context.Context, in CreateEventInput) (*CreateEventOutput, error)
	CancelEvent(ctx context.Context, in CancelEventInput) (*CancelEventOutput, error)
	CleanupExpiredReservations(ctx context.Context) (*CleanupOutput, error)
	ProcessWaitlist(ctx context.Context, maxEntries int) (*ProcessWaitlistOutput, error)
}

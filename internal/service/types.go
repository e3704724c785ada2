package service

import (
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
)

type JoinWaitingListInput struct {
	EventID      string
	UserID       string
	TicketTypeID string
	Quantity     int
}

type JoinWaitingListOutput struct {
	Entry *models.WaitingListEntry
	// OfferToken is set when the entry was offered immediately.
	OfferToken string
	// Position is the 1-based place in the queue when the entry is waiting.
	Position int64
}

type PaymentDetails struct {
	Reference string
	Amount    float64
	Currency  string
}

type PurchaseInput struct {
	EventID       string
	UserID        string
	WaitingListID string
	Payment       PaymentDetails
}

type PurchaseOutput struct {
	Entry   *models.WaitingListEntry
	Tickets []*models.Ticket
	// Replayed is true when the same payment had already completed this purchase.
	Replayed bool
}

type PaymentConfirmedInput struct {
	EventID       string
	UserID        string
	WaitingListID string
	OfferToken    string
	Payment       PaymentDetails
}

type PromoteOutput struct {
	EventID  string
	Promoted []*models.WaitingListEntry
}

type ExpireOfferOutput struct {
	Entry       *models.WaitingListEntry
	Expired     bool
	Rescheduled bool
}

type CleanupOutput struct {
	Expired int
	Events  int
}

type ProcessWaitlistOutput struct {
	Promoted int
	Events   int
}

type QueuePositionOutput struct {
	Entry *models.WaitingListEntry
	// Status is the entry status as of now: an offer past its deadline is
	// reported as expired even before the scheduler has processed it.
	Status      models.EntryStatus
	Position    int64
	QueueLength int64
}

type TicketTypeInput struct {
	ID       string
	Name     string
	Price    float64
	Quantity int
}

type CreateEventInput struct {
	ID           string
	Name         string
	OrganizerID  string
	TotalTickets int
	TicketTypes  []TicketTypeInput
}

type CreateEventOutput struct {
	Event       *models.Event
	TicketTypes []*models.TicketType
}

type CancelEventInput struct {
	EventID string
	Reason  string
}

type CancelEventOutput struct {
	EventID          string
	CancelledTickets int
	ExpiredEntries   int
	AlreadyCancelled bool
	CancelledAt      time.Time
}

package kafka

import "time"

// Events published BY Reservation Service

type WaitlistJoinedEvent struct {
	EntryID      string    `json:"entry_id"`
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	TicketTypeID string    `json:"ticket_type_id,omitempty"`
	Quantity     int       `json:"quantity"`
	Position     int64     `json:"position"`
	JoinedAt     time.Time `json:"joined_at"`
	Timestamp    time.Time `json:"timestamp"`
}

type OfferGrantedEvent struct {
	EntryID        string    `json:"entry_id"`
	EventID        string    `json:"event_id"`
	UserID         string    `json:"user_id"`
	TicketTypeID   string    `json:"ticket_type_id,omitempty"`
	Quantity       int       `json:"quantity"`
	OfferToken     string    `json:"offer_token"`
	OfferExpiresAt time.Time `json:"offer_expires_at"`
	Promoted       bool      `json:"promoted"` // granted from the waiting list
	Timestamp      time.Time `json:"timestamp"`
}

type OfferExpiredEvent struct {
	EntryID   string    `json:"entry_id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	ExpiredAt time.Time `json:"expired_at"`
	Timestamp time.Time `json:"timestamp"`
}

type TicketsPurchasedEvent struct {
	EntryID          string    `json:"entry_id"`
	EventID          string    `json:"event_id"`
	UserID           string    `json:"user_id"`
	TicketTypeID     string    `json:"ticket_type_id,omitempty"`
	TicketIDs        []string  `json:"ticket_ids"`
	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency,omitempty"`
	PaymentReference string    `json:"payment_reference"`
	PurchasedAt      time.Time `json:"purchased_at"`
	Timestamp        time.Time `json:"timestamp"`
}

type TicketsCancelledEvent struct {
	EventID     string    `json:"event_id"`
	TicketIDs   []string  `json:"ticket_ids"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
	Timestamp   time.Time `json:"timestamp"`
}

// Events consumed BY Reservation Service

// PaymentConfirmedEvent comes from the payment gateway once a charge for an
// offer has been captured.
type PaymentConfirmedEvent struct {
	EventID          string    `json:"event_id"`
	UserID           string    `json:"user_id"`
	WaitingListID    string    `json:"waiting_list_id"`
	OfferToken       string    `json:"offer_token,omitempty"`
	PaymentReference string    `json:"payment_reference"`
	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency"`
	Timestamp        time.Time `json:"timestamp"`
}

// EventCancelledEvent comes from the event catalog when an organizer cancels.
type EventCancelledEvent struct {
	EventID   string    `json:"event_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

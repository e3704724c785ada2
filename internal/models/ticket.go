package models

import "time"

type TicketStatus string

const (
	TicketStatusValid     TicketStatus = "valid"
	TicketStatusUsed      TicketStatus = "used"
	TicketStatusRefunded  TicketStatus = "refunded"
	TicketStatusCancelled TicketStatus = "cancelled"
)

type Ticket struct {
	ID               string       `json:"id"`
	EventID          string       `json:"event_id"`
	UserID           string       `json:"user_id"`
	TicketTypeID     string       `json:"ticket_type_id,omitempty"`
	WaitingListID    string       `json:"waiting_list_id"`
	Status           TicketStatus `json:"status"`
	Amount           float64      `json:"amount"`
	Currency         string       `json:"currency,omitempty"`
	PaymentReference string       `json:"payment_reference"`
	PurchasedAt      time.Time    `json:"purchased_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// CountsAsSold reports whether the ticket occupies event capacity.
func (t *Ticket) CountsAsSold() bool {
	return t.Status == TicketStatusValid || t.Status == TicketStatusUsed
}

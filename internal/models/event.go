package models

import "time"

type Event struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	OrganizerID  string     `json:"organizer_id,omitempty"`
	TotalTickets int        `json:"total_tickets"`
	IsCancelled  bool       `json:"is_cancelled"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TicketType holds the mutable counters of one price tier. Each type is stored
// as its own record so concurrent writers never rewrite sibling tiers.
type TicketType struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Remaining int       `json:"remaining"`
	Sold      int       `json:"sold"`
	IsSoldOut bool      `json:"is_sold_out"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Consume records the sale of n units.
func (t *TicketType) Consume(n int, now time.Time) {
	t.Remaining -= n
	t.Sold += n
	if t.Remaining <= 0 {
		t.Remaining = 0
		t.IsSoldOut = true
	}
	t.UpdatedAt = now
}

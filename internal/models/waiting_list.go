package models

import "time"

type EntryStatus string

const (
	EntryStatusWaiting   EntryStatus = "waiting"
	EntryStatusOffered   EntryStatus = "offered"
	EntryStatusPurchased EntryStatus = "purchased"
	EntryStatusExpired   EntryStatus = "expired"
)

// UntypedGroup is the queue group of entries without a ticket type.
const UntypedGroup = "_"

type WaitingListEntry struct {
	ID               string      `json:"id"`
	EventID          string      `json:"event_id"`
	UserID           string      `json:"user_id"`
	TicketTypeID     string      `json:"ticket_type_id,omitempty"`
	Quantity         int         `json:"quantity"`
	Status           EntryStatus `json:"status"`
	Sequence         int64       `json:"sequence"`
	OfferExpiresAt   *time.Time  `json:"offer_expires_at,omitempty"`
	OfferedAt        *time.Time  `json:"offered_at,omitempty"`
	PurchasedAt      *time.Time  `json:"purchased_at,omitempty"`
	ExpiredAt        *time.Time  `json:"expired_at,omitempty"`
	PaymentReference string      `json:"payment_reference,omitempty"`
	TicketIDs        []string    `json:"ticket_ids,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Group returns the FIFO group the entry is queued in.
func (e *WaitingListEntry) Group() string {
	if e.TicketTypeID == "" {
		return UntypedGroup
	}
	return e.TicketTypeID
}

func (e *WaitingListEntry) HasOfferExpired(now time.Time) bool {
	if e.OfferExpiresAt == nil {
		return false
	}
	return !e.OfferExpiresAt.After(now)
}

// HoldsCapacity reports whether the entry currently claims inventory.
func (e *WaitingListEntry) HoldsCapacity(now time.Time) bool {
	return e.Status == EntryStatusOffered && !e.HasOfferExpired(now)
}

// IsActive reports whether the entry is still waiting or holds a live offer.
func (e *WaitingListEntry) IsActive(now time.Time) bool {
	return e.Status == EntryStatusWaiting || e.HoldsCapacity(now)
}

// Offer sets a deadline truncated to the millisecond, the precision of the
// offer index.
func (e *WaitingListEntry) Offer(now time.Time, d time.Duration) {
	exp := now.Add(d).Truncate(time.Millisecond)
	e.Status = EntryStatusOffered
	e.OfferedAt = &now
	e.OfferExpiresAt = &exp
	e.UpdatedAt = now
}

// Expire and MarkPurchased clear the offer deadline: it is only set while
// the entry is offered.
func (e *WaitingListEntry) Expire(now time.Time) {
	e.Status = EntryStatusExpired
	e.OfferExpiresAt = nil
	e.ExpiredAt = &now
	e.UpdatedAt = now
}

func (e *WaitingListEntry) MarkPurchased(now time.Time, paymentRef string, ticketIDs []string) {
	e.Status = EntryStatusPurchased
	e.OfferExpiresAt = nil
	e.PurchasedAt = &now
	e.PaymentReference = paymentRef
	e.TicketIDs = ticketIDs
	e.UpdatedAt = now
}

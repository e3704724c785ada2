package ticketingv1

type WaitingListEntry struct {
	Id               string   `json:"id"`
	EventId          string   `json:"event_id"`
	UserId           string   `json:"user_id"`
	TicketTypeId     string   `json:"ticket_type_id,omitempty"`
	Quantity         int32    `json:"quantity"`
	Status           string   `json:"status"`
	OfferExpiresAt   string   `json:"offer_expires_at,omitempty"`
	PaymentReference string   `json:"payment_reference,omitempty"`
	TicketIds        []string `json:"ticket_ids,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

type Ticket struct {
	Id               string  `json:"id"`
	EventId          string  `json:"event_id"`
	UserId           string  `json:"user_id"`
	TicketTypeId     string  `json:"ticket_type_id,omitempty"`
	WaitingListId    string  `json:"waiting_list_id"`
	Status           string  `json:"status"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency,omitempty"`
	PaymentReference string  `json:"payment_reference"`
	PurchasedAt      string  `json:"purchased_at"`
}

type Event struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	OrganizerId  string `json:"organizer_id,omitempty"`
	TotalTickets int32  `json:"total_tickets"`
	IsCancelled  bool   `json:"is_cancelled"`
	CreatedAt    string `json:"created_at"`
}

type TicketType struct {
	Id        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int32   `json:"quantity"`
	Remaining int32   `json:"remaining"`
	IsSoldOut bool    `json:"is_sold_out"`
}

type TicketTypeAvailability struct {
	TicketTypeId string  `json:"ticket_type_id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Quantity     int32   `json:"quantity"`
	Remaining    int32   `json:"remaining"`
	Held         int32   `json:"held"`
	Available    int32   `json:"available"`
	IsSoldOut    bool    `json:"is_sold_out"`
}

type JoinWaitingListRequest struct {
	EventId      string `json:"event_id"`
	UserId       string `json:"user_id"`
	TicketTypeId string `json:"ticket_type_id,omitempty"`
	Quantity     int32  `json:"quantity,omitempty"`
}

type JoinWaitingListResponse struct {
	Entry      *WaitingListEntry `json:"entry"`
	OfferToken string            `json:"offer_token,omitempty"`
	Position   int64             `json:"position,omitempty"`
}

type PurchaseRequest struct {
	EventId          string  `json:"event_id"`
	UserId           string  `json:"user_id"`
	WaitingListId    string  `json:"waiting_list_id"`
	PaymentReference string  `json:"payment_reference"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency,omitempty"`
}

type PurchaseResponse struct {
	Entry    *WaitingListEntry `json:"entry"`
	Tickets  []*Ticket         `json:"tickets"`
	Replayed bool              `json:"replayed,omitempty"`
}

type GetAvailabilityRequest struct {
	EventId string `json:"event_id"`
}

type GetAvailabilityResponse struct {
	EventId        string                    `json:"event_id"`
	Available      bool                      `json:"available"`
	AvailableSpots int32                     `json:"available_spots"`
	TotalTickets   int32                     `json:"total_tickets"`
	PurchasedCount int32                     `json:"purchased_count"`
	ActiveOffers   int32                     `json:"active_offers"`
	TicketTypes    []*TicketTypeAvailability `json:"ticket_types,omitempty"`
}

type GetQueuePositionRequest struct {
	EventId string `json:"event_id"`
	UserId  string `json:"user_id"`
}

type GetQueuePositionResponse struct {
	Entry       *WaitingListEntry `json:"entry"`
	Status      string            `json:"status"`
	Position    int64             `json:"position,omitempty"`
	QueueLength int64             `json:"queue_length,omitempty"`
}

type GetUserTicketsRequest struct {
	UserId string `json:"user_id"`
}

type GetUserTicketsResponse struct {
	Tickets []*Ticket `json:"tickets"`
}

type TicketTypeInput struct {
	Id       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int32   `json:"quantity"`
}

type CreateEventRequest struct {
	Id           string             `json:"id,omitempty"`
	Name         string             `json:"name"`
	OrganizerId  string             `json:"organizer_id,omitempty"`
	TotalTickets int32              `json:"total_tickets"`
	TicketTypes  []*TicketTypeInput `json:"ticket_types,omitempty"`
}

type CreateEventResponse struct {
	Event       *Event        `json:"event"`
	TicketTypes []*TicketType `json:"ticket_types,omitempty"`
}

type CancelEventRequest struct {
	EventId string `json:"event_id"`
	Reason  string `json:"reason,omitempty"`
}

type CancelEventResponse struct {
	EventId          string `json:"event_id"`
	CancelledTickets int32  `json:"cancelled_tickets"`
	ExpiredEntries   int32  `json:"expired_entries"`
	AlreadyCancelled bool   `json:"already_cancelled,omitempty"`
}

type CleanupExpiredReservationsRequest struct{}

type CleanupExpiredReservationsResponse struct {
	Expired int32 `json:"expired"`
	Events  int32 `json:"events"`
}

type ProcessWaitlistRequest struct {
	MaxEntries int32 `json:"max_entries,omitempty"`
}

type ProcessWaitlistResponse struct {
	Promoted int32 `json:"promoted"`
	Events   int32 `json:"events"`
}

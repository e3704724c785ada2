package service

import (
	"context"
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
)

type TicketTypeAvailability struct {
	TicketTypeID string
	Name         string
	Price        float64
	Quantity     int
	Remaining    int
	Held         int
	Available    int
	IsSoldOut    bool
}

type Availability struct {
	EventID        string
	Available      bool
	AvailableSpots int
	TotalTickets   int
	PurchasedCount int
	// ActiveOffers counts the units held by unexpired offers.
	ActiveOffers int
	TicketTypes  []TicketTypeAvailability
}

// inventory is a point-in-time view of an event's capacity. Sold units come
// from the ledger, held units from unexpired offers.
type inventory struct {
	event     *models.Event
	types     map[string]*models.TicketType
	order     []string
	sold      int
	held      map[string]int
	heldTotal int
}

func newInventory(ev *models.Event, types []*models.TicketType, sold int, offers []*models.WaitingListEntry, now time.Time) *inventory {
	inv := &inventory{
		event: ev,
		types: make(map[string]*models.TicketType, len(types)),
		order: make([]string, 0, len(types)),
		sold:  sold,
		held:  make(map[string]int),
	}

	for _, tt := range types {
		inv.types[tt.ID] = tt
		inv.order = append(inv.order, tt.ID)
	}

	for _, o := range offers {
		if o.HoldsCapacity(now) {
			inv.hold(o.Group(), o.Quantity)
		}
	}

	return inv
}

func (inv *inventory) availableSpots() int {
	return max(0, inv.event.TotalTickets-inv.sold-inv.heldTotal)
}

func (inv *inventory) typeAvailable(id string) int {
	tt, ok := inv.types[id]
	if !ok {
		return 0
	}
	return max(0, tt.Remaining-inv.held[id])
}

// fits reports whether qty more units can be offered to group right now.
func (inv *inventory) fits(group string, qty int) bool {
	if inv.availableSpots() < qty {
		return false
	}
	if group == models.UntypedGroup {
		return true
	}

	tt, ok := inv.types[group]
	if !ok || tt.IsSoldOut {
		return false
	}
	return inv.typeAvailable(group) >= qty
}

func (inv *inventory) hold(group string, qty int) {
	inv.held[group] += qty
	inv.heldTotal += qty
}

func (inv *inventory) availability() *Availability {
	spots := inv.availableSpots()
	out := &Availability{
		EventID:        inv.event.ID,
		Available:      spots > 0 && !inv.event.IsCancelled,
		AvailableSpots: spots,
		TotalTickets:   inv.event.TotalTickets,
		PurchasedCount: inv.sold,
		ActiveOffers:   inv.heldTotal,
		TicketTypes:    make([]TicketTypeAvailability, 0, len(inv.order)),
	}

	for _, id := range inv.order {
		tt := inv.types[id]
		out.TicketTypes = append(out.TicketTypes, TicketTypeAvailability{
			TicketTypeID: tt.ID,
			Name:         tt.Name,
			Price:        tt.Price,
			Quantity:     tt.Quantity,
			Remaining:    tt.Remaining,
			Held:         inv.held[id],
			Available:    inv.typeAvailable(id),
			IsSoldOut:    tt.IsSoldOut,
		})
	}

	return out
}

func (s *reservationService) loadInventory(ctx context.Context, ev *models.Event, now time.Time) (*inventory, error) {
	types, err := s.repos.Events.ListTicketTypes(ctx, ev.ID)
	if err != nil {
		return nil, err
	}

	sold, err := s.repos.Events.GetSoldCount(ctx, ev.ID)
	if err != nil {
		return nil, err
	}

	offers, err := s.repos.Waitlist.ListActiveOffers(ctx, ev.ID, now)
	if err != nil {
		return nil, err
	}

	return newInventory(ev, types, sold, offers, now), nil
}

func (s *reservationService) GetAvailability(ctx context.Context, eventID string) (*Availability, error) {
	ev, err := s.repos.Events.Get(ctx, eventID)
	if err != nil {
		s.l.Errorf(ctx, "reservationService.GetAvailability: %v", err)
		return nil, err
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}

	inv, err := s.loadInventory(ctx, ev, s.clk.Now())
	if err != nil {
		s.l.Errorf(ctx, "reservationService.GetAvailability: %v", err)
		return nil, err
	}

	return inv.availability(), nil
}

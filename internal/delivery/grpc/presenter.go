package grpc

import (
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	pb "github.com/vogiaan1904/ticketbottle-reservation/pkg/grpc/ticketingv1"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/util"
)

func toEntryPB(e *models.WaitingListEntry) *pb.WaitingListEntry {
	if e == nil {
		return nil
	}
	return &pb.WaitingListEntry{
		Id:               e.ID,
		EventId:          e.EventID,
		UserId:           e.UserID,
		TicketTypeId:     e.TicketTypeID,
		Quantity:         int32(e.Quantity),
		Status:           string(e.Status),
		OfferExpiresAt:   util.TimePtrToISO8601Str(e.OfferExpiresAt),
		PaymentReference: e.PaymentReference,
		TicketIds:        e.TicketIDs,
		CreatedAt:        util.TimeToISO8601Str(e.CreatedAt),
	}
}

func toTicketsPB(tickets []*models.Ticket) []*pb.Ticket {
	out := make([]*pb.Ticket, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, &pb.Ticket{
			Id:               t.ID,
			EventId:          t.EventID,
			UserId:           t.UserID,
			TicketTypeId:     t.TicketTypeID,
			WaitingListId:    t.WaitingListID,
			Status:           string(t.Status),
			Amount:           t.Amount,
			Currency:         t.Currency,
			PaymentReference: t.PaymentReference,
			PurchasedAt:      util.TimeToISO8601Str(t.PurchasedAt),
		})
	}
	return out
}

func toAvailabilityPB(a *service.Availability) *pb.GetAvailabilityResponse {
	out := &pb.GetAvailabilityResponse{
		EventId:        a.EventID,
		Available:      a.Available,
		AvailableSpots: int32(a.AvailableSpots),
		TotalTickets:   int32(a.TotalTickets),
		PurchasedCount: int32(a.PurchasedCount),
		ActiveOffers:   int32(a.ActiveOffers),
	}
	for _, tt := range a.TicketTypes {
		out.TicketTypes = append(out.TicketTypes, &pb.TicketTypeAvailability{
			TicketTypeId: tt.TicketTypeID,
			Name:         tt.Name,
			Price:        tt.Price,
			Quantity:     int32(tt.Quantity),
			Remaining:    int32(tt.Remaining),
			Held:         int32(tt.Held),
			Available:    int32(tt.Available),
			IsSoldOut:    tt.IsSoldOut,
		})
	}
	return out
}

func toCreateEventPB(out *service.CreateEventOutput) *pb.CreateEventResponse {
	resp := &pb.CreateEventResponse{
		Event: &pb.Event{
			Id:           out.Event.ID,
			Name:         out.Event.Name,
			OrganizerId:  out.Event.OrganizerID,
			TotalTickets: int32(out.Event.TotalTickets),
			IsCancelled:  out.Event.IsCancelled,
			CreatedAt:    util.TimeToISO8601Str(out.Event.CreatedAt),
		},
	}
	for _, tt := range out.TicketTypes {
		resp.TicketTypes = append(resp.TicketTypes, &pb.TicketType{
			Id:        tt.ID,
			Name:      tt.Name,
			Price:     tt.Price,
			Quantity:  int32(tt.Quantity),
			Remaining: int32(tt.Remaining),
			IsSoldOut: tt.IsSoldOut,
		})
	}
	return resp
}

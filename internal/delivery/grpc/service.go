package grpc

import (
	"context"

	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	pb "github.com/vogiaan1904/ticketbottle-reservation/pkg/grpc/ticketingv1"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	resp "github.com/vogiaan1904/ticketbottle-reservation/pkg/response"
)

type grpcService struct {
	svc service.ReservationService
	l   logger.Logger
	pb.UnimplementedTicketingServiceServer
}

func NewGrpcService(svc service.ReservationService, l logger.Logger) pb.TicketingServiceServer {
	return &grpcService{
		svc: svc,
		l:   l,
	}
}

func (s *grpcService) fail(ctx context.Context, op string, err error) error {
	if service.IsBusinessError(err) {
		s.l.Warnf(ctx, "%s rejected: %v", op, err)
	} else {
		s.l.Errorf(ctx, "%s failed: %v", op, err)
	}
	return resp.ParseGRPCError(mapGRPCError(err))
}

func (s *grpcService) JoinWaitingList(ctx context.Context, req *pb.JoinWaitingListRequest) (*pb.JoinWaitingListResponse, error) {
	out, err := s.svc.JoinWaitingList(ctx, service.JoinWaitingListInput{
		EventID:      req.EventId,
		UserID:       req.UserId,
		TicketTypeID: req.TicketTypeId,
		Quantity:     int(req.Quantity),
	})
	if err != nil {
		return nil, s.fail(ctx, "JoinWaitingList", err)
	}

	return &pb.JoinWaitingListResponse{
		Entry:      toEntryPB(out.Entry),
		OfferToken: out.OfferToken,
		Position:   out.Position,
	}, nil
}

func (s *grpcService) Purchase(ctx context.Context, req *pb.PurchaseRequest) (*pb.PurchaseResponse, error) {
	out, err := s.svc.Purchase(ctx, service.PurchaseInput{
		EventID:       req.EventId,
		UserID:        req.UserId,
		WaitingListID: req.WaitingListId,
		Payment: service.PaymentDetails{
			Reference: req.PaymentReference,
			Amount:    req.Amount,
			Currency:  req.Currency,
		},
	})
	if err != nil {
		return nil, s.fail(ctx, "Purchase", err)
	}

	return &pb.PurchaseResponse{
		Entry:    toEntryPB(out.Entry),
		Tickets:  toTicketsPB(out.Tickets),
		Replayed: out.Replayed,
	}, nil
}

func (s *grpcService) GetAvailability(ctx context.Context, req *pb.GetAvailabilityRequest) (*pb.GetAvailabilityResponse, error) {
	out, err := s.svc.GetAvailability(ctx, req.EventId)
	if err != nil {
		return nil, s.fail(ctx, "GetAvailability", err)
	}

	return toAvailabilityPB(out), nil
}

func (s *grpcService) GetQueuePosition(ctx context.Context, req *pb.GetQueuePositionRequest) (*pb.GetQueuePositionResponse, error) {
	out, err := s.svc.GetQueuePosition(ctx, req.EventId, req.UserId)
	if err != nil {
		return nil, s.fail(ctx, "GetQueuePosition", err)
	}

	return &pb.GetQueuePositionResponse{
		Entry:       toEntryPB(out.Entry),
		Status:      string(out.Status),
		Position:    out.Position,
		QueueLength: out.QueueLength,
	}, nil
}

func (s *grpcService) GetUserTickets(ctx context.Context, req *pb.GetUserTicketsRequest) (*pb.GetUserTicketsResponse, error) {
	tickets, err := s.svc.GetUserTickets(ctx, req.UserId)
	if err != nil {
		return nil, s.fail(ctx, "GetUserTickets", err)
	}

	return &pb.GetUserTicketsResponse{Tickets: toTicketsPB(tickets)}, nil
}

func (s *grpcService) CreateEvent(ctx context.Context, req *pb.CreateEventRequest) (*pb.CreateEventResponse, error) {
	in := service.CreateEventInput{
		ID:           req.Id,
		Name:         req.Name,
		OrganizerID:  req.OrganizerId,
		TotalTickets: int(req.TotalTickets),
	}
	for _, tt := range req.TicketTypes {
		if tt == nil {
			continue
		}
		in.TicketTypes = append(in.TicketTypes, service.TicketTypeInput{
			ID:       tt.Id,
			Name:     tt.Name,
			Price:    tt.Price,
			Quantity: int(tt.Quantity),
		})
	}

	out, err := s.svc.CreateEvent(ctx, in)
	if err != nil {
		return nil, s.fail(ctx, "CreateEvent", err)
	}

	return toCreateEventPB(out), nil
}

func (s *grpcService) CancelEvent(ctx context.Context, req *pb.CancelEventRequest) (*pb.CancelEventResponse, error) {
	out, err := s.svc.CancelEvent(ctx, service.CancelEventInput{
		EventID: req.EventId,
		Reason:  req.Reason,
	})
	if err != nil {
		return nil, s.fail(ctx, "CancelEvent", err)
	}

	return &pb.CancelEventResponse{
		EventId:          out.EventID,
		CancelledTickets: int32(out.CancelledTickets),
		ExpiredEntries:   int32(out.ExpiredEntries),
		AlreadyCancelled: out.AlreadyCancelled,
	}, nil
}

func (s *grpcService) CleanupExpiredReservations(ctx context.Context, _ *pb.CleanupExpiredReservationsRequest) (*pb.CleanupExpiredReservationsResponse, error) {
	out, err := s.svc.CleanupExpiredReservations(ctx)
	if err != nil {
		return nil, s.fail(ctx, "CleanupExpiredReservations", err)
	}

	return &pb.CleanupExpiredReservationsResponse{
		Expired: int32(out.Expired),
		Events:  int32(out.Events),
	}, nil
}

func (s *grpcService) ProcessWaitlist(ctx context.Context, req *pb.ProcessWaitlistRequest) (*pb.ProcessWaitlistResponse, error) {
	out, err := s.svc.ProcessWaitlist(ctx, int(req.MaxEntries))
	if err != nil {
		return nil, s.fail(ctx, "ProcessWaitlist", err)
	}

	return &pb.ProcessWaitlistResponse{
		Promoted: int32(out.Promoted),
		Events:   int32(out.Events),
	}, nil
}

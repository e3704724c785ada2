package ticketingv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "reservation.v1.TicketingService"

const (
	TicketingService_JoinWaitingList_FullMethodName            = "/" + ServiceName + "/JoinWaitingList"
	TicketingService_Purchase_FullMethodName                   = "/" + ServiceName + "/Purchase"
	TicketingService_GetAvailability_FullMethodName            = "/" + ServiceName + "/GetAvailability"
	TicketingService_GetQueuePosition_FullMethodName           = "/" + ServiceName + "/GetQueuePosition"
	TicketingService_GetUserTickets_FullMethodName             = "/" + ServiceName + "/GetUserTickets"
	TicketingService_CreateEvent_FullMethodName                = "/" + ServiceName + "/CreateEvent"
	TicketingService_CancelEvent_FullMethodName                = "/" + ServiceName + "/CancelEvent"
	TicketingService_CleanupExpiredReservations_FullMethodName = "/" + ServiceName + "/CleanupExpiredReservations"
	TicketingService_ProcessWaitlist_FullMethodName            = "/" + ServiceName + "/ProcessWaitlist"
)

// TicketingServiceServer is the server API for the ticketing service.
type TicketingServiceServer interface {
	JoinWaitingList(context.Context, *JoinWaitingListRequest) (*JoinWaitingListResponse, error)
	Purchase(context.Context, *PurchaseRequest) (*PurchaseResponse, error)
	GetAvailability(context.Context, *GetAvailabilityRequest) (*GetAvailabilityResponse, error)
	GetQueuePosition(context.Context, *GetQueuePositionRequest) (*GetQueuePositionResponse, error)
	GetUserTickets(context.Context, *GetUserTicketsRequest) (*GetUserTicketsResponse, error)
	CreateEvent(context.Context, *CreateEventRequest) (*CreateEventResponse, error)
	CancelEvent(context.Context, *CancelEventRequest) (*CancelEventResponse, error)
	CleanupExpiredReservations(context.Context, *CleanupExpiredReservationsRequest) (*CleanupExpiredReservationsResponse, error)
	ProcessWaitlist(context.Context, *ProcessWaitlistRequest) (*ProcessWaitlistResponse, error)
}

// UnimplementedTicketingServiceServer can be embedded to stay forward
// compatible with methods added later.
type UnimplementedTicketingServiceServer struct{}

func (UnimplementedTicketingServiceServer) JoinWaitingList(context.Context, *JoinWaitingListRequest) (*JoinWaitingListResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method JoinWaitingList not implemented")
}
func (UnimplementedTicketingServiceServer) Purchase(context.Context, *PurchaseRequest) (*PurchaseResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Purchase not implemented")
}
func (UnimplementedTicketingServiceServer) GetAvailability(context.Context, *GetAvailabilityRequest) (*GetAvailabilityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAvailability not implemented")
}
func (UnimplementedTicketingServiceServer) GetQueuePosition(context.Context, *GetQueuePositionRequest) (*GetQueuePositionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetQueuePosition not implemented")
}
func (UnimplementedTicketingServiceServer) GetUserTickets(context.Context, *GetUserTicketsRequest) (*GetUserTicketsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUserTickets not implemented")
}
func (UnimplementedTicketingServiceServer) CreateEvent(context.Context, *CreateEventRequest) (*CreateEventResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateEvent not implemented")
}
func (UnimplementedTicketingServiceServer) CancelEvent(context.Context, *CancelEventRequest) (*CancelEventResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelEvent not implemented")
}
func (UnimplementedTicketingServiceServer) CleanupExpiredReservations(context.Context, *CleanupExpiredReservationsRequest) (*CleanupExpiredReservationsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CleanupExpiredReservations not implemented")
}
func (UnimplementedTicketingServiceServer) ProcessWaitlist(context.Context, *ProcessWaitlistRequest) (*ProcessWaitlistResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ProcessWaitlist not implemented")
}

func RegisterTicketingServiceServer(s grpc.ServiceRegistrar, srv TicketingServiceServer) {
	s.RegisterService(&TicketingService_ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler, running
// the configured interceptor chain when there is one.
func unaryHandler[Req, Resp any](method string, call func(TicketingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TicketingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TicketingServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var TicketingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TicketingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "JoinWaitingList",
			Handler:    unaryHandler(TicketingService_JoinWaitingList_FullMethodName, TicketingServiceServer.JoinWaitingList),
		},
		{
			MethodName: "Purchase",
			Handler:    unaryHandler(TicketingService_Purchase_FullMethodName, TicketingServiceServer.Purchase),
		},
		{
			MethodName: "GetAvailability",
			Handler:    unaryHandler(TicketingService_GetAvailability_FullMethodName, TicketingServiceServer.GetAvailability),
		},
		{
			MethodName: "GetQueuePosition",
			Handler:    unaryHandler(TicketingService_GetQueuePosition_FullMethodName, TicketingServiceServer.GetQueuePosition),
		},
		{
			MethodName: "GetUserTickets",
			Handler:    unaryHandler(TicketingService_GetUserTickets_FullMethodName, TicketingServiceServer.GetUserTickets),
		},
		{
			MethodName: "CreateEvent",
			Handler:    unaryHandler(TicketingService_CreateEvent_FullMethodName, TicketingServiceServer.CreateEvent),
		},
		{
			MethodName: "CancelEvent",
			Handler:    unaryHandler(TicketingService_CancelEvent_FullMethodName, TicketingServiceServer.CancelEvent),
		},
		{
			MethodName: "CleanupExpiredReservations",
			Handler:    unaryHandler(TicketingService_CleanupExpiredReservations_FullMethodName, TicketingServiceServer.CleanupExpiredReservations),
		},
		{
			MethodName: "ProcessWaitlist",
			Handler:    unaryHandler(TicketingService_ProcessWaitlist_FullMethodName, TicketingServiceServer.ProcessWaitlist),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ticketing.proto",
}

// TicketingServiceClient is the client API for the ticketing service.
type TicketingServiceClient interface {
	JoinWaitingList(ctx context.Context, in *JoinWaitingListRequest, opts ...grpc.CallOption) (*JoinWaitingListResponse, error)
	Purchase(ctx context.Context, in *PurchaseRequest, opts ...grpc.CallOption) (*PurchaseResponse, error)
	GetAvailability(ctx context.Context, in *GetAvailabilityRequest, opts ...grpc.CallOption) (*GetAvailabilityResponse, error)
	GetQueuePosition(ctx context.Context, in *GetQueuePositionRequest, opts ...grpc.CallOption) (*GetQueuePositionResponse, error)
	GetUserTickets(ctx context.Context, in *GetUserTicketsRequest, opts ...grpc.CallOption) (*GetUserTicketsResponse, error)
	CreateEvent(ctx context.Context, in *CreateEventRequest, opts ...grpc.CallOption) (*CreateEventResponse, error)
	CancelEvent(ctx context.Context, in *CancelEventRequest, opts ...grpc.CallOption) (*CancelEventResponse, error)
	CleanupExpiredReservations(ctx context.Context, in *CleanupExpiredReservationsRequest, opts ...grpc.CallOption) (*CleanupExpiredReservationsResponse, error)
	ProcessWaitlist(ctx context.Context, in *ProcessWaitlistRequest, opts ...grpc.CallOption) (*ProcessWaitlistResponse, error)
}

type ticketingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTicketingServiceClient(cc grpc.ClientConnInterface) TicketingServiceClient {
	return &ticketingServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ticketingServiceClient) JoinWaitingList(ctx context.Context, in *JoinWaitingListRequest, opts ...grpc.CallOption) (*JoinWaitingListResponse, error) {
	return invoke[JoinWaitingListResponse](ctx, c.cc, TicketingService_JoinWaitingList_FullMethodName, in, opts)
}

func (c *ticketingServiceClient) Purchase(ctx context.Context, in *PurchaseRequest, opts ...grpc.CallOption) (*PurchaseResponse, error) {
	return invoke[PurchaseResponse](ctx, c.cc, TicketingService_Purchase_FullMethodName, in, opts)
}

func (c *ticketingServiceClient) GetAvailability(ctx context.Context, in *GetAvailabilityRequest, opts ...grpc.CallOption) (*GetAvailabilityResponse, error) {
	return invoke[GetAvailabilityResponse](ctx, c.cc, TicketingService_GetAvailability_FullMethodName, in, opts)
}

func (c *ticketingServiceClient) GetQueuePosition(ctx context.Context, in *GetQueuePositionRequest, opts ...grpc.CallOption) (*GetQueuePositionResponse, error) {
	return invoke[GetQueuePositionResponse](ctx, c.cc, TicketingService_GetQueuePosition_FullMethodName, in, opts)
}

func (c *ticketingServiceClient) GetUserTickets(ctx context.Context, in *GetUserTicketsRequest, opts ...grpc.CallOption) (*GetUserTicketsResponse, error) {
	return invoke[GetUserTicketsResponse](ctx, c.cc, TicketingService_GetUserTickets_FullMethodName, in, opts)
}

func (c *ticketingServiceClient) CreateEvent(ctx context.Context, in *CreateEventRequest, opts ...grpc.CallOption) (*CreateEventResponse, error) {
	return invoke[CreateEventResponse](ctx, c.cc, TicketingService_CreateEvent_FullMethodName, in, opts)
}

func (c *ticketingServiceClient) CancelEvent(ctx context.Context, in *CancelEventRequest, opts ...grpc.CallOption) (*CancelEventResponse, error) {
	return invoke[CancelEventResponse](ctx, c.cc, TicketingService_CancelEvent_FullMethodName, in, opts)
}

func (c *ticketingServiceClient) CleanupExpiredReservations(ctx context.Context, in *CleanupExpiredReservationsRequest, opts ...grpc.CallOption) (*CleanupExpiredReservationsResponse, error) {
	return invoke[CleanupExpiredReservationsResponse](ctx, c.cc, TicketingService_CleanupExpiredReservations_FullMethodName, in, opts)
}

func (c *ticketingServiceClient) ProcessWaitlist(ctx context.Context, in *ProcessWaitlistRequest, opts ...grpc.CallOption) (*ProcessWaitlistResponse, error) {
	return invoke[ProcessWaitlistResponse](ctx, c.cc, TicketingService_ProcessWaitlist_FullMethodName, in, opts)
}

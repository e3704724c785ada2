package grpc

import (
	"errors"

	repo "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	pkgErrors "github.com/vogiaan1904/ticketbottle-reservation/pkg/errors"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/durationpb"
)

var (
	errRateLimitExceeded      = pkgErrors.NewGRPCError("RSV001", "Too many join attempts", codes.ResourceExhausted)
	errAlreadyQueued          = pkgErrors.NewGRPCError("RSV002", "Already in the waiting list for this event", codes.AlreadyExists)
	errEventNotFound          = pkgErrors.NewGRPCError("RSV003", "Event not found", codes.NotFound)
	errEventCancelled         = pkgErrors.NewGRPCError("RSV004", "Event is cancelled", codes.FailedPrecondition)
	errTicketTypeNotFound     = pkgErrors.NewGRPCError("RSV005", "Ticket type not found", codes.NotFound)
	errInvalidQuantity        = pkgErrors.NewGRPCError("RSV006", "Invalid quantity", codes.InvalidArgument)
	errInsufficientInventory  = pkgErrors.NewGRPCError("RSV007", "Not enough tickets left", codes.FailedPrecondition)
	errOfferNotFound          = pkgErrors.NewGRPCError("RSV008", "Offer not found", codes.NotFound)
	errOfferInvalidState      = pkgErrors.NewGRPCError("RSV009", "Offer is not active", codes.FailedPrecondition)
	errOfferExpired           = pkgErrors.NewGRPCError("RSV010", "Offer expired", codes.FailedPrecondition)
	errOfferOwnershipMismatch = pkgErrors.NewGRPCError("RSV011", "Offer belongs to another user", codes.PermissionDenied)
	errInvalidPayment         = pkgErrors.NewGRPCError("RSV012", "Invalid payment details", codes.InvalidArgument)
	errEntryNotFound          = pkgErrors.NewGRPCError("RSV013", "Waiting list entry not found", codes.NotFound)
	errEventAlreadyExists     = pkgErrors.NewGRPCError("RSV014", "Event already exists", codes.AlreadyExists)
	errInvalidEvent           = pkgErrors.NewGRPCError("RSV015", "Invalid event definition", codes.InvalidArgument)
	errInvalidArgument        = pkgErrors.NewGRPCError("RSV016", "Invalid argument", codes.InvalidArgument)
	errInvalidOfferToken      = pkgErrors.NewGRPCError("RSV017", "Invalid offer token", codes.Unauthenticated)
	errContention             = pkgErrors.NewGRPCError("RSV018", "Too many concurrent updates, retry", codes.Aborted)
)

var errorMap = []struct {
	target error
	mapped *pkgErrors.GRPCError
}{
	{service.ErrAlreadyQueued, errAlreadyQueued},
	{service.ErrEventNotFound, errEventNotFound},
	{service.ErrEventCancelled, errEventCancelled},
	{service.ErrTicketTypeNotFound, errTicketTypeNotFound},
	{service.ErrInvalidQuantity, errInvalidQuantity},
	{service.ErrInsufficientInventory, errInsufficientInventory},
	{service.ErrOfferNotFound, errOfferNotFound},
	{service.ErrOfferInvalidState, errOfferInvalidState},
	{service.ErrOfferExpired, errOfferExpired},
	{service.ErrOfferOwnershipMismatch, errOfferOwnershipMismatch},
	{service.ErrInvalidPayment, errInvalidPayment},
	{service.ErrEntryNotFound, errEntryNotFound},
	{service.ErrEventAlreadyExists, errEventAlreadyExists},
	{service.ErrInvalidEvent, errInvalidEvent},
	{service.ErrInvalidArgument, errInvalidArgument},
	{service.ErrTokenEmpty, errInvalidOfferToken},
	{service.ErrTokenInvalid, errInvalidOfferToken},
	{service.ErrTokenUnexpectedSignature, errInvalidOfferToken},
	{service.ErrTokenMismatch, errInvalidOfferToken},
	{repo.ErrTxConflict, errContention},
}

func mapGRPCError(err error) error {
	var rl *service.RateLimitError
	if errors.As(err, &rl) {
		return errRateLimitExceeded.WithDetails(&errdetails.RetryInfo{
			RetryDelay: durationpb.New(rl.RetryAfter),
		})
	}
	if errors.Is(err, service.ErrRateLimitExceeded) {
		return errRateLimitExceeded
	}

	for _, m := range errorMap {
		if errors.Is(err, m.target) {
			return m.mapped
		}
	}

	return err
}

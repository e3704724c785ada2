package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRateLimitExceeded      = errors.New("rate limit exceeded")
	ErrAlreadyQueued          = errors.New("user already has an active entry for this event")
	ErrEventNotFound          = errors.New("event not found")
	ErrEventCancelled         = errors.New("event is cancelled")
	ErrEventAlreadyExists     = errors.New("event already exists")
	ErrInvalidEvent           = errors.New("invalid event definition")
	ErrTicketTypeNotFound     = errors.New("ticket type not found")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInsufficientInventory  = errors.New("insufficient inventory")
	ErrEntryNotFound          = errors.New("waiting list entry not found")
	ErrOfferNotFound          = errors.New("offer not found")
	ErrOfferInvalidState      = errors.New("offer is not in offered state")
	ErrOfferExpired           = errors.New("offer expired")
	ErrOfferOwnershipMismatch = errors.New("offer belongs to another user")
	ErrInvalidPayment         = errors.New("invalid payment details")

	ErrTokenEmpty               = errors.New("offer token is empty")
	ErrTokenInvalid             = errors.New("offer token is invalid")
	ErrTokenUnexpectedSignature = errors.New("unexpected signing method")
	ErrTokenMismatch            = errors.New("offer token does not match the request")
)

// RateLimitError carries how long the caller has to wait before the window
// resets. It matches ErrRateLimitExceeded with errors.Is.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimitExceeded, e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

var businessErrors = []error{
	ErrRateLimitExceeded,
	ErrAlreadyQueued,
	ErrEventNotFound,
	ErrEventCancelled,
	ErrEventAlreadyExists,
	ErrInvalidEvent,
	ErrTicketTypeNotFound,
	ErrInvalidQuantity,
	ErrInvalidArgument,
	ErrInsufficientInventory,
	ErrEntryNotFound,
	ErrOfferNotFound,
	ErrOfferInvalidState,
	ErrOfferExpired,
	ErrOfferOwnershipMismatch,
	ErrInvalidPayment,
	ErrTokenEmpty,
	ErrTokenInvalid,
	ErrTokenUnexpectedSignature,
	ErrTokenMismatch,
}

// IsBusinessError reports whether err is a rejection caused by the request
// itself. Retrying such a request cannot succeed.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

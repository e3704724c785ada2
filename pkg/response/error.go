package response

import (
	"context"
	"errors"

	pkgErrors "github.com/vogiaan1904/ticketbottle-reservation/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ParseGRPCError converts err into a gRPC status error. Errors that are not
// a *GRPCError or a status error are reported as Internal so that storage
// failures are never leaked to callers.
func ParseGRPCError(err error) error {
	var grpcErr *pkgErrors.GRPCError
	if errors.As(err, &grpcErr) {
		grpcCode := grpcErr.GrpcCode
		if grpcCode == codes.OK {
			grpcCode = codes.InvalidArgument
		}

		st := status.New(grpcCode, grpcErr.Error())
		if len(grpcErr.Details) > 0 {
			if withDetails, derr := st.WithDetails(grpcErr.Details...); derr == nil {
				st = withDetails
			}
		}
		return st.Err()
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	return status.Error(codes.Internal, "Internal server error")
}

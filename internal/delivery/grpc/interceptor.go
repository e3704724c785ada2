package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDHeader = "x-request-id"

// UnaryLoggingInterceptor tags the request context with the method and a
// request id, logs the outcome and turns handler panics into Internal errors.
func UnaryLoggingInterceptor(l logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		ctx = logger.NewContext(ctx, l, "method", info.FullMethod, "request_id", requestID(ctx))

		defer func() {
			if r := recover(); r != nil {
				l.Errorf(ctx, "panic in gRPC handler: %v", r)
				err = status.Error(codes.Internal, "Internal server error")
			}

			code := status.Code(err)
			if code == codes.OK {
				l.Debugf(ctx, "gRPC request - code: %s, duration_ms: %d", code, time.Since(start).Milliseconds())
				return
			}
			l.Infof(ctx, "gRPC request - code: %s, duration_ms: %d", code, time.Since(start).Milliseconds())
		}()

		return handler(ctx, req)
	}
}

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDHeader); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return uuid.NewString()
}

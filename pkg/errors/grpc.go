package errors

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/protoadapt"
)

type GRPCError struct {
	Code     string
	Message  string
	GrpcCode codes.Code
	Details  []protoadapt.MessageV1
}

func NewGRPCError(code string, message string, grpcCode codes.Code) *GRPCError {
	return &GRPCError{
		Code:     code,
		Message:  fmt.Sprintf("%s - %s", code, message),
		GrpcCode: grpcCode,
	}
}

// WithDetails returns a copy of e carrying the given status details.
func (e *GRPCError) WithDetails(details ...protoadapt.MessageV1) *GRPCError {
	cp := *e
	cp.Details = append(append([]protoadapt.MessageV1(nil), e.Details...), details...)
	return &cp
}

func (e GRPCError) Error() string {
	return e.Message
}

package errors

import (
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrStoreUnavailable     = fmt.Errorf("store unavailable")
	ErrNotFound             = fmt.Errorf("not found")
	ErrSendRejectedBlocked  = fmt.Errorf("send rejected: recipient blocked sender")
	ErrPartialFanoutFailure = fmt.Errorf("partial fan-out failure")
	ErrInvalidCommand       = fmt.Errorf("invalid command")
	ErrSubscriptionClosed   = fmt.Errorf("subscription closed")
	ErrUnauthenticated      = fmt.Errorf("unauthenticated")
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrEmptyWords           = fmt.Errorf("no words have been found")
)

// Is and As mirror the standard library so callers only import this package.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

// IsRetryable reports whether err is worth retrying without any change on the caller side.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// MapToGRPCError converts a domain error into a gRPC status error.
// Errors that already carry a status are returned untouched.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrSendRejectedBlocked):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrInvalidCommand):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, ErrSubscriptionClosed):
		return status.Error(codes.Canceled, err.Error())
	default:
		slog.Error("internal gRPC error", "error", err)
		return status.Error(codes.Internal, "internal server error")
	}
}

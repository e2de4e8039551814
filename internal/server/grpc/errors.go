package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/logging"
)

// statusCodes maps service sentinels to wire codes. The status message is
// the error text, which the client matches against the same sentinels.
var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrInvalidToken, codes.Unauthenticated},
	{common.ErrUnauthenticated, codes.Unauthenticated},
	{common.ErrInvalidCredentials, codes.Unauthenticated},
	{common.ErrAlreadyExists, codes.AlreadyExists},
	{common.ErrNotFound, codes.NotFound},
	{common.ErrInvalidDate, codes.InvalidArgument},
	{common.ErrInvalidImport, codes.InvalidArgument},
	{common.ErrNoData, codes.FailedPrecondition},
	{common.ErrGeneration, codes.Aborted},
	{common.ErrUnavailable, codes.Unavailable},
}

func toStatus(ctx context.Context, logger logging.Logger, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	for _, m := range statusCodes {
		if errors.Is(err, m.err) {
			return status.Error(m.code, err.Error())
		}
	}
	logger.Error(ctx, "internal error", "error", err)
	return status.Error(codes.Internal, common.ErrInternal.Error())
}

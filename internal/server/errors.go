package server

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/thraizz/uno-server-go/internal/auth"
	"github.com/thraizz/uno-server-go/internal/game"
	"github.com/thraizz/uno-server-go/internal/session"
	"github.com/thraizz/uno-server-go/internal/shop"
	"github.com/thraizz/uno-server-go/internal/spells"
)

var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{session.ErrSessionNotFound, codes.NotFound},
	{shop.ErrUnknownItem, codes.NotFound},
	{spells.ErrUnknownSpell, codes.NotFound},

	{auth.ErrTokenRequired, codes.PermissionDenied},
	{auth.ErrTokenInvalid, codes.PermissionDenied},
	{auth.ErrTokenExpired, codes.PermissionDenied},
	{auth.ErrTokenMismatch, codes.PermissionDenied},
	{auth.ErrAdminDenied, codes.PermissionDenied},
	{auth.ErrAdminDisabled, codes.PermissionDenied},
	{ErrSpectator, codes.PermissionDenied},

	{game.ErrGameOver, codes.FailedPrecondition},
	{game.ErrNotYourTurn, codes.FailedPrecondition},
	{game.ErrNotPendingActor, codes.FailedPrecondition},
	{game.ErrPendingOpen, codes.FailedPrecondition},
	{game.ErrJailOccupied, codes.FailedPrecondition},
	{shop.ErrInsufficientCoins, codes.FailedPrecondition},
	{spells.ErrInsufficientMana, codes.FailedPrecondition},
	{session.ErrSessionClosed, codes.FailedPrecondition},
	{session.ErrSessionLimit, codes.ResourceExhausted},

	{game.ErrInvalidCardIndex, codes.InvalidArgument},
	{game.ErrIllegalPlay, codes.InvalidArgument},
	{game.ErrInvalidColor, codes.InvalidArgument},
	{game.ErrMissingInput, codes.InvalidArgument},
	{game.ErrInvalidTarget, codes.InvalidArgument},
	{game.ErrNotJailCard, codes.InvalidArgument},
	{spells.ErrTargetRequired, codes.InvalidArgument},
	{session.ErrInvalidSeat, codes.InvalidArgument},
	{ErrGameIDRequired, codes.InvalidArgument},
	{ErrNoHumanSeat, codes.InvalidArgument},
	{ErrMalformedRequest, codes.InvalidArgument},

	{game.ErrInvariant, codes.Internal},
	{context.Canceled, codes.Canceled},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
}

// errorCode classifies err. Unclassified errors from game setup are bad
// input, anything else is internal.
func errorCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return codes.InvalidArgument
}

// grpcError converts err into a status error.
func grpcError(err error) error {
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); ok {
		return st.Err()
	}
	return status.Error(errorCode(err), err.Error())
}

// httpStatus maps err onto an HTTP status code.
func httpStatus(err error) int {
	switch errorCode(err) {
	case codes.OK:
		return http.StatusOK
	case codes.NotFound:
		return http.StatusNotFound
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

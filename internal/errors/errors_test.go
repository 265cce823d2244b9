package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/quizpot/quizpot/internal/errors"
)

func TestNewReason(t *testing.T) {
	tests := map[string]struct {
		reason   errors.Reason
		wantCode errors.Code
		wantHTTP int
	}{
		"invalid transition": {
			reason:   errors.ReasonInvalidTransition,
			wantCode: errors.CodeFailedPrecondition,
			wantHTTP: http.StatusConflict,
		},
		"insufficient balance": {
			reason:   errors.ReasonInsufficientBalance,
			wantCode: errors.CodeFailedPrecondition,
			wantHTTP: http.StatusConflict,
		},
		"room full": {
			reason:   errors.ReasonRoomFull,
			wantCode: errors.CodeResourceExhausted,
			wantHTTP: http.StatusTooManyRequests,
		},
		"room not found": {
			reason:   errors.ReasonRoomNotFound,
			wantCode: errors.CodeNotFound,
			wantHTTP: http.StatusNotFound,
		},
		"not authorized": {
			reason:   errors.ReasonNotAuthorized,
			wantCode: errors.CodePermissionDenied,
			wantHTTP: http.StatusForbidden,
		},
		"duplicate answer": {
			reason:   errors.ReasonDuplicateAnswer,
			wantCode: errors.CodeAlreadyExists,
			wantHTTP: http.StatusConflict,
		},
		"settlement already performed": {
			reason:   errors.ReasonSettlementAlreadyPerformed,
			wantCode: errors.CodeAlreadyExists,
			wantHTTP: http.StatusConflict,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			err := errors.NewReason(tt.reason)

			require.Equal(t, tt.wantCode, err.Code)
			require.Equal(t, tt.wantHTTP, err.HTTPStatusCode())
			require.True(t, errors.IsReason(err, tt.reason))
			require.Equal(t, string(tt.reason), err.Message, "default message is the reason itself")
		})
	}
}

func TestIsReason(t *testing.T) {
	err := errors.NewReason(errors.ReasonRoomFull)

	require.True(t, errors.IsReason(err, errors.ReasonRoomFull))
	require.False(t, errors.IsReason(err, errors.ReasonRoomNotFound))
	require.False(t, errors.IsReason(stderrors.New("plain"), errors.ReasonRoomFull))
	require.False(t, errors.IsReason(nil, errors.ReasonRoomFull))

	wrapped := fmt.Errorf("join: %w", err)
	require.True(t, errors.IsReason(wrapped, errors.ReasonRoomFull), "reasons survive wrapping")
}

func TestConvert(t *testing.T) {
	orig := errors.New(errors.CodeInvalidArgument, errors.WithMessagef("bad input"))
	require.Same(t, orig, errors.Convert(orig))

	plain := stderrors.New("boom")
	conv := errors.Convert(plain)
	require.Equal(t, errors.CodeInternal, conv.Code)
	require.ErrorIs(t, conv, plain)
}

func TestGRPCStatus(t *testing.T) {
	err := errors.NewReason(errors.ReasonNotAuthorized, errors.WithMessagef("not the host"))

	st := err.GRPCStatus()
	require.Equal(t, codes.PermissionDenied, st.Code())
	require.Equal(t, "not the host", st.Message())
}

package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Code codes.Code

const (
	CodeInvalidArgument    = Code(codes.InvalidArgument)
	CodeNotFound           = Code(codes.NotFound)
	CodeAlreadyExists      = Code(codes.AlreadyExists)
	CodePermissionDenied   = Code(codes.PermissionDenied)
	CodeFailedPrecondition = Code(codes.FailedPrecondition)
	CodeResourceExhausted  = Code(codes.ResourceExhausted)
	CodeInternal           = Code(codes.Internal)
	CodeUnauthenticated    = Code(codes.Unauthenticated)
)

var code2http = map[Code]int{
	CodeInvalidArgument:    http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodePermissionDenied:   http.StatusForbidden,
	CodeFailedPrecondition: http.StatusConflict,
	CodeResourceExhausted:  http.StatusTooManyRequests,
	CodeInternal:           http.StatusInternalServerError,
	CodeUnauthenticated:    http.StatusUnauthorized,
}

// Reason identifies the rejected action more precisely than the code alone.
// All reasons are recoverable at the caller: the action is rejected and the
// room/ledger state is unchanged.
type Reason string

const (
	ReasonInvalidTransition          Reason = "INVALID_TRANSITION"
	ReasonInsufficientBalance        Reason = "INSUFFICIENT_BALANCE"
	ReasonRoomFull                   Reason = "ROOM_FULL"
	ReasonRoomNotFound               Reason = "ROOM_NOT_FOUND"
	ReasonNotAuthorized              Reason = "NOT_AUTHORIZED"
	ReasonDuplicateAnswer            Reason = "DUPLICATE_ANSWER"
	ReasonSettlementAlreadyPerformed Reason = "SETTLEMENT_ALREADY_PERFORMED"
)

var reason2code = map[Reason]Code{
	ReasonInvalidTransition:          CodeFailedPrecondition,
	ReasonInsufficientBalance:        CodeFailedPrecondition,
	ReasonRoomFull:                   CodeResourceExhausted,
	ReasonRoomNotFound:               CodeNotFound,
	ReasonNotAuthorized:              CodePermissionDenied,
	ReasonDuplicateAnswer:            CodeAlreadyExists,
	ReasonSettlementAlreadyPerformed: CodeAlreadyExists,
}

type Error struct {
	Code    Code   `json:"code"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message"`
	err     error
}

func New(code Code, opts ...Option) *Error {
	e := &Error{
		Code:    code,
		Message: codes.Code(code).String(),
	}

	for _, opt := range opts {
		opt.apply(e)
	}

	return e
}

// NewReason builds an error from the action-rejection taxonomy.
func NewReason(r Reason, opts ...Option) *Error {
	e := New(reason2code[r], opts...)
	e.Reason = r
	if e.Message == codes.Code(e.Code).String() {
		e.Message = string(r)
	}

	return e
}

func (e *Error) Error() string {
	s := fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
	if e.Reason != "" {
		s += fmt.Sprintf(", reason: %s", e.Reason)
	}
	if e.err != nil {
		s += fmt.Sprintf(", err: %s", e.err)
	}

	return s
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) GRPCStatus() *status.Status {
	return status.New(codes.Code(e.Code), e.Message)
}

func (e *Error) HTTPStatusCode() int {
	if c, ok := code2http[e.Code]; ok {
		return c
	}

	return http.StatusInternalServerError
}

func Convert(err error) *Error {
	var e *Error
	if !errors.As(err, &e) {
		return Internal(err)
	}

	return e
}

func Internal(err error) *Error {
	return New(CodeInternal, WithCause(err))
}

// IsReason reports whether err carries the given rejection reason.
func IsReason(err error, r Reason) bool {
	var e *Error
	return errors.As(err, &e) && e.Reason == r
}

type Option interface {
	apply(*Error)
}

type optionFunc func(*Error)

func (f optionFunc) apply(e *Error) {
	f(e)
}

func WithCause(err error) Option {
	return optionFunc(func(e *Error) {
		e.err = err
	})
}

func WithMessagef(format string, args ...any) Option {
	return optionFunc(func(e *Error) {
		e.Message = fmt.Sprintf(format, args...)
	})
}

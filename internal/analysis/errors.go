package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies orchestration failures.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindMisconfigured       Kind = "misconfigured"
	KindNotFound            Kind = "not_found"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindInferenceFailed     Kind = "inference_failed"
	KindCancelled           Kind = "cancelled"
)

// Sentinels for errors.Is matching on the failure kind.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrMisconfigured       = errors.New("misconfigured")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrInferenceFailed     = errors.New("inference failed")
	ErrCancelled           = errors.New("cancelled")
)

// Error is the typed failure returned by Service.Analyze.
type Error struct {
	Kind Kind
	// Provider names the upstream for UpstreamUnavailable and InferenceFailed.
	Provider string
	// Status is the upstream HTTP status, or 0 for transport failures.
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Kind)
}

// HTTPStatus maps the failure onto the analysis endpoint's status codes.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func sentinelFor(kind Kind) error {
	switch kind {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindMisconfigured:
		return ErrMisconfigured
	case KindNotFound:
		return ErrNotFound
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable
	case KindInferenceFailed:
		return ErrInferenceFailed
	case KindCancelled:
		return ErrCancelled
	default:
		return nil
	}
}

func invalidInput(err error) *Error {
	return &Error{Kind: KindInvalidInput, Message: err.Error(), Err: err}
}

func misconfigured() *Error {
	return &Error{Kind: KindMisconfigured, Message: "OpenAI API key not configured"}
}

func notFound(err error) *Error {
	return &Error{Kind: KindNotFound, Message: "No trading pairs found for this token", Err: err}
}

func upstreamUnavailable(provider string, status int, err error) *Error {
	msg := "Failed to fetch token data from DexScreener"
	if status > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, status)
	}
	return &Error{Kind: KindUpstreamUnavailable, Provider: provider, Status: status, Message: msg, Err: err}
}

func inferenceFailed(provider string, err error) *Error {
	msg := err.Error()
	if msg == "" {
		msg = "Failed to generate AI analysis"
	}
	return &Error{Kind: KindInferenceFailed, Provider: provider, Message: msg, Err: err}
}

func cancelled(err error) *Error {
	return &Error{Kind: KindCancelled, Message: "analysis request cancelled", Err: err}
}

// isCancellation reports whether err stems from the caller's context ending.
func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// AsError extracts an *Error from err, if it carries one.
func AsError(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the failure kind carried by err. Errors without one count
// as inference failures.
func KindOf(err error) Kind {
	if ae, ok := AsError(err); ok {
		return ae.Kind
	}
	return KindInferenceFailed
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies provider failures
type Kind string

const (
	KindRateLimited Kind = "rate_limited"
	KindNotFound    Kind = "not_found"
	KindAuth        Kind = "auth"
	KindUnavailable Kind = "unavailable"
	KindMalformed   Kind = "malformed"
	KindCanceled    Kind = "canceled"
	KindUnknown     Kind = "unknown"
)

// Error is returned by every provider call
type Error struct {
	Provider   string
	Kind       Kind
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s (HTTP %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, KindUnknown for foreign errors and "" for nil
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return KindUnknown
}

// IsRecoverable reports whether a caller should apply its fallback and carry on.
// Everything except caller cancellation is recoverable.
func IsRecoverable(err error) bool {
	return err != nil && KindOf(err) != KindCanceled
}

// KindForStatus maps an HTTP status code to a Kind
func KindForStatus(code int) Kind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusRequestTimeout || code >= 500:
		return KindUnavailable
	case code >= 400:
		return KindMalformed
	default:
		return KindUnknown
	}
}

func statusError(provider string, code int, err error) *Error {
	return &Error{Provider: provider, Kind: KindForStatus(code), StatusCode: code, Err: err}
}

func malformedError(provider string, err error) *Error {
	return &Error{Provider: provider, Kind: KindMalformed, Err: err}
}

// transportError classifies failures that happened before a response arrived
func transportError(provider string, err error) *Error {
	kind := KindUnavailable
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindUnavailable
	case errors.As(err, &netErr):
		kind = KindUnavailable
	}
	return &Error{Provider: provider, Kind: kind, Err: err}
}

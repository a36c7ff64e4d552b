package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a backend failure.
type ErrorKind string

const (
	KindUnauthorized   ErrorKind = "unauthorized"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindRateLimited    ErrorKind = "rate_limited"
	KindServerError    ErrorKind = "server_error"
	KindNetworkTimeout ErrorKind = "network_timeout"
	KindUnknown        ErrorKind = "unknown"
)

// Error is returned by backends for every failed call.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "provider: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

var errNoKey = &Error{Kind: KindUnauthorized, Body: "no API key configured"}

// Classify maps an HTTP status to an ErrorKind.
func Classify(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusBadRequest, status == http.StatusNotFound,
		status == http.StatusRequestEntityTooLarge, status == http.StatusUnprocessableEntity:
		return KindInvalidRequest
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServerError
	default:
		return KindUnknown
	}
}

// IsFatal reports whether retrying err cannot help.
func IsFatal(err error) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Kind == KindUnauthorized || pe.Kind == KindInvalidRequest
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// transportError wraps a failure that happened before a response arrived.
func transportError(err error) *Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Kind: KindNetworkTimeout, Err: err}
	}
	return &Error{Kind: KindUnknown, Err: err}
}

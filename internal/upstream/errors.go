// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the bearer token was rejected.
	ErrUnauthorized = errors.New("upstream: unauthorized")

	// ErrInsufficientScope means the token lacks a scope the endpoint needs.
	// Callers treat it like ErrUnauthorized and ask the user to
	// re-authorise.
	ErrInsufficientScope = errors.New("upstream: insufficient client scope")

	// ErrCircuitOpen means the circuit breaker rejected the request.
	ErrCircuitOpen = errors.New("upstream: circuit breaker open")

	// ErrRateLimited means the upstream answered 429.
	ErrRateLimited = errors.New("upstream: rate limited")
)

// Error describes a failed upstream call.
type Error struct {
	Op         string // endpoint name, e.g. "recently_played"
	StatusCode int    // 0 when no response was received
	Message    string
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %s: status %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("upstream %s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err requires the user to authenticate again.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrInsufficientScope)
}

// statusError classifies a non-2xx response.
func statusError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, StatusCode: status, Message: errorMessage(body)}
	switch {
	case status == http.StatusUnauthorized:
		e.Err = ErrUnauthorized
	case status == http.StatusForbidden && isInsufficientScope(e.Message):
		e.Err = ErrInsufficientScope
	case status == http.StatusTooManyRequests:
		e.Err = ErrRateLimited
		e.Retryable = true
	case status >= 500:
		e.Retryable = true
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// isClientFault reports errors that say nothing about upstream health and
// must not trip the circuit breaker.
func isClientFault(err error) bool {
	var ue *Error
	if !errors.As(err, &ue) {
		return false
	}
	return ue.StatusCode >= 400 && ue.StatusCode < 500 && ue.StatusCode != http.StatusTooManyRequests
}

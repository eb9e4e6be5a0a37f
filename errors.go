package nailgen

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies why a provider attempt failed.
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindStatus      ErrorKind = "status"
	KindPayload     ErrorKind = "payload"
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate_limited"
	KindCanceled    ErrorKind = "canceled"
)

// ProviderError is returned by adapters for any non-success outcome.
// It is recoverable: the cascade logs it and moves to the next adapter.
type ProviderError struct {
	Adapter    string
	StatusCode int // 0 when no HTTP response was received
	Kind       ErrorKind
	Message    string
	Err        error // Underlying error, if any
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %s", e.Adapter, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Adapter, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError checks if an error is a ProviderError.
func IsProviderError(err error) bool {
	var pErr *ProviderError
	return errors.As(err, &pErr)
}

// RateLimitError is returned when an adapter's request limiter denies an attempt.
type RateLimitError struct {
	RetryAfter time.Duration
	Adapter    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %v", e.Adapter, e.RetryAfter)
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// ValidationError reports a malformed GenerationRequest. It is never retried.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// PlaceholderError means the local fallback itself failed. This should not
// happen with the default Placeholder and is surfaced as an internal error.
type PlaceholderError struct {
	Err error
}

func (e *PlaceholderError) Error() string {
	return fmt.Sprintf("placeholder generation failed: %v", e.Err)
}

func (e *PlaceholderError) Unwrap() error {
	return e.Err
}

// ErrCascadeExhausted signals that every adapter in the selected chain failed.
// The cascade consumes it internally to switch to the placeholder.
var ErrCascadeExhausted = errors.New("cascade exhausted")

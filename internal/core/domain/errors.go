package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid caller input.
	// Never retried; surfaced immediately to the caller.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable indicates a transient embedding or generation
	// provider failure. Retried once with backoff before being surfaced.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrStoreUnavailable indicates a transient vector store failure.
	// Retried once with backoff before being surfaced.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrRateLimited indicates provider backpressure. Callers should back
	// off, never spin-retry immediately.
	ErrRateLimited = errors.New("rate limited")

	// ErrCollectionNotFound indicates a query was attempted before any
	// successful indexing run. Operator action required, not retried.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrDimensionMismatch indicates the embedding dimensionality disagrees
	// with the collection's declared dimensionality. Fatal configuration
	// error, fails fast rather than corrupting the collection.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// RateLimitError wraps ErrRateLimited with the provider's retry-after hint.
type RateLimitError struct {
	// RetryAfter is how long the provider asked us to wait. Zero when the
	// provider gave no hint.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// Unwrap makes errors.Is(err, ErrRateLimited) hold.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// IsRetryable reports whether the error is transient and worth one retry.
// Caller-input and configuration errors are never retryable.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrDimensionMismatch),
		errors.Is(err, ErrCollectionNotFound),
		errors.Is(err, ErrNotFound):
		return false
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrRateLimited):
		return true
	}
	return false
}

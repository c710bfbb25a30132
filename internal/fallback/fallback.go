// Package fallback wraps external calls with a bounded timeout and a single
// backoff retry for transient failures. Caller-input and configuration
// errors are never retried.
package fallback

import (
	"context"
	"errors"
	"time"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/logger"
)

// Recommended per-call timeouts.
const (
	EmbedTimeout    = 5 * time.Second
	SearchTimeout   = 5 * time.Second
	GenerateTimeout = 30 * time.Second

	// DefaultBackoff is the wait before the single retry when the provider
	// gave no retry-after hint.
	DefaultBackoff = 500 * time.Millisecond

	// maxRetryAfter caps how long a provider hint can make us wait.
	maxRetryAfter = 5 * time.Second
)

// Policy bounds one class of external call.
type Policy struct {
	timeout time.Duration
	backoff time.Duration
}

// New creates a policy with the given per-attempt timeout.
func New(timeout time.Duration) *Policy {
	if timeout <= 0 {
		timeout = EmbedTimeout
	}
	return &Policy{timeout: timeout, backoff: DefaultBackoff}
}

// WithBackoff overrides the retry backoff. Useful for tests.
func (p *Policy) WithBackoff(d time.Duration) *Policy {
	if d >= 0 {
		p.backoff = d
	}
	return p
}

// Do runs fn with the policy's timeout. On a transient failure it waits and
// retries exactly once; all other errors are returned as-is. A rate-limit
// retry-after hint replaces the default backoff, capped so one slow provider
// cannot stall a request indefinitely.
func (p *Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := p.attempt(ctx, fn)
	if err == nil || !domain.IsRetryable(err) {
		return err
	}

	wait := p.backoff
	var rl *domain.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		wait = rl.RetryAfter
		if wait > maxRetryAfter {
			wait = maxRetryAfter
		}
	}

	logger.Warn("%s failed (%v), retrying once in %s", op, err, wait)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
	}

	return p.attempt(ctx, fn)
}

func (p *Policy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return fn(attemptCtx)
}

// Call is Do for operations that return a value.
func Call[T any](ctx context.Context, p *Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		var callErr error
		out, callErr = fn(ctx)
		return callErr
	})
	return out, err
}

package embeddings

import (
	"context"
	"math"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryPolicy defines bounded retry with exponential backoff for embedding
// calls. Backoff is base^attempt seconds.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase float64
}

// NewRetryPolicy creates the default embedding retry policy
func NewRetryPolicy(maxAttempts int) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		BackoffBase: 2.0,
	}
}

// CalculateBackoff returns the wait before the given zero-based attempt's retry
func (p *RetryPolicy) CalculateBackoff(attempt int) time.Duration {
	seconds := math.Pow(p.BackoffBase, float64(attempt))
	return time.Duration(seconds * float64(time.Second))
}

// Execute runs fn up to MaxAttempts times, sleeping between attempts. The
// last error is returned after exhaustion; callers treat that as a dropped
// batch, not a fatal condition.
func (p *RetryPolicy) Execute(ctx context.Context, logger arbor.ILogger, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < p.MaxAttempts-1 {
			backoff := p.CalculateBackoff(attempt)
			logger.Warn().
				Int("attempt", attempt+1).
				Int("max_attempts", p.MaxAttempts).
				Err(lastErr).
				Dur("backoff", backoff).
				Msg("Embedding call failed, retrying after backoff")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	logger.Warn().
		Int("max_attempts", p.MaxAttempts).
		Err(lastErr).
		Msg("All embedding retry attempts exhausted")

	return lastErr
}

package pipeline

import (
	"context"
	"time"
)

// RetryPolicy wraps a fallible remote call with bounded exponential backoff
// for transient failures. The wait suspends the calling stage only; each
// stage runs in its own goroutine so unrelated stages keep making progress.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Classify    func(error) Class
}

// NewRetryPolicy builds a policy with sane lower bounds.
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, Classify: Classify}
}

// Do invokes op until it succeeds, fails with a fatal classification, or the
// attempt budget runs out. Backoff doubles per attempt: base * 2^(attempt-1).
// Exhaustion returns a *RetryError wrapping the last transient cause.
func Retry[T any](ctx context.Context, p RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	classify := p.Classify
	if classify == nil {
		classify = Classify
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if classify(err) == ClassFatal {
			return zero, err
		}
		lastErr = err

		if attempt < attempts {
			delay := p.BaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}
	return zero, &RetryError{Attempts: attempts, Err: lastErr}
}

// Do is the value-free form of Retry for operations with no result.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	_, err := Retry(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

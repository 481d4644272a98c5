package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Backoff returns the wait before the given retry (1 for the first retry)
type Backoff func(retry int) time.Duration

// ExponentialBackoff waits retry² seconds plus up to half of that as jitter
func ExponentialBackoff(retry int) time.Duration {
	base := time.Duration(retry*retry) * time.Second
	return base + time.Duration(rand.Int64N(int64(base/2+1)))
}

// Retrying retries transient failures of the wrapped gateway. Auth, rate limit
// and invalid response errors are returned at once.
type Retrying struct {
	Next     Gateway
	Attempts int
	Backoff  Backoff
	Logger   *zap.SugaredLogger
}

func NewRetrying(next Gateway, attempts int, logger *zap.SugaredLogger) *Retrying {
	return &Retrying{Next: next, Attempts: attempts, Backoff: ExponentialBackoff, Logger: logger}
}

// Complete makes at most Attempts calls. When they are used up the last
// failure is returned as one error carrying the attempt count.
func (r *Retrying) Complete(ctx context.Context, req *Request) (*Completion, error) {
	attempts := max(r.Attempts, 1)
	var last *Error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := r.Backoff(attempt - 1)
			r.Logger.Warnw("Retrying completion", "attempt", attempt, "backoff", wait, "error", last)
			select {
			case <-ctx.Done():
				return nil, exhausted(last, attempt-1)
			case <-time.After(wait):
			}
		}

		c, err := r.Next.Complete(ctx, req)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrTransient) || !errors.As(err, &last) {
			return nil, err
		}
	}
	return nil, exhausted(last, attempts)
}

func exhausted(last *Error, attempts int) *Error {
	e := *last
	e.Attempts = attempts
	return &e
}

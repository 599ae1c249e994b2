// Package retry runs calls to flaky upstreams with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

type policy struct {
	attempts int
	initial  time.Duration
	max      time.Duration
	factor   float64
}

// Option tunes a retry policy.
type Option func(*policy)

// Attempts sets the total number of calls, including the first one.
func Attempts(n int) Option {
	return func(p *policy) {
		if n > 0 {
			p.attempts = n
		}
	}
}

// Backoff sets the first delay and its upper bound.
func Backoff(initial, max time.Duration) Option {
	return func(p *policy) {
		if initial > 0 {
			p.initial = initial
		}
		if max > 0 {
			p.max = max
		}
	}
}

// Factor sets the growth of the delay between attempts (default 2).
func Factor(f float64) Option {
	return func(p *policy) {
		if f >= 1 {
			p.factor = f
		}
	}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; Do returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, the attempts are
// exhausted or ctx is done.
func Do(ctx context.Context, fn func(context.Context) error, opts ...Option) error {
	if fn == nil {
		return errors.New("retry: nil func")
	}
	p := policy{attempts: 3, initial: 500 * time.Millisecond, max: 10 * time.Second, factor: 2}
	for _, o := range opts {
		o(&p)
	}

	var last error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		last = err
		if attempt == p.attempts {
			break
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry: aborted after %d attempts: %w", attempt, errors.Join(ctx.Err(), last))
		case <-timer.C:
		}
	}
	return fmt.Errorf("retry: giving up after %d attempts: %w", p.attempts, last)
}

// delay is initial * factor^(attempt-1), capped at max.
func (p policy) delay(attempt int) time.Duration {
	d := float64(p.initial) * math.Pow(p.factor, float64(attempt-1))
	if d > float64(p.max) {
		return p.max
	}
	return time.Duration(d)
}

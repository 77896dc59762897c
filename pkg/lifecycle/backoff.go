package lifecycle

import (
	"context"
	"math/rand"
	"time"
)

// Default retry policy for establishing a streaming session.
const (
	DefaultRetryAttempts  = 3
	DefaultBackoffInitial = time.Second
	DefaultBackoffMax     = 8 * time.Second
)

// Backoff implements exponential backoff with ±20% jitter.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration

	// jitter returns a value in [-1, 1]; replaced in tests.
	jitter func() float64
}

// NewBackoff creates a new backoff with the given initial and max durations.
func NewBackoff(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = DefaultBackoffInitial
	}
	if max < initial {
		max = initial
	}
	return &Backoff{
		initial: initial,
		max:     max,
		current: initial,
		jitter:  func() float64 { return rand.Float64()*2 - 1 },
	}
}

// Next returns the delay to wait now and doubles the following one, capped
// at the maximum.
func (b *Backoff) Next() time.Duration {
	d := time.Duration(float64(b.current) * (1 + 0.2*b.jitter()))

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Wait sleeps for Next() or until ctx is done.
func (b *Backoff) Wait(ctx context.Context) error {
	t := time.NewTimer(b.Next())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Reset resets the backoff to the initial duration.
func (b *Backoff) Reset() {
	b.current = b.initial
}

// Current returns the delay the next call to Next is based on.
func (b *Backoff) Current() time.Duration {
	return b.current
}

// RetryPolicy bounds how often an operation is attempted.
type RetryPolicy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultRetryPolicy returns three attempts with 1s, 2s, 4s... delays capped at 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: DefaultRetryAttempts,
		Initial:  DefaultBackoffInitial,
		Max:      DefaultBackoffMax,
	}
}

// Retry calls fn until it succeeds, the attempts are used up or ctx is done.
// The error of the last attempt is returned.
func (p RetryPolicy) Retry(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	b := NewBackoff(p.Initial, p.Max)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if werr := b.Wait(ctx); werr != nil {
			return err
		}
	}
	return err
}

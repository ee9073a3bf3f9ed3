package embedding

import (
	"context"
	"time"
)

const (
	// DefaultRequestBudget is the allowed number of embedding requests
	// per rolling minute.
	DefaultRequestBudget = 50
	// DefaultDelayFloor is the starting inter-request delay.
	DefaultDelayFloor = 500 * time.Millisecond
	// DefaultDelayCeiling bounds the adaptive backoff.
	DefaultDelayCeiling = 32 * time.Second

	budgetWindow = time.Minute
)

// RateLimiter protects the single external embedding endpoint. It keeps
// a rolling count of requests over the last minute and an adaptive
// inter-request delay that doubles on throttling and relaxes toward the
// floor on success.
//
// One limiter instance per process; every embedding call site must go
// through the same instance or the aggregate request rate can exceed
// the provider's budget. Not safe for concurrent use: ingestion is
// deliberately serialized through it.
type RateLimiter struct {
	budget  int
	floor   time.Duration
	ceiling time.Duration

	delay    time.Duration
	requests []time.Time

	now   func() time.Time
	after func(d time.Duration) <-chan time.Time
}

// RateLimiterOption is a functional option for RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithDelayBounds sets the floor and ceiling of the adaptive delay.
func WithDelayBounds(floor, ceiling time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.floor = floor
		rl.ceiling = ceiling
	}
}

// WithClock injects the time source and timer, used by tests to drive
// the limiter with a fake clock.
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.now = now
		rl.after = after
	}
}

// NewRateLimiter creates a limiter enforcing budget requests per minute.
func NewRateLimiter(budget int, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		budget:  budget,
		floor:   DefaultDelayFloor,
		ceiling: DefaultDelayCeiling,
		now:     time.Now,
		after:   time.After,
	}
	for _, opt := range opts {
		opt(rl)
	}
	if rl.budget <= 0 {
		rl.budget = DefaultRequestBudget
	}
	rl.delay = rl.floor
	return rl
}

// WaitTurn blocks until the caller may issue the next embedding request.
// It first applies the adaptive inter-request delay, then blocks until
// the rolling window has room. Call before every request.
func (rl *RateLimiter) WaitTurn(ctx context.Context) error {
	if err := rl.sleep(ctx, rl.delay); err != nil {
		return err
	}

	rl.prune()
	if len(rl.requests) >= rl.budget {
		oldest := rl.requests[0]
		wait := oldest.Add(budgetWindow).Sub(rl.now())
		if err := rl.sleep(ctx, wait); err != nil {
			return err
		}
		rl.prune()
	}

	rl.requests = append(rl.requests, rl.now())
	return nil
}

// ReportThrottled doubles the inter-request delay up to the ceiling and
// sleeps that duration before returning, so the caller can retry the
// same unit of work. Returns the applied delay for checkpoint logging.
func (rl *RateLimiter) ReportThrottled(ctx context.Context) (time.Duration, error) {
	rl.delay *= 2
	if rl.delay > rl.ceiling {
		rl.delay = rl.ceiling
	}
	if err := rl.sleep(ctx, rl.delay); err != nil {
		return rl.delay, err
	}
	return rl.delay, nil
}

// ReportSuccess relaxes the inter-request delay toward the floor.
func (rl *RateLimiter) ReportSuccess() {
	rl.delay = time.Duration(float64(rl.delay) * 0.9)
	if rl.delay < rl.floor {
		rl.delay = rl.floor
	}
}

// Delay returns the current adaptive delay.
func (rl *RateLimiter) Delay() time.Duration {
	return rl.delay
}

// prune drops request timestamps that aged out of the rolling window.
func (rl *RateLimiter) prune() {
	cutoff := rl.now().Add(-budgetWindow)
	idx := 0
	for idx < len(rl.requests) && !rl.requests[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		rl.requests = append(rl.requests[:0], rl.requests[idx:]...)
	}
}

// sleep waits for d, short-circuiting on context cancellation.
func (rl *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-rl.after(d):
		return nil
	}
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrRateLimited means a request could not get a slot before its deadline.
var ErrRateLimited = errors.New("rate limit would be exceeded")

// rateLimited spaces the requests sent through one transport so that at most
// rpm go out per minute. Capacity refills continuously; up to rpm requests may
// burst after a quiet minute. Waiting callers hold a reservation so they are
// served in arrival order.
type rateLimited struct {
	Transport

	rpm float64
	now func() time.Time

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimited wraps t so that at most rpm requests per minute reach it.
func NewRateLimited(t Transport, rpm int) Transport {
	return newRateLimited(t, rpm, time.Now)
}

func newRateLimited(t Transport, rpm int, now func() time.Time) *rateLimited {
	return &rateLimited{
		Transport: t,
		rpm:       float64(rpm),
		now:       now,
		tokens:    float64(rpm),
		last:      now(),
	}
}

func (r *rateLimited) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.reserve(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", r.Name(), err)
	}
	return r.Transport.Complete(ctx, req)
}

// reserve takes one slot, sleeping until it is due. When ctx would expire
// first the slot is handed back and ErrRateLimited returned without waiting.
func (r *rateLimited) reserve(ctx context.Context) error {
	r.mu.Lock()
	now := r.now()
	r.tokens = math.Min(r.rpm, r.tokens+now.Sub(r.last).Minutes()*r.rpm)
	r.last = now
	r.tokens--
	var wait time.Duration
	if r.tokens < 0 {
		wait = time.Duration(-r.tokens / r.rpm * float64(time.Minute))
	}
	r.mu.Unlock()

	if wait == 0 {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
		r.release()
		return fmt.Errorf("%w: next slot in %s", ErrRateLimited, wait.Round(time.Second))
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		r.release()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *rateLimited) release() {
	r.mu.Lock()
	r.tokens++
	r.mu.Unlock()
}

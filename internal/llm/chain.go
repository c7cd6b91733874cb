package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// AttemptStatus is the outcome of trying one transport.
type AttemptStatus string

const (
	StatusSuccess AttemptStatus = "success"
	// StatusNoFn means the transport was not available and was skipped.
	StatusNoFn  AttemptStatus = "no-fn"
	StatusError AttemptStatus = "error"
)

// Attempt records one transport probe.
type Attempt struct {
	Transport string        `json:"transport"`
	Status    AttemptStatus `json:"status"`
	Detail    string        `json:"detail,omitempty"`

	// HTTPStatus is set when a hosted API answered with an error status.
	HTTPStatus int `json:"http_status,omitempty"`
}

func (a Attempt) String() string {
	s := fmt.Sprintf("%s: %s", a.Transport, a.Status)
	if a.Detail != "" {
		s += " (" + a.Detail + ")"
	}
	return s
}

// ErrCompletionFailed is matched by every *CompletionError.
var ErrCompletionFailed = errors.New("completion request failed")

// CompletionError is returned when every transport in a chain failed or was
// unavailable.
type CompletionError struct {
	Attempts []Attempt
}

func (e *CompletionError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.String())
	}
	if len(parts) == 0 {
		return ErrCompletionFailed.Error() + ": no transports configured"
	}
	return ErrCompletionFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *CompletionError) Unwrap() error { return ErrCompletionFailed }

// DefaultAttemptTimeout bounds a single transport attempt.
const DefaultAttemptTimeout = 60 * time.Second

// Chain tries transports in order and returns the first successful response.
type Chain struct {
	transports []Transport
	timeout    time.Duration
}

// NewChain creates a chain. A non-positive timeout uses DefaultAttemptTimeout.
func NewChain(timeout time.Duration, transports ...Transport) *Chain {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	return &Chain{transports: transports, timeout: timeout}
}

func (c *Chain) Name() string {
	return "chain"
}

// Transports returns the transport names in probe order.
func (c *Chain) Transports() []string {
	names := make([]string, len(c.transports))
	for i, t := range c.transports {
		names[i] = t.Name()
	}
	return names
}

// Complete probes each transport in order. Unavailable transports are
// recorded as no-fn; failures and per-attempt timeouts as error.
func (c *Chain) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var attempts []Attempt
	for _, t := range c.transports {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Transport: t.Name(), Status: StatusError, Detail: err.Error()})
			continue
		}
		if !t.Available(ctx) {
			attempts = append(attempts, Attempt{Transport: t.Name(), Status: StatusNoFn})
			continue
		}

		resp, err := c.try(ctx, t, req)
		if err != nil {
			log.Printf("llm: %s transport failed: %v", t.Name(), err)
			attempts = append(attempts, Attempt{Transport: t.Name(), Status: StatusError, Detail: err.Error(), HTTPStatus: httpStatusOf(err)})
			continue
		}

		attempts = append(attempts, Attempt{Transport: t.Name(), Status: StatusSuccess})
		resp.Transport = t.Name()
		resp.Attempts = attempts
		return resp, nil
	}
	return nil, &CompletionError{Attempts: attempts}
}

func (c *Chain) try(ctx context.Context, t Transport, req CompletionRequest) (*CompletionResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := t.Complete(attemptCtx, req)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("timed out after %s: %w", c.timeout, err)
		}
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, errors.New("empty completion")
	}
	return resp, nil
}

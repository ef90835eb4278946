// Package ratelimit provides scoped, sliding-window rate limiting for the
// gatekeeper. A limiter is chosen once at startup from three variants:
// disabled (no store configured), local (in-process token buckets), and
// distributed (Redis sliding window shared across replicas).
package ratelimit

import (
	"context"
	"time"

	"edge-gatekeeper/internal/redis"
)

// Scope names a rate-limit budget class. Budgets in different scopes never
// share a counter, so exhausting one cannot starve the other.
type Scope string

const (
	ScopeAPI    Scope = "api"
	ScopeGlobal Scope = "global"
)

// Key addresses one bucket in the store: a client address within a scope.
type Key struct {
	ClientAddr string
	Scope      Scope
}

// Result is the outcome of one consume. Active reports whether a budget was
// actually checked; a disabled limiter allows everything with Active false
// so callers can tell "disabled" apart from "allowed".
type Result struct {
	Allowed   bool
	Active    bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter returns the whole seconds until the window resets, rounded up
// and never negative. Used for the Retry-After header on denials.
func (r *Result) RetryAfter(now time.Time) int {
	if r.Reset.IsZero() {
		return 0
	}
	d := r.Reset.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	return secs
}

// Limiter is the single interface the orchestrator consumes against.
type Limiter interface {
	// Consume atomically records one request under key and reports whether
	// it fits the scope's budget. Implementations must not read-then-write
	// in separate steps.
	Consume(ctx context.Context, key Key) (*Result, error)

	// Backend identifies the active variant ("redis", "local", "disabled").
	Backend() string

	Health() error
}

// StoreInterface is the minimal counter-store surface the distributed
// limiter needs. *redis.Client satisfies it; tests substitute fakes.
type StoreInterface interface {
	Consume(ctx context.Context, key string, limit int, window time.Duration) (*redis.ConsumeResult, error)
	Health() error
}

var _ StoreInterface = (*redis.Client)(nil)

package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// localLimiter implements per-key rate limiting in process memory using
// golang.org/x/time/rate. It is for single-instance deployments; replicas
// would each carry their own buckets, so multi-instance setups should use
// the distributed backend.
type localLimiter struct {
	mu       sync.Mutex
	config   Config
	limiters map[Key]*limiterEntry

	maxKeys       int
	cleanupPeriod time.Duration
	lastCleanup   time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewLocalLimiter creates an in-process limiter with the configured budgets.
func NewLocalLimiter(config Config) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &localLimiter{
		config:        config,
		limiters:      make(map[Key]*limiterEntry),
		maxKeys:       10000,
		cleanupPeriod: 5 * time.Minute,
		lastCleanup:   time.Now(),
	}, nil
}

func (l *localLimiter) Consume(_ context.Context, key Key) (*Result, error) {
	budget := l.config.BudgetFor(key.Scope)
	interval := budget.Window / time.Duration(budget.Max)

	l.mu.Lock()
	entry, exists := l.limiters[key]
	if !exists {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(interval), budget.Max),
		}
		l.limiters[key] = entry
	}
	entry.lastUsed = time.Now()

	if time.Since(l.lastCleanup) > l.cleanupPeriod || len(l.limiters) > l.maxKeys {
		l.cleanup()
	}
	l.mu.Unlock()

	now := time.Now()
	allowed := entry.limiter.Allow()

	tokens := entry.limiter.Tokens()
	if tokens < 0 {
		tokens = 0
	}
	remaining := int(tokens)

	// Time until the bucket is full again; bounded by one window so the
	// Retry-After hint never exceeds the configured window.
	refill := time.Duration(float64(budget.Max)-tokens) * interval
	if refill > budget.Window {
		refill = budget.Window
	}

	return &Result{
		Allowed:   allowed,
		Active:    true,
		Limit:     budget.Max,
		Remaining: remaining,
		Reset:     now.Add(refill),
	}, nil
}

// cleanup drops idle entries. Caller holds l.mu.
func (l *localLimiter) cleanup() {
	cutoff := time.Now().Add(-l.cleanupPeriod)
	for key, entry := range l.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
	l.lastCleanup = time.Now()
}

func (l *localLimiter) Backend() string {
	return BackendLocal
}

func (l *localLimiter) Health() error {
	return nil
}

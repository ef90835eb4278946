package ratelimit

import (
	"context"
	"fmt"

	"edge-gatekeeper/internal/common/errors"
)

// distributedLimiter checks budgets against the shared Redis sliding window.
// It holds no bucket state of its own, so any number of gatekeeper replicas
// can share one store without coordination.
type distributedLimiter struct {
	config Config
	store  StoreInterface
}

// NewDistributedLimiter creates a Redis-backed limiter.
func NewDistributedLimiter(config Config, store StoreInterface) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("counter store is required for distributed rate limiter")
	}

	return &distributedLimiter{
		config: config,
		store:  store,
	}, nil
}

func (l *distributedLimiter) Consume(ctx context.Context, key Key) (*Result, error) {
	budget := l.config.BudgetFor(key.Scope)
	storeKey := fmt.Sprintf("%s%s:%s", l.config.KeyPrefix, key.ClientAddr, key.Scope)

	res, err := l.store.Consume(ctx, storeKey, budget.Max, budget.Window)
	if err != nil {
		return nil, errors.ConnectionError("rate limit store consume failed", err).WithContext("key", storeKey)
	}

	remaining := budget.Max - res.Count
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   res.Allowed,
		Active:    true,
		Limit:     budget.Max,
		Remaining: remaining,
		Reset:     res.Reset,
	}, nil
}

func (l *distributedLimiter) Backend() string {
	return BackendRedis
}

func (l *distributedLimiter) Health() error {
	return l.store.Health()
}

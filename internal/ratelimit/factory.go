package ratelimit

import (
	"fmt"

	"edge-gatekeeper/internal/common/logging"
)

// New creates the limiter variant named by config.Backend. The choice is
// made once here; callers never re-check configuration per request.
func New(config Config, store StoreInterface) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Backend {
	case BackendDisabled:
		logging.Info("Rate limiting disabled: no counter store configured, all requests will be allowed")
		return NewDisabledLimiter(), nil
	case BackendLocal:
		return NewLocalLimiter(config)
	case BackendRedis:
		if store == nil {
			return nil, fmt.Errorf("counter store is required for the redis backend")
		}
		return NewDistributedLimiter(config, store)
	default:
		return nil, fmt.Errorf("unsupported rate limiter backend: %s", config.Backend)
	}
}

package ratelimit

import (
	"fmt"
	"time"
)

// Backend identifiers for the limiter variants.
const (
	BackendRedis    = "redis"
	BackendLocal    = "local"
	BackendDisabled = "disabled"
)

// Budget is one scope's allowance: at most Max requests per Window.
type Budget struct {
	Max    int           `json:"max"`
	Window time.Duration `json:"window"`
}

// Config selects the limiter variant and its per-scope budgets.
type Config struct {
	Backend   string `json:"backend"`
	KeyPrefix string `json:"key_prefix"`

	API    Budget `json:"api"`
	Global Budget `json:"global"`
}

// Validate checks budgets and fills defaults. The zero budgets default to
// the production values of the system this fronts: 10/min for API calls,
// 60/min for everything else.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRedis, BackendLocal, BackendDisabled:
	case "":
		c.Backend = BackendDisabled
	default:
		return fmt.Errorf("unsupported rate limiter backend: %s", c.Backend)
	}

	if c.KeyPrefix == "" {
		c.KeyPrefix = "ratelimit:"
	}

	if c.API.Max == 0 && c.API.Window == 0 {
		c.API = Budget{Max: 10, Window: time.Minute}
	}
	if c.Global.Max == 0 && c.Global.Window == 0 {
		c.Global = Budget{Max: 60, Window: time.Minute}
	}

	if c.Backend == BackendDisabled {
		return nil
	}

	if c.API.Max < 1 || c.Global.Max < 1 {
		return fmt.Errorf("rate limit budgets must be positive")
	}
	if c.API.Window <= 0 || c.Global.Window <= 0 {
		return fmt.Errorf("rate limit windows must be positive")
	}

	return nil
}

// BudgetFor resolves the budget for a scope. Unknown scopes get the global
// budget so the function is total.
func (c *Config) BudgetFor(scope Scope) Budget {
	if scope == ScopeAPI {
		return c.API
	}
	return c.Global
}

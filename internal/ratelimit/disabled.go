package ratelimit

import "context"

// disabledLimiter is the explicit no-store mode. Every consume allows with
// Active false so the orchestrator omits rate-limit headers and operators
// can tell "disabled" apart from "broken" (broken surfaces as per-request
// store errors; disabled is decided once at startup).
type disabledLimiter struct{}

// NewDisabledLimiter creates the pass-through limiter variant.
func NewDisabledLimiter() Limiter {
	return disabledLimiter{}
}

func (disabledLimiter) Consume(context.Context, Key) (*Result, error) {
	return &Result{Allowed: true, Active: false}, nil
}

func (disabledLimiter) Backend() string {
	return BackendDisabled
}

func (disabledLimiter) Health() error {
	return nil
}

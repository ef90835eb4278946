package gatekeeper

import "edge-gatekeeper/internal/ratelimit"

// Kind is the outer decision for a request.
type Kind int

const (
	// Allow lets the request continue to the upstream handler.
	Allow Kind = iota
	// Deny rejects the request with 429 Too Many Requests.
	Deny
	// Redirect sends the client to Target with 302 Found.
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Deny:
		return "deny"
	case Redirect:
		return "redirect"
	default:
		return "allow"
	}
}

// Verdict is the full decision for one request. RateInfo is nil when no
// budget was consumed (static assets, bots, redirects); the response
// layer uses that to decide whether to write rate headers.
type Verdict struct {
	Kind       Kind
	Reason     string
	Target     string
	RateInfo   *ratelimit.Result
	RetryAfter int
}

// Decision reasons, used in logs and telemetry.
const (
	ReasonStaticAsset  = "static_asset"
	ReasonBot          = "bot"
	ReasonWithinBudget = "within_budget"
	ReasonRateLimited  = "rate_limited"
	ReasonNotAdmin     = "not_admin"
	ReasonStoreFailure = "store_failure"
	ReasonDisabled     = "limiter_disabled"
)

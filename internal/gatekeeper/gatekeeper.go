// Package gatekeeper decides the fate of every incoming edge request:
// allow it through, deny it with 429, or redirect it away. Decisions
// combine path classification, bot detection, the admin authorization
// gate, and scoped rate limiting.
package gatekeeper

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"edge-gatekeeper/internal/bots"
	"edge-gatekeeper/internal/common/errors"
	"edge-gatekeeper/internal/common/logging"
	"edge-gatekeeper/internal/ratelimit"
	"edge-gatekeeper/internal/routes"
	"edge-gatekeeper/internal/telemetry"
)

// AdminGate reports whether the request's session belongs to an admin.
type AdminGate interface {
	CheckAdminAccess(ctx context.Context, cookie string) bool
}

// Gatekeeper orchestrates one decision per request.
type Gatekeeper struct {
	classifier       *routes.Classifier
	bots             *bots.Detector
	gate             AdminGate
	limiter          ratelimit.Limiter
	sink             telemetry.Sink
	enforceAdminGate bool
}

// Options configures a Gatekeeper. Nil fields fall back to safe
// defaults: a nil sink discards events.
type Options struct {
	Classifier       *routes.Classifier
	Bots             *bots.Detector
	Gate             AdminGate
	Limiter          ratelimit.Limiter
	Sink             telemetry.Sink
	EnforceAdminGate bool
}

func New(opts Options) *Gatekeeper {
	sink := opts.Sink
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	return &Gatekeeper{
		classifier:       opts.Classifier,
		bots:             opts.Bots,
		gate:             opts.Gate,
		limiter:          opts.Limiter,
		sink:             sink,
		enforceAdminGate: opts.EnforceAdminGate,
	}
}

// Decide evaluates the request and returns a verdict. It never returns
// an error: store failures allow the request through and identity
// failures deny admin access, so the edge stays up when its
// dependencies are not.
func (g *Gatekeeper) Decide(r *http.Request) *Verdict {
	ctx := r.Context()
	path := r.URL.Path
	category := g.classifier.Classify(path)

	// Static assets skip every check.
	if category == routes.StaticAsset {
		return &Verdict{Kind: Allow, Reason: ReasonStaticAsset}
	}

	// The admin gate runs before bot detection so a crawler cannot
	// reach the admin area just by sending a bot user agent. Passing
	// the gate only clears authorization; admin traffic still goes
	// through the bot check and the global budget below.
	if category == routes.AdminArea {
		if g.gate != nil && g.gate.CheckAdminAccess(ctx, r.Header.Get("Cookie")) {
			logging.Debug("Admin access granted", logging.Field{Key: "path", Value: path})
		} else if g.enforceAdminGate {
			clientAddr := ClientAddr(r)
			logging.Info("Redirecting non-admin away from admin area",
				logging.Field{Key: "path", Value: path},
				logging.Field{Key: "client_addr", Value: clientAddr})
			g.emit(ctx, telemetry.Event{
				Type:       telemetry.EventGateRedirect,
				Path:       path,
				ClientAddr: clientAddr,
			})
			return &Verdict{Kind: Redirect, Reason: ReasonNotAdmin, Target: "/"}
		} else {
			logging.Warn("Non-admin request to admin area allowed: gate enforcement is off",
				logging.Field{Key: "path", Value: path})
		}
	}

	// Known crawlers are never throttled.
	if g.bots != nil && g.bots.IsBot(r.Header.Get("User-Agent")) {
		return &Verdict{Kind: Allow, Reason: ReasonBot}
	}

	scope := ratelimit.ScopeGlobal
	if category == routes.APIEndpoint {
		scope = ratelimit.ScopeAPI
	}

	clientAddr := ClientAddr(r)
	result, err := g.limiter.Consume(ctx, ratelimit.Key{ClientAddr: clientAddr, Scope: scope})
	if err != nil {
		// Fail open: a broken counter store must not take the site down.
		msg := "Rate limit consume failed, allowing request"
		if errors.IsType(err, errors.ErrTypeConnection) {
			msg = "Rate limit store unreachable, allowing request"
		}
		logging.Error(msg, err,
			logging.Field{Key: "path", Value: path},
			logging.Field{Key: "client_addr", Value: clientAddr},
			logging.Field{Key: "scope", Value: string(scope)},
			logging.Field{Key: "error_type", Value: string(errors.GetType(err))})
		g.emit(ctx, telemetry.Event{
			Type:       telemetry.EventStoreFailure,
			Path:       path,
			ClientAddr: clientAddr,
			Scope:      string(scope),
		})
		return &Verdict{Kind: Allow, Reason: ReasonStoreFailure}
	}

	if !result.Active {
		return &Verdict{Kind: Allow, Reason: ReasonDisabled}
	}

	if !result.Allowed {
		retryAfter := result.RetryAfter(time.Now())
		logging.Info("Rate limit exceeded",
			logging.Field{Key: "path", Value: path},
			logging.Field{Key: "client_addr", Value: clientAddr},
			logging.Field{Key: "scope", Value: string(scope)},
			logging.Field{Key: "retry_after", Value: retryAfter})
		g.emit(ctx, telemetry.Event{
			Type:       telemetry.EventRateLimited,
			Path:       path,
			ClientAddr: clientAddr,
			Scope:      string(scope),
		})
		return &Verdict{
			Kind:       Deny,
			Reason:     ReasonRateLimited,
			RateInfo:   result,
			RetryAfter: retryAfter,
		}
	}

	return &Verdict{Kind: Allow, Reason: ReasonWithinBudget, RateInfo: result}
}

func (g *Gatekeeper) emit(ctx context.Context, event telemetry.Event) {
	emitCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	if err := g.sink.Emit(emitCtx, event); err != nil {
		logging.Warn("Failed to emit telemetry event",
			logging.Field{Key: "type", Value: event.Type},
			logging.Field{Key: "error", Value: err.Error()})
	}
}

// ClientAddr extracts the client address for rate-limit keying. Proxy
// headers win over the socket address: X-Forwarded-For's first entry,
// then X-Real-IP, then the RemoteAddr host. Requests with none of
// these key under a loopback sentinel rather than being unkeyed.
func ClientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := forwarded
		if i := strings.Index(forwarded, ","); i >= 0 {
			first = forwarded[:i]
		}
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}

	return "127.0.0.1"
}

package gatekeeper

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"edge-gatekeeper/internal/common/logging"
	"edge-gatekeeper/internal/ratelimit"
)

// rateLimitedMessage is the user-facing body for throttled requests.
const rateLimitedMessage = "Çok fazla istek gönderdiniz. Lütfen bir süre bekleyip tekrar deneyin."

type rateLimitedResponse struct {
	Error     string `json:"error"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Reset     string `json:"reset"`
}

// WriteSecurityHeaders sets the fixed security headers. They go on
// every response the gatekeeper touches, including denials and
// redirects.
func WriteSecurityHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

// WriteRateHeaders exposes the consumed budget. Only called when a
// budget was actually checked; a disabled limiter advertises nothing.
func WriteRateHeaders(w http.ResponseWriter, result *ratelimit.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))
}

// WriteVerdict renders a Deny or Redirect verdict onto the response.
// Allow verdicts are not written here; the middleware passes those to
// the next handler after setting headers.
func WriteVerdict(w http.ResponseWriter, r *http.Request, verdict *Verdict) {
	WriteSecurityHeaders(w)

	switch verdict.Kind {
	case Redirect:
		http.Redirect(w, r, verdict.Target, http.StatusFound)

	case Deny:
		if verdict.RateInfo != nil {
			WriteRateHeaders(w, verdict.RateInfo)
		}
		w.Header().Set("Retry-After", strconv.Itoa(verdict.RetryAfter))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)

		body := rateLimitedResponse{Error: rateLimitedMessage}
		if verdict.RateInfo != nil {
			body.Limit = verdict.RateInfo.Limit
			body.Remaining = verdict.RateInfo.Remaining
			body.Reset = verdict.RateInfo.Reset.Format(time.RFC3339)
		}
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logging.Warn("Failed to write rate limit response",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

package middleware

import (
	"net/http"

	"edge-gatekeeper/internal/gatekeeper"
)

// Gatekeeper runs every request through the decision pipeline before
// it reaches the next handler. Allowed requests continue with security
// and rate headers already set; denied and redirected requests are
// answered here and never reach next.
func Gatekeeper(gk *gatekeeper.Gatekeeper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			verdict := gk.Decide(r)

			if verdict.Kind != gatekeeper.Allow {
				gatekeeper.WriteVerdict(w, r, verdict)
				return
			}

			gatekeeper.WriteSecurityHeaders(w)
			if verdict.RateInfo != nil && verdict.RateInfo.Active {
				gatekeeper.WriteRateHeaders(w, verdict.RateInfo)
			}

			next.ServeHTTP(w, r)
		})
	}
}

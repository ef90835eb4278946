// Package identity resolves the session user behind a request's Cookie
// header and answers the admin authorization question. Resolution failures
// always read as "not an admin": this gate fails closed, unlike the rate
// limiter, because the cost of a false allow here is privilege, not latency.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"edge-gatekeeper/internal/common/errors"
)

// Resolver resolves a raw Cookie header to an authenticated user id.
// An empty id with a nil error means no session resolved; errors are
// infrastructure failures (service down, malformed response).
type Resolver interface {
	Resolve(ctx context.Context, cookie string) (string, error)
}

// HTTPResolver forwards the Cookie header unmodified to the identity
// service's user endpoint and reads back the session user.
type HTTPResolver struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPResolver creates a resolver against the identity service at
// baseURL. The apiKey, when set, is forwarded as the service's API key
// header alongside the cookie.
func NewHTTPResolver(baseURL, apiKey string) *HTTPResolver {
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Resolve calls GET {baseURL}/auth/v1/user with the forwarded cookie.
// 401/403 means no session; any other non-2xx status is an error.
func (r *HTTPResolver) Resolve(ctx context.Context, cookie string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", errors.InternalError("failed to build identity request", err)
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	if r.apiKey != "" {
		req.Header.Set("apikey", r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", errors.ConnectionError("identity service request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", errors.AuthError(fmt.Sprintf("identity service returned status %d", resp.StatusCode))
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", errors.InternalError("failed to decode identity response", err)
	}

	return user.ID, nil
}

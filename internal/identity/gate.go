package identity

import (
	"context"

	"edge-gatekeeper/internal/common/logging"
)

// ProfileStore answers role lookups for resolved users.
type ProfileStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Gate is the admin authorization check: resolve the session, then look up
// the user's admin flag. Every failure path returns false.
type Gate struct {
	resolver Resolver
	profiles ProfileStore
}

// NewGate creates a gate. Either dependency may be nil when identity is not
// configured; the gate then denies everyone, which keeps admin paths closed
// rather than open on a missing configuration.
func NewGate(resolver Resolver, profiles ProfileStore) *Gate {
	return &Gate{
		resolver: resolver,
		profiles: profiles,
	}
}

// CheckAdminAccess reports whether the caller behind the raw Cookie header
// is an authenticated admin. It never returns an error: session resolution
// failures, missing profiles, and store errors all log and read as false.
func (g *Gate) CheckAdminAccess(ctx context.Context, cookie string) bool {
	if g.resolver == nil || g.profiles == nil {
		return false
	}

	userID, err := g.resolver.Resolve(ctx, cookie)
	if err != nil {
		logging.Warn("Admin check failed during session resolution", logging.Err(err))
		return false
	}
	if userID == "" {
		return false
	}

	isAdmin, err := g.profiles.IsAdmin(ctx, userID)
	if err != nil {
		logging.Warn("Admin check failed during profile lookup",
			logging.Field{Key: "user_id", Value: userID},
			logging.Err(err),
		)
		return false
	}

	return isAdmin
}

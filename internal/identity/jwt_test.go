package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTResolver(t *testing.T) {
	ctx := context.Background()
	secret := "test-secret"
	resolver := NewJWTResolver("", secret)

	t.Run("valid token yields subject", func(t *testing.T) {
		tok := signToken(t, secret, jwt.MapClaims{
			"sub": "user-7",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		userID, err := resolver.Resolve(ctx, "sb-access-token="+tok)
		require.NoError(t, err)
		assert.Equal(t, "user-7", userID)
	})

	t.Run("cookie among others still found", func(t *testing.T) {
		tok := signToken(t, secret, jwt.MapClaims{
			"sub": "user-7",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		userID, err := resolver.Resolve(ctx, "theme=dark; sb-access-token="+tok+"; lang=tr")
		require.NoError(t, err)
		assert.Equal(t, "user-7", userID)
	})

	t.Run("expired token means no session", func(t *testing.T) {
		tok := signToken(t, secret, jwt.MapClaims{
			"sub": "user-7",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		userID, err := resolver.Resolve(ctx, "sb-access-token="+tok)
		require.NoError(t, err)
		assert.Empty(t, userID)
	})

	t.Run("wrong signature means no session", func(t *testing.T) {
		tok := signToken(t, "other-secret", jwt.MapClaims{
			"sub": "user-7",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		userID, err := resolver.Resolve(ctx, "sb-access-token="+tok)
		require.NoError(t, err)
		assert.Empty(t, userID)
	})

	t.Run("missing subject means no session", func(t *testing.T) {
		tok := signToken(t, secret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		userID, err := resolver.Resolve(ctx, "sb-access-token="+tok)
		require.NoError(t, err)
		assert.Empty(t, userID)
	})

	t.Run("missing cookie means no session", func(t *testing.T) {
		userID, err := resolver.Resolve(ctx, "theme=dark")
		require.NoError(t, err)
		assert.Empty(t, userID)
	})

	t.Run("empty cookie header means no session", func(t *testing.T) {
		userID, err := resolver.Resolve(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, userID)
	})

	t.Run("garbage token means no session", func(t *testing.T) {
		userID, err := resolver.Resolve(ctx, "sb-access-token=not.a.jwt")
		require.NoError(t, err)
		assert.Empty(t, userID)
	})

	t.Run("custom cookie name", func(t *testing.T) {
		custom := NewJWTResolver("session-token", secret)
		tok := signToken(t, secret, jwt.MapClaims{
			"sub": "user-9",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		userID, err := custom.Resolve(ctx, "session-token="+tok)
		require.NoError(t, err)
		assert.Equal(t, "user-9", userID)
	})
}

package auth_test

import (
	"context"
	"testing"

	auth "github.com/quotable-dev/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authenticatedClaims() *auth.AccessClaims {
	return &auth.AccessClaims{
		UID:      "4f3c8a9e-0000-0000-0000-000000000001",
		Email:    "alice@example.com",
		UserRole: auth.RoleAdmin,
	}
}

func TestAuthnStates(t *testing.T) {
	anon := auth.Unauthenticated()
	assert.False(t, anon.IsAuthenticated())
	assert.Empty(t, anon.UserID())

	_, ok := anon.Claims()
	assert.False(t, ok)

	authn := auth.Authenticated(authenticatedClaims())
	require.True(t, authn.IsAuthenticated())
	assert.Equal(t, "4f3c8a9e-0000-0000-0000-000000000001", authn.UserID())

	claims, ok := authn.Claims()
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestAuthnContextRoundTrip(t *testing.T) {
	ctx := auth.WithContext(context.Background(), auth.Authenticated(authenticatedClaims()))

	authn := auth.FromContext(ctx)
	require.True(t, authn.IsAuthenticated())
	assert.Equal(t, "4f3c8a9e-0000-0000-0000-000000000001", authn.UserID())
}

func TestFromContextDefaultsToUnauthenticated(t *testing.T) {
	authn := auth.FromContext(context.Background())
	assert.False(t, authn.IsAuthenticated())
	assert.Empty(t, authn.UserID())
}

func TestHasRole(t *testing.T) {
	ctx := auth.WithContext(context.Background(), auth.Authenticated(authenticatedClaims()))

	assert.True(t, auth.HasRole(ctx, auth.RoleAdmin))
	assert.False(t, auth.HasRole(ctx, auth.RoleUser))
	assert.False(t, auth.HasRole(context.Background(), auth.RoleAdmin))
}

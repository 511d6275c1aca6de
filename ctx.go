package auth

import (
	"context"
)

var authnCtxKey = &contextKey{"authn"}

type contextKey struct {
	name string
}

// Authn is the explicit authentication state threaded through call
// signatures: either Unauthenticated or Authenticated with validated access
// claims. It replaces the pattern of an optional, loosely typed user field
// mutated in place on a request object.
type Authn struct {
	claims *AccessClaims
}

// Unauthenticated returns the anonymous state.
func Unauthenticated() Authn {
	return Authn{}
}

// Authenticated wraps validated claims.
func Authenticated(claims *AccessClaims) Authn {
	return Authn{claims: claims}
}

// IsAuthenticated reports whether claims are present.
func (a Authn) IsAuthenticated() bool {
	return a.claims != nil
}

// Claims returns the access claims when authenticated.
func (a Authn) Claims() (*AccessClaims, bool) {
	if a.claims == nil {
		return nil, false
	}
	return a.claims, true
}

// UserID is a convenience accessor, empty when unauthenticated.
func (a Authn) UserID() string {
	if a.claims == nil {
		return ""
	}
	return a.claims.UserID()
}

// WithContext stores the authentication state in the given context.
func WithContext(ctx context.Context, authn Authn) context.Context {
	return context.WithValue(ctx, authnCtxKey, authn)
}

// FromContext recovers the authentication state; a context never touched by
// WithContext reads as Unauthenticated.
func FromContext(ctx context.Context) Authn {
	if authn, ok := ctx.Value(authnCtxKey).(Authn); ok {
		return authn
	}
	return Unauthenticated()
}

// HasRole is a convenience gate for transport guards.
func HasRole(ctx context.Context, role string) bool {
	authn := FromContext(ctx)
	claims, ok := authn.Claims()
	if !ok {
		return false
	}
	return claims.HasRole(role)
}

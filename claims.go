package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token-use markers embedded in every claim set so a token minted for one
// context can never validate under the other, even if the secrets match.
const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// AccessClaims is the short-lived, self-contained claim set. The orchestrator
// still re-checks IsActive against current state on every protected call;
// the signature alone does not reflect deactivation.
type AccessClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid"`
	Email    string `json:"email"`
	UserRole string `json:"role"`
	TokenUse string `json:"token_use"`
}

// UserID returns the user ID, falling back to the subject claim.
func (c *AccessClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role returns the role carried by the token.
func (c *AccessClaims) Role() string {
	return c.UserRole
}

// HasRole checks the token against a single role.
func (c *AccessClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// Expires returns the expiration time
func (c *AccessClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *AccessClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// RefreshClaims is the long-lived claim set. It carries a generation counter
// matched against the revocation registry, not a raw session ID.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UID          string `json:"uid"`
	TokenVersion int64  `json:"token_version"`
	TokenUse     string `json:"token_use"`
}

// UserID returns the user ID, falling back to the subject claim.
func (c *RefreshClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *RefreshClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role assigned at registration
	RoleUser UserRole = "user"
	// RoleModerator can act on other users' content
	RoleModerator UserRole = "moderator"
	// RoleAdmin has full administrative access
	RoleAdmin UserRole = "admin"
)

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role UserRole) bool {
	switch role {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is the identity record. The core mutates only the lockout and login
// bookkeeping fields; everything else is owned by the persistence layer.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active,omitempty"`
	LoginAttempts int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LockUntil     *time.Time `bun:"lock_until,nullzero" json:"lock_until,omitempty"`
	LastLoginAt   *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserUpdate is the partial-field mutation shape accepted by IdentityStore.Update.
// Pointer fields distinguish "leave untouched" from "set to zero value";
// ClearLockUntil distinguishes clearing the lock from leaving it alone.
type UserUpdate struct {
	LoginAttempts  *int
	LockUntil      *time.Time
	ClearLockUntil bool
	LastLoginAt    *time.Time
}

// IsEmpty reports whether the update would touch nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.LoginAttempts == nil && u.LockUntil == nil && !u.ClearLockUntil && u.LastLoginAt == nil
}

// TokenPair is what a successful register or login hands back to the
// transport layer.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthResult bundles the freshly issued token pair with the identity it was
// issued for. The password hash is stripped before the record crosses the
// boundary.
type AuthResult struct {
	User   *User      `json:"user"`
	Tokens *TokenPair `json:"tokens"`
}

// RefreshResult carries the new access token from a refresh; the refresh
// token itself is not rotated.
type RefreshResult struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Sanitized returns a copy of the user safe to serialize outward.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

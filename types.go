package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// TokenConfig configures one signing context.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience []string
	// TTL accepts minute/hour/day suffixes: "15m", "12h", "7d".
	TTL string
}

// Config holds every policy knob the core needs. It is built once and
// injected; nothing reads ambient global configuration at call time.
type Config struct {
	AccessToken  TokenConfig
	RefreshToken TokenConfig

	// BcryptCost is the hashing work factor, default DefaultBcryptCost.
	BcryptCost int

	// MaxLoginAttempts is the consecutive-failure threshold that trips a
	// lock, default DefaultMaxLoginAttempts.
	MaxLoginAttempts int

	// LockDuration is how long a tripped lock holds, default
	// DefaultLockDuration.
	LockDuration time.Duration
}

// IdentityStore is the narrow persistence interface the core consumes.
// Lookups and updates are by exact key; implementations must provide atomic
// single-record updates.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// Create persists a new identity, returning ErrDuplicateIdentity when
	// the email or username is already present.
	Create(ctx context.Context, user *User) (*User, error)
	// Update applies a partial mutation to the identified record.
	Update(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

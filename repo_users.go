package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunIdentityStore implements IdentityStore on top of a bun.DB. Uniqueness
// of email and username is enforced by the underlying unique indexes; the
// store translates constraint violations into ErrDuplicateIdentity.
type BunIdentityStore struct {
	db *bun.DB
}

// NewBunIdentityStore wraps an existing bun handle.
func NewBunIdentityStore(db *bun.DB) *BunIdentityStore {
	return &BunIdentityStore{db: db}
}

var _ IdentityStore = (*BunIdentityStore)(nil)

// FindByEmail looks an identity up by exact email.
func (s *BunIdentityStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := s.db.NewSelect().
		Model(user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user by email")
	}
	return user, nil
}

// FindByID looks an identity up by primary key.
func (s *BunIdentityStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user := &User{}
	err := s.db.NewSelect().
		Model(user).
		Where("usr.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user by id")
	}
	return user, nil
}

// Create inserts a new identity record.
func (s *BunIdentityStore) Create(ctx context.Context, user *User) (*User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	if user.CreatedAt == nil {
		user.CreatedAt = &now
	}
	user.UpdatedAt = &now

	if _, err := s.db.NewInsert().Model(user).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIdentity
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}
	return user, nil
}

// Update applies a partial mutation to the identified record and returns the
// fresh row. An empty update degenerates to a lookup.
func (s *BunIdentityStore) Update(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error) {
	if update.IsEmpty() {
		return s.FindByID(ctx, id)
	}

	now := time.Now()
	q := s.db.NewUpdate().
		Model((*User)(nil)).
		Set("updated_at = ?", now).
		Where("id = ?", id)

	if update.LoginAttempts != nil {
		q = q.Set("login_attempts = ?", *update.LoginAttempts)
	}
	if update.LockUntil != nil {
		q = q.Set("lock_until = ?", *update.LockUntil)
	} else if update.ClearLockUntil {
		q = q.Set("lock_until = NULL")
	}
	if update.LastLoginAt != nil {
		q = q.Set("last_login_at = ?", *update.LastLoginAt)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrIdentityNotFound
	}

	return s.FindByID(ctx, id)
}

// isUniqueViolation recognizes the unique-constraint signatures of the
// dialects we target (sqlite and postgres).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

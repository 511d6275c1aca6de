package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryIdentityStore is a map-backed IdentityStore. It exists for tests and
// for embedding scenarios that do not want a database; production setups use
// BunIdentityStore.
type MemoryIdentityStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byEmail map[string]uuid.UUID
	byName  map[string]uuid.UUID
}

// NewMemoryIdentityStore returns an empty store.
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		byID:    map[uuid.UUID]*User{},
		byEmail: map[string]uuid.UUID{},
		byName:  map[string]uuid.UUID{},
	}
}

var _ IdentityStore = (*MemoryIdentityStore)(nil)

// FindByEmail implements IdentityStore.
func (s *MemoryIdentityStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return cloneUser(s.byID[id]), nil
}

// FindByID implements IdentityStore.
func (s *MemoryIdentityStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return cloneUser(user), nil
}

// Create implements IdentityStore, enforcing email and username uniqueness.
func (s *MemoryIdentityStore) Create(ctx context.Context, user *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return nil, ErrDuplicateIdentity
	}
	if _, taken := s.byName[user.Username]; taken {
		return nil, ErrDuplicateIdentity
	}

	stored := cloneUser(user)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := time.Now()
	if stored.CreatedAt == nil {
		stored.CreatedAt = &now
	}
	stored.UpdatedAt = &now

	s.byID[stored.ID] = stored
	s.byEmail[stored.Email] = stored.ID
	s.byName[stored.Username] = stored.ID

	return cloneUser(stored), nil
}

// Update implements IdentityStore as an atomic single-record mutation.
func (s *MemoryIdentityStore) Update(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}

	if update.LoginAttempts != nil {
		user.LoginAttempts = *update.LoginAttempts
	}
	if update.LockUntil != nil {
		until := *update.LockUntil
		user.LockUntil = &until
	} else if update.ClearLockUntil {
		user.LockUntil = nil
	}
	if update.LastLoginAt != nil {
		at := *update.LastLoginAt
		user.LastLoginAt = &at
	}
	now := time.Now()
	user.UpdatedAt = &now

	return cloneUser(user), nil
}

// SetActive flips the IsActive flag; the core never does this itself, but
// tests and admin tooling need it.
func (s *MemoryIdentityStore) SetActive(id uuid.UUID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.byID[id]; ok {
		user.IsActive = active
	}
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.LockUntil != nil {
		t := *u.LockUntil
		clone.LockUntil = &t
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		clone.LastLoginAt = &t
	}
	return &clone
}

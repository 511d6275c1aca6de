package auth

import "time"

// Lockout defaults.
const (
	DefaultMaxLoginAttempts = 5
	DefaultLockDuration     = 30 * time.Minute
)

// LockoutPolicy drives the per-identity state machine
// Unlocked(attempts) -> Locked(until) -> Unlocked(0). It only computes
// transitions on the in-memory record; persisting the touched fields through
// IdentityStore.Update is the orchestrator's job.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
	now          func() time.Time
}

// NewLockoutPolicy applies defaults for zero values.
func NewLockoutPolicy(maxAttempts int, lockDuration time.Duration) *LockoutPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	if lockDuration <= 0 {
		lockDuration = DefaultLockDuration
	}
	return &LockoutPolicy{
		MaxAttempts:  maxAttempts,
		LockDuration: lockDuration,
		now:          time.Now,
	}
}

// WithClock injects a custom clock, useful in tests.
func (p *LockoutPolicy) WithClock(clock func() time.Time) *LockoutPolicy {
	if clock != nil {
		p.now = clock
	}
	return p
}

// IsLocked answers whether the account is currently locked, performing the
// lazy-unlock transition first: an elapsed lock window resets the record to
// Unlocked(0) before the answer is computed. The returned update is non-empty
// exactly when that transition fired and needs persisting.
func (p *LockoutPolicy) IsLocked(user *User) (bool, UserUpdate) {
	if user == nil || user.LockUntil == nil {
		return false, UserUpdate{}
	}

	if user.LockUntil.After(p.now()) {
		return true, UserUpdate{}
	}

	// lock window elapsed: lazy unlock
	user.LockUntil = nil
	user.LoginAttempts = 0
	zero := 0
	return false, UserUpdate{LoginAttempts: &zero, ClearLockUntil: true}
}

// RecordFailure registers a failed password check: attempts += 1, and at the
// threshold the account transitions to Locked(now + LockDuration). It
// reports whether this failure tripped the lock, plus the fields to persist.
func (p *LockoutPolicy) RecordFailure(user *User) (tripped bool, update UserUpdate) {
	user.LoginAttempts++
	attempts := user.LoginAttempts
	update = UserUpdate{LoginAttempts: &attempts}

	if attempts >= p.MaxAttempts {
		until := p.now().Add(p.LockDuration)
		user.LockUntil = &until
		update.LockUntil = &until
		return true, update
	}
	return false, update
}

// RecordSuccess resets the state machine to Unlocked(0) and stamps the login
// time.
func (p *LockoutPolicy) RecordSuccess(user *User) UserUpdate {
	zero := 0
	now := p.now()
	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLoginAt = &now
	return UserUpdate{
		LoginAttempts:  &zero,
		ClearLockUntil: true,
		LastLoginAt:    &now,
	}
}

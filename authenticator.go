package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// Authenticator is the public-facing state machine composing the hasher,
// token codec, revocation registry, and lockout policy with the identity
// store. It never touches network or storage directly except through the
// IdentityStore interface.
type Authenticator struct {
	store        IdentityStore
	hasher       *PasswordHasher
	tokenService *TokenService
	versions     TokenVersions
	lockout      *LockoutPolicy
	activitySink ActivitySink
	metrics      *Metrics
	logger       Logger
	now          func() time.Time
}

// NewAuthenticator wires the core from its configuration. The in-process
// revocation registry is the default; multi-instance deployments should
// swap in RedisTokenVersions via WithTokenVersions.
func NewAuthenticator(store IdentityStore, cfg Config) (*Authenticator, error) {
	tokenService, err := NewTokenService(cfg)
	if err != nil {
		return nil, err
	}

	return &Authenticator{
		store:        store,
		hasher:       NewPasswordHasher(cfg.BcryptCost),
		tokenService: tokenService,
		versions:     NewMemoryTokenVersions(),
		lockout:      NewLockoutPolicy(cfg.MaxLoginAttempts, cfg.LockDuration),
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		now:          time.Now,
	}, nil
}

func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		a.logger = logger
		a.tokenService.WithLogger(logger)
	}
	return a
}

// WithActivitySink configures the audit collaborator for security events.
func (a *Authenticator) WithActivitySink(sink ActivitySink) *Authenticator {
	a.activitySink = normalizeActivitySink(sink)
	return a
}

// WithTokenVersions swaps the revocation registry implementation.
func (a *Authenticator) WithTokenVersions(versions TokenVersions) *Authenticator {
	if versions != nil {
		a.versions = versions
	}
	return a
}

// WithMetrics attaches outcome counters.
func (a *Authenticator) WithMetrics(m *Metrics) *Authenticator {
	a.metrics = m
	return a
}

// WithClock injects a custom clock into the orchestrator, its lockout
// policy, and its token codec. Useful in tests.
func (a *Authenticator) WithClock(clock func() time.Time) *Authenticator {
	if clock != nil {
		a.now = clock
		a.lockout.WithClock(clock)
		a.tokenService.WithClock(clock)
	}
	return a
}

// TokenService exposes the codec for transport helpers that need expiry
// reporting without another TTL parse.
func (a *Authenticator) TokenService() *TokenService {
	return a.tokenService
}

// Register validates the payload, hashes the password, creates the identity
// with role "user", and issues a token pair at the identity's current
// generation (0 for a fresh identity).
func (a *Authenticator) Register(ctx context.Context, payload RegisterPayload) (*AuthResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	hash, err := a.hasher.Hash(payload.Password)
	if err != nil {
		return nil, a.internal(err, "failed to hash password during registration")
	}

	user := &User{
		Role:         RoleUser,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if payload.UseHashid {
		if id, err := hashid.NewUUID(payload.Email); err == nil {
			user.ID = id
		}
	}

	user, err = a.store.Create(ctx, user)
	if err != nil {
		if goerrors.Is(err, ErrDuplicateIdentity) {
			return nil, ErrDuplicateIdentity
		}
		return nil, a.internal(err, "failed to create identity")
	}

	tokens, err := a.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	a.emit(ctx, ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
		Severity:  SeverityLow,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
	})

	return &AuthResult{User: user.Sanitized(), Tokens: tokens}, nil
}

// LoginOption attaches request metadata to a login evaluation.
type LoginOption func(*loginOptions)

type loginOptions struct {
	ip        string
	userAgent string
}

// WithClientInfo records the caller's address and user agent on emitted
// security events.
func WithClientInfo(ip, userAgent string) LoginOption {
	return func(o *loginOptions) {
		o.ip = ip
		o.userAgent = userAgent
	}
}

// Login drives the lockout state machine around a credential check. The
// unknown-email and wrong-password paths return the identical error; only a
// genuine password mismatch touches the attempt counter.
func (a *Authenticator) Login(ctx context.Context, email, password string, opts ...LoginOption) (*AuthResult, error) {
	options := loginOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	meta := options.metadata()

	user, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			a.metrics.loginResult("invalid_credentials")
			a.emit(ctx, ActivityEvent{
				EventType: ActivityEventLoginFailure,
				Severity:  SeverityLow,
				Actor:     ActorRef{Type: "unknown"},
				Metadata:  meta,
			})
			return nil, ErrInvalidCredentials
		}
		return nil, a.internal(err, "failed to look up identity at login")
	}

	actor := ActorRef{ID: user.ID.String(), Type: "user"}

	// lazy unlock before the attempt is evaluated
	locked, unlockUpdate := a.lockout.IsLocked(user)
	if !unlockUpdate.IsEmpty() {
		if _, err := a.store.Update(ctx, user.ID, unlockUpdate); err != nil {
			return nil, a.internal(err, "failed to persist lock expiry")
		}
	}
	if locked {
		a.metrics.loginResult("locked")
		a.emit(ctx, ActivityEvent{
			EventType: ActivityEventAccountLocked,
			Severity:  SeverityMedium,
			Actor:     actor,
			UserID:    user.ID.String(),
			Metadata:  meta,
		})
		return nil, ErrAccountLocked
	}

	if !user.IsActive {
		a.metrics.loginResult("inactive")
		a.emit(ctx, ActivityEvent{
			EventType: ActivityEventAccountInactive,
			Severity:  SeverityMedium,
			Actor:     actor,
			UserID:    user.ID.String(),
			Metadata:  meta,
		})
		return nil, ErrAccountInactive
	}

	if err := a.hasher.Compare(password, user.PasswordHash); err != nil {
		if !goerrors.Is(err, ErrInvalidCredentials) {
			return nil, a.internal(err, "password comparison failed")
		}

		tripped, failureUpdate := a.lockout.RecordFailure(user)
		if _, err := a.store.Update(ctx, user.ID, failureUpdate); err != nil {
			return nil, a.internal(err, "failed to persist failed login attempt")
		}

		if tripped {
			a.metrics.lockoutTripped()
			a.emit(ctx, ActivityEvent{
				EventType: ActivityEventLockoutTripped,
				Severity:  SeverityHigh,
				Actor:     actor,
				UserID:    user.ID.String(),
				Metadata:  meta,
			})
		}

		a.metrics.loginResult("invalid_credentials")
		a.emit(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Severity:  SeverityLow,
			Actor:     actor,
			UserID:    user.ID.String(),
			Metadata:  meta,
		})
		return nil, ErrInvalidCredentials
	}

	successUpdate := a.lockout.RecordSuccess(user)
	if _, err := a.store.Update(ctx, user.ID, successUpdate); err != nil {
		return nil, a.internal(err, "failed to persist successful login")
	}

	tokens, err := a.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	a.metrics.loginResult("success")
	a.emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Severity:  SeverityLow,
		Actor:     actor,
		UserID:    user.ID.String(),
		Metadata:  meta,
	})

	return &AuthResult{User: user.Sanitized(), Tokens: tokens}, nil
}

// Refresh verifies the refresh token, compares its generation against the
// revocation registry, re-checks the identity, and issues a new access token
// only. The refresh token itself is not rotated.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := a.tokenService.VerifyRefreshToken(refreshToken)
	if err != nil {
		a.metrics.tokenRejected("refresh")
		a.emit(ctx, ActivityEvent{
			EventType: ActivityEventTokenRejected,
			Severity:  SeverityLow,
			Actor:     ActorRef{Type: "unknown"},
			Metadata:  map[string]any{"kind": "refresh"},
		})
		return nil, ErrInvalidToken
	}

	current, err := a.versions.Current(ctx, claims.UserID())
	if err != nil {
		return nil, a.internal(err, "failed to read token generation")
	}
	if claims.TokenVersion != current {
		// revoked generation; reported as the generic invalid-token kind so
		// revocation state is not revealed
		a.metrics.tokenRejected("refresh")
		a.emit(ctx, ActivityEvent{
			EventType: ActivityEventTokenRejected,
			Severity:  SeverityLow,
			Actor:     ActorRef{ID: claims.UserID(), Type: "user"},
			UserID:    claims.UserID(),
			Metadata:  map[string]any{"kind": "refresh", "reason": ErrTokenVersionMismatch.Message},
		})
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := a.store.FindByID(ctx, userID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, a.internal(err, "failed to look up identity at refresh")
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	accessToken, err := a.tokenService.IssueAccessToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, a.internal(err, "failed to issue access token")
	}

	return &RefreshResult{
		AccessToken: accessToken,
		ExpiresIn:   a.tokenService.AccessExpiresIn(),
	}, nil
}

// Logout bumps the identity's revocation generation, invalidating every
// outstanding refresh token. It is idempotent in effect: bumping an already
// logged-out identity leaves no refresh token valid either way.
func (a *Authenticator) Logout(ctx context.Context, userID uuid.UUID) error {
	generation, err := a.versions.Bump(ctx, userID.String())
	if err != nil {
		return a.internal(err, "failed to bump token generation")
	}

	a.emit(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		Severity:  SeverityLow,
		Actor:     ActorRef{ID: userID.String(), Type: "user"},
		UserID:    userID.String(),
		Metadata:  map[string]any{"generation": generation},
	})
	return nil
}

// ValidateAccessToken is the boolean-ish gate for protected calls: claims
// are returned only when the signature and expiry hold AND the identity
// still exists and is active. Any failure reads as "no result".
func (a *Authenticator) ValidateAccessToken(ctx context.Context, token string) (*AccessClaims, bool) {
	claims, err := a.tokenService.VerifyAccessToken(token)
	if err != nil {
		a.metrics.tokenRejected("access")
		return nil, false
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, false
	}
	user, err := a.store.FindByID(ctx, userID)
	if err != nil || !user.IsActive {
		a.metrics.tokenRejected("access")
		return nil, false
	}

	return claims, true
}

func (a *Authenticator) issuePair(ctx context.Context, user *User) (*TokenPair, error) {
	generation, err := a.versions.Current(ctx, user.ID.String())
	if err != nil {
		return nil, a.internal(err, "failed to read token generation")
	}

	accessToken, err := a.tokenService.IssueAccessToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, a.internal(err, "failed to issue access token")
	}
	refreshToken, err := a.tokenService.IssueRefreshToken(user.ID.String(), generation)
	if err != nil {
		return nil, a.internal(err, "failed to issue refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    a.tokenService.AccessExpiresIn(),
	}, nil
}

// internal logs the full collaborator failure and returns the generic kind.
func (a *Authenticator) internal(err error, msg string) error {
	a.logger.Error(msg, "error", err)
	return ErrInternalFailure
}

// emit forwards a security event to the audit collaborator. Emission is
// best-effort and never fails the primary operation.
func (a *Authenticator) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = a.now()
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	if err := a.activitySink.Record(ctx, event); err != nil {
		a.logger.Error("activity sink record error", "error", err)
	}
}

func (o loginOptions) metadata() map[string]any {
	meta := map[string]any{}
	if o.ip != "" {
		meta["ip"] = o.ip
	}
	if o.userAgent != "" {
		meta["user_agent"] = o.userAgent
	}
	return meta
}

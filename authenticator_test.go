package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/quotable-dev/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type capturingSink struct {
	events []auth.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *capturingSink) last() auth.ActivityEvent {
	if len(c.events) == 0 {
		return auth.ActivityEvent{}
	}
	return c.events[len(c.events)-1]
}

func (c *capturingSink) byType(eventType auth.ActivityEventType) []auth.ActivityEvent {
	var matched []auth.ActivityEvent
	for _, event := range c.events {
		if event.EventType == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type authFixture struct {
	authenticator *auth.Authenticator
	store         *auth.MemoryIdentityStore
	sink          *capturingSink
	now           time.Time
}

func (f *authFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := testTokenConfig()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.MaxLoginAttempts = 5
	cfg.LockDuration = 30 * time.Minute

	fixture := &authFixture{
		store: auth.NewMemoryIdentityStore(),
		sink:  &capturingSink{},
		now:   time.Now(),
	}

	authenticator, err := auth.NewAuthenticator(fixture.store, cfg)
	require.NoError(t, err)

	fixture.authenticator = authenticator.
		WithActivitySink(fixture.sink).
		WithClock(func() time.Time { return fixture.now })

	return fixture
}

func alicePayload() auth.RegisterPayload {
	return auth.RegisterPayload{
		Email:     "alice@example.com",
		Username:  "alice",
		Password:  "Corr3ct!horse",
		FirstName: "Alice",
		LastName:  "Liddell",
	}
}

func registerAlice(t *testing.T, fixture *authFixture) *auth.AuthResult {
	t.Helper()
	result, err := fixture.authenticator.Register(context.Background(), alicePayload())
	require.NoError(t, err)
	return result
}

func TestRegisterSuccess(t *testing.T) {
	fixture := newAuthFixture(t)

	result := registerAlice(t, fixture)

	assert.Equal(t, auth.RoleUser, result.User.Role)
	assert.True(t, result.User.IsActive)
	assert.Zero(t, result.User.LoginAttempts)
	assert.Empty(t, result.User.PasswordHash, "digest must never leave the core")
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Equal(t, int64(15*60), result.Tokens.ExpiresIn)

	// the refresh token is stamped with the fresh identity's generation 0
	claims, err := fixture.authenticator.TokenService().VerifyRefreshToken(result.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(0), claims.TokenVersion)
}

func TestRegisterDuplicate(t *testing.T) {
	fixture := newAuthFixture(t)
	registerAlice(t, fixture)

	_, err := fixture.authenticator.Register(context.Background(), alicePayload())
	assert.Equal(t, auth.ErrDuplicateIdentity, err)

	// same username under a different email is a duplicate too
	payload := alicePayload()
	payload.Email = "alice2@example.com"
	_, err = fixture.authenticator.Register(context.Background(), payload)
	assert.Equal(t, auth.ErrDuplicateIdentity, err)
}

func TestRegisterValidationFailures(t *testing.T) {
	fixture := newAuthFixture(t)

	tests := []struct {
		name   string
		mutate func(*auth.RegisterPayload)
	}{
		{"bad email", func(p *auth.RegisterPayload) { p.Email = "not-an-email" }},
		{"missing username", func(p *auth.RegisterPayload) { p.Username = "" }},
		{"short password", func(p *auth.RegisterPayload) { p.Password = "S1!a" }},
		{"password missing classes", func(p *auth.RegisterPayload) { p.Password = "alllowercase" }},
		{"missing first name", func(p *auth.RegisterPayload) { p.FirstName = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := alicePayload()
			tt.mutate(&payload)

			_, err := fixture.authenticator.Register(context.Background(), payload)
			require.Error(t, err)
			assert.True(t, auth.IsValidationError(err), "expected a validation error, got %v", err)
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	fixture := newAuthFixture(t)
	registerAlice(t, fixture)

	result, err := fixture.authenticator.Login(context.Background(), "alice@example.com", "Corr3ct!horse",
		auth.WithClientInfo("203.0.113.7", "cli/1.0"))
	require.NoError(t, err)

	require.NotNil(t, result.User.LastLoginAt)
	assert.Equal(t, fixture.now, *result.User.LastLoginAt)
	assert.Zero(t, result.User.LoginAttempts)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	events := fixture.sink.byType(auth.ActivityEventLoginSuccess)
	require.Len(t, events, 1)
	assert.Equal(t, auth.SeverityLow, events[0].Severity)
	assert.Equal(t, "203.0.113.7", events[0].Metadata["ip"])
	assert.Equal(t, "cli/1.0", events[0].Metadata["user_agent"])
}

func TestLoginEnumerationResistance(t *testing.T) {
	fixture := newAuthFixture(t)
	registerAlice(t, fixture)

	ctx := context.Background()
	_, unknownErr := fixture.authenticator.Login(ctx, "doesnotexist@x.com", "anything")
	_, wrongErr := fixture.authenticator.Login(ctx, "alice@example.com", "wrong-password")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLoginUnknownEmailDoesNotTouchCounters(t *testing.T) {
	fixture := newAuthFixture(t)
	result := registerAlice(t, fixture)

	_, err := fixture.authenticator.Login(context.Background(), "doesnotexist@x.com", "anything")
	assert.Equal(t, auth.ErrInvalidCredentials, err)

	stored, err := fixture.store.FindByID(context.Background(), result.User.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.LoginAttempts)
}

func TestLockoutThreshold(t *testing.T) {
	fixture := newAuthFixture(t)
	result := registerAlice(t, fixture)
	ctx := context.Background()

	// four consecutive wrong passwords leave the account unlocked
	for i := 0; i < 4; i++ {
		_, err := fixture.authenticator.Login(ctx, "alice@example.com", "wrong-password")
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	}
	stored, err := fixture.store.FindByID(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.LoginAttempts)
	assert.Nil(t, stored.LockUntil)

	// the fifth locks it for exactly the configured duration
	_, err = fixture.authenticator.Login(ctx, "alice@example.com", "wrong-password")
	assert.Equal(t, auth.ErrInvalidCredentials, err)

	stored, err = fixture.store.FindByID(ctx, result.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LockUntil)
	assert.Equal(t, fixture.now.Add(30*time.Minute), *stored.LockUntil)

	tripEvents := fixture.sink.byType(auth.ActivityEventLockoutTripped)
	require.Len(t, tripEvents, 1)
	assert.Equal(t, auth.SeverityHigh, tripEvents[0].Severity)

	// a sixth attempt during the window fails AccountLocked without another
	// increment, even with the correct password
	_, err = fixture.authenticator.Login(ctx, "alice@example.com", "Corr3ct!horse")
	assert.Equal(t, auth.ErrAccountLocked, err)

	stored, err = fixture.store.FindByID(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.LoginAttempts)

	lockedEvents := fixture.sink.byType(auth.ActivityEventAccountLocked)
	require.Len(t, lockedEvents, 1)
	assert.Equal(t, auth.SeverityMedium, lockedEvents[0].Severity)
}

func TestLazyUnlockAfterWindow(t *testing.T) {
	fixture := newAuthFixture(t)
	result := registerAlice(t, fixture)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := fixture.authenticator.Login(ctx, "alice@example.com", "wrong-password")
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	}

	fixture.advance(30*time.Minute + time.Second)

	// the next evaluation unlocks first, then judges the attempt
	loginResult, err := fixture.authenticator.Login(ctx, "alice@example.com", "Corr3ct!horse")
	require.NoError(t, err)
	assert.Zero(t, loginResult.User.LoginAttempts)
	assert.Nil(t, loginResult.User.LockUntil)

	stored, err := fixture.store.FindByID(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LockUntil)
}

func TestLazyUnlockAppliesOnFailedAttemptToo(t *testing.T) {
	fixture := newAuthFixture(t)
	result := registerAlice(t, fixture)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = fixture.authenticator.Login(ctx, "alice@example.com", "wrong-password")
	}

	fixture.advance(31 * time.Minute)

	// a failed attempt after the window counts from a clean slate
	_, err := fixture.authenticator.Login(ctx, "alice@example.com", "wrong-password")
	assert.Equal(t, auth.ErrInvalidCredentials, err)

	stored, err := fixture.store.FindByID(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LoginAttempts)
	assert.Nil(t, stored.LockUntil)
}

func TestLoginInactiveAccount(t *testing.T) {
	fixture := newAuthFixture(t)
	result := registerAlice(t, fixture)

	fixture.store.SetActive(result.User.ID, false)

	_, err := fixture.authenticator.Login(context.Background(), "alice@example.com", "Corr3ct!horse")
	assert.Equal(t, auth.ErrAccountInactive, err)

	events := fixture.sink.byType(auth.ActivityEventAccountInactive)
	require.Len(t, events, 1)
	assert.Equal(t, auth.SeverityMedium, events[0].Severity)
}

func TestRefreshHappyPath(t *testing.T) {
	fixture := newAuthFixture(t)
	result := registerAlice(t, fixture)

	refreshed, err := fixture.authenticator.Refresh(context.Background(), result.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, int64(15*60), refreshed.ExpiresIn)

	claims, ok := fixture.authenticator.ValidateAccessToken(context.Background(), refreshed.AccessToken)
	require.True(t, ok)
	assert.Equal(t, result.User.ID.String(), claims.UserID())
}

func TestRefreshRejectsGarbageAndAccessTokens(t *testing.T) {
	fixture := newAuthFixture(t)
	result := registerAlice(t, fixture)
	ctx := context.Background()

	_, err := fixture.authenticator.Refresh(ctx, "garbage")
	assert.Equal(t, auth.ErrInvalidToken, err)

	// an access token presented at the refresh endpoint is rejected the same way
	_, err = fixture.authenticator.Refresh(ctx, result.Tokens.AccessToken)
	assert.Equal(t, auth.ErrInvalidToken, err)
}

func TestRefreshInactiveAccount(t *testing.T) {
	fixture := newAuthFixture(t)
	result := registerAlice(t, fixture)

	fixture.store.SetActive(result.User.ID, false)

	_, err := fixture.authenticator.Refresh(context.Background(), result.Tokens.RefreshToken)
	assert.Equal(t, auth.ErrAccountInactive, err)
}

func TestLogoutRevokesOutstandingRefreshTokens(t *testing.T) {
	fixture := newAuthFixture(t)
	result := registerAlice(t, fixture)
	ctx := context.Background()

	require.NoError(t, fixture.authenticator.Logout(ctx, result.User.ID))

	// version mismatch is reported as the generic invalid-token kind
	_, err := fixture.authenticator.Refresh(ctx, result.Tokens.RefreshToken)
	assert.Equal(t, auth.ErrInvalidToken, err)

	// logging out again is a harmless bump
	require.NoError(t, fixture.authenticator.Logout(ctx, result.User.ID))
}

func TestValidateAccessTokenGate(t *testing.T) {
	fixture := newAuthFixture(t)
	result := registerAlice(t, fixture)
	ctx := context.Background()

	claims, ok := fixture.authenticator.ValidateAccessToken(ctx, result.Tokens.AccessToken)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", claims.Email)

	_, ok = fixture.authenticator.ValidateAccessToken(ctx, "garbage")
	assert.False(t, ok)

	// deactivation wins over a still-valid signature
	fixture.store.SetActive(result.User.ID, false)
	_, ok = fixture.authenticator.ValidateAccessToken(ctx, result.Tokens.AccessToken)
	assert.False(t, ok)
}

func TestRegisterLogoutRefreshLoginScenario(t *testing.T) {
	fixture := newAuthFixture(t)
	ctx := context.Background()

	// register alice: generation 0 refresh token issued
	registered := registerAlice(t, fixture)
	claims, err := fixture.authenticator.TokenService().VerifyRefreshToken(registered.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(0), claims.TokenVersion)

	// immediate logout: generation becomes 1
	require.NoError(t, fixture.authenticator.Logout(ctx, registered.User.ID))

	// the original token is now permanently unacceptable
	_, err = fixture.authenticator.Refresh(ctx, registered.Tokens.RefreshToken)
	assert.Equal(t, auth.ErrInvalidToken, err)

	// a fresh login issues a refresh token carrying generation 1
	loggedIn, err := fixture.authenticator.Login(ctx, "alice@example.com", "Corr3ct!horse")
	require.NoError(t, err)
	claims, err = fixture.authenticator.TokenService().VerifyRefreshToken(loggedIn.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.TokenVersion)

	// which refreshes successfully with an unchanged expiresIn
	refreshed, err := fixture.authenticator.Refresh(ctx, loggedIn.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, loggedIn.Tokens.ExpiresIn, refreshed.ExpiresIn)
}

func TestSinkFailureDoesNotFailOperation(t *testing.T) {
	fixture := newAuthFixture(t)

	fixture.authenticator.WithActivitySink(auth.ActivitySinkFunc(
		func(ctx context.Context, event auth.ActivityEvent) error {
			return assert.AnError
		}))

	result, err := fixture.authenticator.Register(context.Background(), alicePayload())
	require.NoError(t, err)
	assert.NotNil(t, result)
}

package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Default TTL strings applied when the config leaves them blank.
const (
	DefaultAccessTTL  = "15m"
	DefaultRefreshTTL = "7d"
)

// signingContext holds everything one token flavor needs: its own secret,
// issuer, audience, lifetime, and use marker.
type signingContext struct {
	secret   []byte
	issuer   string
	audience jwt.ClaimStrings
	ttl      time.Duration
	use      string
}

// TokenService signs and verifies the two claim sets with independent
// contexts. A token signed for one context never validates under the other's
// verification call, even if the secrets were accidentally shared.
type TokenService struct {
	access  signingContext
	refresh signingContext
	now     func() time.Time
	logger  Logger
}

// NewTokenService creates a TokenService from the token sections of cfg.
// TTL strings accept minute/hour/day suffixes, e.g. "15m", "12h", "7d".
func NewTokenService(cfg Config) (*TokenService, error) {
	access, err := newSigningContext(cfg.AccessToken, DefaultAccessTTL, tokenUseAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := newSigningContext(cfg.RefreshToken, DefaultRefreshTTL, tokenUseRefresh)
	if err != nil {
		return nil, err
	}

	return &TokenService{
		access:  access,
		refresh: refresh,
		now:     time.Now,
		logger:  defLogger{},
	}, nil
}

func newSigningContext(cfg TokenConfig, defaultTTL, use string) (signingContext, error) {
	if cfg.Secret == "" {
		return signingContext{}, goerrors.New(
			fmt.Sprintf("%s token secret is required", use),
			goerrors.CategoryBadInput,
		)
	}

	ttlSource := cfg.TTL
	if ttlSource == "" {
		ttlSource = defaultTTL
	}
	ttl, err := ParseTTL(ttlSource)
	if err != nil {
		return signingContext{}, err
	}

	var aud jwt.ClaimStrings
	if len(cfg.Audience) > 0 {
		aud = make(jwt.ClaimStrings, len(cfg.Audience))
		copy(aud, cfg.Audience)
	}

	return signingContext{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: aud,
		ttl:      ttl,
		use:      use,
	}, nil
}

// WithLogger overrides the default logger.
func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// WithClock injects a custom clock, used for both issuance stamps and expiry
// evaluation. Useful in tests.
func (ts *TokenService) WithClock(clock func() time.Time) *TokenService {
	if clock != nil {
		ts.now = clock
	}
	return ts
}

// IssueAccessToken stamps and signs a short-lived access token.
func (ts *TokenService) IssueAccessToken(userID, email, role string) (string, error) {
	now := ts.now()
	claims := &AccessClaims{
		RegisteredClaims: ts.access.registered(userID, now),
		UID:              userID,
		Email:            email,
		UserRole:         role,
		TokenUse:         tokenUseAccess,
	}
	return ts.sign(ts.access, claims)
}

// IssueRefreshToken stamps and signs a long-lived refresh token carrying the
// identity's current revocation generation.
func (ts *TokenService) IssueRefreshToken(userID string, tokenVersion int64) (string, error) {
	now := ts.now()
	claims := &RefreshClaims{
		RegisteredClaims: ts.refresh.registered(userID, now),
		UID:              userID,
		TokenVersion:     tokenVersion,
		TokenUse:         tokenUseRefresh,
	}
	return ts.sign(ts.refresh, claims)
}

func (sc signingContext) registered(subject string, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    sc.issuer,
		Subject:   subject,
		Audience:  sc.audience,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sc.ttl)),
		ID:        uuid.NewString(),
	}
}

func (ts *TokenService) sign(sc signingContext, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(sc.secret)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}
	return signed, nil
}

// VerifyAccessToken checks signature, issuer, audience, expiry, and token use
// atomically. Every failure mode collapses into ErrInvalidToken.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.verify(ts.access, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenUse != tokenUseAccess {
		ts.logger.Debug("token use mismatch on access verification", "use", claims.TokenUse)
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefreshToken is the refresh-context twin of VerifyAccessToken.
func (ts *TokenService) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.verify(ts.refresh, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenUse != tokenUseRefresh {
		ts.logger.Debug("token use mismatch on refresh verification", "use", claims.TokenUse)
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (ts *TokenService) verify(sc signingContext, tokenString string, claims jwt.Claims) error {
	parserOptions := make([]jwt.ParserOption, 0, 4)
	parserOptions = append(parserOptions,
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	)
	if sc.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(sc.issuer))
	}
	if len(sc.audience) > 0 {
		// the parser checks a single expected audience; we mint our own
		// tokens, so the first configured value is the canonical one
		parserOptions = append(parserOptions, jwt.WithAudience(sc.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return sc.secret, nil
	}, parserOptions...)

	if err != nil {
		ts.logger.Debug("token verification failed", "use", sc.use, "error", err)
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// AccessExpiresIn reports the configured access lifetime in whole seconds,
// so callers can populate an expires_in field without re-parsing the TTL.
func (ts *TokenService) AccessExpiresIn() int64 {
	return int64(ts.access.ttl / time.Second)
}

// RefreshExpiresIn reports the configured refresh lifetime in whole seconds.
func (ts *TokenService) RefreshExpiresIn() int64 {
	return int64(ts.refresh.ttl / time.Second)
}

// ParseTTL parses a lifetime string. Beyond time.ParseDuration's units it
// accepts a day suffix: "7d" means 168 hours.
func ParseTTL(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, goerrors.New("ttl must not be empty", goerrors.CategoryBadInput)
	}

	var d time.Duration
	if strings.HasSuffix(value, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(value, "d"), 64)
		if err != nil {
			return 0, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid day ttl")
		}
		d = time.Duration(days * 24 * float64(time.Hour))
	} else {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return 0, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid ttl")
		}
		d = parsed
	}

	if d <= 0 {
		return 0, goerrors.New("ttl must be positive", goerrors.CategoryBadInput)
	}
	return d, nil
}

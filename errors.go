package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to transport layers alongside the error category so
// protocol handlers can map failures without parsing messages.
const (
	TextCodeValidationFailed     = "VALIDATION_FAILED"
	TextCodeDuplicateIdentity    = "DUPLICATE_IDENTITY"
	TextCodeInvalidCreds         = "INVALID_CREDENTIALS"
	TextCodeAccountLocked        = "ACCOUNT_LOCKED"
	TextCodeAccountInactive      = "ACCOUNT_INACTIVE"
	TextCodeInvalidToken         = "INVALID_TOKEN"
	TextCodeTokenVersionMismatch = "TOKEN_VERSION_MISMATCH"
	TextCodeInternalFailure      = "INTERNAL_FAILURE"
	TextCodeEmptyPassword        = "EMPTY_PASSWORD"
)

// ErrIdentityNotFound is returned by identity stores for missing records.
// The orchestrator never lets it reach a login caller; it collapses into
// ErrInvalidCredentials there.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrValidationFailed is returned when input does not meet the format policy.
var ErrValidationFailed = goerrors.New("validation failed", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidationFailed).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateIdentity is returned when the email or username is already taken.
var ErrDuplicateIdentity = goerrors.New("email or username already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is the single error for both an unknown email and a
// wrong password. Keeping the two cases indistinguishable at the boundary
// prevents account enumeration.
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountLocked is returned while the lockout window is active. It carries
// no remaining-time detail; transports that want a countdown can read
// LockUntil off the identity record themselves.
var ErrAccountLocked = goerrors.New("account is temporarily locked", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountLocked).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountInactive is returned for deactivated identities at login and refresh.
var ErrAccountInactive = goerrors.New("account is not active", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidToken collapses every signature, issuer, audience, expiry, and
// revocation failure into one kind so callers learn nothing about which
// check rejected the token.
var ErrInvalidToken = goerrors.New("invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenVersionMismatch marks a refresh token whose generation no longer
// matches the revocation registry. It never crosses the public boundary;
// the orchestrator maps it to ErrInvalidToken.
var ErrTokenVersionMismatch = goerrors.New("refresh token generation superseded", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenVersionMismatch).
	WithCode(goerrors.CodeUnauthorized)

// ErrInternalFailure wraps collaborator faults. Detail is logged internally;
// the message here is all a caller sees.
var ErrInternalFailure = goerrors.New("internal failure", goerrors.CategoryInternal).
	WithTextCode(TextCodeInternalFailure).
	WithCode(goerrors.CodeInternal)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// IsValidationError reports whether err is a format-policy rejection.
func IsValidationError(err error) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryValidation
	}
	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

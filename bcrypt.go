package auth

import (
	"errors"
	"unicode"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor applied when none is configured.
const DefaultBcryptCost = 12

// PasswordHasher wraps bcrypt behind a fixed, injected cost factor so the
// policy lives in configuration instead of call sites.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher at the given cost, clamped to the range
// bcrypt accepts. A zero or negative cost selects DefaultBcryptCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

// Cost exposes the configured work factor.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash will generate a password hash
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(digest), nil
}

// Compare validates the given cleartext password against the stored digest.
// The comparison is delegated to bcrypt's own routine, never a manual
// digest-equality check.
func (h *PasswordHasher) Compare(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password comparison failed")
	}
	return nil
}

// PasswordStrength itemizes an advisory strength evaluation. It feeds UX
// feedback; the hard registration policy lives in RegisterPayload.Validate.
type PasswordStrength struct {
	Acceptable bool     `json:"acceptable"`
	Score      int      `json:"score"`
	Reasons    []string `json:"reasons,omitempty"`
}

// AssessPasswordStrength scores a candidate password: minimum length, one of
// each character class, and no run of 3+ repeated characters.
func AssessPasswordStrength(password string) PasswordStrength {
	var (
		reasons []string
		score   int
	)

	if len(password) >= 8 {
		score++
	} else {
		reasons = append(reasons, "must be at least 8 characters long")
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	checks := []struct {
		ok     bool
		reason string
	}{
		{lower, "must contain a lowercase letter"},
		{upper, "must contain an uppercase letter"},
		{digit, "must contain a digit"},
		{special, "must contain a special character"},
	}
	for _, c := range checks {
		if c.ok {
			score++
		} else {
			reasons = append(reasons, c.reason)
		}
	}

	if hasRepeatedRun(password, 3) {
		reasons = append(reasons, "must not repeat the same character 3 or more times")
	} else {
		score++
	}

	return PasswordStrength{
		Acceptable: len(reasons) == 0,
		Score:      score,
		Reasons:    reasons,
	}
}

func hasRepeatedRun(s string, n int) bool {
	run := 1
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}

package auth

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// RegisterPayload carries everything a registration needs. UseHashid derives
// the record ID deterministically from the email instead of a random UUID.
type RegisterPayload struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	UseHashid bool   `json:"-"`
}

// Validate enforces the hard registration-time format policy. This is
// distinct from the advisory AssessPasswordStrength score: validation
// failures here reject the registration outright.
func (r RegisterPayload) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100),
			validation.By(validatePasswordFormat)),
	)
	if err != nil {
		return goerrors.Wrap(err, ErrValidationFailed.Category, ErrValidationFailed.Message).
			WithTextCode(ErrValidationFailed.TextCode).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// validatePasswordFormat requires one of each character class. Length is
// enforced separately by the Length rule, and the advisory repeated-run
// check stays out of the hard policy.
func validatePasswordFormat(value any) error {
	password, _ := value.(string)
	for _, reason := range AssessPasswordStrength(password).Reasons {
		if strings.HasPrefix(reason, "must contain") {
			return errors.New(reason)
		}
	}
	return nil
}

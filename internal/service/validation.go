package service

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/online-booking/booking-service/internal/domain"
)

const passwordSpecials = "@$!%*?&"

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	phonePattern      = regexp.MustCompile(`^[0-9+()\- ]*$`)
	hasLetter         = regexp.MustCompile(`[A-Za-z]`)
	hasDigit          = regexp.MustCompile(`[0-9]`)
)

// RegisterInput is the self-service registration payload.
type RegisterInput struct {
	IDNumber    string `json:"id_number"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Parish      string `json:"parish"`
	PhoneNumber string `json:"phone_number"`
}

func (in *RegisterInput) normalize() {
	in.IDNumber = strings.TrimSpace(in.IDNumber)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = domain.NormalizeEmail(in.Email)
	in.Parish = strings.TrimSpace(in.Parish)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
}

// Validate will validate the payload
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.IDNumber, validation.Required, validation.Length(1, 50), validation.Match(identifierPattern)),
		validation.Field(&in.FullName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 120), is.Email),
		validation.Field(&in.Password, validation.Required, validation.By(passwordPolicy)),
		validation.Field(&in.Parish, validation.Length(0, 100)),
		validation.Field(&in.PhoneNumber, validation.Length(0, 20), validation.Match(phonePattern)),
	)
}

// LoginInput carries login credentials.
type LoginInput struct {
	IDNumber string `json:"id_number"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.IDNumber, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// ChangePasswordInput is used by an authenticated account to rotate its password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate will validate the payload
func (in ChangePasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CurrentPassword, validation.Required),
		validation.Field(&in.NewPassword, validation.Required, validation.By(passwordPolicy)),
	)
}

// ResetRequestInput starts the password reset flow.
type ResetRequestInput struct {
	Email string `json:"email"`
}

// Validate will validate the payload
func (in ResetRequestInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
	)
}

// ResetConfirmInput redeems a reset token.
type ResetConfirmInput struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Validate will validate the payload
func (in ResetConfirmInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Token, validation.Required, is.UUID),
		validation.Field(&in.NewPassword, validation.Required, validation.By(passwordPolicy)),
	)
}

// CreateAccountInput is the admin variant of registration with an explicit role.
type CreateAccountInput struct {
	RegisterInput
	Role string `json:"role"`
}

// Validate will validate the payload
func (in CreateAccountInput) Validate() error {
	errs := validation.Errors{}
	if err := in.RegisterInput.Validate(); err != nil {
		var fieldErrs validation.Errors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for k, v := range fieldErrs {
			errs[k] = v
		}
	}
	if err := validation.Validate(in.Role, validation.Required, validation.By(roleRule)); err != nil {
		errs["role"] = err
	}
	return errs.Filter()
}

// accountPatchInput validates admin edits after the allow-list check.
type accountPatchInput struct {
	FullName    *string `json:"full_name"`
	Email       *string `json:"email"`
	Parish      *string `json:"parish"`
	PhoneNumber *string `json:"phone_number"`
}

// Validate will validate the payload
func (in accountPatchInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FullName, validation.By(notBlank), validation.Length(1, 100)),
		validation.Field(&in.Email, validation.By(notBlank), validation.Length(3, 120), is.Email),
		validation.Field(&in.Parish, validation.Length(0, 100)),
		validation.Field(&in.PhoneNumber, validation.Length(0, 20), validation.Match(phonePattern)),
	)
}

// passwordPolicy requires at least six characters mixing letters, digits and
// one of the special characters @$!%*?&.
func passwordPolicy(value interface{}) error {
	s, _ := value.(string)
	switch {
	case len(s) < 6:
		return errors.New("must be at least 6 characters long")
	case len(s) > 72:
		return errors.New("must be at most 72 bytes long")
	case !hasLetter.MatchString(s):
		return errors.New("must contain a letter")
	case !hasDigit.MatchString(s):
		return errors.New("must contain a digit")
	case !strings.ContainsAny(s, passwordSpecials):
		return errors.New("must contain one of " + passwordSpecials)
	}
	return nil
}

func roleRule(value interface{}) error {
	s, _ := value.(string)
	if _, err := domain.ParseRole(s); err != nil {
		return errors.New("must be one of User, Admin")
	}
	return nil
}

func notBlank(value interface{}) error {
	s, ok := value.(*string)
	if ok && s != nil && strings.TrimSpace(*s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// fieldErrors converts ozzo validation errors into domain.FieldErrors so the
// HTTP layer can render per-field details.
func fieldErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		out := make(domain.FieldErrors, len(verrs))
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}
	return err
}

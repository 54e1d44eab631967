package authsdk

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// MaxEmailLength bounds the email accepted by every request.
const MaxEmailLength = 100

var (
	reLower   = regexp.MustCompile(`[a-z]`)
	reUpper   = regexp.MustCompile(`[A-Z]`)
	reDigit   = regexp.MustCompile(`[0-9]`)
	reSpecial = regexp.MustCompile(`[^A-Za-z0-9]`)
	reCode    = regexp.MustCompile(`^\d{6}$`)
)

func emailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("email is required"),
		validation.RuneLength(0, MaxEmailLength).Error(fmt.Sprintf("must not exceed %d characters", MaxEmailLength)),
		is.Email.Error("must be a valid email address"),
	}
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("password is required"),
		validation.RuneLength(8, 30).Error("must be from 8 to 30 characters long"),
		validation.Match(reLower).Error("must include a lowercase letter"),
		validation.Match(reUpper).Error("must include an uppercase letter"),
		validation.Match(reDigit).Error("must include a number"),
		validation.Match(reSpecial).Error("must include a special character"),
	}
}

// Validate checks the register request fields.
// Returns a map of field names to error messages, or nil if all fields are valid.
func (r RegisterRequest) Validate() map[string]string {
	return fieldErrors(validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules()...),
		validation.Field(&r.Password, passwordRules()...),
	))
}

// Validate checks the confirm request fields.
func (r ConfirmRequest) Validate() map[string]string {
	return fieldErrors(validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules()...),
		validation.Field(&r.Code,
			validation.Required.Error("code is required"),
			validation.Match(reCode).Error("must be a 6-digit number"),
		),
	))
}

// Validate checks the login request fields. Only presence and length are
// checked so the password policy cannot be probed through login.
func (r LoginRequest) Validate() map[string]string {
	return fieldErrors(validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules()...),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.RuneLength(0, 128).Error("too long (max 128)"),
		),
	))
}

// fieldErrors flattens ozzo validation errors keyed by json field name.
func fieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		out[field] = ferr.Error()
	}
	return out
}

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/go-playground/validator/v10"
)

// PasswordMinLength is the minimum password length
var PasswordMinLength = 8

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance that reports json field names
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to the response field list
func FormatValidationErrors(err error) []apperror.FieldError {
	fields := []apperror.FieldError{}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fields
	}

	for _, e := range validationErrs {
		var msg string
		switch e.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", e.Field())
		case "email":
			msg = "Invalid email format"
		case "min":
			msg = fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
		case "gt", "gte":
			msg = fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
		case "oneof":
			msg = fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
		case "mongodb":
			msg = fmt.Sprintf("Invalid %s", e.Field())
		default:
			msg = fmt.Sprintf("%s is invalid", e.Field())
		}
		fields = append(fields, apperror.FieldError{Field: e.Field(), Message: msg})
	}

	return fields
}

// ValidatePassword checks if a password meets minimum requirements
func ValidatePassword(password string) (bool, []string) {
	errs := []string{}

	if len(password) < PasswordMinLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters", PasswordMinLength))
	}

	hasLetter := false
	for _, char := range password {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		errs = append(errs, "Password must contain at least one letter")
	}

	return len(errs) == 0, errs
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

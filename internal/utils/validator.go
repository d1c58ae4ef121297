// internal/utils/validator.go
package utils

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const maxIdentityLength = 128

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("identity", validateIdentity)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidateIdentity checks a caller or counterparty identity outside of a struct.
func ValidateIdentity(identity string) bool {
	return isIdentity(identity)
}

func validateIdentity(fl validator.FieldLevel) bool {
	return isIdentity(fl.Field().String())
}

// Identities are opaque but printable, with no whitespace.
func isIdentity(s string) bool {
	if s == "" || len(s) > maxIdentityLength {
		return false
	}
	for _, r := range s {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "identity":
		return e.Field() + " must be a non-empty identity without whitespace, at most 128 characters"
	default:
		return e.Field() + " is invalid"
	}
}

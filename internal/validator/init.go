package validator

import (
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// GetValidator - shared validator for config and wire payloads.
func GetValidator() *validator.Validate {
	return validate
}

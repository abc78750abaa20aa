// Package validation provides struct validation with the application's custom rules
package validation

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Initialize registers all custom validators. It is safe to call more than once.
func Initialize() {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("cronspec", validateCronSpec); err != nil {
			panic(err)
		}
		if err := validate.RegisterValidation("nospaces", validateNoSpaces); err != nil {
			panic(err)
		}
	})
}

// Struct validates s using its `validate` struct tags
func Struct(s any) error {
	Initialize()
	return validate.Struct(s)
}

// validateCronSpec checks that a string is a schedule robfig/cron can run,
// either five standard fields or a descriptor such as "@every 1h"
func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateNoSpaces checks if a string contains non-space characters
func validateNoSpaces(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return strings.TrimSpace(value) != ""
}

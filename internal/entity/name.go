package entity

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// MaxNameLength bounds entity names.
const MaxNameLength = 64

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("entityname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateName checks that name is usable as a directory name for an entity.
func ValidateName(name string) error {
	err := validate.Var(name, "required,max=64,entityname")
	if err == nil {
		return nil
	}

	reason := err.Error()
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Tag() {
		case "required":
			reason = "name is required"
		case "max":
			reason = "name is longer than 64 characters"
		case "entityname":
			reason = "name must start with a letter or digit and contain only letters, digits, '.', '_' or '-'"
		}
	}
	return &InvalidOptionError{Option: "name", Value: name, Reason: reason}
}

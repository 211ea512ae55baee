package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javanstorm/substance/pkg/hypervisor"
)

// ValidationError represents a configuration issue.
type ValidationError struct {
	Field   string
	Message string
	Fatal   bool // true = can't proceed, false = will be ignored
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("driver", func(fl validator.FieldLevel) bool {
		return hypervisor.ValidDriver(fl.Field().String())
	})
	return v
}

// ValidateSettings checks settings values.
// Returns a list of validation errors/warnings.
func ValidateSettings(s *Settings) []ValidationError {
	var errs []ValidationError

	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []ValidationError{{Field: "Settings", Message: err.Error(), Fatal: true}}
		}
		for _, fe := range fieldErrs {
			errs = append(errs, ValidationError{
				Field:   fe.Field(),
				Message: fieldMessage(fe),
				Fatal:   true,
			})
		}
	}

	if s.BasePath != "" && !filepath.IsAbs(s.BasePath) {
		errs = append(errs, ValidationError{
			Field:   "BasePath",
			Message: fmt.Sprintf("%q is relative and depends on the working directory", s.BasePath),
			Fatal:   false,
		})
	}

	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be set"
	case "oneof":
		return fmt.Sprintf("%q is not one of: %s", fe.Value(), fe.Param())
	case "driver":
		return fmt.Sprintf("unsupported driver %q (supported: %s)", fe.Value(), strings.Join(hypervisor.SupportedDrivers(), ", "))
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// HasFatal reports whether any error in errs is fatal.
func HasFatal(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Fatal {
			return true
		}
	}
	return false
}

// FormatValidationErrors returns human-readable error summary.
func FormatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Configuration warnings:\n")
	for _, e := range errors {
		prefix := "Warning"
		if e.Fatal {
			prefix = "Error"
		}
		fmt.Fprintf(&b, "  %s [%s]: %s\n", prefix, e.Field, e.Message)
	}
	return b.String()
}

package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates structs using `validate` tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate validates a struct and returns a readable error for the first
// failing rule
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	if _, ok := err.(*validator.InvalidValidationError); ok {
		return fmt.Errorf("validate expects a struct")
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err
	}

	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s: field is required", fe.Field())
	case "email":
		return fmt.Errorf("%s: invalid email format", fe.Field())
	case "min":
		return fmt.Errorf("%s: minimum length is %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Errorf("%s: maximum length is %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Errorf("%s: must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		return fmt.Errorf("%s: invalid identifier", fe.Field())
	default:
		return fmt.Errorf("%s: failed %s validation", fe.Field(), fe.Tag())
	}
}

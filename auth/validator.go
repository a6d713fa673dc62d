package auth

import (
	"chatwav/errors"
	goerrors "errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Validate is shared by every service validating request payloads.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateStruct wraps validation failures into errors.ErrValidation with
// a message a client can display.
func ValidateStruct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !goerrors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return fmt.Errorf("%w: %s", errors.ErrValidation, describe(validationErrors[0]))
}

// labels renames struct fields whose name reads badly in a message.
var labels = map[string]string{"Name": "Room name"}

func describe(fe validator.FieldError) string {
	field, ok := labels[fe.Field()]
	if !ok {
		field = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "username":
		return "Username can only contain letters, numbers, and underscores"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Package validate runs the client-side form checks that must pass before
// any request is sent.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/taskclient/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonName)
	_ = validate.RegisterValidation("notblank", notBlank)
}

var messages = map[string]string{
	"required": "%s is required",
	"notblank": "%s is required",
	"email":    "invalid email",
	"min":      "%s must be at least %s characters",
	"max":      "%s must be no longer than %s characters",
	"eqfield":  "passwords do not match",
	"oneof":    "%s must be one of %s",
}

// Struct validates s and returns its failures keyed by json field name, or
// nil when s is valid.
func Struct(s any) domain.FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return domain.FieldErrors{"": err.Error()}
	}

	out := make(domain.FieldErrors, len(validationErrs))
	for _, e := range validationErrs {
		if _, seen := out[e.Field()]; seen {
			continue
		}
		out[e.Field()] = message(e)
	}
	return out
}

// Check is Struct as an error: nil, or an INVALID domain error carrying the
// per-field messages.
func Check(s any) error {
	if fields := Struct(s); len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}

func message(e validator.FieldError) string {
	label := label(e.Field())
	msg, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("%s is invalid", label)
	}
	switch strings.Count(msg, "%s") {
	case 0:
		return msg
	case 1:
		return fmt.Sprintf(msg, label)
	default:
		return fmt.Sprintf(msg, label, e.Param())
	}
}

// label turns a json field name into the word shown to the user.
func label(field string) string {
	if field == "" {
		return "value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return !field.IsZero()
	}
	return strings.TrimSpace(field.String()) != ""
}

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Extra tags registered on top of the validator built-ins.
const (
	// TagNotBlank rejects strings that are empty after trimming spaces.
	TagNotBlank = "notblank"
	// TagOptionalEmail accepts "" or a valid address.
	TagOptionalEmail = "optemail"
	// TagBcryptLen bounds a string at the 72 bytes bcrypt will hash.
	TagBcryptLen = "bcryptlen"
)

const bcryptMaxBytes = 72

var std = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON name, the key clients see
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	must(v.RegisterValidation(TagNotBlank, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	must(v.RegisterValidation(TagOptionalEmail, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || v.Var(s, "email") == nil
	}))
	must(v.RegisterValidation(TagBcryptLen, func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= bcryptMaxBytes
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Messages overrides the default text of a failed rule. Keys are "<field>.<tag>".
type Messages map[string]string

// Struct runs the validate tags of s and returns the failures as Errors.
func Struct(s any, msgs Messages) error {
	return collect(std.Struct(s), msgs, func(fe validator.FieldError) string { return fe.Field() })
}

// Var checks a single value against tag, reporting failures under field.
func Var(field string, value any, tag string, msgs Messages) error {
	return collect(std.Var(value, tag), msgs, func(validator.FieldError) string { return field })
}

func collect(err error, msgs Messages, name func(validator.FieldError) string) error {
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return err
	}
	errs := Errors{}
	for _, fe := range fes {
		f := name(fe)
		errs.Add(f, msgs.render(f, fe))
	}
	return errs.Err()
}

func (m Messages) render(field string, fe validator.FieldError) string {
	if s, ok := m[field+"."+fe.Tag()]; ok {
		return s
	}
	return defaultMessage(fe)
}

func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required."
	case TagNotBlank:
		return "this field may not be blank."
	case TagOptionalEmail, "email":
		return "enter a valid email address."
	case TagBcryptLen:
		return fmt.Sprintf("ensure this field has no more than %d bytes.", bcryptMaxBytes)
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("ensure this value is less than or equal to %s.", fe.Param())
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("ensure this value is greater than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("ensure this value is greater than %s.", fe.Param())
	default:
		return "invalid value."
	}
}

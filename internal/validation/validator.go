// Package validation holds the site's form schemas and the validator that
// checks them. Schemas are structs with validate tags; each one knows the
// human-readable message for every rule it declares, and how to turn itself
// into column values for the store.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Error lists every failing field with one message each. Field names are the
// JSON names the client sent.
type Error struct {
	Fields map[string]string `json:"fields"`
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator checks forms. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// normalizer is implemented by forms that trim input before checking it.
type normalizer interface {
	normalize()
}

// messenger is implemented by forms with their own wording for rule failures,
// keyed "field.tag".
type messenger interface {
	messages() map[string]string
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("accepted", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
	})

	return &Validator{v: v}
}

// Validate normalizes form (a pointer) and checks it. Rule failures come back
// as *Error; anything else means form was not a struct pointer.
func (val *Validator) Validate(form any) error {
	if n, ok := form.(normalizer); ok {
		n.normalize()
	}

	err := val.v.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %T: %w", form, err)
	}

	var custom map[string]string
	if m, ok := form.(messenger); ok {
		custom = m.messages()
	}

	out := &Error{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, seen := out.Fields[field]; seen {
			continue
		}
		if msg, ok := custom[field+"."+fe.Tag()]; ok {
			out.Fields[field] = msg
			continue
		}
		out.Fields[field] = defaultMessage(fe)
	}
	return out
}

func defaultMessage(fe validator.FieldError) string {
	counted := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email address"
	case "url":
		return "Invalid URL"
	case "uuid":
		return "Invalid id"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		if counted {
			return "Must be at least " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "Select at least " + fe.Param()
		}
		return "Must be at least " + fe.Param()
	case "max", "lte":
		if counted {
			return "Must be less than " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "eqfield":
		return "Does not match"
	case "username":
		return "Username can only contain letters, numbers, and underscores"
	case "accepted":
		return "You must accept the terms and conditions"
	}
	return "Invalid value"
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

// nullable maps an empty optional input to NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

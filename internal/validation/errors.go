// Package validation carries field-keyed input errors from the domain packages to the HTTP layer.
package validation

import (
	"errors"
	"sort"
	"strings"
)

// NonField is the key used for errors that are not tied to a single input field.
const NonField = "non_field_errors"

// Errors maps an input field to the messages raised against it.
type Errors map[string][]string

// Add records msg against field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Err returns nil when nothing was recorded so callers can `return errs.Err()`.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Field is shorthand for a single-field error.
func Field(field, msg string) error {
	return Errors{field: {msg}}
}

// As unwraps err into Errors when it is one.
func As(err error) (Errors, bool) {
	var v Errors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

package validate

import (
	"errors"
	"strings"
)

// ErrValidation is matched by every *Error.
var ErrValidation = errors.New("validation failed")

// Error lists the form fields that failed a client-side check.
type Error struct {
	Fields []string
}

func (e *Error) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *Error) Is(target error) bool {
	return target == ErrValidation
}

// Form collects field failures in the order they are checked.
type Form struct {
	fields []string
}

// Required flags name when value is blank.
func (f *Form) Required(name, value string) {
	if strings.TrimSpace(value) == "" {
		f.fields = append(f.fields, name)
	}
}

// Check flags name when ok is false.
func (f *Form) Check(name string, ok bool) {
	if !ok {
		f.fields = append(f.fields, name)
	}
}

// Err returns nil when every check passed.
func (f *Form) Err() error {
	if len(f.fields) == 0 {
		return nil
	}
	return &Error{Fields: f.fields}
}

package render

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSubstitutionKey is returned when a template references a
	// placeholder that has no value.
	ErrMissingSubstitutionKey = errors.New("missing substitution key")

	// ErrUnexpectedSubstitutionKey is returned by Validate when a value is
	// supplied for a placeholder the template never uses.
	ErrUnexpectedSubstitutionKey = errors.New("unexpected substitution key")
)

// MissingKeyError reports the first placeholder that could not be filled.
type MissingKeyError struct {
	Template string
	Key      string
	Line     int // 1-based; 0 when raised by Validate
}

func (e *MissingKeyError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("template %q line %d: no value for <%s>", e.Template, e.Line, e.Key)
	}
	return fmt.Sprintf("template %q: no value for <%s>", e.Template, e.Key)
}

// Unwrap lets errors.Is match ErrMissingSubstitutionKey.
func (e *MissingKeyError) Unwrap() error {
	return ErrMissingSubstitutionKey
}

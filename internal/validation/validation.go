package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidUUID indicates that a provided ID is not a valid UUID.
var ErrInvalidUUID = fmt.Errorf("invalid UUID format")

// symbolPattern matches 1-10 character symbols that start with a letter and
// contain only uppercase letters, digits, and hyphens.
var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9-]{0,9}$`)

// Error is a validation error carrying field-specific messages.
type Error struct {
	Fields map[string]string
}

// Error implements the error interface, joining field messages in a
// deterministic order.
func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = fmt.Sprintf("%s: %s", field, e.Fields[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ValidateSymbol checks if a string is a well-formed instrument symbol.
func ValidateSymbol(symbol string) error {
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("invalid symbol: %q", symbol)
	}
	return nil
}

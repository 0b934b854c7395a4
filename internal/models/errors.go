package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ValidationError maps a field name to the problems found with it.
type ValidationError map[string][]string

func (e ValidationError) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when nothing was added, so callers can write `return v.Err()`.
func (e ValidationError) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func NewValidationError(field, msg string) ValidationError {
	return ValidationError{field: {msg}}
}

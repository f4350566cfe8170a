package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the configuration source does not exist.
	ErrNotFound = errors.New("configuration not found")

	// ErrParse is returned when the configuration source cannot be decoded.
	ErrParse = errors.New("configuration malformed")

	// ErrValidation is matched by every *ValidationError via errors.Is.
	ErrValidation = errors.New("configuration invalid")

	// ErrConfigLoadFailed wraps all failures from loading configuration.
	ErrConfigLoadFailed = errors.New("failed to load configuration")
)

// Violation describes a single field-level rule breach.
type Violation struct {
	// Field is the dotted path of the offending field, e.g. 'servers.local.command'.
	Field string `json:"field"`

	// Message describes the rule that was broken.
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationError carries every violation found while validating a configuration document.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Is allows errors.Is(err, ErrValidation) to match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HasField reports whether any violation names the given field path.
func (e *ValidationError) HasField(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

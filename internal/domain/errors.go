package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common validation errors.
var (
	// ErrValidation is the root of every structural validation failure.
	ErrValidation = errors.New("validation failed")

	ErrInvalidID           = errors.New("invalid ID")
	ErrEmptyText           = errors.New("text cannot be empty")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidDifficulty   = errors.New("invalid difficulty")
	ErrInvalidQuestionType = errors.New("invalid question type")
	ErrInvalidAmount       = errors.New("invalid monetary amount")
	ErrInvalidContent      = errors.New("invalid question content")
)

// ValidationError describes a structural problem with a single field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for the named field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports every ValidationError as an ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationErrors collects the field errors found on one record.
type ValidationErrors []*ValidationError

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string, err error) {
	*v = append(*v, NewValidationError(field, message, err))
}

// Prefix returns a copy with every field name qualified by prefix,
// e.g. "expenses[2]" turns "amount" into "expenses[2].amount".
func (v ValidationErrors) Prefix(prefix string) ValidationErrors {
	out := make(ValidationErrors, 0, len(v))
	for _, e := range v {
		field := prefix
		if e.Field != "" {
			field = prefix + "." + e.Field
		}
		out = append(out, NewValidationError(field, e.Message, e.Err))
	}
	return out
}

// Err returns nil when no errors were collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, e := range v {
		errs = append(errs, e)
	}
	return errs
}

// Fields maps each field to its messages, for API responses.
func (v ValidationErrors) Fields() map[string][]string {
	out := make(map[string][]string, len(v))
	for _, e := range v {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// AsValidationErrors flattens err into field errors when it carries any.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many, true
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return ValidationErrors{one}, true
	}
	return nil, false
}

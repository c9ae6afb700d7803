package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/domain/budget"
)

// Common service errors - sentinel errors used across service implementations.
// Callers use errors.Is/errors.As to check for them; the API layer maps
// them to HTTP status codes.
var (
	// ErrUnknownExpenses indicates a gameplay selection names expenses that
	// do not belong to the simulation. It is an input error, not a budget
	// violation. API layer should map this to HTTP 400 Bad Request.
	ErrUnknownExpenses = errors.New("selection contains expenses that do not belong to the simulation")

	// ErrInvalidAnswer indicates an answer payload that does not fit the
	// question type.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrInvalidBatch indicates an import payload that is not a JSON array.
	ErrInvalidBatch = errors.New("import payload must be a JSON array")

	// ErrGenerationDisabled indicates that no content generator is configured.
	ErrGenerationDisabled = errors.New("content generation is not configured")
)

// ServiceError is a custom error type for unexpected service failures.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// FormsetError rejects a whole nested simulation submission. Nothing of
// the submission is persisted.
type FormsetError struct {
	// Fields holds errors of the parent simulation fields.
	Fields map[string][]string
	// FormErrors holds per-form field errors keyed by form position.
	FormErrors map[int]map[string][]string
	// NonFormErrors are errors of the submission as a whole, such as the
	// essential total exceeding income or the expense count.
	NonFormErrors []string
	// Violation is set when the remaining essential expenses exceed income.
	Violation *budget.ViolationError
}

func (e *FormsetError) addForm(i int, errs domain.ValidationErrors) {
	if len(errs) == 0 {
		return
	}
	if e.FormErrors == nil {
		e.FormErrors = make(map[int]map[string][]string)
	}
	e.FormErrors[i] = errs.Fields()
}

func (e *FormsetError) addFields(errs domain.ValidationErrors) {
	if len(errs) == 0 {
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	for field, msgs := range errs.Fields() {
		e.Fields[field] = append(e.Fields[field], msgs...)
	}
}

func (e *FormsetError) empty() bool {
	return len(e.Fields) == 0 && len(e.FormErrors) == 0 && len(e.NonFormErrors) == 0
}

// Error implements the error interface for FormsetError.
func (e *FormsetError) Error() string {
	var parts []string
	parts = append(parts, e.NonFormErrors...)
	if len(e.Fields) > 0 {
		parts = append(parts, fmt.Sprintf("%d invalid simulation fields", len(e.Fields)))
	}
	if len(e.FormErrors) > 0 {
		idx := make([]int, 0, len(e.FormErrors))
		for i := range e.FormErrors {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		parts = append(parts, fmt.Sprintf("invalid expense forms %v", idx))
	}
	return "simulation submission rejected: " + strings.Join(parts, "; ")
}

// Is matches domain.ErrValidation, and budget.ErrEssentialsExceedIncome
// when the submission violated the income constraint.
func (e *FormsetError) Is(target error) bool {
	if target == domain.ErrValidation {
		return true
	}
	return e.Violation != nil && target == budget.ErrEssentialsExceedIncome
}

// Unwrap exposes the violation to errors.As.
func (e *FormsetError) Unwrap() error {
	if e.Violation == nil {
		return nil
	}
	return e.Violation
}

package api

import (
	"errors"
	"net/http"

	"github.com/finlit/finlit-api/internal/api/shared"
	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/domain/budget"
	"github.com/finlit/finlit-api/internal/service"
	"github.com/finlit/finlit-api/internal/service/auth"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/finlit/finlit-api/internal/task"
)

var (
	// ErrUnauthorized is returned when a route needs an authenticated user
	// and the context has none.
	ErrUnauthorized = errors.New("authentication required")

	// ErrInvalidParameter marks malformed path or query parameters.
	ErrInvalidParameter = errors.New("invalid request parameter")
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. Input
// errors are checked before validation errors: an unknown expense ID is a
// bad request, not rejected content.
func MapErrorToStatusCode(err error) int {
	var formset *service.FormsetError
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, auth.ErrNotStaff):
		return http.StatusForbidden

	case errors.Is(err, shared.ErrInvalidBody),
		errors.Is(err, ErrInvalidParameter),
		errors.Is(err, service.ErrUnknownExpenses),
		errors.Is(err, service.ErrInvalidAnswer),
		errors.Is(err, service.ErrInvalidBatch):
		return http.StatusBadRequest

	case errors.As(err, &formset),
		errors.Is(err, budget.ErrEssentialsExceedIncome),
		errors.Is(err, budget.ErrExpenseCount),
		errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrVersionConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, task.ErrQueueFull):
		return http.StatusServiceUnavailable

	case errors.Is(err, service.ErrGenerationDisabled):
		return http.StatusNotImplemented

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Budget
// violations are reported verbatim since they only carry the two totals.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var violation *budget.ViolationError
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, auth.ErrNotStaff):
		return "Staff access required"

	case errors.Is(err, shared.ErrInvalidBody):
		return "Invalid request format"
	case errors.Is(err, ErrInvalidParameter):
		return "Invalid request parameter"
	case errors.Is(err, service.ErrUnknownExpenses):
		return "Selected expenses do not belong to this simulation"
	case errors.Is(err, service.ErrInvalidAnswer):
		return "Invalid answer"
	case errors.Is(err, service.ErrInvalidBatch):
		return "Import payload must be a JSON array"

	case errors.As(err, &violation):
		return violation.Error()
	case errors.Is(err, budget.ErrEssentialsExceedIncome):
		return "Essential expenses exceed monthly income"
	case errors.Is(err, budget.ErrExpenseCount):
		return "A simulation needs between 1 and 10 expenses"
	case errors.Is(err, domain.ErrValidation):
		return "Validation error"

	case errors.Is(err, store.ErrSimulationNotFound):
		return "Simulation not found"
	case errors.Is(err, store.ErrExpenseNotFound):
		return "Expense not found"
	case errors.Is(err, store.ErrQuestionNotFound):
		return "Question not found"
	case errors.Is(err, store.ErrTaskNotFound):
		return "Generation job not found"
	case errors.Is(err, store.ErrNotFound):
		return "No content available"

	case errors.Is(err, store.ErrVersionConflict):
		return "Simulation was modified by someone else; reload and retry"
	case errors.Is(err, store.ErrDuplicate):
		return "Content already exists"

	case errors.Is(err, task.ErrQueueFull):
		return "Generation queue is full, try again later"
	case errors.Is(err, service.ErrGenerationDisabled):
		return "Content generation is not configured"

	default:
		return "An unexpected error occurred"
	}
}

// errorResponse builds the response body for err, adding the field,
// form and violation details of rejected content.
func errorResponse(err error, status int, defaultMsg string) *shared.ErrorResponse {
	body := &shared.ErrorResponse{Error: GetSafeErrorMessage(err), Code: status}
	if status == http.StatusInternalServerError && defaultMsg != "" {
		body.Error = defaultMsg
	}

	var (
		formset   *service.FormsetError
		violation *budget.ViolationError
	)
	switch {
	case errors.As(err, &formset):
		body.Error = "Simulation rejected"
		if formset.Violation != nil {
			body.Error = formset.Violation.Error()
			violation = formset.Violation
		}
		if len(formset.Fields) > 0 {
			body.Fields = formset.Fields
		}
		if len(formset.FormErrors) > 0 {
			body.FormErrors = formset.FormErrors
		}
		body.NonFormErrors = formset.NonFormErrors
	case errors.As(err, &violation):
	default:
		if errs, ok := domain.AsValidationErrors(err); ok {
			body.Fields = errs.Fields()
		}
	}

	if violation != nil {
		body.Violation = &shared.ViolationDetail{
			EssentialTotal: domain.FormatMoney(violation.EssentialTotal),
			MonthlyIncome:  domain.FormatMoney(violation.MonthlyIncome),
			Excess:         domain.FormatMoney(violation.Excess()),
		}
	}
	return body
}

// HandleAPIError writes the error response for err. defaultMsg replaces
// the generic message of unexpected errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	var opts []shared.ResponseOption
	if status == http.StatusConflict || status == http.StatusServiceUnavailable {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorBody(w, r, errorResponse(err, status, defaultMsg), err, opts...)
}

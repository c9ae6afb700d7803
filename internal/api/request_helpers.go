package api

import (
	"net/http"
	"strconv"

	"github.com/finlit/finlit-api/internal/api/shared"
	"github.com/finlit/finlit-api/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// requireUser returns the authenticated user, writing a 401 when the
// request has none.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		HandleAPIError(w, r, ErrUnauthorized, "")
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID parses a UUID path parameter.
func getPathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		return uuid.Nil, domain.NewValidationError(param, "is required", ErrInvalidParameter)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(param, "has invalid format", ErrInvalidParameter)
	}
	return id, nil
}

// getPathCategory parses a category path parameter given as a code
// ("BUD") or a slug ("budget").
func getPathCategory(r *http.Request, param string) (domain.Category, error) {
	c, err := domain.ParseCategory(chi.URLParam(r, param))
	if err != nil {
		return "", domain.NewValidationError(param, "is not a known category", ErrInvalidParameter)
	}
	return c, nil
}

// getPathQuestionType parses a question type path parameter, e.g. "MC".
func getPathQuestionType(r *http.Request, param string) (domain.QuestionType, error) {
	qt, err := domain.ParseQuestionType(chi.URLParam(r, param))
	if err != nil {
		return "", domain.NewValidationError(param, "is not a known question type", ErrInvalidParameter)
	}
	return qt, nil
}

// getQueryDifficulty parses the optional difficulty query parameter.
// Empty means any difficulty.
func getQueryDifficulty(r *http.Request) (domain.Difficulty, error) {
	raw := r.URL.Query().Get("difficulty")
	if raw == "" {
		return "", nil
	}
	d, err := domain.ParseDifficulty(raw)
	if err != nil {
		return "", domain.NewValidationError("difficulty", "must be one of B, I, A", ErrInvalidParameter)
	}
	return d, nil
}

// getQueryBool parses an optional boolean query parameter.
func getQueryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewValidationError(name, "must be true or false", ErrInvalidParameter)
	}
	return v, nil
}

// getQueryInt parses an optional non-negative integer query parameter.
func getQueryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, domain.NewValidationError(name, "must be a non-negative integer", ErrInvalidParameter)
	}
	return v, nil
}

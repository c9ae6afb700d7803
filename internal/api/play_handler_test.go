package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/finlit/finlit-api/internal/api/shared"
	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/service"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPlayHandler_NextSimulation(t *testing.T) {
	t.Run("accepts slugs and difficulty", func(t *testing.T) {
		s := newTestServer(t, false)
		sim := &service.PlayableSimulation{ID: uuid.New(), Prompt: "Plan your month", MonthlyIncome: "1100.00"}
		s.gameplay.On("NextSimulation", mock.Anything, s.userID, domain.CategoryBudgeting, domain.DifficultyIntermediate).
			Return(sim, nil).Once()

		rec := s.do(http.MethodGet, "/play/simulations/budget?difficulty=I", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[service.PlayableSimulation](t, rec)
		assert.Equal(t, sim.ID, got.ID)
		assert.Equal(t, "1100.00", got.MonthlyIncome)
	})

	t.Run("unknown category", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(http.MethodGet, "/play/simulations/lottery", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[shared.ErrorResponse](t, rec)
		assert.Equal(t, "Invalid request parameter", body.Error)
		assert.Contains(t, body.Fields, "category")
	})

	t.Run("no content", func(t *testing.T) {
		s := newTestServer(t, false)
		s.gameplay.On("NextSimulation", mock.Anything, s.userID, domain.CategoryTaxes, domain.Difficulty("")).
			Return(nil, store.ErrNotFound).Once()

		rec := s.do(http.MethodGet, "/play/simulations/TAX", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "No content available", decodeBody[shared.ErrorResponse](t, rec).Error)
	})

	t.Run("anonymous", func(t *testing.T) {
		s := newTestServer(t, true)
		rec := s.do(http.MethodGet, "/play/simulations/BUD", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPlayHandler_SubmitBudget(t *testing.T) {
	simID := uuid.New()
	rent, food := uuid.New(), uuid.New()

	t.Run("returns the graded result", func(t *testing.T) {
		s := newTestServer(t, false)
		result := &service.BudgetResult{
			IsSuccessful:     true,
			IsWithinBudget:   true,
			TotalSelected:    "1000.00",
			MonthlyIncome:    "1100.00",
			BudgetDifference: "100.00",
			MissingEssential: []service.ExpenseFeedback{},
			Feedback:         []string{"Great job! You've earned 50 Budgeting XP."},
			XPEarned:         50,
		}
		s.gameplay.On("SubmitBudget", mock.Anything, s.userID, simID, []uuid.UUID{rent, food}).
			Return(result, nil).Once()

		rec := s.do(http.MethodPost, "/play/simulations/"+simID.String()+"/submit",
			`{"selected_expense_ids":["`+rent.String()+`","`+food.String()+`"]}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[map[string]any](t, rec)
		assert.Equal(t, true, got["is_successful"])
		assert.Equal(t, "100.00", got["budget_difference"])
		assert.EqualValues(t, 50, got["xp_earned"])
		assert.NotContains(t, got, "over_budget")
	})

	t.Run("missing selection", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(http.MethodPost, "/play/simulations/"+simID.String()+"/submit", `{}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[shared.ErrorResponse](t, rec).Fields, "selected_expense_ids")
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(http.MethodPost, "/play/simulations/"+simID.String()+"/submit", `{"selected_expense_ids":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request format", decodeBody[shared.ErrorResponse](t, rec).Error)
	})

	t.Run("bad simulation id", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(http.MethodPost, "/play/simulations/42/submit", `{"selected_expense_ids":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	errorCases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"foreign expenses", service.ErrUnknownExpenses, http.StatusBadRequest,
			"Selected expenses do not belong to this simulation"},
		{"unknown simulation", store.ErrSimulationNotFound, http.StatusNotFound, "Simulation not found"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "Failed to submit budget"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, false)
			s.gameplay.On("SubmitBudget", mock.Anything, s.userID, simID, []uuid.UUID{rent}).
				Return(nil, tc.err).Once()

			rec := s.do(http.MethodPost, "/play/simulations/"+simID.String()+"/submit",
				`{"selected_expense_ids":["`+rent.String()+`"]}`)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, decodeBody[shared.ErrorResponse](t, rec).Error)
		})
	}
}

func TestPlayHandler_Questions(t *testing.T) {
	t.Run("next question by slug", func(t *testing.T) {
		s := newTestServer(t, false)
		q := &service.PlayableQuestion{ID: uuid.New(), Type: domain.QuestionTypeMultipleChoice, Options: []string{"a", "b"}}
		s.gameplay.On("NextQuestion", mock.Anything, s.userID, domain.QuestionTypeMultipleChoice,
			domain.CategoryInvesting, domain.Difficulty("")).Return(q, nil).Once()

		rec := s.do(http.MethodGet, "/play/questions/multiple-choice/INV", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "MC", got["type"])
		assert.NotContains(t, got, "terms")
	})

	t.Run("no question available", func(t *testing.T) {
		s := newTestServer(t, false)
		s.gameplay.On("NextQuestion", mock.Anything, s.userID, domain.QuestionTypeBudgetSimulation,
			domain.CategoryInvesting, domain.Difficulty("")).Return(nil, store.ErrQuestionNotFound).Once()

		rec := s.do(http.MethodGet, "/play/questions/BS/INV", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("answer", func(t *testing.T) {
		s := newTestServer(t, false)
		id := uuid.New()
		yes := true
		s.gameplay.On("AnswerQuestion", mock.Anything, s.userID, domain.QuestionTypeFlashCard, id,
			service.Answer{Value: &yes}).
			Return(&service.AnswerResult{IsCorrect: true, CorrectAnswer: "true", XPEarned: 100}, nil).Once()

		rec := s.do(http.MethodPost, "/play/questions/FC/"+id.String()+"/answer", `{"value":true}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[service.AnswerResult](t, rec)
		assert.True(t, got.IsCorrect)
		assert.Equal(t, 100, got.XPEarned)
	})

	t.Run("answer of the wrong shape", func(t *testing.T) {
		s := newTestServer(t, false)
		id := uuid.New()
		s.gameplay.On("AnswerQuestion", mock.Anything, s.userID, domain.QuestionTypeFillBlank, id, service.Answer{}).
			Return(nil, service.ErrInvalidAnswer).Once()

		rec := s.do(http.MethodPost, "/play/questions/FIB/"+id.String()+"/answer", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid answer", decodeBody[shared.ErrorResponse](t, rec).Error)
	})
}

func TestPlayHandler_XP(t *testing.T) {
	s := newTestServer(t, false)
	s.gameplay.On("XP", mock.Anything, s.userID).
		Return(domain.XPBalance{domain.CategoryBudgeting: 50, domain.CategoryTaxes: 150}, nil).Once()

	rec := s.do(http.MethodGet, "/me/xp", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[XPResponse](t, rec)
	assert.Equal(t, 200, got.Total)
	assert.Equal(t, 50, got.Categories["Budgeting"])
	assert.Equal(t, 150, got.Categories["Taxes"])
	assert.Equal(t, 0, got.Categories["Credit"])
	assert.Len(t, got.Categories, 6)
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/finlit/finlit-api/internal/api/shared"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/service"
)

// PlayHandler serves gameplay to authenticated learners.
type PlayHandler struct {
	gameplay service.GameplayService
	logger   *slog.Logger
}

// NewPlayHandler creates a new PlayHandler
func NewPlayHandler(gameplay service.GameplayService, logger *slog.Logger) *PlayHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for PlayHandler")
	}
	return &PlayHandler{
		gameplay: gameplay,
		logger:   logger.With(slog.String("component", "play_handler")),
	}
}

// NextSimulation handles GET /play/simulations/{category}.
func (h *PlayHandler) NextSimulation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	category, err := getPathCategory(r, "category")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	difficulty, err := getQueryDifficulty(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	sim, err := h.gameplay.NextSimulation(r.Context(), userID, category, difficulty)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get simulation")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sim)
}

// SubmitBudget handles POST /play/simulations/{id}/submit.
func (h *PlayHandler) SubmitBudget(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	simulationID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	var req SubmitBudgetRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.gameplay.SubmitBudget(r.Context(), userID, simulationID, req.SelectedExpenseIDs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit budget")
		return
	}

	log.Debug("budget submitted",
		slog.String("user_id", userID.String()),
		slog.String("simulation_id", simulationID.String()),
		slog.Bool("successful", result.IsSuccessful),
		slog.Int("xp_earned", result.XPEarned))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// NextQuestion handles GET /play/questions/{type}/{category}.
func (h *PlayHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	qt, err := getPathQuestionType(r, "type")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	category, err := getPathCategory(r, "category")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	difficulty, err := getQueryDifficulty(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	q, err := h.gameplay.NextQuestion(r.Context(), userID, qt, category, difficulty)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get question")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, q)
}

// AnswerQuestion handles POST /play/questions/{type}/{id}/answer.
func (h *PlayHandler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	qt, err := getPathQuestionType(r, "type")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	questionID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	var answer service.Answer
	if err := shared.DecodeJSON(w, r, &answer); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.gameplay.AnswerQuestion(r.Context(), userID, qt, questionID, answer)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to grade answer")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// XP handles GET /me/xp.
func (h *PlayHandler) XP(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	xp, err := h.gameplay.XP(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get experience")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newXPResponse(xp))
}

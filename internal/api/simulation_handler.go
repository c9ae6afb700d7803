package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/finlit/finlit-api/internal/api/shared"
	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/service"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
)

// SimulationHandler handles staff editing of budget simulations.
type SimulationHandler struct {
	simulations service.SimulationService
	logger      *slog.Logger
}

// NewSimulationHandler creates a new SimulationHandler
func NewSimulationHandler(simulations service.SimulationService, logger *slog.Logger) *SimulationHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SimulationHandler")
	}
	return &SimulationHandler{
		simulations: simulations,
		logger:      logger.With(slog.String("component", "simulation_handler")),
	}
}

func (h *SimulationHandler) respond(w http.ResponseWriter, r *http.Request, status int, sim *domain.Simulation) {
	shared.RespondWithJSON(w, r, status, newSimulationResponse(sim))
}

// List handles GET /admin/simulations.
func (h *SimulationHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.SimulationFilter
	if raw := r.URL.Query().Get("category"); raw != "" {
		c, err := domain.ParseCategory(raw)
		if err != nil {
			HandleAPIError(w, r, domain.NewValidationError("category", "is not a known category", ErrInvalidParameter), "")
			return
		}
		filter.Category = c
	}
	var err error
	if filter.Difficulty, err = getQueryDifficulty(r); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if filter.Limit, err = getQueryInt(r, "limit"); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if filter.Offset, err = getQueryInt(r, "offset"); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	sims, err := h.simulations.List(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list simulations")
		return
	}
	resp := make([]SimulationResponse, 0, len(sims))
	for _, sim := range sims {
		resp = append(resp, newSimulationResponse(sim))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Create handles POST /admin/simulations.
func (h *SimulationHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var draft service.SimulationDraft
	if err := shared.DecodeJSON(w, r, &draft); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	sim, err := h.simulations.Create(r.Context(), draft)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create simulation")
		return
	}
	log.Info("simulation created",
		slog.String("simulation_id", sim.ID.String()),
		slog.Int("expenses", len(sim.Expenses)))
	h.respond(w, r, http.StatusCreated, sim)
}

// Get handles GET /admin/simulations/{id}.
func (h *SimulationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	sim, err := h.simulations.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get simulation")
		return
	}
	h.respond(w, r, http.StatusOK, sim)
}

// SubmitFormset handles PUT /admin/simulations/{id}: the simulation and
// its expense forms are saved together or not at all.
func (h *SimulationHandler) SubmitFormset(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	var sub service.FormsetSubmission
	if err := shared.DecodeJSON(w, r, &sub); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	sim, err := h.simulations.SubmitFormset(r.Context(), &id, sub)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save simulation")
		return
	}
	log.Info("simulation formset saved",
		slog.String("simulation_id", sim.ID.String()),
		slog.Int("version", sim.Version))
	h.respond(w, r, http.StatusOK, sim)
}

// Delete handles DELETE /admin/simulations/{id}.
func (h *SimulationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := h.simulations.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete simulation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateIncome handles PATCH /admin/simulations/{id}/income.
func (h *SimulationHandler) UpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	var req IncomeRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	sim, err := h.simulations.UpdateIncome(r.Context(), id, req.MonthlyIncome, req.Version)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update income")
		return
	}
	h.respond(w, r, http.StatusOK, sim)
}

// AddExpense handles POST /admin/simulations/{id}/expenses.
func (h *SimulationHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	var req ExpenseRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	sim, err := h.simulations.AddExpense(r.Context(), id, req.draft(), req.Version)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add expense")
		return
	}
	h.respond(w, r, http.StatusCreated, sim)
}

// UpdateExpense handles PUT /admin/simulations/{id}/expenses/{expenseID}.
func (h *SimulationHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, expenseID, ok := h.expensePath(w, r)
	if !ok {
		return
	}
	var req ExpenseRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	sim, err := h.simulations.UpdateExpense(r.Context(), id, expenseID, req.draft(), req.Version)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update expense")
		return
	}
	h.respond(w, r, http.StatusOK, sim)
}

// DeleteExpense handles DELETE /admin/simulations/{id}/expenses/{expenseID}.
// The expected version is read from the optional version query parameter.
func (h *SimulationHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, expenseID, ok := h.expensePath(w, r)
	if !ok {
		return
	}
	var version *int
	if raw := r.URL.Query().Get("version"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			HandleAPIError(w, r, domain.NewValidationError("version", "must be a positive integer", ErrInvalidParameter), "")
			return
		}
		version = &v
	}
	sim, err := h.simulations.DeleteExpense(r.Context(), id, expenseID, version)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete expense")
		return
	}
	h.respond(w, r, http.StatusOK, sim)
}

func (h *SimulationHandler) expensePath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}
	expenseID, err := getPathUUID(r, "expenseID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}
	return id, expenseID, true
}

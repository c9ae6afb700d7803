package api

import (
	"time"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/domain/budget"
	"github.com/finlit/finlit-api/internal/service"
	"github.com/google/uuid"
)

// SubmitBudgetRequest is the body of a budget submission. An empty list
// is a valid (and failing) selection.
type SubmitBudgetRequest struct {
	SelectedExpenseIDs []uuid.UUID `json:"selected_expense_ids" validate:"required"`
}

// IncomeRequest changes a simulation's monthly income.
type IncomeRequest struct {
	MonthlyIncome string `json:"monthly_income" validate:"required"`
	Version       *int   `json:"version,omitempty" validate:"omitempty,gte=1"`
}

// ExpenseRequest adds or replaces one expense.
type ExpenseRequest struct {
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Essential *bool  `json:"essential" validate:"required"`
	Feedback  string `json:"feedback"`
	Version   *int   `json:"version,omitempty" validate:"omitempty,gte=1"`
}

func (r ExpenseRequest) draft() service.ExpenseDraft {
	return service.ExpenseDraft{
		Name:      r.Name,
		Amount:    r.Amount,
		Essential: *r.Essential,
		Feedback:  r.Feedback,
	}
}

// GenerationJobRequest queues an AI generation job.
type GenerationJobRequest struct {
	ContentType string `json:"content_type" validate:"required,qtype"`
	Category    string `json:"category" validate:"omitempty,category"`
	Difficulty  string `json:"difficulty" validate:"omitempty,difficulty"`
	BatchSize   int    `json:"batch_size" validate:"gte=0"`
	Batches     int    `json:"batches" validate:"gte=0"`
	DryRun      bool   `json:"dry_run"`
}

// ExpenseResponse is an expense as shown to staff.
type ExpenseResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Amount    string    `json:"amount"`
	Essential bool      `json:"essential"`
	Feedback  string    `json:"feedback"`
}

// SimulationResponse is a simulation as shown to staff. Money is
// rendered with two decimals.
type SimulationResponse struct {
	ID             uuid.UUID         `json:"id"`
	Prompt         string            `json:"prompt"`
	MonthlyIncome  string            `json:"monthly_income"`
	EssentialTotal string            `json:"essential_total"`
	Difficulty     domain.Difficulty `json:"difficulty"`
	Category       domain.Category   `json:"category"`
	Version        int               `json:"version"`
	Expenses       []ExpenseResponse `json:"expenses"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// XPResponse is a user's experience per category.
type XPResponse struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
}

// ImportResponse is the per-item outcome of an import.
type ImportResponse struct {
	Summary string `json:"summary"`
	*domain.ImportReport
}

func newSimulationResponse(sim *domain.Simulation) SimulationResponse {
	resp := SimulationResponse{
		ID:             sim.ID,
		Prompt:         sim.Prompt,
		MonthlyIncome:  domain.FormatMoney(sim.MonthlyIncome),
		EssentialTotal: domain.FormatMoney(budget.EssentialTotal(budget.LinesOf(sim.Expenses))),
		Difficulty:     sim.Difficulty,
		Category:       sim.Category,
		Version:        sim.Version,
		Expenses:       make([]ExpenseResponse, 0, len(sim.Expenses)),
		CreatedAt:      sim.CreatedAt,
		UpdatedAt:      sim.UpdatedAt,
	}
	for _, e := range sim.Expenses {
		resp.Expenses = append(resp.Expenses, ExpenseResponse{
			ID:        e.ID,
			Name:      e.Name,
			Amount:    domain.FormatMoney(e.Amount),
			Essential: e.Essential,
			Feedback:  e.Feedback,
		})
	}
	return resp
}

func newXPResponse(xp domain.XPBalance) XPResponse {
	resp := XPResponse{Total: xp.Total(), Categories: make(map[string]int, len(domain.Categories()))}
	for _, c := range domain.Categories() {
		resp.Categories[c.DisplayName()] = xp[c]
	}
	return resp
}

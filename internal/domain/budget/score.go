package budget

import (
	"fmt"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OverBudget details how far a selection exceeds the income.
type OverBudget struct {
	TotalSelected decimal.Decimal
	MonthlyIncome decimal.Decimal
	Difference    decimal.Decimal
}

// Outcome is the graded result of a learner's expense selection.
type Outcome struct {
	IsSuccessful   bool
	IsWithinBudget bool
	TotalSelected  decimal.Decimal
	MonthlyIncome  decimal.Decimal
	// BudgetDifference is income minus the selected total; negative when
	// over budget.
	BudgetDifference decimal.Decimal
	Selected         []*domain.Expense
	MissingEssential []*domain.Expense
	// OptionalSelected are the non-essential picks that could be dropped.
	// Only set when over budget.
	OptionalSelected []*domain.Expense
	OverBudget       *OverBudget
	Feedback         []string
}

// Score grades selection against sim. It never fails: IDs that do not
// belong to the simulation are ignored and repeated IDs count once.
// Callers that must reject unknown IDs check them first.
func Score(sim *domain.Simulation, selection []uuid.UUID) Outcome {
	chosen := make(map[uuid.UUID]bool, len(selection))
	for _, id := range selection {
		chosen[id] = true
	}

	out := Outcome{MonthlyIncome: sim.MonthlyIncome}
	var optional []*domain.Expense
	for _, e := range sim.Expenses {
		if chosen[e.ID] {
			out.Selected = append(out.Selected, e)
			if !e.Essential {
				optional = append(optional, e)
			}
		} else if e.Essential {
			out.MissingEssential = append(out.MissingEssential, e)
		}
	}

	out.TotalSelected = Total(LinesOf(out.Selected))
	out.BudgetDifference = sim.MonthlyIncome.Sub(out.TotalSelected)
	out.IsWithinBudget = out.TotalSelected.LessThanOrEqual(sim.MonthlyIncome)
	out.IsSuccessful = out.IsWithinBudget && len(out.MissingEssential) == 0

	for _, e := range out.MissingEssential {
		out.Feedback = append(out.Feedback, fmt.Sprintf("%s: %s", e.Name, e.Feedback))
	}
	if !out.IsWithinBudget {
		out.OverBudget = &OverBudget{
			TotalSelected: out.TotalSelected,
			MonthlyIncome: sim.MonthlyIncome,
			Difference:    out.TotalSelected.Sub(sim.MonthlyIncome),
		}
		out.OptionalSelected = optional
		out.Feedback = append(out.Feedback, fmt.Sprintf(
			"Your selected expenses ($%s) exceed your monthly income ($%s).",
			domain.FormatMoney(out.TotalSelected),
			domain.FormatMoney(sim.MonthlyIncome),
		))
	}
	return out
}

// UnknownIDs returns the selected IDs that are not expenses of sim.
func UnknownIDs(sim *domain.Simulation, selection []uuid.UUID) []uuid.UUID {
	var unknown []uuid.UUID
	for _, id := range selection {
		if sim.ExpenseByID(id) == nil {
			unknown = append(unknown, id)
		}
	}
	return unknown
}

package budget

import (
	"errors"
	"fmt"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Expense count bounds enforced at the admin and import boundaries.
const (
	MinExpenses = 1
	MaxExpenses = 10
)

var (
	// ErrEssentialsExceedIncome is matched by every *ViolationError.
	ErrEssentialsExceedIncome = errors.New("essential expenses exceed monthly income")

	// ErrExpenseCount is returned when a simulation would own too few or
	// too many expenses.
	ErrExpenseCount = errors.New("invalid number of expenses")
)

// Line is the part of an expense the invariant looks at.
type Line struct {
	Amount    decimal.Decimal
	Essential bool
}

// LinesOf extracts lines from domain expenses.
func LinesOf(expenses []*domain.Expense) []Line {
	lines := make([]Line, 0, len(expenses))
	for _, e := range expenses {
		lines = append(lines, Line{Amount: e.Amount, Essential: e.Essential})
	}
	return lines
}

// ViolationError reports both totals when essentials do not fit the income.
type ViolationError struct {
	EssentialTotal decimal.Decimal
	MonthlyIncome  decimal.Decimal
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf(
		"total essential expenses (%s) exceed monthly income (%s)",
		domain.FormatMoney(e.EssentialTotal),
		domain.FormatMoney(e.MonthlyIncome),
	)
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrEssentialsExceedIncome
}

// Excess is the amount by which essentials exceed income.
func (e *ViolationError) Excess() decimal.Decimal {
	return e.EssentialTotal.Sub(e.MonthlyIncome)
}

// Validate fails with *ViolationError when the essential lines sum to more
// than income. Equality passes.
func Validate(income decimal.Decimal, lines []Line) error {
	total := EssentialTotal(lines)
	if total.GreaterThan(income) {
		return &ViolationError{EssentialTotal: total, MonthlyIncome: income}
	}
	return nil
}

// ValidateSimulation runs Validate over a simulation and the given
// candidate expense set.
func ValidateSimulation(sim *domain.Simulation, candidate []*domain.Expense) error {
	return Validate(sim.MonthlyIncome, LinesOf(candidate))
}

// EssentialTotal sums the essential lines.
func EssentialTotal(lines []Line) decimal.Decimal {
	return sum(lines, func(l Line) bool { return l.Essential })
}

// Total sums every line.
func Total(lines []Line) decimal.Decimal {
	return sum(lines, func(Line) bool { return true })
}

func sum(lines []Line, include func(Line) bool) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if include(l) {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// CheckExpenseCount enforces MinExpenses..MaxExpenses.
func CheckExpenseCount(n int) error {
	if n < MinExpenses || n > MaxExpenses {
		return fmt.Errorf("%w: a simulation needs between %d and %d expenses, got %d",
			ErrExpenseCount, MinExpenses, MaxExpenses, n)
	}
	return nil
}

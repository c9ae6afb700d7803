package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Simulation is a budget scenario: one monthly income and the expenses a
// learner must choose between.
type Simulation struct {
	ID            uuid.UUID       `json:"id"`
	Prompt        string          `json:"prompt"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	Difficulty    Difficulty      `json:"difficulty"`
	Category      Category        `json:"category"`
	// Version increments on every committed mutation of the simulation or
	// its expenses.
	Version   int        `json:"version"`
	Expenses  []*Expense `json:"expenses"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Expense is a line item owned by exactly one simulation.
type Expense struct {
	ID           uuid.UUID       `json:"id"`
	SimulationID uuid.UUID       `json:"simulation_id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	Essential    bool            `json:"essential"`
	Feedback     string          `json:"feedback"`
}

// NewSimulation creates a validated simulation without expenses.
func NewSimulation(
	prompt string,
	income decimal.Decimal,
	difficulty Difficulty,
	category Category,
) (*Simulation, error) {
	now := time.Now().UTC()
	s := &Simulation{
		ID:            uuid.New(),
		Prompt:        strings.TrimSpace(prompt),
		MonthlyIncome: income,
		Difficulty:    difficulty,
		Category:      category,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the simulation's own fields. It does not look at the
// expenses; see ValidateWithExpenses.
func (s *Simulation) Validate() error {
	var errs ValidationErrors
	if s.ID == uuid.Nil {
		errs.Add("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(s.Prompt) == "" {
		errs.Add("prompt", "cannot be empty", ErrEmptyText)
	}
	if err := CheckMoney(s.MonthlyIncome); err != nil {
		errs.Add("monthly_income", err.Error(), ErrInvalidAmount)
	} else if !s.MonthlyIncome.IsPositive() {
		errs.Add("monthly_income", "must be greater than zero", ErrInvalidAmount)
	}
	if !s.Difficulty.Valid() {
		errs.Add("difficulty", "must be one of B, I, A", ErrInvalidDifficulty)
	}
	if !s.Category.Valid() {
		errs.Add("category", "must be one of BUD, INV, SAV, BAL, CRD, TAX", ErrInvalidCategory)
	}
	return errs.Err()
}

// ValidateWithExpenses checks the simulation and every expense, qualifying
// expense field names with their position.
func (s *Simulation) ValidateWithExpenses() error {
	var errs ValidationErrors
	if err := s.Validate(); err != nil {
		fields, _ := AsValidationErrors(err)
		errs = append(errs, fields...)
	}
	for i, e := range s.Expenses {
		if err := e.Validate(); err != nil {
			fields, _ := AsValidationErrors(err)
			errs = append(errs, fields.Prefix(expenseField(i))...)
		}
	}
	return errs.Err()
}

// ExpenseByID returns the expense with the given ID, or nil.
func (s *Simulation) ExpenseByID(id uuid.UUID) *Expense {
	for _, e := range s.Expenses {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// NewExpense creates a validated expense belonging to simulationID.
func NewExpense(
	simulationID uuid.UUID,
	name string,
	amount decimal.Decimal,
	essential bool,
	feedback string,
) (*Expense, error) {
	e := &Expense{
		ID:           uuid.New(),
		SimulationID: simulationID,
		Name:         strings.TrimSpace(name),
		Amount:       amount,
		Essential:    essential,
		Feedback:     strings.TrimSpace(feedback),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the expense fields.
func (e *Expense) Validate() error {
	var errs ValidationErrors
	if e.ID == uuid.Nil {
		errs.Add("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(e.Name) == "" {
		errs.Add("name", "cannot be empty", ErrEmptyText)
	} else if utf8.RuneCountInString(e.Name) > 100 {
		errs.Add("name", "must be at most 100 characters", ErrValidation)
	}
	if err := CheckMoney(e.Amount); err != nil {
		errs.Add("amount", err.Error(), ErrInvalidAmount)
	} else if !e.Amount.IsPositive() {
		errs.Add("amount", "must be greater than zero", ErrInvalidAmount)
	}
	if strings.TrimSpace(e.Feedback) == "" {
		errs.Add("feedback", "cannot be empty", ErrEmptyText)
	}
	return errs.Err()
}

func expenseField(i int) string {
	return "expenses[" + strconv.Itoa(i) + "]"
}

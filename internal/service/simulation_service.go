package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/domain/budget"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseDraft is the proposed content of one expense. Amount is the
// decimal text so malformed values are reported per field.
type ExpenseDraft struct {
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Essential bool   `json:"essential"`
	Feedback  string `json:"feedback"`
}

// SimulationDraft is a new simulation with its expenses.
type SimulationDraft struct {
	Prompt        string            `json:"prompt"`
	MonthlyIncome string            `json:"monthly_income"`
	Difficulty    domain.Difficulty `json:"difficulty"`
	Category      domain.Category   `json:"category"`
	Expenses      []ExpenseDraft    `json:"expenses"`
}

// ExpenseForm is one row of a nested submission. A nil ID adds an
// expense; Delete removes the expense with ID.
type ExpenseForm struct {
	ID *uuid.UUID `json:"id,omitempty"`
	ExpenseDraft
	Delete bool `json:"delete,omitempty"`
}

// FormsetSubmission edits a simulation and its expenses in one request.
// Nil parent fields keep their stored value; all of them are required
// when creating. Existing expenses without a form are kept unchanged.
type FormsetSubmission struct {
	// Version, when set, must equal the stored version.
	Version       *int               `json:"version,omitempty"`
	Prompt        *string            `json:"prompt,omitempty"`
	MonthlyIncome *string            `json:"monthly_income,omitempty"`
	Difficulty    *domain.Difficulty `json:"difficulty,omitempty"`
	Category      *domain.Category   `json:"category,omitempty"`
	Expenses      []ExpenseForm      `json:"expenses"`
}

// SimulationService manages budget simulations. Every mutation keeps the
// essential expenses of a simulation within its monthly income.
type SimulationService interface {
	// Create stores a new simulation after checking its pending expenses.
	Create(ctx context.Context, draft SimulationDraft) (*domain.Simulation, error)

	Get(ctx context.Context, id uuid.UUID) (*domain.Simulation, error)

	List(ctx context.Context, filter store.SimulationFilter) ([]*domain.Simulation, error)

	// UpdateIncome changes the monthly income. expectedVersion is optional.
	UpdateIncome(ctx context.Context, id uuid.UUID, income string, expectedVersion *int) (*domain.Simulation, error)

	AddExpense(ctx context.Context, simulationID uuid.UUID, draft ExpenseDraft, expectedVersion *int) (*domain.Simulation, error)

	UpdateExpense(
		ctx context.Context,
		simulationID, expenseID uuid.UUID,
		draft ExpenseDraft,
		expectedVersion *int,
	) (*domain.Simulation, error)

	DeleteExpense(ctx context.Context, simulationID, expenseID uuid.UUID, expectedVersion *int) (*domain.Simulation, error)

	// SubmitFormset applies a nested submission. id is nil to create a
	// simulation. Any problem rejects the whole submission with a
	// *FormsetError.
	SubmitFormset(ctx context.Context, id *uuid.UUID, sub FormsetSubmission) (*domain.Simulation, error)

	// Delete removes the simulation and its expenses.
	Delete(ctx context.Context, id uuid.UUID) error
}

type simulationServiceImpl struct {
	tx          store.Transactor
	simulations store.SimulationStore
	logger      *slog.Logger
}

// NewSimulationService creates a new SimulationService.
// It returns an error if any of the required dependencies are nil.
func NewSimulationService(
	tx store.Transactor,
	simulations store.SimulationStore,
	logger *slog.Logger,
) (SimulationService, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if simulations == nil {
		return nil, domain.NewValidationError("simulations", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &simulationServiceImpl{
		tx:          tx,
		simulations: simulations,
		logger:      logger.With(slog.String("component", "simulation_service")),
	}, nil
}

// checkSimulation enforces the expense count and the income constraint
// over the simulation's full expense set.
func checkSimulation(sim *domain.Simulation) error {
	if err := budget.CheckExpenseCount(len(sim.Expenses)); err != nil {
		return domain.NewValidationError("expenses", err.Error(), err)
	}
	return budget.ValidateSimulation(sim, sim.Expenses)
}

// buildExpense parses a draft into an expense of simulationID. The ID is
// kept when id is non-nil.
func buildExpense(simulationID uuid.UUID, id *uuid.UUID, d ExpenseDraft) (*domain.Expense, domain.ValidationErrors) {
	var errs domain.ValidationErrors
	amount, err := domain.ParseMoney(strings.TrimSpace(d.Amount))
	if err != nil {
		errs.Add("amount", err.Error(), domain.ErrInvalidAmount)
	}
	e := &domain.Expense{
		ID:           uuid.New(),
		SimulationID: simulationID,
		Name:         strings.TrimSpace(d.Name),
		Amount:       amount,
		Essential:    d.Essential,
		Feedback:     strings.TrimSpace(d.Feedback),
	}
	if id != nil {
		e.ID = *id
	}
	if verr := e.Validate(); verr != nil {
		fields, _ := domain.AsValidationErrors(verr)
		for _, f := range fields {
			if f.Field == "amount" && len(errs) > 0 {
				continue
			}
			errs = append(errs, f)
		}
	}
	return e, errs
}

func parseIncome(field, s string) (decimal.Decimal, domain.ValidationErrors) {
	var errs domain.ValidationErrors
	d, err := domain.ParseMoney(strings.TrimSpace(s))
	switch {
	case err != nil:
		errs.Add(field, err.Error(), domain.ErrInvalidAmount)
	case !d.IsPositive():
		errs.Add(field, "must be greater than zero", domain.ErrInvalidAmount)
	}
	return d, errs
}

// Create implements SimulationService.Create. The essential total is
// checked against the expenses being created with the simulation.
func (s *simulationServiceImpl) Create(ctx context.Context, draft SimulationDraft) (*domain.Simulation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sim, err := buildSimulation(draft)
	if err != nil {
		log.Debug("simulation draft rejected", slog.String("error", err.Error()))
		return nil, err
	}
	if err := checkSimulation(sim); err != nil {
		log.Debug("simulation draft rejected", slog.String("error", err.Error()))
		return nil, err
	}

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.simulations.WithTx(tx).Create(ctx, sim)
	})
	if err != nil {
		return nil, s.wrap("create", "failed to create simulation", err)
	}

	log.Info("simulation created",
		slog.String("simulation_id", sim.ID.String()),
		slog.Int("expense_count", len(sim.Expenses)))
	return sim, nil
}

func buildSimulation(draft SimulationDraft) (*domain.Simulation, error) {
	income, errs := parseIncome("monthly_income", draft.MonthlyIncome)
	now := time.Now().UTC()
	sim := &domain.Simulation{
		ID:            uuid.New(),
		Prompt:        strings.TrimSpace(draft.Prompt),
		MonthlyIncome: income,
		Difficulty:    draft.Difficulty,
		Category:      draft.Category,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := sim.Validate(); err != nil {
		fields, _ := domain.AsValidationErrors(err)
		for _, f := range fields {
			if f.Field == "monthly_income" && len(errs) > 0 {
				continue
			}
			errs = append(errs, f)
		}
	}
	for i, d := range draft.Expenses {
		e, eerrs := buildExpense(sim.ID, nil, d)
		errs = append(errs, eerrs.Prefix(fmt.Sprintf("expenses[%d]", i))...)
		sim.Expenses = append(sim.Expenses, e)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return sim, nil
}

// Get implements SimulationService.Get
func (s *simulationServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Simulation, error) {
	sim, err := s.simulations.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap("get", "failed to get simulation", err)
	}
	return sim, nil
}

// List implements SimulationService.List
func (s *simulationServiceImpl) List(ctx context.Context, filter store.SimulationFilter) ([]*domain.Simulation, error) {
	sims, err := s.simulations.List(ctx, filter)
	if err != nil {
		return nil, s.wrap("list", "failed to list simulations", err)
	}
	return sims, nil
}

// mutate runs one edit of an existing simulation: lock the row, apply the
// change to the loaded expense set, check the result, persist the child
// rows and bump the version. A failed check persists nothing.
func (s *simulationServiceImpl) mutate(
	ctx context.Context,
	op string,
	id uuid.UUID,
	expectedVersion *int,
	apply func(sim *domain.Simulation) error,
	persist func(ctx context.Context, sims store.SimulationStore, sim *domain.Simulation) error,
) (*domain.Simulation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("operation", op),
		slog.String("simulation_id", id.String()))

	var result *domain.Simulation
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		sims := s.simulations.WithTx(tx)
		sim, err := sims.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if expectedVersion != nil && *expectedVersion != sim.Version {
			return fmt.Errorf("%w: simulation %s is at version %d, not %d",
				store.ErrVersionConflict, id, sim.Version, *expectedVersion)
		}
		current := sim.Version

		if err := apply(sim); err != nil {
			return err
		}
		if err := checkSimulation(sim); err != nil {
			log.Info("simulation change rejected", slog.String("error", err.Error()))
			return err
		}
		if persist != nil {
			if err := persist(ctx, sims, sim); err != nil {
				return err
			}
		}
		if err := sims.Update(ctx, sim, current); err != nil {
			return err
		}
		result = sim
		return nil
	})
	if err != nil {
		return nil, s.wrap(op, "failed to update simulation", err)
	}

	log.Info("simulation updated", slog.Int("version", result.Version))
	return result, nil
}

// UpdateIncome implements SimulationService.UpdateIncome
func (s *simulationServiceImpl) UpdateIncome(
	ctx context.Context,
	id uuid.UUID,
	income string,
	expectedVersion *int,
) (*domain.Simulation, error) {
	amount, errs := parseIncome("monthly_income", income)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "update_income", id, expectedVersion, func(sim *domain.Simulation) error {
		sim.MonthlyIncome = amount
		return nil
	}, nil)
}

// AddExpense implements SimulationService.AddExpense
func (s *simulationServiceImpl) AddExpense(
	ctx context.Context,
	simulationID uuid.UUID,
	draft ExpenseDraft,
	expectedVersion *int,
) (*domain.Simulation, error) {
	expense, errs := buildExpense(simulationID, nil, draft)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "add_expense", simulationID, expectedVersion,
		func(sim *domain.Simulation) error {
			sim.Expenses = append(sim.Expenses, expense)
			return nil
		},
		func(ctx context.Context, sims store.SimulationStore, _ *domain.Simulation) error {
			return sims.CreateExpense(ctx, expense)
		})
}

// UpdateExpense implements SimulationService.UpdateExpense
func (s *simulationServiceImpl) UpdateExpense(
	ctx context.Context,
	simulationID, expenseID uuid.UUID,
	draft ExpenseDraft,
	expectedVersion *int,
) (*domain.Simulation, error) {
	expense, errs := buildExpense(simulationID, &expenseID, draft)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "update_expense", simulationID, expectedVersion,
		func(sim *domain.Simulation) error {
			for i, e := range sim.Expenses {
				if e.ID == expenseID {
					sim.Expenses[i] = expense
					return nil
				}
			}
			return store.ErrExpenseNotFound
		},
		func(ctx context.Context, sims store.SimulationStore, _ *domain.Simulation) error {
			return sims.UpdateExpense(ctx, expense)
		})
}

// DeleteExpense implements SimulationService.DeleteExpense
func (s *simulationServiceImpl) DeleteExpense(
	ctx context.Context,
	simulationID, expenseID uuid.UUID,
	expectedVersion *int,
) (*domain.Simulation, error) {
	return s.mutate(ctx, "delete_expense", simulationID, expectedVersion,
		func(sim *domain.Simulation) error {
			for i, e := range sim.Expenses {
				if e.ID == expenseID {
					sim.Expenses = append(sim.Expenses[:i:i], sim.Expenses[i+1:]...)
					return nil
				}
			}
			return store.ErrExpenseNotFound
		},
		func(ctx context.Context, sims store.SimulationStore, _ *domain.Simulation) error {
			return sims.DeleteExpense(ctx, simulationID, expenseID)
		})
}

// Delete implements SimulationService.Delete
func (s *simulationServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.simulations.Delete(ctx, id); err != nil {
		return s.wrap("delete", "failed to delete simulation", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("simulation deleted",
		slog.String("simulation_id", id.String()))
	return nil
}

// SubmitFormset implements SimulationService.SubmitFormset
func (s *simulationServiceImpl) SubmitFormset(
	ctx context.Context,
	id *uuid.UUID,
	sub FormsetSubmission,
) (*domain.Simulation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var result *domain.Simulation
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		sims := s.simulations.WithTx(tx)

		var existing *domain.Simulation
		if id != nil {
			var err error
			if existing, err = sims.GetForUpdate(ctx, *id); err != nil {
				return err
			}
		}

		plan, err := planFormset(existing, sub)
		if err != nil {
			log.Info("simulation submission rejected", slog.String("error", err.Error()))
			return err
		}

		if existing == nil {
			if err := sims.Create(ctx, plan.sim); err != nil {
				return err
			}
			result = plan.sim
			return nil
		}

		if sub.Version != nil && *sub.Version != existing.Version {
			return fmt.Errorf("%w: simulation %s is at version %d, not %d",
				store.ErrVersionConflict, existing.ID, existing.Version, *sub.Version)
		}
		for _, eid := range plan.deleted {
			if err := sims.DeleteExpense(ctx, existing.ID, eid); err != nil {
				return err
			}
		}
		for _, e := range plan.updated {
			if err := sims.UpdateExpense(ctx, e); err != nil {
				return err
			}
		}
		for _, e := range plan.created {
			if err := sims.CreateExpense(ctx, e); err != nil {
				return err
			}
		}
		if err := sims.Update(ctx, plan.sim, existing.Version); err != nil {
			return err
		}
		result = plan.sim
		return nil
	})
	if err != nil {
		return nil, s.wrap("submit_formset", "failed to save simulation", err)
	}

	log.Info("simulation submission saved",
		slog.String("simulation_id", result.ID.String()),
		slog.Int("version", result.Version),
		slog.Int("expense_count", len(result.Expenses)))
	return result, nil
}

type formsetPlan struct {
	sim     *domain.Simulation
	created []*domain.Expense
	updated []*domain.Expense
	deleted []uuid.UUID
}

// planFormset validates a submission against the stored simulation (nil
// when creating) and works out the row changes. It writes nothing.
func planFormset(existing *domain.Simulation, sub FormsetSubmission) (*formsetPlan, error) {
	ferr := &FormsetError{}
	now := time.Now().UTC()

	var sim domain.Simulation
	if existing != nil {
		sim = *existing
		sim.Expenses = nil
	} else {
		sim = domain.Simulation{ID: uuid.New(), Version: 1, CreatedAt: now}
		var errs domain.ValidationErrors
		if sub.Prompt == nil {
			errs.Add("prompt", "is required", domain.ErrEmptyText)
		}
		if sub.MonthlyIncome == nil {
			errs.Add("monthly_income", "is required", domain.ErrInvalidAmount)
		}
		if sub.Difficulty == nil {
			errs.Add("difficulty", "is required", domain.ErrInvalidDifficulty)
		}
		if sub.Category == nil {
			errs.Add("category", "is required", domain.ErrInvalidCategory)
		}
		ferr.addFields(errs)
	}
	sim.UpdatedAt = now

	var pendingIncome *decimal.Decimal
	if sub.MonthlyIncome != nil {
		income, errs := parseIncome("monthly_income", *sub.MonthlyIncome)
		ferr.addFields(errs)
		if len(errs) == 0 {
			pendingIncome = &income
			sim.MonthlyIncome = income
		}
	}
	if sub.Prompt != nil {
		sim.Prompt = strings.TrimSpace(*sub.Prompt)
	}
	if sub.Difficulty != nil {
		sim.Difficulty = *sub.Difficulty
	}
	if sub.Category != nil {
		sim.Category = *sub.Category
	}
	if err := sim.Validate(); err != nil {
		fields, _ := domain.AsValidationErrors(err)
		var keep domain.ValidationErrors
		for _, f := range fields {
			if ferr.Fields[f.Field] == nil {
				keep = append(keep, f)
			}
		}
		ferr.addFields(keep)
	}

	plan := &formsetPlan{sim: &sim}
	var forms []budget.Form
	mentioned := make(map[uuid.UUID]bool)

	for i, f := range sub.Expenses {
		if f.ID != nil {
			if existing == nil || existing.ExpenseByID(*f.ID) == nil {
				ferr.addForm(i, domain.ValidationErrors{
					domain.NewValidationError("id", "does not belong to this simulation", domain.ErrInvalidID),
				})
				continue
			}
			if mentioned[*f.ID] {
				ferr.addForm(i, domain.ValidationErrors{
					domain.NewValidationError("id", "appears in more than one form", domain.ErrInvalidID),
				})
				continue
			}
			mentioned[*f.ID] = true
		}

		if f.Delete {
			if f.ID != nil {
				plan.deleted = append(plan.deleted, *f.ID)
			}
			forms = append(forms, budget.Form{Delete: true, Valid: true})
			continue
		}

		e, errs := buildExpense(sim.ID, f.ID, f.ExpenseDraft)
		ferr.addForm(i, errs)
		forms = append(forms, budget.Form{
			Line:  budget.Line{Amount: e.Amount, Essential: e.Essential},
			Valid: len(errs) == 0,
		})
		if len(errs) > 0 {
			continue
		}
		sim.Expenses = append(sim.Expenses, e)
		if f.ID != nil {
			plan.updated = append(plan.updated, e)
		} else {
			plan.created = append(plan.created, e)
		}
	}

	if existing != nil {
		for _, e := range existing.Expenses {
			if mentioned[e.ID] {
				continue
			}
			sim.Expenses = append(sim.Expenses, e)
			forms = append(forms, budget.Form{
				Line:  budget.Line{Amount: e.Amount, Essential: e.Essential},
				Valid: true,
			})
		}
	}

	in := budget.FormsetInput{PendingIncome: pendingIncome, Forms: forms}
	if existing != nil {
		in.PersistedIncome = existing.MonthlyIncome
	}
	// Income is only meaningful once it parsed.
	if existing != nil || pendingIncome != nil {
		if err := budget.ValidateFormset(in); err != nil {
			var v *budget.ViolationError
			if errors.As(err, &v) {
				ferr.Violation = v
			}
			ferr.NonFormErrors = append(ferr.NonFormErrors, err.Error())
		}
	}
	if len(ferr.FormErrors) == 0 {
		if err := budget.CheckExpenseCount(len(sim.Expenses)); err != nil {
			ferr.NonFormErrors = append(ferr.NonFormErrors, err.Error())
		}
	}

	if !ferr.empty() {
		return nil, ferr
	}
	return plan, nil
}

// wrap passes through errors callers inspect and wraps the rest.
func (s *simulationServiceImpl) wrap(op, msg string, err error) error {
	var ferr *FormsetError
	var verr *budget.ViolationError
	switch {
	case errors.As(err, &ferr),
		errors.As(err, &verr),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrVersionConflict):
		return err
	}
	return NewServiceError("simulation", op, msg, err)
}

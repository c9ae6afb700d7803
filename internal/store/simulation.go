package store

import (
	"context"
	"database/sql"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/google/uuid"
)

// SimulationFilter narrows List results. Zero values match everything.
type SimulationFilter struct {
	Category   domain.Category
	Difficulty domain.Difficulty
	Limit      int
	Offset     int
}

// TextRecord is the comparable text of an existing record, used to
// build duplicate-detection corpora.
type TextRecord struct {
	ID       uuid.UUID
	Text     string
	Category domain.Category
}

// SimulationStore persists simulations together with their expenses.
type SimulationStore interface {
	// Create inserts the simulation and all of sim.Expenses.
	// Must run inside a transaction for the two inserts to be atomic.
	Create(ctx context.Context, sim *domain.Simulation) error

	// GetByID loads a simulation with its expenses in insertion order.
	// Returns ErrSimulationNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Simulation, error)

	// GetForUpdate is GetByID that also locks the simulation row until
	// the surrounding transaction ends, so that concurrent edits of the
	// same simulation are serialized.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Simulation, error)

	// List returns simulations without their expenses, newest first.
	List(ctx context.Context, filter SimulationFilter) ([]*domain.Simulation, error)

	// ListPrompts returns the prompt of every stored simulation.
	ListPrompts(ctx context.Context) ([]TextRecord, error)

	// Update writes prompt, income, difficulty and category, and bumps the
	// version. The stored version must equal expectedVersion, otherwise
	// ErrVersionConflict is returned. On success sim.Version holds the new
	// version.
	Update(ctx context.Context, sim *domain.Simulation, expectedVersion int) error

	// Delete removes the simulation; expenses are removed by cascade.
	Delete(ctx context.Context, id uuid.UUID) error

	CreateExpense(ctx context.Context, expense *domain.Expense) error

	// UpdateExpense returns ErrExpenseNotFound if the expense does not
	// belong to expense.SimulationID.
	UpdateExpense(ctx context.Context, expense *domain.Expense) error

	DeleteExpense(ctx context.Context, simulationID, expenseID uuid.UUID) error

	// RandomForUser picks a random simulation in category the user has
	// not completed, optionally restricted to a difficulty. When every
	// candidate is completed it picks among all of them. Returns
	// ErrSimulationNotFound when the category has none.
	RandomForUser(
		ctx context.Context,
		userID uuid.UUID,
		category domain.Category,
		difficulty domain.Difficulty,
	) (*domain.Simulation, error)

	// WithTx returns a store bound to tx.
	WithTx(tx *sql.Tx) SimulationStore
}

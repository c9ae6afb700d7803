package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
)

const defaultListLimit = 50

// PostgresSimulationStore implements the store.SimulationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSimulationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSimulationStore creates a new PostgreSQL implementation of the SimulationStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSimulationStore(db store.DBTX, logger *slog.Logger) *PostgresSimulationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSimulationStore{
		db:     db,
		logger: logger.With(slog.String("component", "simulation_store")),
	}
}

// Ensure PostgresSimulationStore implements store.SimulationStore interface
var _ store.SimulationStore = (*PostgresSimulationStore)(nil)

// WithTx implements store.SimulationStore.WithTx
func (s *PostgresSimulationStore) WithTx(tx *sql.Tx) store.SimulationStore {
	return &PostgresSimulationStore{db: tx, logger: s.logger}
}

// Create implements store.SimulationStore.Create
func (s *PostgresSimulationStore) Create(ctx context.Context, sim *domain.Simulation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sim.ValidateWithExpenses(); err != nil {
		log.Warn("simulation validation failed during create",
			slog.String("error", err.Error()),
			slog.String("simulation_id", sim.ID.String()))
		return err
	}

	query := `
		INSERT INTO simulations (id, prompt, monthly_income, difficulty, category, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		sim.ID,
		sim.Prompt,
		sim.MonthlyIncome,
		sim.Difficulty,
		sim.Category,
		sim.Version,
		sim.CreatedAt,
		sim.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create simulation",
			slog.String("error", err.Error()),
			slog.String("simulation_id", sim.ID.String()))
		return MapError("simulation", "create", err)
	}

	for _, e := range sim.Expenses {
		e.SimulationID = sim.ID
		if err := s.insertExpense(ctx, e); err != nil {
			log.Error("failed to create expense",
				slog.String("error", err.Error()),
				slog.String("simulation_id", sim.ID.String()),
				slog.String("expense_id", e.ID.String()))
			return MapError("expense", "create", err)
		}
	}

	log.Info("simulation created successfully",
		slog.String("simulation_id", sim.ID.String()),
		slog.Int("expense_count", len(sim.Expenses)))
	return nil
}

func (s *PostgresSimulationStore) insertExpense(ctx context.Context, e *domain.Expense) error {
	query := `
		INSERT INTO expenses (id, simulation_id, name, amount, essential, feedback)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, e.ID, e.SimulationID, e.Name, e.Amount, e.Essential, e.Feedback)
	return err
}

// GetByID implements store.SimulationStore.GetByID
func (s *PostgresSimulationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Simulation, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate implements store.SimulationStore.GetForUpdate
// Returns store.ErrTransactionRequired when the store is not bound to a transaction.
func (s *PostgresSimulationStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Simulation, error) {
	if _, ok := s.db.(*sql.Tx); !ok {
		return nil, store.ErrTransactionRequired
	}
	return s.get(ctx, id, true)
}

func (s *PostgresSimulationStore) get(ctx context.Context, id uuid.UUID, lock bool) (*domain.Simulation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving simulation by ID",
		slog.String("simulation_id", id.String()),
		slog.Bool("lock", lock))

	query := `
		SELECT id, prompt, monthly_income, difficulty, category, version, created_at, updated_at
		FROM simulations
		WHERE id = $1
	`
	if lock {
		query += " FOR UPDATE"
	}

	sim, err := scanSimulation(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("simulation not found", slog.String("simulation_id", id.String()))
			return nil, store.ErrSimulationNotFound
		}
		log.Error("failed to get simulation by ID",
			slog.String("error", err.Error()),
			slog.String("simulation_id", id.String()))
		return nil, err
	}

	expenses, err := s.listExpenses(ctx, id)
	if err != nil {
		log.Error("failed to load expenses",
			slog.String("error", err.Error()),
			slog.String("simulation_id", id.String()))
		return nil, err
	}
	sim.Expenses = expenses

	return sim, nil
}

func (s *PostgresSimulationStore) listExpenses(ctx context.Context, simulationID uuid.UUID) ([]*domain.Expense, error) {
	query := `
		SELECT id, simulation_id, name, amount, essential, feedback
		FROM expenses
		WHERE simulation_id = $1
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, query, simulationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	expenses := []*domain.Expense{}
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.SimulationID, &e.Name, &e.Amount, &e.Essential, &e.Feedback); err != nil {
			return nil, err
		}
		expenses = append(expenses, &e)
	}
	return expenses, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSimulation(row rowScanner) (*domain.Simulation, error) {
	var sim domain.Simulation
	var difficulty, category string
	err := row.Scan(
		&sim.ID,
		&sim.Prompt,
		&sim.MonthlyIncome,
		&difficulty,
		&category,
		&sim.Version,
		&sim.CreatedAt,
		&sim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sim.Difficulty = domain.Difficulty(difficulty)
	sim.Category = domain.Category(category)
	return &sim, nil
}

// List implements store.SimulationStore.List
func (s *PostgresSimulationStore) List(ctx context.Context, filter store.SimulationFilter) ([]*domain.Simulation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, prompt, monthly_income, difficulty, category, version, created_at, updated_at
		FROM simulations
		WHERE ($1::text = '' OR category = $1::text)
		  AND ($2::text = '' OR difficulty = $2::text)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := s.db.QueryContext(ctx, query, string(filter.Category), string(filter.Difficulty), limit, offset)
	if err != nil {
		log.Error("failed to list simulations", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sims := []*domain.Simulation{}
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			log.Error("failed to scan simulation row", slog.String("error", err.Error()))
			return nil, err
		}
		sims = append(sims, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("listed simulations", slog.Int("count", len(sims)))
	return sims, nil
}

// ListPrompts implements store.SimulationStore.ListPrompts
func (s *PostgresSimulationStore) ListPrompts(ctx context.Context) ([]store.TextRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, prompt, category FROM simulations ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return scanTextRecords(rows)
}

func scanTextRecords(rows *sql.Rows) ([]store.TextRecord, error) {
	defer func() { _ = rows.Close() }()

	records := []store.TextRecord{}
	for rows.Next() {
		var r store.TextRecord
		var category string
		if err := rows.Scan(&r.ID, &r.Text, &category); err != nil {
			return nil, err
		}
		r.Category = domain.Category(category)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Update implements store.SimulationStore.Update
func (s *PostgresSimulationStore) Update(ctx context.Context, sim *domain.Simulation, expectedVersion int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sim.Validate(); err != nil {
		log.Warn("simulation validation failed during update",
			slog.String("error", err.Error()),
			slog.String("simulation_id", sim.ID.String()))
		return err
	}

	now := time.Now().UTC()
	query := `
		UPDATE simulations
		SET prompt = $1, monthly_income = $2, difficulty = $3, category = $4,
		    version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7
		RETURNING version
	`
	var version int
	err := s.db.QueryRowContext(ctx, query,
		sim.Prompt,
		sim.MonthlyIncome,
		sim.Difficulty,
		sim.Category,
		now,
		sim.ID,
		expectedVersion,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM simulations WHERE id = $1)`, sim.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return store.ErrSimulationNotFound
		}
		log.Warn("simulation version conflict",
			slog.String("simulation_id", sim.ID.String()),
			slog.Int("expected_version", expectedVersion))
		return fmt.Errorf("%w: simulation %s is no longer at version %d",
			store.ErrVersionConflict, sim.ID, expectedVersion)
	}
	if err != nil {
		log.Error("failed to update simulation",
			slog.String("error", err.Error()),
			slog.String("simulation_id", sim.ID.String()))
		return MapError("simulation", "update", err)
	}

	sim.Version = version
	sim.UpdatedAt = now
	log.Info("simulation updated successfully",
		slog.String("simulation_id", sim.ID.String()),
		slog.Int("version", version))
	return nil
}

// Delete implements store.SimulationStore.Delete
func (s *PostgresSimulationStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete simulation",
			slog.String("error", err.Error()),
			slog.String("simulation_id", id.String()))
		return err
	}
	if err := checkRowsAffected(result, store.ErrSimulationNotFound); err != nil {
		return err
	}

	log.Info("simulation deleted successfully", slog.String("simulation_id", id.String()))
	return nil
}

// CreateExpense implements store.SimulationStore.CreateExpense
func (s *PostgresSimulationStore) CreateExpense(ctx context.Context, expense *domain.Expense) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := expense.Validate(); err != nil {
		return err
	}
	if err := s.insertExpense(ctx, expense); err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrSimulationNotFound
		}
		log.Error("failed to create expense",
			slog.String("error", err.Error()),
			slog.String("expense_id", expense.ID.String()))
		return MapError("expense", "create", err)
	}
	return nil
}

// UpdateExpense implements store.SimulationStore.UpdateExpense
func (s *PostgresSimulationStore) UpdateExpense(ctx context.Context, expense *domain.Expense) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := expense.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE expenses
		SET name = $1, amount = $2, essential = $3, feedback = $4
		WHERE id = $5 AND simulation_id = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		expense.Name,
		expense.Amount,
		expense.Essential,
		expense.Feedback,
		expense.ID,
		expense.SimulationID,
	)
	if err != nil {
		log.Error("failed to update expense",
			slog.String("error", err.Error()),
			slog.String("expense_id", expense.ID.String()))
		return MapError("expense", "update", err)
	}
	return checkRowsAffected(result, store.ErrExpenseNotFound)
}

// DeleteExpense implements store.SimulationStore.DeleteExpense
func (s *PostgresSimulationStore) DeleteExpense(ctx context.Context, simulationID, expenseID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = $1 AND simulation_id = $2`, expenseID, simulationID)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, store.ErrExpenseNotFound)
}

// RandomForUser implements store.SimulationStore.RandomForUser
func (s *PostgresSimulationStore) RandomForUser(
	ctx context.Context,
	userID uuid.UUID,
	category domain.Category,
	difficulty domain.Difficulty,
) (*domain.Simulation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	uncompleted := `
		SELECT s.id FROM simulations s
		WHERE s.category = $1
		  AND ($2::text = '' OR s.difficulty = $2::text)
		  AND NOT EXISTS (
			SELECT 1 FROM question_progress p
			WHERE p.user_id = $3 AND p.question_id = s.id AND p.question_type = 'BS'
		  )
		ORDER BY random()
		LIMIT 1
	`
	fallback := `
		SELECT s.id FROM simulations s
		WHERE s.category = $1
		  AND ($2::text = '' OR s.difficulty = $2::text)
		ORDER BY random()
		LIMIT 1
	`

	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, uncompleted, string(category), string(difficulty), userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no uncompleted simulation left, choosing among all",
			slog.String("user_id", userID.String()),
			slog.String("category", string(category)))
		err = s.db.QueryRowContext(ctx, fallback, string(category), string(difficulty)).Scan(&id)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSimulationNotFound
	}
	if err != nil {
		log.Error("failed to pick random simulation", slog.String("error", err.Error()))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

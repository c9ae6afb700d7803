package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/finlit/finlit-api/internal/task"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: foreignKeyViolationCode}, store.ErrInvalidEntity},
		{"check", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "expenses_amount_check"}, store.ErrInvalidEntity},
		{"not null", &pgconn.PgError{Code: notNullViolationCode}, store.ErrInvalidEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := MapError("expense", "create", tt.err)
			assert.ErrorIs(t, err, tt.want)
			var storeErr *store.StoreError
			require.ErrorAs(t, err, &storeErr)
			assert.Equal(t, "expense", storeErr.Entity)
		})
	}

	assert.NoError(t, MapError("expense", "create", nil))
	other := errors.New("connection reset")
	assert.ErrorIs(t, MapError("simulation", "update", other), other)
	assert.Equal(t, "create operation on expense failed: check violation (expenses_amount_check): invalid entity",
		MapError("expense", "create", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "expenses_amount_check"}).Error())
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsUniqueViolation(other))
}

func TestProgressStore_CreateIfAbsent(t *testing.T) {
	t.Parallel()

	progress, err := domain.NewQuestionProgress(uuid.New(), uuid.New(), domain.QuestionTypeMultipleChoice, domain.CategoryCredit)
	require.NoError(t, err)

	tests := []struct {
		name        string
		result      sql.Result
		execErr     error
		wantCreated bool
		wantErr     bool
	}{
		{name: "inserted", result: sqlmock.NewResult(0, 1), wantCreated: true},
		{name: "already completed", result: sqlmock.NewResult(0, 0), wantCreated: false},
		{name: "unique violation race", execErr: &pgconn.PgError{Code: uniqueViolationCode}, wantCreated: false},
		{name: "database failure", execErr: errors.New("connection refused"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock := newMockDB(t)
			exp := mock.ExpectExec("INSERT INTO question_progress").
				WithArgs(progress.UserID, progress.QuestionID, "MC", "CRD", sqlmock.AnyArg())
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			created, err := NewPostgresProgressStore(db, nil).CreateIfAbsent(context.Background(), progress)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
		})
	}
}

func TestProgressStore_GetXP(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	userID := uuid.New()
	mock.ExpectQuery("SELECT category, xp FROM user_xp").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"category", "xp"}).
			AddRow("BUD", 150).
			AddRow("TAX", 50))

	balance, err := NewPostgresProgressStore(db, nil).GetXP(context.Background(), userID)
	require.NoError(t, err)

	assert.Len(t, balance, len(domain.Categories()))
	assert.Equal(t, 150, balance[domain.CategoryBudgeting])
	assert.Equal(t, 50, balance[domain.CategoryTaxes])
	assert.Equal(t, 0, balance[domain.CategoryInvesting])
	assert.Equal(t, 200, balance.Total())
}

func TestProgressStore_AddXP(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	userID := uuid.New()
	mock.ExpectQuery("INSERT INTO user_xp").
		WithArgs(userID, "SAV", 100).
		WillReturnRows(sqlmock.NewRows([]string{"xp"}).AddRow(250))

	total, err := NewPostgresProgressStore(db, nil).AddXP(context.Background(), userID, domain.CategorySavings, 100)
	require.NoError(t, err)
	assert.Equal(t, 250, total)
}

func TestSimulationStore_GetForUpdateRequiresTransaction(t *testing.T) {
	t.Parallel()

	db, _ := newMockDB(t)
	_, err := NewPostgresSimulationStore(db, nil).GetForUpdate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrTransactionRequired)
}

func TestSimulationStore_GetForUpdateLocksRow(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM simulations\s+WHERE id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "prompt", "monthly_income", "difficulty", "category", "version", "created_at", "updated_at"}).
			AddRow(id.String(), "Rent or roommates?", "1100.00", "B", "BUD", 3, now, now))
	mock.ExpectQuery("FROM expenses").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "simulation_id", "name", "amount", "essential", "feedback"}).
			AddRow(uuid.New().String(), id.String(), "Rent", "800.00", true, "Housing is a basic need.").
			AddRow(uuid.New().String(), id.String(), "Groceries", "300.00", true, "Food is essential."))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	sim, err := NewPostgresSimulationStore(db, nil).WithTx(tx).GetForUpdate(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, 3, sim.Version)
	assert.True(t, sim.MonthlyIncome.Equal(decimal.RequireFromString("1100")))
	require.Len(t, sim.Expenses, 2)
	assert.Equal(t, "Rent", sim.Expenses[0].Name)
}

func TestSimulationStore_UpdateVersionConflict(t *testing.T) {
	t.Parallel()

	sim, err := domain.NewSimulation("Plan a month on a first salary", decimal.RequireFromString("2500.00"),
		domain.DifficultyBeginner, domain.CategoryBudgeting)
	require.NoError(t, err)

	t.Run("stale version", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		mock.ExpectQuery("UPDATE simulations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(sim.ID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := NewPostgresSimulationStore(db, nil).Update(context.Background(), sim, 1)
		assert.ErrorIs(t, err, store.ErrVersionConflict)
	})

	t.Run("missing simulation", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		mock.ExpectQuery("UPDATE simulations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(sim.ID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := NewPostgresSimulationStore(db, nil).Update(context.Background(), sim, 1)
		assert.ErrorIs(t, err, store.ErrSimulationNotFound)
	})

	t.Run("bumps version", func(t *testing.T) {
		t.Parallel()

		copySim := *sim
		db, mock := newMockDB(t)
		mock.ExpectQuery("UPDATE simulations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))

		require.NoError(t, NewPostgresSimulationStore(db, nil).Update(context.Background(), &copySim, 1))
		assert.Equal(t, 2, copySim.Version)
	})
}

func TestSimulationStore_CreateExpenseUnknownSimulation(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	expense, err := domain.NewExpense(uuid.New(), "Rent", decimal.RequireFromString("900.00"), true, "Housing.")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO expenses").
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode})

	err = NewPostgresSimulationStore(db, nil).CreateExpense(context.Background(), expense)
	assert.ErrorIs(t, err, store.ErrSimulationNotFound)
}

func TestSimulationStore_DeleteExpenseNotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM expenses").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewPostgresSimulationStore(db, nil).DeleteExpense(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrExpenseNotFound)
}

func TestSimulationStore_RandomForUserFallsBack(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	userID, id := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("NOT EXISTS").
		WithArgs("INV", "", userID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("ORDER BY random").
		WithArgs("INV", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
	mock.ExpectQuery("FROM simulations").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "prompt", "monthly_income", "difficulty", "category", "version", "created_at", "updated_at"}).
			AddRow(id.String(), "Invest a bonus", "4000.00", "I", "INV", 1, now, now))
	mock.ExpectQuery("FROM expenses").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "simulation_id", "name", "amount", "essential", "feedback"}))

	log, buf := logger.NewBufferLogger()
	sim, err := NewPostgresSimulationStore(db, log).RandomForUser(context.Background(), userID, domain.CategoryInvesting, "")
	require.NoError(t, err)
	assert.Equal(t, id, sim.ID)
	assert.Len(t, buf.EntriesWithMessage("no uncompleted simulation left, choosing among all"), 1)
}

func TestTaskStore(t *testing.T) {
	t.Parallel()

	t.Run("update status of unknown task", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE tasks").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewPostgresTaskStore(db, nil).UpdateTaskStatus(context.Background(), uuid.New(), task.TaskStatusFailed, "boom")
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("get task", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		id := uuid.New()
		now := time.Now().UTC()
		mock.ExpectQuery("FROM tasks WHERE id").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "type", "payload", "status", "error_message", "result", "created_at", "updated_at"}).
				AddRow(id.String(), task.TaskTypeContentGeneration, []byte(`{"content_type":"MC"}`), "completed", nil, []byte(`{"generated":5}`), now, now))

		rec, err := NewPostgresTaskStore(db, nil).GetTask(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, task.TaskStatusCompleted, rec.Status)
		assert.Empty(t, rec.ErrorMessage)
		assert.JSONEq(t, `{"generated":5}`, string(rec.Result))
	})

	t.Run("get missing task", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM tasks WHERE id").
			WillReturnError(sql.ErrNoRows)

		_, err := NewPostgresTaskStore(db, nil).GetTask(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("stale processing tasks", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		mock.ExpectQuery("updated_at < \\$2").
			WithArgs("processing", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "type", "payload", "status", "error_message", "result", "created_at", "updated_at"}))

		recs, err := NewPostgresTaskStore(db, nil).GetProcessingTasks(context.Background(), time.Hour)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}

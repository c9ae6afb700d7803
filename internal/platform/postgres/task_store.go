package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/finlit/finlit-api/internal/task"
	"github.com/google/uuid"
)

// PostgresTaskStore implements the task.TaskStore interface using PostgreSQL
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements task.TaskStore interface
var _ task.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements task.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// SaveTask persists a task to the database
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		string(t.Status()),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save task to database: %w", MapError("task", "save", err))
	}
	return nil
}

// UpdateTaskStatus updates the status of a task in the database
func (s *PostgresTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	query := `
		UPDATE tasks
		SET status = $1, error_message = NULLIF($2, ''), updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, string(status), errorMsg, time.Now().UTC(), taskID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task status",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update task status: %w", MapError("task", "update status", err))
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

// SaveTaskResult stores the JSON result of a task
func (s *PostgresTaskStore) SaveTaskResult(ctx context.Context, taskID uuid.UUID, result []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET result = $1, updated_at = $2 WHERE id = $3`,
		result, time.Now().UTC(), taskID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save task result",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save task result: %w", MapError("task", "save result", err))
	}
	return checkRowsAffected(res, store.ErrTaskNotFound)
}

const taskColumns = `id, type, payload, status, error_message, result, created_at, updated_at`

// GetTask returns the task record with the given ID
func (s *PostgresTaskStore) GetTask(ctx context.Context, taskID uuid.UUID) (*task.Record, error) {
	rec, err := scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return rec, nil
}

// GetPendingTasks retrieves all tasks with "pending" status, oldest first
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]*task.Record, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = $1 ORDER BY created_at ASC`,
		string(task.TaskStatusPending))
}

// GetProcessingTasks retrieves tasks with "processing" status, optionally
// only those not updated for longer than olderThan
func (s *PostgresTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]*task.Record, error) {
	if olderThan == 0 {
		return s.queryTasks(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE status = $1 ORDER BY created_at ASC`,
			string(task.TaskStatusProcessing))
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = $1 AND updated_at < $2 ORDER BY created_at ASC`,
		string(task.TaskStatusProcessing), cutoff)
}

func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query tasks",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*task.Record
	for rows.Next() {
		rec, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return records, nil
}

func scanTask(row rowScanner) (*task.Record, error) {
	var (
		rec     task.Record
		status  string
		errMsg  sql.NullString
		payload []byte
		result  []byte
	)
	if err := row.Scan(&rec.ID, &rec.Type, &payload, &status, &errMsg, &result, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Status = task.TaskStatus(status)
	rec.ErrorMessage = errMsg.String
	rec.Payload = payload
	rec.Result = result
	return &rec, nil
}

package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
)

// PostgresProgressStore implements the store.ProgressStore interface.
// The unique constraint on question_progress is the only concurrency guard
// of the first-completion gate.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the ProgressStore interface.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// WithTx implements store.ProgressStore.WithTx
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{db: tx, logger: s.logger}
}

// CreateIfAbsent implements store.ProgressStore.CreateIfAbsent
func (s *PostgresProgressStore) CreateIfAbsent(ctx context.Context, p *domain.QuestionProgress) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		return false, err
	}

	query := `
		INSERT INTO question_progress (user_id, question_id, question_type, category, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, question_id, question_type) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		p.UserID,
		p.QuestionID,
		string(p.QuestionType),
		string(p.Category),
		p.CompletedAt,
	)
	if err != nil {
		// ON CONFLICT covers the constraint; this only guards against a
		// differently named unique index.
		if IsUniqueViolation(err) {
			return false, nil
		}
		log.Error("failed to record question progress",
			slog.String("error", err.Error()),
			slog.String("user_id", p.UserID.String()),
			slog.String("question_id", p.QuestionID.String()))
		return false, MapError("question progress", "create", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	log.Debug("question progress recorded",
		slog.String("user_id", p.UserID.String()),
		slog.String("question_id", p.QuestionID.String()),
		slog.Bool("created", n == 1))
	return n == 1, nil
}

// AddXP implements store.ProgressStore.AddXP
func (s *PostgresProgressStore) AddXP(ctx context.Context, userID uuid.UUID, category domain.Category, amount int) (int, error) {
	query := `
		INSERT INTO user_xp (user_id, category, xp, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, category)
		DO UPDATE SET xp = user_xp.xp + EXCLUDED.xp, updated_at = NOW()
		RETURNING xp
	`
	var total int
	if err := s.db.QueryRowContext(ctx, query, userID, string(category), amount).Scan(&total); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to add xp",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("category", string(category)))
		return 0, MapError("xp", "add", err)
	}
	return total, nil
}

// GetXP implements store.ProgressStore.GetXP
func (s *PostgresProgressStore) GetXP(ctx context.Context, userID uuid.UUID) (domain.XPBalance, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, xp FROM user_xp WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	balance := domain.XPBalance{}
	for _, c := range domain.Categories() {
		balance[c] = 0
	}
	for rows.Next() {
		var category string
		var xp int
		if err := rows.Scan(&category, &xp); err != nil {
			return nil, err
		}
		balance[domain.Category(category)] = xp
	}
	return balance, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
)

// PostgresQuestionStore implements the store.QuestionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionStore creates a new PostgreSQL implementation of the QuestionStore interface.
func NewPostgresQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

// Ensure PostgresQuestionStore implements store.QuestionStore interface
var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// WithTx implements store.QuestionStore.WithTx
func (s *PostgresQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return &PostgresQuestionStore{db: tx, logger: s.logger}
}

// Create implements store.QuestionStore.Create
// The duplicate-detection text is stored alongside the content so corpora
// can be loaded without decoding every payload.
func (s *PostgresQuestionStore) Create(ctx context.Context, q *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := q.Validate(); err != nil {
		log.Warn("question validation failed during create",
			slog.String("error", err.Error()),
			slog.String("question_id", q.ID.String()))
		return err
	}

	query := `
		INSERT INTO questions (id, type, prompt, category, difficulty, content, duplicate_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		q.ID,
		string(q.Type),
		q.Prompt,
		string(q.Category),
		string(q.Difficulty),
		[]byte(q.Content),
		q.DuplicateText(),
		q.CreatedAt,
		q.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create question",
			slog.String("error", err.Error()),
			slog.String("question_id", q.ID.String()))
		return MapError("question", "create", err)
	}

	log.Info("question created successfully",
		slog.String("question_id", q.ID.String()),
		slog.String("type", string(q.Type)))
	return nil
}

// GetByID implements store.QuestionStore.GetByID
func (s *PostgresQuestionStore) GetByID(ctx context.Context, qt domain.QuestionType, id uuid.UUID) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, type, prompt, category, difficulty, content, created_at, updated_at
		FROM questions
		WHERE id = $1 AND type = $2
	`
	q, err := scanQuestion(s.db.QueryRowContext(ctx, query, id, string(qt)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("question not found", slog.String("question_id", id.String()))
			return nil, store.ErrQuestionNotFound
		}
		log.Error("failed to get question by ID",
			slog.String("error", err.Error()),
			slog.String("question_id", id.String()))
		return nil, err
	}
	return q, nil
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var q domain.Question
	var qt, category, difficulty string
	var content []byte
	if err := row.Scan(&q.ID, &qt, &q.Prompt, &category, &difficulty, &content, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.Type = domain.QuestionType(qt)
	q.Category = domain.Category(category)
	q.Difficulty = domain.Difficulty(difficulty)
	q.Content = content
	return &q, nil
}

// ListTexts implements store.QuestionStore.ListTexts
func (s *PostgresQuestionStore) ListTexts(ctx context.Context, qt domain.QuestionType) ([]store.TextRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, duplicate_text, category FROM questions WHERE type = $1 ORDER BY created_at ASC`,
		string(qt))
	if err != nil {
		return nil, err
	}
	return scanTextRecords(rows)
}

// RandomForUser implements store.QuestionStore.RandomForUser
func (s *PostgresQuestionStore) RandomForUser(
	ctx context.Context,
	userID uuid.UUID,
	qt domain.QuestionType,
	category domain.Category,
	difficulty domain.Difficulty,
) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	uncompleted := `
		SELECT q.id, q.type, q.prompt, q.category, q.difficulty, q.content, q.created_at, q.updated_at
		FROM questions q
		WHERE q.type = $1 AND q.category = $2
		  AND ($3::text = '' OR q.difficulty = $3::text)
		  AND NOT EXISTS (
			SELECT 1 FROM question_progress p
			WHERE p.user_id = $4 AND p.question_id = q.id AND p.question_type = q.type
		  )
		ORDER BY random()
		LIMIT 1
	`
	fallback := `
		SELECT q.id, q.type, q.prompt, q.category, q.difficulty, q.content, q.created_at, q.updated_at
		FROM questions q
		WHERE q.type = $1 AND q.category = $2
		  AND ($3::text = '' OR q.difficulty = $3::text)
		ORDER BY random()
		LIMIT 1
	`

	q, err := scanQuestion(s.db.QueryRowContext(ctx, uncompleted,
		string(qt), string(category), string(difficulty), userID))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no uncompleted question left, choosing among all",
			slog.String("user_id", userID.String()),
			slog.String("type", string(qt)))
		q, err = scanQuestion(s.db.QueryRowContext(ctx, fallback,
			string(qt), string(category), string(difficulty)))
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrQuestionNotFound
	}
	if err != nil {
		log.Error("failed to pick random question", slog.String("error", err.Error()))
		return nil, err
	}
	return q, nil
}

// Delete implements store.QuestionStore.Delete
func (s *PostgresQuestionStore) Delete(ctx context.Context, qt domain.QuestionType, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1 AND type = $2`, id, string(qt))
	if err != nil {
		return err
	}
	return checkRowsAffected(result, store.ErrQuestionNotFound)
}

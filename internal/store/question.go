package store

import (
	"context"
	"database/sql"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/google/uuid"
)

// QuestionStore persists the four non-simulation question types.
type QuestionStore interface {
	Create(ctx context.Context, q *domain.Question) error

	// GetByID returns ErrQuestionNotFound when no question of that type
	// has the ID.
	GetByID(ctx context.Context, qt domain.QuestionType, id uuid.UUID) (*domain.Question, error)

	// ListTexts returns the duplicate-detection text of every question of
	// the given type.
	ListTexts(ctx context.Context, qt domain.QuestionType) ([]TextRecord, error)

	// RandomForUser follows the same selection rules as
	// SimulationStore.RandomForUser.
	RandomForUser(
		ctx context.Context,
		userID uuid.UUID,
		qt domain.QuestionType,
		category domain.Category,
		difficulty domain.Difficulty,
	) (*domain.Question, error)

	Delete(ctx context.Context, qt domain.QuestionType, id uuid.UUID) error

	WithTx(tx *sql.Tx) QuestionStore
}

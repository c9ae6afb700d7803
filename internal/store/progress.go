package store

import (
	"context"
	"database/sql"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/google/uuid"
)

// ProgressStore records first completions and per-category experience.
type ProgressStore interface {
	// CreateIfAbsent inserts the completion record unless one already
	// exists for (user, question, type). created reports whether this
	// call inserted it. Concurrent callers race safely: exactly one of
	// them observes created == true.
	CreateIfAbsent(ctx context.Context, p *domain.QuestionProgress) (created bool, err error)

	// AddXP adds amount to the user's experience in category and returns
	// the new balance for that category.
	AddXP(ctx context.Context, userID uuid.UUID, category domain.Category, amount int) (int, error)

	// GetXP returns the user's experience per category. Categories with
	// no experience are present with zero.
	GetXP(ctx context.Context, userID uuid.UUID) (domain.XPBalance, error)

	WithTx(tx *sql.Tx) ProgressStore
}

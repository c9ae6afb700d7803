package generation

import (
	"context"
	"fmt"

	"github.com/finlit/finlit-api/internal/domain"
)

// Request asks for one batch of candidates.
type Request struct {
	ContentType domain.QuestionType
	Category    domain.Category
	Difficulty  domain.Difficulty
	BatchSize   int
}

// Validate checks that every field names a known value.
func (r Request) Validate() error {
	if !r.ContentType.Valid() {
		return fmt.Errorf("%w: content type %q", ErrInvalidRequest, r.ContentType)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: category %q", ErrInvalidRequest, r.Category)
	}
	if !r.Difficulty.Valid() {
		return fmt.Errorf("%w: difficulty %q", ErrInvalidRequest, r.Difficulty)
	}
	if r.BatchSize < 1 || r.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch size must be between 1 and %d", ErrInvalidRequest, MaxBatchSize)
	}
	return nil
}

// Generator is the boundary between the application and an external
// LLM. Implementations return the raw model text; callers extract and
// validate the JSON themselves.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

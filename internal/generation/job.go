package generation

import (
	"fmt"
	"math/rand/v2"

	"github.com/finlit/finlit-api/internal/domain"
)

// Job limits.
const (
	DefaultBatchSize = 5
	MaxBatchSize     = 20
	MaxBatches       = 10
)

// JobRequest describes a generation job: Batches calls to the generator,
// each asking for BatchSize candidates that are then imported.
type JobRequest struct {
	ContentType domain.QuestionType `json:"content_type"`
	// Category is chosen at random for every batch when empty.
	Category domain.Category `json:"category,omitempty"`
	// Difficulty defaults to beginner.
	Difficulty domain.Difficulty `json:"difficulty,omitempty"`
	BatchSize  int               `json:"batch_size"`
	Batches    int               `json:"batches"`
	DryRun     bool              `json:"dry_run"`
}

// Normalize applies defaults and validates the request.
func (r *JobRequest) Normalize() error {
	if r.Difficulty == "" {
		r.Difficulty = domain.DifficultyBeginner
	}
	if r.BatchSize == 0 {
		r.BatchSize = DefaultBatchSize
	}
	if r.Batches == 0 {
		r.Batches = 1
	}
	if !r.ContentType.Valid() {
		return fmt.Errorf("%w: content type %q", ErrInvalidRequest, r.ContentType)
	}
	if r.Category != "" && !r.Category.Valid() {
		return fmt.Errorf("%w: category %q", ErrInvalidRequest, r.Category)
	}
	if !r.Difficulty.Valid() {
		return fmt.Errorf("%w: difficulty %q", ErrInvalidRequest, r.Difficulty)
	}
	if r.BatchSize < 1 || r.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch size must be between 1 and %d", ErrInvalidRequest, MaxBatchSize)
	}
	if r.Batches < 1 || r.Batches > MaxBatches {
		return fmt.Errorf("%w: batches must be between 1 and %d", ErrInvalidRequest, MaxBatches)
	}
	return nil
}

// BatchRequest builds the generator request of one batch, picking a
// random category when none was requested.
func (r JobRequest) BatchRequest() Request {
	category := r.Category
	if category == "" {
		all := domain.Categories()
		category = all[rand.IntN(len(all))]
	}
	return Request{
		ContentType: r.ContentType,
		Category:    category,
		Difficulty:  r.Difficulty,
		BatchSize:   r.BatchSize,
	}
}

// BatchResult is the outcome of one generator call and its import.
type BatchResult struct {
	Batch      int               `json:"batch"`
	Category   domain.Category   `json:"category"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Received   int               `json:"received"`
	// Truncated counts the extra candidates dropped because the model
	// returned more than the batch size.
	Truncated int                  `json:"truncated,omitempty"`
	Error     string               `json:"error,omitempty"`
	Import    *domain.ImportReport `json:"import,omitempty"`
}

// JobReport accumulates the batches of a job.
type JobReport struct {
	Request   JobRequest    `json:"request"`
	Batches   []BatchResult `json:"batches"`
	Generated int           `json:"generated"`
	Succeeded int           `json:"succeeded"`
	// FailedBatches counts batches that produced no import at all.
	FailedBatches int `json:"failed_batches"`
}

// Add records a batch.
func (r *JobReport) Add(b BatchResult) {
	r.Batches = append(r.Batches, b)
	if b.Error != "" {
		r.FailedBatches++
	}
	if b.Import != nil {
		r.Generated += b.Import.Total
		r.Succeeded += b.Import.Succeeded
	}
}

// Summary is the one-line outcome of the job.
func (r *JobReport) Summary() string {
	name := r.Request.ContentType.ContentName()
	if r.Request.DryRun {
		return fmt.Sprintf("Dry run complete. Generated %d %s, %d valid.", r.Generated, name, r.Succeeded)
	}
	return fmt.Sprintf("Generation complete. Added %d/%d %s to the database.", r.Succeeded, r.Generated, name)
}

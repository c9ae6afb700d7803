package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ItemStatus is the outcome of one candidate in an import batch.
type ItemStatus string

const (
	ItemCreated ItemStatus = "created"
	// ItemValid is reported by dry runs for candidates that would be created.
	ItemValid     ItemStatus = "valid"
	ItemInvalid   ItemStatus = "invalid"
	ItemDuplicate ItemStatus = "duplicate"
	// ItemFailed means the candidate was valid but could not be stored.
	ItemFailed ItemStatus = "failed"
)

// ItemResult reports what happened to one candidate.
type ItemResult struct {
	// Index is the 1-based position of the candidate in the batch.
	Index       int                 `json:"index"`
	Status      ItemStatus          `json:"status"`
	ID          *uuid.UUID          `json:"id,omitempty"`
	Text        string              `json:"text,omitempty"`
	Errors      map[string][]string `json:"errors,omitempty"`
	Message     string              `json:"message,omitempty"`
	DuplicateOf *uuid.UUID          `json:"duplicate_of,omitempty"`
}

// Succeeded reports whether the candidate was (or in a dry run would be)
// created.
func (r ItemResult) Succeeded() bool {
	return r.Status == ItemCreated || r.Status == ItemValid
}

// ImportReport accumulates per-item results of a batch import.
type ImportReport struct {
	ContentType QuestionType `json:"content_type"`
	DryRun      bool         `json:"dry_run"`
	Total       int          `json:"total"`
	Succeeded   int          `json:"succeeded"`
	Items       []ItemResult `json:"items"`
}

// Add records one item result.
func (r *ImportReport) Add(item ItemResult) {
	r.Items = append(r.Items, item)
	if item.Succeeded() {
		r.Succeeded++
	}
}

// Failed is the number of rejected candidates.
func (r *ImportReport) Failed() int {
	return r.Total - r.Succeeded
}

// FailedIndexes lists the 1-based positions of rejected candidates.
func (r *ImportReport) FailedIndexes() []int {
	var out []int
	for _, item := range r.Items {
		if !item.Succeeded() {
			out = append(out, item.Index)
		}
	}
	return out
}

var contentNames = map[QuestionType]string{
	QuestionTypeMultipleChoice:   "multiple choice questions",
	QuestionTypeFillBlank:        "fill in the blank questions",
	QuestionTypeMatchDrag:        "match and drag exercises",
	QuestionTypeFlashCard:        "flash cards",
	QuestionTypeBudgetSimulation: "budget simulations",
}

// Summary is the one-line outcome, e.g. "Imported 3 of 4 budget simulations".
func (r *ImportReport) Summary() string {
	verb := "Imported"
	if r.DryRun {
		verb = "Validated"
	}
	return fmt.Sprintf("%s %d of %d %s", verb, r.Succeeded, r.Total, r.ContentType.ContentName())
}

// ContentName is the plural human-readable name of the type.
func (t QuestionType) ContentName() string {
	if name, ok := contentNames[t]; ok {
		return name
	}
	return "items"
}

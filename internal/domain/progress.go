package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuestionProgress marks a user's first successful completion of a
// question. (UserID, QuestionID, QuestionType) is unique.
type QuestionProgress struct {
	UserID       uuid.UUID    `json:"user_id"`
	QuestionID   uuid.UUID    `json:"question_id"`
	QuestionType QuestionType `json:"question_type"`
	Category     Category     `json:"category"`
	CompletedAt  time.Time    `json:"completed_at"`
}

// NewQuestionProgress creates a validated completion record.
func NewQuestionProgress(
	userID, questionID uuid.UUID,
	qt QuestionType,
	category Category,
) (*QuestionProgress, error) {
	p := &QuestionProgress{
		UserID:       userID,
		QuestionID:   questionID,
		QuestionType: qt,
		Category:     category,
		CompletedAt:  time.Now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *QuestionProgress) Validate() error {
	var errs ValidationErrors
	if p.UserID == uuid.Nil {
		errs.Add("user_id", "cannot be empty", ErrInvalidID)
	}
	if p.QuestionID == uuid.Nil {
		errs.Add("question_id", "cannot be empty", ErrInvalidID)
	}
	if !p.QuestionType.Valid() {
		errs.Add("question_type", "is not a known question type", ErrInvalidQuestionType)
	}
	if !p.Category.Valid() {
		errs.Add("category", "is not a known category", ErrInvalidCategory)
	}
	return errs.Err()
}

// XPBalance is a user's accumulated experience per category.
type XPBalance map[Category]int

// Total sums experience across categories.
func (b XPBalance) Total() int {
	total := 0
	for _, xp := range b {
		total += xp
	}
	return total
}

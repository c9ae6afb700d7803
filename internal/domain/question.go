package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlankMarker marks the gap in a fill-in-the-blank prompt.
const BlankMarker = "___"

// Question is a non-simulation quiz item. Its type-specific payload is
// stored as JSON in Content.
type Question struct {
	ID         uuid.UUID       `json:"id"`
	Type       QuestionType    `json:"type"`
	Prompt     string          `json:"prompt"`
	Category   Category        `json:"category"`
	Difficulty Difficulty      `json:"difficulty"`
	Content    json.RawMessage `json:"content"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Content is implemented by each type-specific payload.
type Content interface {
	check(prompt string) ValidationErrors
}

// MultipleChoiceContent holds the correct answer and its distractors.
type MultipleChoiceContent struct {
	Answer      string   `json:"answer"`
	Distractors []string `json:"distractors"`
	Feedback    string   `json:"feedback"`
}

// Options returns the answer followed by the distractors.
func (c MultipleChoiceContent) Options() []string {
	return append([]string{c.Answer}, c.Distractors...)
}

func (c MultipleChoiceContent) check(string) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(c.Answer) == "" {
		errs.Add("content.answer", "cannot be empty", ErrEmptyText)
	}
	if len(c.Distractors) == 0 {
		errs.Add("content.distractors", "must contain at least one distractor", ErrInvalidContent)
	}
	for i, d := range c.Distractors {
		if strings.TrimSpace(d) == "" {
			errs.Add(fmt.Sprintf("content.distractors[%d]", i), "cannot be empty", ErrEmptyText)
		} else if strings.EqualFold(strings.TrimSpace(d), strings.TrimSpace(c.Answer)) {
			errs.Add(fmt.Sprintf("content.distractors[%d]", i), "must differ from the answer", ErrInvalidContent)
		}
	}
	if strings.TrimSpace(c.Feedback) == "" {
		errs.Add("content.feedback", "cannot be empty", ErrEmptyText)
	}
	return errs
}

// FillBlankContent holds the word or short phrase missing from the prompt.
type FillBlankContent struct {
	MissingWord string `json:"missing_word"`
	Feedback    string `json:"feedback"`
}

// MaxMissingWords bounds the length of a fill-in-the-blank answer.
const MaxMissingWords = 3

func (c FillBlankContent) check(prompt string) ValidationErrors {
	var errs ValidationErrors
	if !strings.Contains(prompt, BlankMarker) {
		errs.Add("prompt", "must contain the blank marker "+BlankMarker, ErrInvalidContent)
	}
	words := len(strings.Fields(c.MissingWord))
	switch {
	case words == 0:
		errs.Add("content.missing_word", "cannot be empty", ErrEmptyText)
	case words > MaxMissingWords:
		errs.Add("content.missing_word", fmt.Sprintf("must be at most %d words", MaxMissingWords), ErrInvalidContent)
	}
	if strings.TrimSpace(c.Feedback) == "" {
		errs.Add("content.feedback", "cannot be empty", ErrEmptyText)
	}
	return errs
}

// FlashCardContent is a true/false statement card.
type FlashCardContent struct {
	Answer   bool   `json:"answer"`
	Feedback string `json:"feedback"`
}

func (c FlashCardContent) check(string) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(c.Feedback) == "" {
		errs.Add("content.feedback", "cannot be empty", ErrEmptyText)
	}
	return errs
}

// MatchPair is one term the learner drags onto its definition.
type MatchPair struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Feedback   string `json:"feedback,omitempty"`
}

// MatchDragContent is a set of term/definition pairs. Feedback is the
// exercise-level explanation and is the text used for duplicate checks.
type MatchDragContent struct {
	Pairs    []MatchPair `json:"pairs"`
	Feedback string      `json:"feedback"`
}

// MinMatchPairs and MaxMatchPairs bound a stored exercise.
const (
	MinMatchPairs = 2
	MaxMatchPairs = 10
)

func (c MatchDragContent) check(string) ValidationErrors {
	var errs ValidationErrors
	if len(c.Pairs) < MinMatchPairs || len(c.Pairs) > MaxMatchPairs {
		errs.Add("content.pairs", fmt.Sprintf("must contain between %d and %d pairs", MinMatchPairs, MaxMatchPairs), ErrInvalidContent)
	}
	seen := make(map[string]bool, len(c.Pairs))
	for i, p := range c.Pairs {
		field := fmt.Sprintf("content.pairs[%d]", i)
		term := strings.ToLower(strings.TrimSpace(p.Term))
		if term == "" {
			errs.Add(field+".term", "cannot be empty", ErrEmptyText)
		} else if seen[term] {
			errs.Add(field+".term", "is repeated", ErrInvalidContent)
		}
		seen[term] = true
		if strings.TrimSpace(p.Definition) == "" {
			errs.Add(field+".definition", "cannot be empty", ErrEmptyText)
		}
	}
	if strings.TrimSpace(c.Feedback) == "" {
		errs.Add("content.feedback", "cannot be empty", ErrEmptyText)
	}
	return errs
}

// NewQuestion creates a validated question with the given typed content.
func NewQuestion(
	qt QuestionType,
	prompt string,
	category Category,
	difficulty Difficulty,
	content Content,
) (*Question, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	now := time.Now().UTC()
	q := &Question{
		ID:         uuid.New(),
		Type:       qt,
		Prompt:     strings.TrimSpace(prompt),
		Category:   category,
		Difficulty: difficulty,
		Content:    raw,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate checks the common fields and the type-specific content.
func (q *Question) Validate() error {
	var errs ValidationErrors
	if q.ID == uuid.Nil {
		errs.Add("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(q.Prompt) == "" {
		errs.Add("prompt", "cannot be empty", ErrEmptyText)
	}
	if !q.Category.Valid() {
		errs.Add("category", "must be one of BUD, INV, SAV, BAL, CRD, TAX", ErrInvalidCategory)
	}
	if !q.Difficulty.Valid() {
		errs.Add("difficulty", "must be one of B, I, A", ErrInvalidDifficulty)
	}
	content, err := q.DecodeContent()
	if err != nil {
		errs.Add("content", err.Error(), ErrInvalidContent)
	} else {
		errs = append(errs, content.check(q.Prompt)...)
	}
	return errs.Err()
}

// DecodeContent unmarshals Content into the struct matching q.Type.
func (q *Question) DecodeContent() (Content, error) {
	var (
		content Content
		err     error
	)
	switch q.Type {
	case QuestionTypeMultipleChoice:
		var c MultipleChoiceContent
		err = json.Unmarshal(q.Content, &c)
		content = c
	case QuestionTypeFillBlank:
		var c FillBlankContent
		err = json.Unmarshal(q.Content, &c)
		content = c
	case QuestionTypeFlashCard:
		var c FlashCardContent
		err = json.Unmarshal(q.Content, &c)
		content = c
	case QuestionTypeMatchDrag:
		var c MatchDragContent
		err = json.Unmarshal(q.Content, &c)
		content = c
	default:
		return nil, fmt.Errorf("%w: %q has no question content", ErrInvalidQuestionType, q.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return content, nil
}

// DuplicateText returns the text compared when filtering duplicates:
// the exercise feedback for match-and-drag, the prompt otherwise.
func (q *Question) DuplicateText() string {
	if q.Type == QuestionTypeMatchDrag {
		if c, err := q.DecodeContent(); err == nil {
			return c.(MatchDragContent).Feedback
		}
	}
	return q.Prompt
}

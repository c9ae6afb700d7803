package domain

import (
	"fmt"
	"strings"
)

// Category is the closed set of topics every question and simulation
// belongs to.
type Category string

const (
	CategoryBudgeting    Category = "BUD"
	CategoryInvesting    Category = "INV"
	CategorySavings      Category = "SAV"
	CategoryBalanceSheet Category = "BAL"
	CategoryCredit       Category = "CRD"
	CategoryTaxes        Category = "TAX"
)

var categoryInfo = map[Category]struct {
	name string
	slug string
}{
	CategoryBudgeting:    {"Budgeting", "budget"},
	CategoryInvesting:    {"Investing", "investing"},
	CategorySavings:      {"Savings", "savings"},
	CategoryBalanceSheet: {"Balance Sheet", "balance"},
	CategoryCredit:       {"Credit", "credit"},
	CategoryTaxes:        {"Taxes", "taxes"},
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		CategoryBudgeting,
		CategoryInvesting,
		CategorySavings,
		CategoryBalanceSheet,
		CategoryCredit,
		CategoryTaxes,
	}
}

// Valid reports whether c is one of the known codes.
func (c Category) Valid() bool {
	_, ok := categoryInfo[c]
	return ok
}

// DisplayName returns the human readable name, e.g. "Balance Sheet".
func (c Category) DisplayName() string {
	return categoryInfo[c].name
}

// Slug returns the URL form of the category, e.g. "balance".
func (c Category) Slug() string {
	return categoryInfo[c].slug
}

// ParseCategory accepts either a code ("BUD") or a slug ("budget"),
// case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if c := Category(strings.ToUpper(s)); c.Valid() {
		return c, nil
	}
	lower := strings.ToLower(s)
	for c, info := range categoryInfo {
		if info.slug == lower {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Difficulty is the ordered tier of a question or simulation.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "B"
	DifficultyIntermediate Difficulty = "I"
	DifficultyAdvanced     Difficulty = "A"
)

var difficultyInfo = map[Difficulty]struct {
	name string
	rank int
	xp   int
}{
	DifficultyBeginner:     {"Beginner", 1, 50},
	DifficultyIntermediate: {"Intermediate", 2, 100},
	DifficultyAdvanced:     {"Advanced", 3, 150},
}

// Difficulties returns the tiers in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyInfo[d]
	return ok
}

func (d Difficulty) DisplayName() string {
	return difficultyInfo[d].name
}

// XP is the experience awarded for a first completion at this tier.
// Unknown tiers award nothing.
func (d Difficulty) XP() int {
	return difficultyInfo[d].xp
}

// Less orders tiers Beginner < Intermediate < Advanced.
func (d Difficulty) Less(other Difficulty) bool {
	return difficultyInfo[d].rank < difficultyInfo[other].rank
}

// ParseDifficulty accepts a code ("I") or a name ("intermediate").
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.TrimSpace(s)
	if d := Difficulty(strings.ToUpper(s)); d.Valid() {
		return d, nil
	}
	for d, info := range difficultyInfo {
		if strings.EqualFold(info.name, s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
}

// QuestionType identifies one of the five game formats.
type QuestionType string

const (
	QuestionTypeMultipleChoice   QuestionType = "MC"
	QuestionTypeFillBlank        QuestionType = "FIB"
	QuestionTypeMatchDrag        QuestionType = "MAD"
	QuestionTypeFlashCard        QuestionType = "FC"
	QuestionTypeBudgetSimulation QuestionType = "BS"
)

var questionTypeSlugs = map[QuestionType]string{
	QuestionTypeMultipleChoice:   "multiple-choice",
	QuestionTypeFillBlank:        "fill-blank",
	QuestionTypeMatchDrag:        "match-drag",
	QuestionTypeFlashCard:        "flash-card",
	QuestionTypeBudgetSimulation: "budget-simulation",
}

func (t QuestionType) Valid() bool {
	_, ok := questionTypeSlugs[t]
	return ok
}

func (t QuestionType) Slug() string {
	return questionTypeSlugs[t]
}

// ParseQuestionType accepts a code ("MC") or a slug ("multiple-choice").
func ParseQuestionType(s string) (QuestionType, error) {
	s = strings.TrimSpace(s)
	if t := QuestionType(strings.ToUpper(s)); t.Valid() {
		return t, nil
	}
	lower := strings.ToLower(s)
	for t, slug := range questionTypeSlugs {
		if slug == lower {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidQuestionType, s)
}

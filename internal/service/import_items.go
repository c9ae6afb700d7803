package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/generation"
	"github.com/shopspring/decimal"
)

// Amount is a money value in an import file. Both "12.50" and 12.5 are
// accepted; validation happens on the text.
type Amount string

// UnmarshalJSON accepts a JSON string or number.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*a = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or a decimal string: %w", err)
	}
	*a = Amount(n.String())
	return nil
}

func (a Amount) decimal() decimal.Decimal {
	d, _ := domain.ParseMoney(string(a))
	return d
}

// GenerationBounds are plausibility limits applied to AI-generated
// batches on top of the regular validation.
type GenerationBounds struct {
	MinExpenses int
	MaxExpenses int
	MinIncome   decimal.Decimal
	MaxIncome   decimal.Decimal
	// Distractors is the exact number of wrong options a multiple choice
	// question must carry.
	Distractors int
	MinPairs    int
	MaxPairs    int
}

// DefaultGenerationBounds returns the limits the generation prompts ask for.
func DefaultGenerationBounds() *GenerationBounds {
	return &GenerationBounds{
		MinExpenses: generation.MinGeneratedExpenses,
		MaxExpenses: generation.MaxGeneratedExpenses,
		MinIncome:   decimal.NewFromInt(generation.MinGeneratedIncome),
		MaxIncome:   decimal.NewFromInt(generation.MaxGeneratedIncome),
		Distractors: generation.GeneratedDistractors,
		MinPairs:    generation.MinGeneratedPairs,
		MaxPairs:    generation.MaxGeneratedPairs,
	}
}

// ExpenseItem is one expense of an imported simulation.
type ExpenseItem struct {
	Name      string `json:"name" validate:"required,max=100"`
	Amount    Amount `json:"amount" validate:"required,money"`
	Essential *bool  `json:"essential" validate:"required"`
	Feedback  string `json:"feedback" validate:"required"`
}

// SimulationItem is one budget simulation in an import file.
type SimulationItem struct {
	Question      string        `json:"question" validate:"required"`
	MonthlyIncome Amount        `json:"monthly_income" validate:"required,money"`
	Difficulty    string        `json:"difficulty" validate:"required,difficulty"`
	Category      string        `json:"category" validate:"required,category"`
	Expenses      []ExpenseItem `json:"expenses" validate:"required,min=1,max=10,dive"`
}

func (it *SimulationItem) setDefaults(opts ImportOptions) {
	it.Category = defaultString(it.Category, string(opts.Category), string(domain.CategoryBudgeting))
	it.Difficulty = defaultString(it.Difficulty, string(opts.Difficulty))
}

func (it *SimulationItem) checkBounds(b *GenerationBounds) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if n := len(it.Expenses); n < b.MinExpenses || n > b.MaxExpenses {
		errs.Add("expenses", fmt.Sprintf("must contain between %d and %d expenses", b.MinExpenses, b.MaxExpenses),
			domain.ErrValidation)
	}
	income := it.MonthlyIncome.decimal()
	if income.LessThan(b.MinIncome) || income.GreaterThan(b.MaxIncome) {
		errs.Add("monthly_income", fmt.Sprintf("must be between %s and %s",
			domain.FormatMoney(b.MinIncome), domain.FormatMoney(b.MaxIncome)), domain.ErrInvalidAmount)
	}
	return errs
}

// build creates the simulation and its expenses.
func (it *SimulationItem) build() (*domain.Simulation, error) {
	cat, err := domain.ParseCategory(it.Category)
	if err != nil {
		return nil, domain.NewValidationError("category", err.Error(), domain.ErrInvalidCategory)
	}
	diff, err := domain.ParseDifficulty(it.Difficulty)
	if err != nil {
		return nil, domain.NewValidationError("difficulty", err.Error(), domain.ErrInvalidDifficulty)
	}
	sim, err := domain.NewSimulation(it.Question, it.MonthlyIncome.decimal(), diff, cat)
	if err != nil {
		return nil, err
	}
	for i, e := range it.Expenses {
		exp, err := domain.NewExpense(sim.ID, e.Name, e.Amount.decimal(), *e.Essential, e.Feedback)
		if err != nil {
			errs, _ := domain.AsValidationErrors(err)
			return nil, errs.Prefix(fmt.Sprintf("expenses[%d]", i))
		}
		sim.Expenses = append(sim.Expenses, exp)
	}
	if err := sim.ValidateWithExpenses(); err != nil {
		return nil, err
	}
	return sim, nil
}

// questionItem is implemented by the item type of each question format.
type questionItem interface {
	setDefaults(opts ImportOptions)
	checkBounds(b *GenerationBounds) domain.ValidationErrors
	build() (*domain.Question, error)
}

func newQuestionItem(qt domain.QuestionType) (questionItem, bool) {
	switch qt {
	case domain.QuestionTypeMultipleChoice:
		return &MultipleChoiceItem{}, true
	case domain.QuestionTypeFillBlank:
		return &FillBlankItem{}, true
	case domain.QuestionTypeFlashCard:
		return &FlashCardItem{}, true
	case domain.QuestionTypeMatchDrag:
		return &MatchDragItem{}, true
	}
	return nil, false
}

// MultipleChoiceItem is one multiple choice question in an import file.
type MultipleChoiceItem struct {
	Question    string   `json:"question" validate:"required"`
	Answer      string   `json:"answer" validate:"required"`
	Distractors []string `json:"distractors" validate:"required,min=1,dive,required"`
	Feedback    string   `json:"feedback" validate:"required"`
	Difficulty  string   `json:"difficulty" validate:"required,difficulty"`
	Category    string   `json:"category" validate:"required,category"`
}

func (it *MultipleChoiceItem) setDefaults(opts ImportOptions) {
	it.Category = defaultString(it.Category, string(opts.Category))
	it.Difficulty = defaultString(it.Difficulty, string(opts.Difficulty))
}

func (it *MultipleChoiceItem) checkBounds(b *GenerationBounds) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if len(it.Distractors) != b.Distractors {
		errs.Add("distractors", fmt.Sprintf("must contain exactly %d distractors", b.Distractors), domain.ErrInvalidContent)
	}
	return errs
}

func (it *MultipleChoiceItem) build() (*domain.Question, error) {
	return newQuestion(domain.QuestionTypeMultipleChoice, it.Question, it.Category, it.Difficulty,
		domain.MultipleChoiceContent{Answer: it.Answer, Distractors: it.Distractors, Feedback: it.Feedback})
}

// FillBlankItem is one fill in the blank question in an import file.
type FillBlankItem struct {
	Question    string `json:"question" validate:"required"`
	MissingWord string `json:"missing_word" validate:"required"`
	Feedback    string `json:"feedback" validate:"required"`
	Difficulty  string `json:"difficulty" validate:"required,difficulty"`
	Category    string `json:"category" validate:"required,category"`
}

func (it *FillBlankItem) setDefaults(opts ImportOptions) {
	it.Category = defaultString(it.Category, string(opts.Category))
	it.Difficulty = defaultString(it.Difficulty, string(opts.Difficulty))
}

// checkBounds adds nothing: the blank marker and answer length are
// enforced for every fill in the blank question.
func (it *FillBlankItem) checkBounds(*GenerationBounds) domain.ValidationErrors {
	return nil
}

func (it *FillBlankItem) build() (*domain.Question, error) {
	return newQuestion(domain.QuestionTypeFillBlank, it.Question, it.Category, it.Difficulty,
		domain.FillBlankContent{MissingWord: strings.TrimSpace(it.MissingWord), Feedback: it.Feedback})
}

// FlashCardItem is one true/false statement in an import file.
type FlashCardItem struct {
	Question   string `json:"question" validate:"required"`
	Answer     *bool  `json:"answer" validate:"required"`
	Feedback   string `json:"feedback" validate:"required"`
	Difficulty string `json:"difficulty" validate:"required,difficulty"`
	Category   string `json:"category" validate:"required,category"`
}

func (it *FlashCardItem) setDefaults(opts ImportOptions) {
	it.Category = defaultString(it.Category, string(opts.Category))
	it.Difficulty = defaultString(it.Difficulty, string(opts.Difficulty))
}

func (it *FlashCardItem) checkBounds(*GenerationBounds) domain.ValidationErrors {
	return nil
}

func (it *FlashCardItem) build() (*domain.Question, error) {
	return newQuestion(domain.QuestionTypeFlashCard, it.Question, it.Category, it.Difficulty,
		domain.FlashCardContent{Answer: *it.Answer, Feedback: it.Feedback})
}

// MatchPairItem is one term of a match and drag exercise.
type MatchPairItem struct {
	Term       string `json:"term" validate:"required"`
	Definition string `json:"definition" validate:"required"`
	Feedback   string `json:"feedback"`
}

// DefaultMatchDragPrompt is used when an exercise carries no question text.
const DefaultMatchDragPrompt = "Match each term to its definition."

// MatchDragItem is one match and drag exercise in an import file.
type MatchDragItem struct {
	Question   string          `json:"question"`
	Pairs      []MatchPairItem `json:"terms_and_definitions" validate:"required,min=2,max=10,dive"`
	Feedback   string          `json:"feedback" validate:"required"`
	Difficulty string          `json:"difficulty" validate:"required,difficulty"`
	Category   string          `json:"category" validate:"required,category"`
}

func (it *MatchDragItem) setDefaults(opts ImportOptions) {
	it.Question = defaultString(it.Question, DefaultMatchDragPrompt)
	it.Category = defaultString(it.Category, string(opts.Category))
	it.Difficulty = defaultString(it.Difficulty, string(opts.Difficulty))
}

func (it *MatchDragItem) checkBounds(b *GenerationBounds) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if n := len(it.Pairs); n < b.MinPairs || n > b.MaxPairs {
		errs.Add("terms_and_definitions", fmt.Sprintf("must contain between %d and %d terms", b.MinPairs, b.MaxPairs),
			domain.ErrInvalidContent)
	}
	return errs
}

func (it *MatchDragItem) build() (*domain.Question, error) {
	content := domain.MatchDragContent{Feedback: it.Feedback}
	for _, p := range it.Pairs {
		content.Pairs = append(content.Pairs, domain.MatchPair{
			Term:       strings.TrimSpace(p.Term),
			Definition: strings.TrimSpace(p.Definition),
			Feedback:   strings.TrimSpace(p.Feedback),
		})
	}
	return newQuestion(domain.QuestionTypeMatchDrag, it.Question, it.Category, it.Difficulty, content)
}

// newQuestion parses the category and difficulty, which accept names as
// well as codes, and builds the question.
func newQuestion(qt domain.QuestionType, prompt, category, difficulty string, content domain.Content) (*domain.Question, error) {
	cat, err := domain.ParseCategory(category)
	if err != nil {
		return nil, domain.NewValidationError("category", err.Error(), domain.ErrInvalidCategory)
	}
	diff, err := domain.ParseDifficulty(difficulty)
	if err != nil {
		return nil, domain.NewValidationError("difficulty", err.Error(), domain.ErrInvalidDifficulty)
	}
	return domain.NewQuestion(qt, prompt, cat, diff, content)
}

func defaultString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/domain/budget"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
)

// PlayableExpense is an expense as shown to a learner: the essential flag
// and feedback stay hidden until the budget is submitted.
type PlayableExpense struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Amount string    `json:"amount"`
}

// PlayableSimulation is a simulation as shown to a learner.
type PlayableSimulation struct {
	ID            uuid.UUID         `json:"id"`
	Prompt        string            `json:"prompt"`
	MonthlyIncome string            `json:"monthly_income"`
	Difficulty    domain.Difficulty `json:"difficulty"`
	Category      domain.Category   `json:"category"`
	Expenses      []PlayableExpense `json:"expenses"`
}

// ExpenseFeedback is a revealed expense in a budget result.
type ExpenseFeedback struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Amount    string    `json:"amount"`
	Essential bool      `json:"essential"`
	Feedback  string    `json:"feedback"`
}

// OverBudgetDetail reports by how much a selection exceeds the income.
type OverBudgetDetail struct {
	TotalSelected string `json:"total_selected"`
	MonthlyIncome string `json:"monthly_income"`
	Difference    string `json:"difference"`
}

// BudgetResult is the graded outcome of a budget submission. Money is
// rendered with two decimals.
type BudgetResult struct {
	IsSuccessful     bool              `json:"is_successful"`
	IsWithinBudget   bool              `json:"is_within_budget"`
	TotalSelected    string            `json:"total_selected"`
	MonthlyIncome    string            `json:"monthly_income"`
	BudgetDifference string            `json:"budget_difference"`
	MissingEssential []ExpenseFeedback `json:"missing_essential"`
	Feedback         []string          `json:"feedback"`
	// RandomFeedback is one entry of Feedback picked at random.
	RandomFeedback   string            `json:"random_feedback,omitempty"`
	XPEarned         int               `json:"xp_earned"`
	OverBudget       *OverBudgetDetail `json:"over_budget,omitempty"`
	OptionalExpenses []ExpenseFeedback `json:"optional_expenses,omitempty"`
	SelectedExpenses []ExpenseFeedback `json:"selected_expenses"`
}

// PlayableQuestion is a question as shown to a learner, without its answer.
type PlayableQuestion struct {
	ID         uuid.UUID           `json:"id"`
	Type       domain.QuestionType `json:"type"`
	Prompt     string              `json:"prompt"`
	Difficulty domain.Difficulty   `json:"difficulty"`
	Category   domain.Category     `json:"category"`
	// Options are the shuffled choices of a multiple choice question.
	Options []string `json:"options,omitempty"`
	// Terms and Definitions are shuffled independently for match and drag.
	Terms       []string `json:"terms,omitempty"`
	Definitions []string `json:"definitions,omitempty"`
}

// Answer is a learner's answer. Which field is read depends on the
// question type: Choice for multiple choice, Text for fill in the blank,
// Value for flash cards and Matches (term to definition) for match and drag.
type Answer struct {
	Choice  string            `json:"choice,omitempty"`
	Text    string            `json:"text,omitempty"`
	Value   *bool             `json:"value,omitempty"`
	Matches map[string]string `json:"matches,omitempty"`
}

// AnswerResult is the graded outcome of an answer.
type AnswerResult struct {
	IsCorrect bool `json:"is_correct"`
	// CorrectAnswer is revealed for every type but match and drag.
	CorrectAnswer string `json:"correct_answer,omitempty"`
	// MismatchedTerms lists the match and drag terms placed wrongly.
	MismatchedTerms []string `json:"mismatched_terms,omitempty"`
	Feedback        string   `json:"feedback"`
	XPEarned        int      `json:"xp_earned"`
	Message         string   `json:"message,omitempty"`
}

// GameplayService serves content to learners and grades their answers.
type GameplayService interface {
	// NextSimulation returns a simulation of the category the user has not
	// completed, or any simulation of the category when all are completed.
	// An empty difficulty matches every difficulty.
	NextSimulation(
		ctx context.Context,
		userID uuid.UUID,
		category domain.Category,
		difficulty domain.Difficulty,
	) (*PlayableSimulation, error)

	// SubmitBudget grades a selection of expenses. Selecting expenses of
	// another simulation is an input error. A successful budget runs the
	// first-completion gate.
	SubmitBudget(ctx context.Context, userID, simulationID uuid.UUID, selected []uuid.UUID) (*BudgetResult, error)

	NextQuestion(
		ctx context.Context,
		userID uuid.UUID,
		qt domain.QuestionType,
		category domain.Category,
		difficulty domain.Difficulty,
	) (*PlayableQuestion, error)

	// AnswerQuestion grades an answer. A correct answer runs the
	// first-completion gate.
	AnswerQuestion(
		ctx context.Context,
		userID uuid.UUID,
		qt domain.QuestionType,
		questionID uuid.UUID,
		answer Answer,
	) (*AnswerResult, error)

	// XP returns the user's experience per category.
	XP(ctx context.Context, userID uuid.UUID) (domain.XPBalance, error)
}

type gameplayServiceImpl struct {
	simulations store.SimulationStore
	questions   store.QuestionStore
	gate        ProgressGate
	logger      *slog.Logger
	shuffle     func(n int, swap func(i, j int))
	intn        func(n int) int
}

// NewGameplayService creates a new GameplayService.
func NewGameplayService(
	simulations store.SimulationStore,
	questions store.QuestionStore,
	gate ProgressGate,
	logger *slog.Logger,
) (GameplayService, error) {
	if simulations == nil {
		return nil, domain.NewValidationError("simulations", "cannot be nil", domain.ErrValidation)
	}
	if questions == nil {
		return nil, domain.NewValidationError("questions", "cannot be nil", domain.ErrValidation)
	}
	if gate == nil {
		return nil, domain.NewValidationError("gate", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &gameplayServiceImpl{
		simulations: simulations,
		questions:   questions,
		gate:        gate,
		logger:      logger.With(slog.String("component", "gameplay_service")),
		shuffle:     rand.Shuffle,
		intn:        rand.IntN,
	}, nil
}

// NextSimulation implements GameplayService.NextSimulation
func (s *gameplayServiceImpl) NextSimulation(
	ctx context.Context,
	userID uuid.UUID,
	category domain.Category,
	difficulty domain.Difficulty,
) (*PlayableSimulation, error) {
	sim, err := s.simulations.RandomForUser(ctx, userID, category, difficulty)
	if err != nil {
		return nil, err
	}

	out := &PlayableSimulation{
		ID:            sim.ID,
		Prompt:        sim.Prompt,
		MonthlyIncome: domain.FormatMoney(sim.MonthlyIncome),
		Difficulty:    sim.Difficulty,
		Category:      sim.Category,
		Expenses:      make([]PlayableExpense, 0, len(sim.Expenses)),
	}
	for _, e := range sim.Expenses {
		out.Expenses = append(out.Expenses, PlayableExpense{
			ID:     e.ID,
			Name:   e.Name,
			Amount: domain.FormatMoney(e.Amount),
		})
	}
	s.shuffle(len(out.Expenses), func(i, j int) {
		out.Expenses[i], out.Expenses[j] = out.Expenses[j], out.Expenses[i]
	})
	return out, nil
}

// SubmitBudget implements GameplayService.SubmitBudget
func (s *gameplayServiceImpl) SubmitBudget(
	ctx context.Context,
	userID, simulationID uuid.UUID,
	selected []uuid.UUID,
) (*BudgetResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sim, err := s.simulations.GetByID(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	if unknown := budget.UnknownIDs(sim, selected); len(unknown) > 0 {
		return nil, domain.NewValidationError("selected_expense_ids",
			fmt.Sprintf("%d selected expenses do not belong to the simulation", len(unknown)),
			ErrUnknownExpenses)
	}

	outcome := budget.Score(sim, selected)
	result := &BudgetResult{
		IsSuccessful:     outcome.IsSuccessful,
		IsWithinBudget:   outcome.IsWithinBudget,
		TotalSelected:    domain.FormatMoney(outcome.TotalSelected),
		MonthlyIncome:    domain.FormatMoney(outcome.MonthlyIncome),
		BudgetDifference: domain.FormatMoney(outcome.BudgetDifference),
		MissingEssential: expenseFeedback(outcome.MissingEssential),
		Feedback:         append([]string{}, outcome.Feedback...),
		OptionalExpenses: expenseFeedback(outcome.OptionalSelected),
		SelectedExpenses: expenseFeedback(outcome.Selected),
	}
	if outcome.OverBudget != nil {
		result.OverBudget = &OverBudgetDetail{
			TotalSelected: domain.FormatMoney(outcome.OverBudget.TotalSelected),
			MonthlyIncome: domain.FormatMoney(outcome.OverBudget.MonthlyIncome),
			Difference:    domain.FormatMoney(outcome.OverBudget.Difference),
		}
	}

	if outcome.IsSuccessful {
		award, err := s.gate.Complete(ctx, userID, sim.ID,
			domain.QuestionTypeBudgetSimulation, sim.Category, sim.Difficulty)
		if err != nil {
			return nil, err
		}
		result.XPEarned = award.XP
		result.Feedback = append(result.Feedback, completionMessage(award, sim.Category,
			"Great job creating a balanced budget!"))
	}
	if len(result.Feedback) > 0 {
		result.RandomFeedback = result.Feedback[s.intn(len(result.Feedback))]
	}

	log.Info("budget submitted",
		slog.String("user_id", userID.String()),
		slog.String("simulation_id", sim.ID.String()),
		slog.Bool("successful", result.IsSuccessful),
		slog.Int("xp_earned", result.XPEarned))
	return result, nil
}

func completionMessage(award Award, category domain.Category, repeat string) string {
	if award.Created {
		return fmt.Sprintf("Great job! You've earned %d %s XP.", award.XP, category.DisplayName())
	}
	return repeat
}

func expenseFeedback(expenses []*domain.Expense) []ExpenseFeedback {
	out := make([]ExpenseFeedback, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, ExpenseFeedback{
			ID:        e.ID,
			Name:      e.Name,
			Amount:    domain.FormatMoney(e.Amount),
			Essential: e.Essential,
			Feedback:  e.Feedback,
		})
	}
	return out
}

// NextQuestion implements GameplayService.NextQuestion
func (s *gameplayServiceImpl) NextQuestion(
	ctx context.Context,
	userID uuid.UUID,
	qt domain.QuestionType,
	category domain.Category,
	difficulty domain.Difficulty,
) (*PlayableQuestion, error) {
	q, err := s.questions.RandomForUser(ctx, userID, qt, category, difficulty)
	if err != nil {
		return nil, err
	}
	content, err := q.DecodeContent()
	if err != nil {
		return nil, NewServiceError("gameplay", "next_question", "stored question is corrupt", err)
	}

	out := &PlayableQuestion{
		ID:         q.ID,
		Type:       q.Type,
		Prompt:     q.Prompt,
		Difficulty: q.Difficulty,
		Category:   q.Category,
	}
	switch c := content.(type) {
	case domain.MultipleChoiceContent:
		out.Options = s.shuffled(c.Options())
	case domain.MatchDragContent:
		terms := make([]string, 0, len(c.Pairs))
		defs := make([]string, 0, len(c.Pairs))
		for _, p := range c.Pairs {
			terms = append(terms, p.Term)
			defs = append(defs, p.Definition)
		}
		out.Terms = s.shuffled(terms)
		out.Definitions = s.shuffled(defs)
	}
	return out, nil
}

func (s *gameplayServiceImpl) shuffled(items []string) []string {
	out := append([]string(nil), items...)
	s.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// AnswerQuestion implements GameplayService.AnswerQuestion
func (s *gameplayServiceImpl) AnswerQuestion(
	ctx context.Context,
	userID uuid.UUID,
	qt domain.QuestionType,
	questionID uuid.UUID,
	answer Answer,
) (*AnswerResult, error) {
	q, err := s.questions.GetByID(ctx, qt, questionID)
	if err != nil {
		return nil, err
	}
	content, err := q.DecodeContent()
	if err != nil {
		return nil, NewServiceError("gameplay", "answer_question", "stored question is corrupt", err)
	}

	result, err := grade(content, answer)
	if err != nil {
		return nil, err
	}

	if result.IsCorrect {
		award, err := s.gate.Complete(ctx, userID, q.ID, q.Type, q.Category, q.Difficulty)
		if err != nil {
			return nil, err
		}
		result.XPEarned = award.XP
		result.Message = completionMessage(award, q.Category, "Correct!")
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("question answered",
		slog.String("user_id", userID.String()),
		slog.String("question_id", q.ID.String()),
		slog.String("question_type", string(q.Type)),
		slog.Bool("correct", result.IsCorrect),
		slog.Int("xp_earned", result.XPEarned))
	return result, nil
}

// grade compares an answer with the question content.
func grade(content domain.Content, answer Answer) (*AnswerResult, error) {
	switch c := content.(type) {
	case domain.MultipleChoiceContent:
		if answer.Choice == "" {
			return nil, domain.NewValidationError("choice", "is required", ErrInvalidAnswer)
		}
		return &AnswerResult{
			IsCorrect:     answer.Choice == c.Answer,
			CorrectAnswer: c.Answer,
			Feedback:      c.Feedback,
		}, nil

	case domain.FillBlankContent:
		if strings.TrimSpace(answer.Text) == "" {
			return nil, domain.NewValidationError("text", "is required", ErrInvalidAnswer)
		}
		return &AnswerResult{
			IsCorrect:     strings.EqualFold(strings.TrimSpace(answer.Text), strings.TrimSpace(c.MissingWord)),
			CorrectAnswer: c.MissingWord,
			Feedback:      c.Feedback,
		}, nil

	case domain.FlashCardContent:
		if answer.Value == nil {
			return nil, domain.NewValidationError("value", "is required", ErrInvalidAnswer)
		}
		return &AnswerResult{
			IsCorrect:     *answer.Value == c.Answer,
			CorrectAnswer: fmt.Sprintf("%t", c.Answer),
			Feedback:      c.Feedback,
		}, nil

	case domain.MatchDragContent:
		if len(answer.Matches) == 0 {
			return nil, domain.NewValidationError("matches", "is required", ErrInvalidAnswer)
		}
		var wrong []string
		for _, p := range c.Pairs {
			if answer.Matches[p.Term] != p.Definition {
				wrong = append(wrong, p.Term)
			}
		}
		return &AnswerResult{
			IsCorrect:       len(wrong) == 0,
			MismatchedTerms: wrong,
			Feedback:        c.Feedback,
		}, nil
	}
	return nil, domain.NewValidationError("type", "cannot be answered", ErrInvalidAnswer)
}

// XP implements GameplayService.XP
func (s *gameplayServiceImpl) XP(ctx context.Context, userID uuid.UUID) (domain.XPBalance, error) {
	return s.gate.XP(ctx, userID)
}

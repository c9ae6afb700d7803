package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/domain/dedup"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImportService(t *testing.T, sims *memSimulationStore, questions *memQuestionStore) ImportService {
	t.Helper()
	if sims == nil {
		sims = newMemSimulationStore()
	}
	if questions == nil {
		questions = &memQuestionStore{}
	}
	svc, err := NewImportService(&fakeTransactor{}, sims, questions, nil, nil)
	require.NoError(t, err)
	return svc
}

const simulationBatch = `[
  {
    "question": "You just moved into your first apartment. Build a budget.",
    "monthly_income": "1100.00",
    "difficulty": "B",
    "expenses": [
      {"name": "Rent", "amount": 800, "essential": true, "feedback": "Housing comes first."},
      {"name": "Groceries", "amount": "300.00", "essential": true, "feedback": "You need to eat."}
    ]
  },
  {
    "question": "Plan for a month where your car breaks down unexpectedly.",
    "monthly_income": "900.00",
    "difficulty": "I",
    "expenses": [
      {"name": "Rent", "amount": "800.00", "essential": true, "feedback": "Housing comes first."},
      {"name": "Car repair", "amount": "200.00", "essential": true, "feedback": "You need the car for work."}
    ]
  },
  {
    "question": "You just moved into your first apartment! Build a budget",
    "monthly_income": "1500.00",
    "difficulty": "B",
    "expenses": [
      {"name": "Rent", "amount": "800.00", "essential": true, "feedback": "Housing comes first."}
    ]
  },
  {
    "monthly_income": "1500.00",
    "difficulty": "X",
    "expenses": [
      {"name": "Rent", "amount": "800.00", "feedback": "Housing comes first."}
    ]
  }
]`

func TestImportSimulations(t *testing.T) {
	t.Parallel()

	t.Run("per item results", func(t *testing.T) {
		t.Parallel()
		sims := newMemSimulationStore()
		svc := newTestImportService(t, sims, nil)

		report, err := svc.ImportSimulations(context.Background(), []byte(simulationBatch), ImportOptions{})
		require.NoError(t, err)

		assert.Equal(t, 4, report.Total)
		assert.Equal(t, 1, report.Succeeded)
		assert.Equal(t, []int{2, 3, 4}, report.FailedIndexes())
		assert.Equal(t, "Imported 1 of 4 budget simulations", report.Summary())

		require.Len(t, report.Items, 4)
		created := report.Items[0]
		assert.Equal(t, domain.ItemCreated, created.Status)
		require.NotNil(t, created.ID)
		stored := sims.get(*created.ID)
		require.NotNil(t, stored)
		assert.Equal(t, domain.CategoryBudgeting, stored.Category)
		assert.Len(t, stored.Expenses, 2)

		violation := report.Items[1]
		assert.Equal(t, domain.ItemInvalid, violation.Status)
		assert.Contains(t, violation.Message, "exceed monthly income")

		duplicate := report.Items[2]
		assert.Equal(t, domain.ItemDuplicate, duplicate.Status)
		require.NotNil(t, duplicate.DuplicateOf)
		assert.Equal(t, *created.ID, *duplicate.DuplicateOf)

		invalid := report.Items[3]
		assert.Equal(t, domain.ItemInvalid, invalid.Status)
		assert.Contains(t, invalid.Errors, "question")
		assert.Contains(t, invalid.Errors, "difficulty")
		assert.Contains(t, invalid.Errors, "expenses[0].essential")

		assert.Len(t, sims.order, 1)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		t.Parallel()
		sims := newMemSimulationStore()
		svc := newTestImportService(t, sims, nil)

		report, err := svc.ImportSimulations(context.Background(), []byte(simulationBatch), ImportOptions{DryRun: true})
		require.NoError(t, err)

		assert.Equal(t, 1, report.Succeeded)
		assert.Equal(t, domain.ItemValid, report.Items[0].Status)
		assert.Equal(t, domain.ItemDuplicate, report.Items[2].Status)
		assert.Equal(t, "Validated 1 of 4 budget simulations", report.Summary())
		assert.Zero(t, sims.writes)
	})

	t.Run("existing prompts are duplicates", func(t *testing.T) {
		t.Parallel()
		existing := apartmentSimulation(t)
		existing.Prompt = "You just moved into your first apartment. Build a budget."
		svc := newTestImportService(t, newMemSimulationStore(existing), nil)

		report, err := svc.ImportSimulations(context.Background(), []byte(simulationBatch), ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.ItemDuplicate, report.Items[0].Status)
		assert.Equal(t, existing.ID, *report.Items[0].DuplicateOf)
	})

	t.Run("generation bounds", func(t *testing.T) {
		t.Parallel()
		svc := newTestImportService(t, nil, nil)

		report, err := svc.ImportSimulations(context.Background(), []byte(`[
		  {"question": "A short month with few bills to plan for.", "monthly_income": "1100.00", "difficulty": "B",
		   "expenses": [{"name": "Rent", "amount": "800.00", "essential": true, "feedback": "Housing."}]}
		]`), ImportOptions{Bounds: DefaultGenerationBounds()})
		require.NoError(t, err)
		require.Len(t, report.Items, 1)
		assert.Contains(t, report.Items[0].Errors, "expenses")
		assert.Contains(t, report.Items[0].Errors, "monthly_income")
	})

	t.Run("multi-byte expense names count characters", func(t *testing.T) {
		t.Parallel()
		sims := newMemSimulationStore()
		svc := newTestImportService(t, sims, nil)

		name := strings.Repeat("é", 60)
		report, err := svc.ImportSimulations(context.Background(), []byte(`[
		  {"question": "Plan a month of café visits and rent.", "monthly_income": "1100.00", "difficulty": "B",
		   "expenses": [{"name": "`+name+`", "amount": "800.00", "essential": true, "feedback": "Housing."}]}
		]`), ImportOptions{})
		require.NoError(t, err)
		require.Len(t, report.Items, 1)
		assert.Equal(t, domain.ItemCreated, report.Items[0].Status, report.Items[0].Message)
		assert.Equal(t, name, sims.get(*report.Items[0].ID).Expenses[0].Name)
	})

	t.Run("store failure is isolated to the item", func(t *testing.T) {
		t.Parallel()
		sims := newMemSimulationStore()
		sims.createErr = errors.New("connection reset")
		svc := newTestImportService(t, sims, nil)

		report, err := svc.ImportSimulations(context.Background(), []byte(simulationBatch), ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.ItemFailed, report.Items[0].Status)
		assert.Equal(t, domain.ItemInvalid, report.Items[1].Status)
		// a failed item is not part of the corpus
		assert.Equal(t, domain.ItemFailed, report.Items[2].Status)
	})

	t.Run("payload must be an array", func(t *testing.T) {
		t.Parallel()
		svc := newTestImportService(t, nil, nil)

		_, err := svc.ImportSimulations(context.Background(), []byte(`{"question": "x"}`), ImportOptions{})
		assert.ErrorIs(t, err, ErrInvalidBatch)

		_, err = svc.ImportSimulations(context.Background(), []byte(`null`), ImportOptions{})
		assert.ErrorIs(t, err, ErrInvalidBatch)
	})
}

func TestImportSimulations_LogsRejections(t *testing.T) {
	t.Parallel()
	log, buf := logger.NewBufferLogger()
	svc, err := NewImportService(&fakeTransactor{}, newMemSimulationStore(), &memQuestionStore{}, nil, log)
	require.NoError(t, err)

	_, err = svc.ImportSimulations(context.Background(), []byte(simulationBatch), ImportOptions{})
	require.NoError(t, err)

	entries := buf.EntriesWithMessage("import item rejected")
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, "WARN", e["level"])
	}
}

func TestImportQuestions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("multiple choice", func(t *testing.T) {
		t.Parallel()
		questions := &memQuestionStore{}
		svc := newTestImportService(t, nil, questions)

		report, err := svc.ImportQuestions(ctx, domain.QuestionTypeMultipleChoice, []byte(`[
		  {"question": "What does a budget help you track?", "answer": "Income and expenses",
		   "distractors": ["Only taxes", "Stock prices", "Credit score"], "feedback": "A budget tracks money in and out.",
		   "difficulty": "B", "category": "BUD"},
		  {"question": "Which account usually pays the most interest?", "answer": "Savings",
		   "distractors": ["savings"], "feedback": "x", "difficulty": "B", "category": "savings"}
		]`), ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.ItemCreated, report.Items[0].Status)
		assert.Equal(t, domain.ItemInvalid, report.Items[1].Status)
		assert.Contains(t, report.Items[1].Errors, "content.distractors[0]")
		assert.Len(t, questions.questions, 1)
	})

	t.Run("fill in the blank needs the marker", func(t *testing.T) {
		t.Parallel()
		svc := newTestImportService(t, nil, nil)

		report, err := svc.ImportQuestions(ctx, domain.QuestionTypeFillBlank, []byte(`[
		  {"question": "A plan for spending money is a ___.", "missing_word": "budget", "feedback": "Yes.",
		   "difficulty": "B", "category": "BUD"},
		  {"question": "A plan for spending money is a budget.", "missing_word": "budget", "feedback": "Yes.",
		   "difficulty": "B", "category": "BUD"}
		]`), ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Succeeded)
		assert.Contains(t, report.Items[1].Errors, "prompt")
	})

	t.Run("flash card answer is required", func(t *testing.T) {
		t.Parallel()
		svc := newTestImportService(t, nil, nil)

		report, err := svc.ImportQuestions(ctx, domain.QuestionTypeFlashCard, []byte(`[
		  {"question": "Paying yourself first means saving before spending.", "answer": false, "feedback": "It is true.",
		   "difficulty": "B", "category": "SAV"},
		  {"question": "Credit scores never change.", "feedback": "They change.", "difficulty": "B", "category": "CRD"}
		]`), ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.ItemCreated, report.Items[0].Status)
		assert.Contains(t, report.Items[1].Errors, "answer")
	})

	t.Run("match and drag uses the feedback for duplicates", func(t *testing.T) {
		t.Parallel()
		svc := newTestImportService(t, nil, nil)

		item := `{"terms_and_definitions": [
		    {"term": "Bond", "definition": "A loan to an issuer."},
		    {"term": "Stock", "definition": "A share of ownership."}
		  ], "feedback": "These are common investment vehicles.", "difficulty": "I", "category": "INV"}`
		report, err := svc.ImportQuestions(ctx, domain.QuestionTypeMatchDrag, []byte(`[`+item+`,`+item+`]`), ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.ItemCreated, report.Items[0].Status)
		assert.Equal(t, domain.ItemDuplicate, report.Items[1].Status)
		assert.Equal(t, "These are common investment vehicles.", report.Items[0].Text)
	})

	t.Run("defaults fill missing category and difficulty", func(t *testing.T) {
		t.Parallel()
		questions := &memQuestionStore{}
		svc := newTestImportService(t, nil, questions)

		report, err := svc.ImportQuestions(ctx, domain.QuestionTypeFlashCard, []byte(`[
		  {"question": "Taxes are due every April in the US.", "answer": true, "feedback": "Mostly."}
		]`), ImportOptions{Category: domain.CategoryTaxes, Difficulty: domain.DifficultyAdvanced})
		require.NoError(t, err)
		require.Equal(t, 1, report.Succeeded)
		assert.Equal(t, domain.CategoryTaxes, questions.questions[0].Category)
		assert.Equal(t, domain.DifficultyAdvanced, questions.questions[0].Difficulty)
	})

	t.Run("category scope", func(t *testing.T) {
		t.Parallel()
		filter := dedup.NewFilter()
		filter.Scope = dedup.ScopeCategory
		svc, err := NewImportService(&fakeTransactor{}, newMemSimulationStore(), &memQuestionStore{}, filter, nil)
		require.NoError(t, err)

		report, err := svc.ImportQuestions(ctx, domain.QuestionTypeFlashCard, []byte(`[
		  {"question": "An emergency fund covers three to six months of expenses.", "answer": true, "feedback": "Yes.",
		   "difficulty": "B", "category": "SAV"},
		  {"question": "An emergency fund covers three to six months of expenses.", "answer": true, "feedback": "Yes.",
		   "difficulty": "B", "category": "BUD"}
		]`), ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Succeeded)
	})

	t.Run("simulations are not questions", func(t *testing.T) {
		t.Parallel()
		svc := newTestImportService(t, nil, nil)

		_, err := svc.ImportQuestions(ctx, domain.QuestionTypeBudgetSimulation, []byte(`[]`), ImportOptions{})
		assert.ErrorIs(t, err, domain.ErrInvalidQuestionType)
	})
}

func TestImport_Dispatch(t *testing.T) {
	t.Parallel()
	sims := newMemSimulationStore()
	svc := newTestImportService(t, sims, nil)

	report, err := svc.Import(context.Background(), domain.QuestionTypeBudgetSimulation,
		[]byte(simulationBatch), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionTypeBudgetSimulation, report.ContentType)
	assert.Len(t, sims.order, 1)
}

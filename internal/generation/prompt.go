package generation

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/finlit/finlit-api/internal/domain"
)

// Plausibility bounds asked of the model and enforced on generated batches.
const (
	MinGeneratedExpenses = 5
	MaxGeneratedExpenses = 8
	MinGeneratedIncome   = 1500
	MaxGeneratedIncome   = 10000
	GeneratedDistractors = 3
	MinGeneratedPairs    = 4
	MaxGeneratedPairs    = 6
)

const jsonOnly = `
The final JSON array MUST contain EXACTLY {{.Num}} objects, no more and no less.

Only include the valid JSON array in your response, with no additional explanations, preambles, or postscripts.
`

const simulationPrompt = `You are a financial education expert.
Generate EXACTLY {{.Num}} budget simulation scenarios about {{.CategoryName}} for teaching financial literacy at the {{.DifficultyName}} level.

Each scenario must have:
- a realistic scenario description related to {{.CategoryName}}
- a monthly income between ${{.MinIncome}} and ${{.MaxIncome}} with 2 decimal places
- between {{.MinExpenses}} and {{.MaxExpenses}} expenses, each with a name, an amount with 2 decimal places,
  whether it is essential (true) or non-essential (false), and feedback explaining that classification
- a mix of essential and non-essential expenses
- total essential expenses below the monthly income

Return a JSON array in this format:
[
  {
    "question": "Scenario description",
    "monthly_income": "3500.00",
    "difficulty": "{{.DifficultyCode}}",
    "category": "{{.CategoryCode}}",
    "expenses": [
      {"name": "Rent", "amount": "1200.00", "essential": true, "feedback": "Housing is a basic necessity."},
      {"name": "Streaming Services", "amount": "50.00", "essential": false, "feedback": "Entertainment can be cut if needed."}
    ]
  }
]
` + jsonOnly

const multipleChoicePrompt = `You are a financial education expert.
Generate EXACTLY {{.Num}} multiple choice questions about {{.CategoryName}} for teaching financial literacy at the {{.DifficultyName}} level.
Each question has 1 correct answer and exactly {{.Distractors}} incorrect answers (distractors), plus feedback explaining why the answer is right.
Questions should test understanding, not just recall.

Return a JSON array in this format:
[
  {
    "question": "Question text?",
    "answer": "Correct answer",
    "distractors": ["Incorrect answer 1", "Incorrect answer 2", "Incorrect answer 3"],
    "feedback": "Why the correct answer is right",
    "difficulty": "{{.DifficultyCode}}",
    "category": "{{.CategoryCode}}"
  }
]
` + jsonOnly

const fillBlankPrompt = `You are a financial education expert.
Generate EXACTLY {{.Num}} fill in the blank questions about {{.CategoryName}} for teaching financial literacy at the {{.DifficultyName}} level.
Each question is a sentence containing exactly one blank written as ___ and the missing word or short phrase
(at most {{.MaxWords}} words) that fills it, plus feedback explaining the answer.

Return a JSON array in this format:
[
  {
    "question": "A financial plan that tracks income and expenses is called a ___.",
    "missing_word": "budget",
    "feedback": "A budget helps you track and manage income and expenses.",
    "difficulty": "{{.DifficultyCode}}",
    "category": "{{.CategoryCode}}"
  }
]
` + jsonOnly

const flashCardPrompt = `You are a financial education expert.
Generate EXACTLY {{.Num}} true or false flash cards about {{.CategoryName}} for teaching financial literacy at the {{.DifficultyName}} level.
Each card is a statement, whether it is true, and feedback explaining why. Mix true and false statements.

Return a JSON array in this format:
[
  {
    "question": "A good budget should account for savings as a regular expense.",
    "answer": true,
    "feedback": "Paying yourself first ensures you consistently save.",
    "difficulty": "{{.DifficultyCode}}",
    "category": "{{.CategoryCode}}"
  }
]
` + jsonOnly

const matchDragPrompt = `You are a financial education expert.
Generate EXACTLY {{.Num}} match and drag exercises about {{.CategoryName}} for teaching financial literacy at the {{.DifficultyName}} level.
Each exercise has between {{.MinPairs}} and {{.MaxPairs}} related terms, each with one unambiguous definition and feedback,
and an overall feedback explaining how the terms relate.

Return a JSON array in this format:
[
  {
    "terms_and_definitions": [
      {"term": "Bond", "definition": "A loan made by an investor to a borrower at a fixed rate.", "feedback": "Bonds are fixed-income instruments."},
      {"term": "Stock", "definition": "A share of ownership in a corporation.", "feedback": "Stocks give shareholders ownership."}
    ],
    "feedback": "These terms are common investment vehicles.",
    "difficulty": "{{.DifficultyCode}}",
    "category": "{{.CategoryCode}}"
  }
]
` + jsonOnly

var prompts = map[domain.QuestionType]*template.Template{
	domain.QuestionTypeBudgetSimulation: template.Must(template.New("BS").Parse(simulationPrompt)),
	domain.QuestionTypeMultipleChoice:   template.Must(template.New("MC").Parse(multipleChoicePrompt)),
	domain.QuestionTypeFillBlank:        template.Must(template.New("FIB").Parse(fillBlankPrompt)),
	domain.QuestionTypeFlashCard:        template.Must(template.New("FC").Parse(flashCardPrompt)),
	domain.QuestionTypeMatchDrag:        template.Must(template.New("MAD").Parse(matchDragPrompt)),
}

type promptData struct {
	Num            int
	CategoryCode   domain.Category
	CategoryName   string
	DifficultyCode domain.Difficulty
	DifficultyName string
	MinIncome      int
	MaxIncome      int
	MinExpenses    int
	MaxExpenses    int
	Distractors    int
	MaxWords       int
	MinPairs       int
	MaxPairs       int
}

// BuildPrompt renders the prompt for req.
func BuildPrompt(req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	tmpl, ok := prompts[req.ContentType]
	if !ok {
		return "", fmt.Errorf("%w: no prompt for content type %q", ErrInvalidRequest, req.ContentType)
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, promptData{
		Num:            req.BatchSize,
		CategoryCode:   req.Category,
		CategoryName:   req.Category.DisplayName(),
		DifficultyCode: req.Difficulty,
		DifficultyName: req.Difficulty.DisplayName(),
		MinIncome:      MinGeneratedIncome,
		MaxIncome:      MaxGeneratedIncome,
		MinExpenses:    MinGeneratedExpenses,
		MaxExpenses:    MaxGeneratedExpenses,
		Distractors:    GeneratedDistractors,
		MaxWords:       domain.MaxMissingWords,
		MinPairs:       MinGeneratedPairs,
		MaxPairs:       MaxGeneratedPairs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

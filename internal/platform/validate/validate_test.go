package validate

import (
	"testing"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Name   string `json:"name" validate:"required"`
	Amount string `json:"amount" validate:"required,money"`
}

type scenario struct {
	Prompt     string `json:"question" validate:"required"`
	Category   string `json:"category" validate:"required,category"`
	Difficulty string `json:"difficulty" validate:"required,difficulty"`
	Lines      []line `json:"expenses" validate:"required,min=1,max=2,dive"`
}

func TestFieldErrors(t *testing.T) {
	t.Parallel()

	v := New()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		s := scenario{Prompt: "p", Category: "budget", Difficulty: "I", Lines: []line{{Name: "Rent", Amount: "800.00"}}}
		assert.NoError(t, v.Struct(s))
	})

	t.Run("json paths and messages", func(t *testing.T) {
		t.Parallel()
		s := scenario{
			Category:   "XYZ",
			Difficulty: "expert",
			Lines:      []line{{Name: "Rent", Amount: "800.005"}, {Amount: "-1"}},
		}
		fields := FieldErrors(v.Struct(s)).Fields()

		assert.Equal(t, []string{"is required"}, fields["question"])
		assert.Equal(t, []string{"must be one of BUD, INV, SAV, BAL, CRD, TAX"}, fields["category"])
		assert.Equal(t, []string{"must be one of B, I, A"}, fields["difficulty"])
		assert.Contains(t, fields, "expenses[0].amount")
		assert.Contains(t, fields, "expenses[1].name")
		assert.Contains(t, fields, "expenses[1].amount")
	})

	t.Run("slice bounds", func(t *testing.T) {
		t.Parallel()
		s := scenario{Prompt: "p", Category: "BUD", Difficulty: "B", Lines: make([]line, 3)}
		for i := range s.Lines {
			s.Lines[i] = line{Name: "x", Amount: "1"}
		}
		fields := FieldErrors(v.Struct(s)).Fields()
		assert.Equal(t, []string{"must contain at most 2 items"}, fields["expenses"])
	})

	t.Run("errors match domain sentinels", func(t *testing.T) {
		t.Parallel()
		errs := FieldErrors(v.Struct(scenario{Prompt: "p", Category: "nope", Difficulty: "B", Lines: []line{{Name: "x", Amount: "1"}}}))
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], domain.ErrInvalidCategory)
		assert.ErrorIs(t, errs, domain.ErrValidation)
	})
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{"BUD", CategoryBudgeting, false},
		{"bud", CategoryBudgeting, false},
		{"budget", CategoryBudgeting, false},
		{"balance", CategoryBalanceSheet, false},
		{" TAX ", CategoryTaxes, false},
		{"crypto", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseCategory(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCategoryMetadata(t *testing.T) {
	t.Parallel()

	assert.Len(t, Categories(), 6)
	for _, c := range Categories() {
		assert.True(t, c.Valid())
		assert.NotEmpty(t, c.DisplayName())
		assert.NotEmpty(t, c.Slug())
	}
	assert.Equal(t, "Balance Sheet", CategoryBalanceSheet.DisplayName())
	assert.False(t, Category("XXX").Valid())
}

func TestDifficultyXP(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 50, DifficultyBeginner.XP())
	assert.Equal(t, 100, DifficultyIntermediate.XP())
	assert.Equal(t, 150, DifficultyAdvanced.XP())
	assert.Equal(t, 0, Difficulty("Z").XP())

	assert.True(t, DifficultyBeginner.Less(DifficultyIntermediate))
	assert.True(t, DifficultyIntermediate.Less(DifficultyAdvanced))
	assert.False(t, DifficultyAdvanced.Less(DifficultyBeginner))
}

func TestParseDifficulty(t *testing.T) {
	t.Parallel()

	d, err := ParseDifficulty("i")
	require.NoError(t, err)
	assert.Equal(t, DifficultyIntermediate, d)

	d, err = ParseDifficulty("Advanced")
	require.NoError(t, err)
	assert.Equal(t, DifficultyAdvanced, d)

	_, err = ParseDifficulty("expert")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestParseQuestionType(t *testing.T) {
	t.Parallel()

	qt, err := ParseQuestionType("multiple-choice")
	require.NoError(t, err)
	assert.Equal(t, QuestionTypeMultipleChoice, qt)

	qt, err = ParseQuestionType("bs")
	require.NoError(t, err)
	assert.Equal(t, QuestionTypeBudgetSimulation, qt)

	_, err = ParseQuestionType("essay")
	assert.ErrorIs(t, err, ErrInvalidQuestionType)
}

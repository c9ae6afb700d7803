package budget

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		income  string
		lines   []Line
		wantErr bool
	}{
		{
			name:   "essentials equal income pass",
			income: "1100.00",
			lines: []Line{
				{Amount: money("800.00"), Essential: true},
				{Amount: money("300.00"), Essential: true},
			},
		},
		{
			name:   "essentials below income pass",
			income: "1100.00",
			lines: []Line{
				{Amount: money("800.00"), Essential: true},
				{Amount: money("299.99"), Essential: true},
			},
		},
		{
			name:   "one cent over fails",
			income: "1100.00",
			lines: []Line{
				{Amount: money("800.00"), Essential: true},
				{Amount: money("300.01"), Essential: true},
			},
			wantErr: true,
		},
		{
			name:   "non-essential lines are ignored",
			income: "100.00",
			lines: []Line{
				{Amount: money("100.00"), Essential: true},
				{Amount: money("5000.00"), Essential: false},
			},
		},
		{
			name:   "empty set passes",
			income: "0.01",
		},
		{
			name:   "decimal sums do not drift",
			income: "0.30",
			lines: []Line{
				{Amount: money("0.10"), Essential: true},
				{Amount: money("0.20"), Essential: true},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(money(tc.income), tc.lines)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrEssentialsExceedIncome)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateReportsBothTotals(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{Amount: money("800.00"), Essential: true},
		{Amount: money("300.00"), Essential: true},
		{Amount: money("1000.00"), Essential: true},
	}
	err := Validate(money("1100.00"), lines)
	require.Error(t, err)

	var violation *ViolationError
	require.True(t, errors.As(err, &violation))
	assert.True(t, violation.EssentialTotal.Equal(money("2100.00")))
	assert.True(t, violation.MonthlyIncome.Equal(money("1100.00")))
	assert.True(t, violation.Excess().Equal(money("1000.00")))
	assert.Contains(t, err.Error(), "2100.00")
	assert.Contains(t, err.Error(), "1100.00")
}

func TestCheckExpenseCount(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, CheckExpenseCount(0), ErrExpenseCount)
	assert.NoError(t, CheckExpenseCount(1))
	assert.NoError(t, CheckExpenseCount(10))
	assert.ErrorIs(t, CheckExpenseCount(11), ErrExpenseCount)
}

func TestTotals(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{Amount: money("10.10"), Essential: true},
		{Amount: money("0.90"), Essential: false},
	}
	assert.True(t, EssentialTotal(lines).Equal(money("10.10")))
	assert.True(t, Total(lines).Equal(money("11.00")))
}

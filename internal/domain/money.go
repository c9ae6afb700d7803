package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits carried by every amount.
const MoneyPlaces = 2

// maxMoney bounds amounts to what a NUMERIC(12,2) column can hold.
var maxMoney = decimal.New(1, 10)

// ParseMoney parses a decimal string such as "1100.00" and checks that it
// carries no more than two fractional digits.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	if err := CheckMoney(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckMoney validates precision and magnitude of an amount.
func CheckMoney(d decimal.Decimal) error {
	if !d.Equal(d.Round(MoneyPlaces)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d, MoneyPlaces)
	}
	if d.Abs().GreaterThanOrEqual(maxMoney) {
		return fmt.Errorf("%w: %s is too large", ErrInvalidAmount, d)
	}
	return nil
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

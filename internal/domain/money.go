package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits money carries.
const AmountScale = 2

// MaxAmount is the largest value a NUMERIC(15,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

// ValidateAmount accepts strictly positive amounts with at most two
// fractional digits that fit the storage column.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero, got %s", amount)
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("amount %s has more than %d decimal places", amount, AmountScale)
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("amount %s exceeds maximum %s", amount, MaxAmount)
	}
	return nil
}

// FormatAmount renders money with exactly two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(AmountScale)
}

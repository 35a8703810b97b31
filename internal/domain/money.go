package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are persisted as DECIMAL(18,2).
const AmountScale = 2

var MaxAmount = decimal.RequireFromString("9999999999999999.99")

// ValidateAmount accepts positive amounts that the stores hold exactly, so no
// driver ever rounds a bid before comparing it.
func ValidateAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return fmt.Errorf("%w: must be positive", ErrInvalidBid)
	case !amount.Equal(amount.Truncate(AmountScale)):
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidBid, AmountScale)
	case amount.GreaterThan(MaxAmount):
		return fmt.Errorf("%w: exceeds %s", ErrInvalidBid, MaxAmount)
	}
	return nil
}

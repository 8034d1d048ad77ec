package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are stored as NUMERIC(18,2)
const (
	amountScale  = 2
	amountDigits = 18
)

// maxAmount is the first value NUMERIC(18,2) cannot hold
var maxAmount = decimal.New(1, amountDigits-amountScale)

// checkAmount rejects amounts the store cannot hold exactly. The exponent is
// checked first so that absurd exponents never reach decimal arithmetic.
func checkAmount(field string, amount decimal.Decimal) error {
	exp := amount.Exponent()
	if exp < -amountScale {
		return fmt.Errorf("%w: %s must have at most %d decimal places", ErrBadRequest, field, amountScale)
	}
	if exp >= amountDigits-amountScale || amount.Abs().GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: %s must be below %s", ErrBadRequest, field, maxAmount)
	}
	return nil
}

// checkBalance rejects a resulting balance outside the stored range
func checkBalance(balance decimal.Decimal) error {
	if balance.Abs().GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: balance would exceed %s", ErrBadRequest, maxAmount)
	}
	return nil
}

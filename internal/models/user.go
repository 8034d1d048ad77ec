package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a ledger owner and their running balance
type User struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	PasswordHash   string          `json:"-"` // Not serialized
	CreatedAt      time.Time       `json:"created_at"`
}

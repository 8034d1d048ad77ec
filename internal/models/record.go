package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record represents a single income or expense entry of a user
type Record struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	CategoryID  *int64          `json:"category_id,omitempty"`
	Category    *Category       `json:"category,omitempty"` // Resolved on read
	Amount      decimal.Decimal `json:"amount"`
	IsExpense   bool            `json:"is_expense"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Signed returns the effect of the record on the owner's balance
func (r *Record) Signed() decimal.Decimal {
	if r.IsExpense {
		return r.Amount.Neg()
	}
	return r.Amount
}

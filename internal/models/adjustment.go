package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AdjustmentDeposit  = "deposit"
	AdjustmentWithdraw = "withdraw"
)

// Adjustment is a direct balance change made by a deposit or withdrawal.
// Amount is signed: withdrawals are stored negative.
type Adjustment struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Kind      string          `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}

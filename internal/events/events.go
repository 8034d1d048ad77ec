package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Event types published after a ledger change commits
const (
	TypeDeposit       = "deposit"
	TypeWithdraw      = "withdraw"
	TypeRecordCreated = "record.created"
)

// Event describes one committed change to a user's balance
type Event struct {
	Type       string          `json:"type"`
	UserID     int64           `json:"user_id"`
	RecordID   int64           `json:"record_id,omitempty"`
	// Amount is the signed balance change: negative for withdrawals and expenses
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// RoutingKey is the topic key the event is published under
func (e Event) RoutingKey() string {
	return "ledger." + e.Type
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers committed ledger events to interested parties
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop discards events; used when no broker is configured
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

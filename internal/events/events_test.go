package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRoutingKey(t *testing.T) {
	assert.Equal(t, "ledger.deposit", Event{Type: TypeDeposit}.RoutingKey())
	assert.Equal(t, "ledger.record.created", Event{Type: TypeRecordCreated}.RoutingKey())
}

func TestEventToJSON(t *testing.T) {
	e := Event{
		Type:       TypeRecordCreated,
		UserID:     3,
		RecordID:   9,
		Amount:     decimal.RequireFromString("12.50"),
		Balance:    decimal.RequireFromString("87.5"),
		OccurredAt: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}

	body, err := e.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "record.created", decoded["type"])
	assert.Equal(t, float64(9), decoded["record_id"])
	assert.Equal(t, "12.5", decoded["amount"])
	assert.Equal(t, "2026-10-15T09:00:00Z", decoded["occurred_at"])
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeWithdraw}))
}

func TestNewAMQPPublisherBadURL(t *testing.T) {
	_, err := NewAMQPPublisher("amqp://127.0.0.1:1/", "ledger", nil)
	assert.Error(t, err)
}

package email

import (
	"errors"
	"io"
	"net/smtp"
	"testing"
	"time"

	"github.com/Dan9191/finance-ledger/internal/config"
	"github.com/Dan9191/finance-ledger/internal/service"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSender(send func(e *email.Email, addr string, auth smtp.Auth) error) *Sender {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewSender(&config.Config{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "2525",
		SMTPUsername: "ledger",
		SMTPPassword: "pw",
		SenderEmail:  "ledger@example.com",
		AlertEmail:   "ops@example.com",
	}, log)
	s.send = send
	return s
}

var sample = []service.Discrepancy{{
	UserID:   4,
	Name:     "alice",
	Balance:  decimal.RequireFromString("120"),
	Expected: decimal.RequireFromString("100.5"),
}}

func TestSendReconciliationAlert(t *testing.T) {
	var (
		sent     *email.Email
		sentAddr string
		sentAuth smtp.Auth
	)
	s := testSender(func(e *email.Email, addr string, auth smtp.Auth) error {
		sent, sentAddr, sentAuth = e, addr, auth
		return nil
	})

	require.NoError(t, s.SendReconciliationAlert(sample))
	require.NotNil(t, sent)
	assert.Equal(t, "smtp.example.com:2525", sentAddr)
	assert.NotNil(t, sentAuth)
	assert.Equal(t, []string{"ops@example.com"}, sent.To)
	assert.Equal(t, "ledger@example.com", sent.From)
	assert.Equal(t, "Ledger reconciliation: 1 discrepancies", sent.Subject)
	assert.Contains(t, string(sent.Text), "User 4 (alice): stored 120.00, expected 100.50, difference 19.50")
}

func TestSendReconciliationAlertNothingToSend(t *testing.T) {
	called := false
	s := testSender(func(*email.Email, string, smtp.Auth) error {
		called = true
		return nil
	})

	require.NoError(t, s.SendReconciliationAlert(nil))
	assert.False(t, called)
}

func TestSendReconciliationAlertFailure(t *testing.T) {
	s := testSender(func(*email.Email, string, smtp.Auth) error {
		return errors.New("connection refused")
	})

	err := s.SendReconciliationAlert(sample)
	assert.ErrorContains(t, err, "connection refused")
}

func TestReconciliationBody(t *testing.T) {
	body := reconciliationBody(sample, time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC))
	assert.Contains(t, body, "2026-10-15 08:30:00")
	assert.Contains(t, body, "No balances were changed")
}

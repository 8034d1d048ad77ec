package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dan9191/finance-ledger/internal/config"
	"github.com/Dan9191/finance-ledger/internal/service"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendReconciliationAlert mails the operator a list of users whose balance
// does not match their records and adjustments
func (s *Sender) SendReconciliationAlert(found []service.Discrepancy) error {
	if len(found) == 0 {
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.AlertEmail}
	e.Subject = fmt.Sprintf("Ledger reconciliation: %d discrepancies", len(found))
	e.Text = []byte(reconciliationBody(found, time.Now()))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send reconciliation alert to %s: %v", s.cfg.AlertEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.AlertEmail, e.Subject)
	return nil
}

func reconciliationBody(found []service.Discrepancy, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reconciliation run at %s found balances that do not match the ledger.\n\n",
		at.Format("2006-01-02 15:04:05"))
	for _, d := range found {
		fmt.Fprintf(&b, "User %d (%s): stored %s, expected %s, difference %s\n",
			d.UserID, d.Name, d.Balance.StringFixed(2), d.Expected.StringFixed(2), d.Difference().StringFixed(2))
	}
	b.WriteString("\nNo balances were changed. Please investigate.\n")
	return b.String()
}

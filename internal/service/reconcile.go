package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Discrepancy is a user whose stored balance disagrees with their entries
type Discrepancy struct {
	UserID   int64           `json:"user_id"`
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	Expected decimal.Decimal `json:"expected"`
}

// Difference is stored minus expected
func (d Discrepancy) Difference() decimal.Decimal {
	return d.Balance.Sub(d.Expected)
}

// Reconcile checks every user's balance against opening balance plus records and adjustments
func (s *Service) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger totals: %w", err)
	}

	var found []Discrepancy
	for _, t := range totals {
		expected := t.Expected()
		if t.Balance.Equal(expected) {
			continue
		}
		d := Discrepancy{UserID: t.UserID, Name: t.Name, Balance: t.Balance, Expected: expected}
		s.log.WithFields(logrus.Fields{
			"user_id":  d.UserID,
			"balance":  d.Balance.String(),
			"expected": d.Expected.String(),
		}).Warn("Ledger discrepancy")
		found = append(found, d)
	}

	s.log.WithFields(logrus.Fields{
		"users":         len(totals),
		"discrepancies": len(found),
	}).Info("Ledger reconciled")
	return found, nil
}

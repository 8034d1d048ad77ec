package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/finance-ledger/internal/events"
	"github.com/Dan9191/finance-ledger/internal/models"
	"github.com/Dan9191/finance-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// GetUser returns a user with its current balance
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// Deposit adds a positive amount to the user's balance
func (s *Service) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (*models.User, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: deposit amount must be positive", ErrBadRequest)
	}
	if err := checkAmount("amount", amount); err != nil {
		return nil, err
	}
	return s.adjust(ctx, userID, amount, models.AdjustmentDeposit)
}

// Withdraw removes an amount from the user's balance if it is covered
func (s *Service) Withdraw(ctx context.Context, userID int64, amount decimal.Decimal) (*models.User, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", ErrBadRequest)
	}
	if err := checkAmount("amount", amount); err != nil {
		return nil, err
	}
	return s.adjust(ctx, userID, amount.Neg(), models.AdjustmentWithdraw)
}

// adjust applies a signed direct change and its adjustment row as one transaction
func (s *Service) adjust(ctx context.Context, userID int64, delta decimal.Decimal, kind string) (*models.User, error) {
	var user *models.User
	err := s.withRetry(ctx, kind, func() error {
		return s.repo.InTx(ctx, func(tx *repository.Tx) error {
			locked, err := tx.LockUser(ctx, userID)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			if err != nil {
				return err
			}

			balance := locked.Balance.Add(delta)
			if balance.IsNegative() {
				return ErrInsufficientFunds
			}
			if err := checkBalance(balance); err != nil {
				return err
			}
			if err := tx.UpdateBalance(ctx, userID, balance); err != nil {
				return err
			}
			if err := tx.InsertAdjustment(ctx, &models.Adjustment{UserID: userID, Amount: delta, Kind: kind}); err != nil {
				return err
			}

			locked.Balance = balance
			user = locked
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  delta.String(),
		"balance": user.Balance.String(),
	}).Infof("Balance %s committed", kind)

	s.publish(ctx, events.Event{
		Type:       kind,
		UserID:     userID,
		Amount:     delta,
		Balance:    user.Balance,
		OccurredAt: time.Now().UTC(),
	})
	return user, nil
}

// CreateRecord stores an income or expense record together with its balance effect
func (s *Service) CreateRecord(ctx context.Context, in models.Record) (*models.Record, error) {
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrBadRequest)
	}
	if err := checkAmount("amount", in.Amount); err != nil {
		return nil, err
	}

	var (
		record  *models.Record
		balance decimal.Decimal
	)
	err := s.withRetry(ctx, "create record", func() error {
		return s.repo.InTx(ctx, func(tx *repository.Tx) error {
			user, err := tx.LockUser(ctx, in.UserID)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			if err != nil {
				return err
			}

			if in.CategoryID != nil {
				ok, err := tx.CategoryExists(ctx, *in.CategoryID)
				if err != nil {
					return err
				}
				if !ok {
					return ErrCategoryNotFound
				}
			}

			if in.IsExpense && user.Balance.LessThan(in.Amount) {
				return ErrExpenseNotCovered
			}

			r := in
			r.ID = 0
			r.Category = nil
			r.CreatedAt = time.Time{}
			newBalance := user.Balance.Add(r.Signed())
			if err := checkBalance(newBalance); err != nil {
				return err
			}
			if err := tx.UpdateBalance(ctx, user.ID, newBalance); err != nil {
				return err
			}
			if err := tx.InsertRecord(ctx, &r); err != nil {
				return err
			}

			record = &r
			balance = newBalance
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"record_id":  record.ID,
		"user_id":    record.UserID,
		"amount":     record.Amount.String(),
		"is_expense": record.IsExpense,
		"balance":    balance.String(),
	}).Info("Record created")

	s.publish(ctx, events.Event{
		Type:       events.TypeRecordCreated,
		UserID:     record.UserID,
		RecordID:   record.ID,
		Amount:     record.Signed(),
		Balance:    balance,
		OccurredAt: record.CreatedAt,
	})
	return record, nil
}

// GetRecord returns a record with its category resolved
func (s *Service) GetRecord(ctx context.Context, recordID int64) (*models.Record, error) {
	record, err := s.repo.FindRecordByID(ctx, recordID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	return record, err
}

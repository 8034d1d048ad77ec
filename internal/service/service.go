package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/finance-ledger/internal/auth"
	"github.com/Dan9191/finance-ledger/internal/config"
	"github.com/Dan9191/finance-ledger/internal/events"
	"github.com/Dan9191/finance-ledger/internal/models"
	"github.com/Dan9191/finance-ledger/internal/repository"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBadRequest        = errors.New("bad request")
	ErrConflict          = errors.New("conflict")

	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrRecordNotFound   = fmt.Errorf("record %w", ErrNotFound)

	ErrExpenseNotCovered = fmt.Errorf("%w for expense", ErrInsufficientFunds)
	ErrNameTaken         = fmt.Errorf("name taken: %w", ErrConflict)
)

// Store is the persistence the service needs
type Store interface {
	InTx(ctx context.Context, fn func(tx *repository.Tx) error) error
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByName(ctx context.Context, name string) (*models.User, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	FindCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	FindRecordByID(ctx context.Context, id int64) (*models.Record, error)
	Totals(ctx context.Context) ([]repository.LedgerTotals, error)
}

// Service handles business logic
type Service struct {
	repo       Store
	tokens     *auth.Tokens
	publisher  events.Publisher
	log        *logrus.Logger
	maxRetries int
}

// NewService initializes a new service
func NewService(repo Store, tokens *auth.Tokens, publisher events.Publisher, log *logrus.Logger, cfg *config.Config) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	maxRetries := cfg.TxMaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Service{
		repo:       repo,
		tokens:     tokens,
		publisher:  publisher,
		log:        log,
		maxRetries: maxRetries,
	}
}

// withRetry reruns a whole validate-and-commit unit when the store reports a conflict
func (s *Service) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err = fn(); !errors.Is(err, repository.ErrConflict) {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt,
		}).Warnf("Transaction conflict: %v", err)
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
}

// publish hands a committed change to the publisher; failures never undo the commit
func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.WithFields(logrus.Fields{
			"type":    e.Type,
			"user_id": e.UserID,
		}).Errorf("Failed to publish ledger event: %v", err)
	}
}

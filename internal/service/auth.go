package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dan9191/finance-ledger/internal/models"
	"github.com/Dan9191/finance-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a new user and returns it with a bearer token
func (s *Service) Register(ctx context.Context, name, password string, openingBalance decimal.Decimal) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("%w: name is required", ErrBadRequest)
	}
	if openingBalance.IsNegative() {
		return nil, "", fmt.Errorf("%w: opening balance must not be negative", ErrBadRequest)
	}
	if err := checkAmount("opening balance", openingBalance); err != nil {
		return nil, "", err
	}

	user := &models.User{
		Name:           name,
		Balance:        openingBalance,
		OpeningBalance: openingBalance,
	}
	if password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrNameTaken
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "name": user.Name}).Info("User registered")
	return user, token, nil
}

// Login authenticates a user by name (and password, if one was set) and returns a token
func (s *Service) Login(ctx context.Context, name, password string) (string, error) {
	user, err := s.repo.FindUserByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err != nil {
		return "", err
	}

	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}

	s.log.WithField("user_id", user.ID).Info("User logged in")
	return token, nil
}

// Authenticate resolves a bearer token to a user id
func (s *Service) Authenticate(token string) (int64, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return userID, nil
}

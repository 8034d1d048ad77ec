package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dan9191/finance-ledger/internal/models"
	"github.com/Dan9191/finance-ledger/internal/repository"
)

// CreateCategory adds a new category label
func (s *Service) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrBadRequest)
	}

	category := &models.Category{Name: name}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.log.WithField("category_id", category.ID).Infof("Category created: %s", category.Name)
	return category, nil
}

// GetCategory returns a category by id
func (s *Service) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	return category, err
}

// DeleteCategory removes a category. Records that used it stay, uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	err := s.repo.DeleteCategory(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return err
	}

	s.log.WithField("category_id", id).Info("Category deleted")
	return nil
}

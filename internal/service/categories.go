package service

import (
	"context"
	"errors"
	"strings"

	"github.com/marric/gelt/internal/database/repository"
)

var (
	ErrCategoryNotFound = errors.New("Category not found")
	ErrSystemCategory   = errors.New("System categories are read-only")
	ErrBadCategoryKind  = errors.New("Category kind must be expense or income")
)

// CategoryService manages spending and income categories.
type CategoryService struct {
	Categories *repository.CategoryRepo
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name  string
	Kind  string
	Color *string
}

// CategoryPatch updates the fields that are non-nil.
type CategoryPatch struct {
	Name  *string
	Kind  *string
	Color *string
}

func (s *CategoryService) Create(ctx context.Context, userID int64, in CategoryInput) (*repository.Category, error) {
	if in.Kind != "expense" && in.Kind != "income" {
		return nil, ErrBadCategoryKind
	}
	id, err := s.Categories.Create(ctx, repository.Category{
		UserID: userID,
		Name:     strings.TrimSpace(in.Name),
		Kind:     in.Kind,
		Color:    in.Color,
		IsSystem: false,
	})
	if err != nil {
		return nil, err
	}
	return s.Categories.Get(ctx, userID, id)
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (*repository.Category, error) {
	category, err := s.Categories.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// List returns the user's categories, optionally filtered by kind.
func (s *CategoryService) List(ctx context.Context, userID int64, kind string) ([]repository.Category, error) {
	return s.Categories.List(ctx, userID, kind)
}

func (s *CategoryService) Update(ctx context.Context, userID, id int64, patch CategoryPatch) (*repository.Category, error) {
	category, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if category.IsSystem {
		return nil, ErrSystemCategory
	}
	if patch.Name != nil {
		category.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Kind != nil {
		if *patch.Kind != "expense" && *patch.Kind != "income" {
			return nil, ErrBadCategoryKind
		}
		category.Kind = *patch.Kind
	}
	if patch.Color != nil {
		category.Color = patch.Color
	}
	if err := s.Categories.Update(ctx, *category); err != nil {
		return nil, err
	}
	return s.Categories.Get(ctx, userID, id)
}

func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	category, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if category.IsSystem {
		return ErrSystemCategory
	}
	deleted, err := s.Categories.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCategoryNotFound
	}
	return nil
}

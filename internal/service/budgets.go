package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/marric/gelt/internal/database"
	"github.com/marric/gelt/internal/database/repository"
)

var (
	ErrBudgetNotFound = errors.New("Budget not found")
	ErrNoBudgetItems  = errors.New("Budget items required")
	ErrBadBudgetItem  = errors.New("Invalid category id")
)

// BudgetService manages monthly budgets and their per-category limits.
// Budget and item writes share one transaction so a failed item never
// leaves a half-written budget behind.
type BudgetService struct {
	DB         *sql.DB
	Budgets    *repository.BudgetRepo
	Categories *repository.CategoryRepo
}

// BudgetItemInput pins a spending limit to a category.
type BudgetItemInput struct {
	CategoryID  int64
	LimitAmount float64
}

// BudgetInput carries the writable budget fields.
type BudgetInput struct {
	Name     string
	Month    time.Time
	Currency string
	Items    []BudgetItemInput
}

// BudgetPatch updates the fields that are non-nil. A nil Items leaves
// the item set untouched; a non-nil Items replaces it wholesale.
type BudgetPatch struct {
	Name     *string
	Month    *time.Time
	Currency *string
	Items    []BudgetItemInput
}

func (s *BudgetService) Create(ctx context.Context, userID int64, in BudgetInput) (*repository.Budget, error) {
	if err := s.validateItems(ctx, userID, in.Items); err != nil {
		return nil, err
	}
	var id int64
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		id, err = s.Budgets.InsertTx(ctx, tx, repository.Budget{
			UserID:   userID,
			Name:     strings.TrimSpace(in.Name),
			Month:    monthStart(in.Month),
			Currency: strings.ToUpper(strings.TrimSpace(in.Currency)),
		})
		if err != nil {
			return err
		}
		return s.Budgets.ReplaceItemsTx(ctx, tx, id, budgetItems(id, in.Items))
	})
	if err != nil {
		return nil, err
	}
	return s.Budgets.Get(ctx, userID, id)
}

func (s *BudgetService) Get(ctx context.Context, userID, id int64) (*repository.Budget, error) {
	budget, err := s.Budgets.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, ErrBudgetNotFound
	}
	return budget, nil
}

// List returns budgets newest month first. A non-zero month narrows to
// budgets for that month.
func (s *BudgetService) List(ctx context.Context, userID int64, month time.Time) ([]repository.Budget, error) {
	if !month.IsZero() {
		month = monthStart(month)
	}
	return s.Budgets.List(ctx, userID, month)
}

func (s *BudgetService) Update(ctx context.Context, userID, id int64, patch BudgetPatch) (*repository.Budget, error) {
	budget, err := s.Budgets.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, ErrBudgetNotFound
	}
	if patch.Name != nil {
		budget.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Month != nil {
		budget.Month = monthStart(*patch.Month)
	}
	if patch.Currency != nil {
		budget.Currency = strings.ToUpper(strings.TrimSpace(*patch.Currency))
	}
	if patch.Items != nil {
		if err := s.validateItems(ctx, userID, patch.Items); err != nil {
			return nil, err
		}
	}
	err = database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.Budgets.UpdateTx(ctx, tx, *budget); err != nil {
			return err
		}
		if patch.Items == nil {
			return nil
		}
		return s.Budgets.ReplaceItemsTx(ctx, tx, id, budgetItems(id, patch.Items))
	})
	if err != nil {
		return nil, err
	}
	return s.Budgets.Get(ctx, userID, id)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	deleted, err := s.Budgets.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrBudgetNotFound
	}
	return nil
}

// validateItems requires at least one item and that every referenced
// category belongs to the user. Duplicate category ids are allowed
// here; the item write collapses them to the last limit.
func (s *BudgetService) validateItems(ctx context.Context, userID int64, items []BudgetItemInput) error {
	if len(items) == 0 {
		return ErrNoBudgetItems
	}
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if seen[it.CategoryID] {
			continue
		}
		seen[it.CategoryID] = true
		category, err := s.Categories.Get(ctx, userID, it.CategoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return ErrBadBudgetItem
		}
	}
	return nil
}

func budgetItems(budgetID int64, in []BudgetItemInput) []repository.BudgetItem {
	items := make([]repository.BudgetItem, 0, len(in))
	for _, it := range in {
		items = append(items, repository.BudgetItem{
			BudgetID:    budgetID,
			CategoryID:  it.CategoryID,
			LimitAmount: it.LimitAmount,
		})
	}
	return items
}

// monthStart floors a date to the first of its month so budgets for
// the same month always compare equal.
func monthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

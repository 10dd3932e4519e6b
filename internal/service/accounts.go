// Package service implements the application operations on top of the
// repositories: account and category management, the transaction
// ledger, rules, recurring payments, budgets, debts, goals, crypto
// valuation and the reporting aggregates.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/marric/gelt/internal/database/repository"
)

var (
	ErrAccountNotFound   = errors.New("Account not found")
	ErrManualInstitution = errors.New("Manual accounts cannot be linked to an institution")
)

// AccountService manages accounts.
type AccountService struct {
	Accounts *repository.AccountRepo
}

// AccountInput carries the writable account fields.
type AccountInput struct {
	InstitutionID *int64
	ExternalID    *string
	Name          string
	AccountType   string
	Currency      string
	Balance       *float64
	IsManual      bool
}

// AccountPatch updates the fields that are non-nil.
type AccountPatch struct {
	InstitutionID *int64
	Name          *string
	AccountType   *string
	Currency      *string
	Balance       *float64
	IsManual      *bool
}

func (s *AccountService) Create(ctx context.Context, userID int64, in AccountInput) (*repository.Account, error) {
	if in.IsManual && in.InstitutionID != nil {
		return nil, ErrManualInstitution
	}
	id, err := s.Accounts.Create(ctx, repository.Account{
		UserID:        userID,
		InstitutionID: in.InstitutionID,
		ExternalID:    in.ExternalID,
		Name:          strings.TrimSpace(in.Name),
		AccountType:   in.AccountType,
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		Balance:       in.Balance,
		IsManual:      in.IsManual,
	})
	if err != nil {
		return nil, err
	}
	return s.Accounts.Get(ctx, userID, id)
}

func (s *AccountService) Get(ctx context.Context, userID, id int64) (*repository.Account, error) {
	account, err := s.Accounts.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context, userID int64) ([]repository.Account, error) {
	return s.Accounts.List(ctx, userID)
}

func (s *AccountService) Update(ctx context.Context, userID, id int64, patch AccountPatch) (*repository.Account, error) {
	account, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.InstitutionID != nil {
		account.InstitutionID = patch.InstitutionID
	}
	if patch.Name != nil {
		account.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.AccountType != nil {
		account.AccountType = *patch.AccountType
	}
	if patch.Currency != nil {
		account.Currency = strings.ToUpper(strings.TrimSpace(*patch.Currency))
	}
	if patch.Balance != nil {
		account.Balance = patch.Balance
	}
	if patch.IsManual != nil {
		account.IsManual = *patch.IsManual
	}
	if account.IsManual && account.InstitutionID != nil {
		return nil, ErrManualInstitution
	}
	if err := s.Accounts.Update(ctx, *account); err != nil {
		return nil, err
	}
	return s.Accounts.Get(ctx, userID, id)
}

func (s *AccountService) Delete(ctx context.Context, userID, id int64) error {
	deleted, err := s.Accounts.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAccountNotFound
	}
	return nil
}

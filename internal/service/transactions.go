package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/marric/gelt/internal/database/repository"
	"github.com/marric/gelt/internal/rules"
)

var (
	ErrTransactionNotFound = errors.New("Transaction not found")
	ErrLinkedOnManual      = errors.New("Linked transactions cannot target manual accounts")
	ErrBadDateRange        = errors.New("start_date must be before or equal to end_date")
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// TransactionService manages the ledger. Creating an uncategorized
// transaction consults the rule matcher.
type TransactionService struct {
	Transactions *repository.TransactionRepo
	Accounts     *repository.AccountRepo
	Matcher      *rules.Matcher
}

// TransactionInput carries the writable transaction fields.
type TransactionInput struct {
	AccountID   int64
	CategoryID  *int64
	ExternalID  *string
	Description string
	Note        *string
	Currency    string
	Amount      float64
	OccurredAt  time.Time
	IsManual    bool
}

// TransactionPatch updates the fields that are non-nil.
type TransactionPatch struct {
	AccountID   *int64
	CategoryID  *int64
	Description *string
	Note        *string
	Currency    *string
	Amount      *float64
	OccurredAt  *time.Time
}

func (s *TransactionService) Create(ctx context.Context, userID int64, in TransactionInput) (*repository.Transaction, error) {
	account, err := s.Accounts.Get(ctx, userID, in.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if !in.IsManual && account.IsManual {
		return nil, ErrLinkedOnManual
	}

	categoryID := in.CategoryID
	if categoryID == nil && s.Matcher != nil {
		note := ""
		if in.Note != nil {
			note = *in.Note
		}
		categoryID, err = s.Matcher.Match(ctx, userID, in.Description, note, in.Amount)
		if err != nil {
			return nil, err
		}
	}

	id, err := s.Transactions.Insert(ctx, repository.Transaction{
		UserID:      userID,
		AccountID:   in.AccountID,
		CategoryID:  categoryID,
		ExternalID:  in.ExternalID,
		Description: strings.TrimSpace(in.Description),
		Note:        in.Note,
		Currency:    strings.ToUpper(strings.TrimSpace(in.Currency)),
		Amount:      in.Amount,
		OccurredAt:  in.OccurredAt.UTC(),
		IsManual:    in.IsManual,
	})
	if err != nil {
		return nil, err
	}
	return s.Transactions.Get(ctx, userID, id)
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (*repository.Transaction, error) {
	t, err := s.Transactions.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

// List applies the filters with the limit clamped to 1..200.
func (s *TransactionService) List(ctx context.Context, userID int64, f repository.TransactionFilters) ([]repository.Transaction, error) {
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return nil, ErrBadDateRange
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.Transactions.List(ctx, userID, f)
}

func (s *TransactionService) Update(ctx context.Context, userID, id int64, patch TransactionPatch) (*repository.Transaction, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.AccountID != nil {
		account, err := s.Accounts.Get(ctx, userID, *patch.AccountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, ErrAccountNotFound
		}
		if !t.IsManual && account.IsManual {
			return nil, ErrLinkedOnManual
		}
		t.AccountID = *patch.AccountID
	}
	if patch.CategoryID != nil {
		t.CategoryID = patch.CategoryID
	}
	if patch.Description != nil {
		t.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Note != nil {
		t.Note = patch.Note
	}
	if patch.Currency != nil {
		t.Currency = strings.ToUpper(strings.TrimSpace(*patch.Currency))
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.OccurredAt != nil {
		occurred := patch.OccurredAt.UTC()
		t.OccurredAt = occurred
	}
	if err := s.Transactions.Update(ctx, *t); err != nil {
		return nil, err
	}
	return s.Transactions.Get(ctx, userID, id)
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	deleted, err := s.Transactions.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTransactionNotFound
	}
	return nil
}

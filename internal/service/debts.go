package service

import (
	"context"
	"errors"
	"strings"

	"github.com/marric/gelt/internal/database/repository"
)

var ErrDebtNotFound = errors.New("Debt not found")

// payoffMonthCap stops the amortization loop when the minimum payment
// cannot cover the accruing interest.
const payoffMonthCap = 1200

// DebtService manages tracked debts and projects their payoff.
type DebtService struct {
	Debts *repository.DebtRepo
}

// DebtInput carries the writable debt fields.
type DebtInput struct {
	Name         string
	Currency     string
	Balance      float64
	InterestRate *float64
	MinPayment   *float64
	DueDay       *int
}

// DebtPatch updates the fields that are non-nil.
type DebtPatch struct {
	Name         *string
	Currency     *string
	Balance      *float64
	InterestRate *float64
	MinPayment   *float64
	DueDay       *int
}

// Payoff projects paying a debt down with its minimum payment. A nil
// MonthsToPayoff means the debt is never cleared at that payment.
type Payoff struct {
	MonthsToPayoff    *int
	TotalInterestPaid float64
	MonthlyPayment    *float64
}

func (s *DebtService) Create(ctx context.Context, userID int64, in DebtInput) (*repository.Debt, error) {
	id, err := s.Debts.Create(ctx, repository.Debt{
		UserID:       userID,
		Name:         strings.TrimSpace(in.Name),
		Currency:     strings.ToUpper(strings.TrimSpace(in.Currency)),
		Balance:      in.Balance,
		InterestRate: in.InterestRate,
		MinPayment:   in.MinPayment,
		DueDay:       in.DueDay,
	})
	if err != nil {
		return nil, err
	}
	return s.Debts.Get(ctx, userID, id)
}

func (s *DebtService) Get(ctx context.Context, userID, id int64) (*repository.Debt, error) {
	debt, err := s.Debts.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return nil, ErrDebtNotFound
	}
	return debt, nil
}

func (s *DebtService) List(ctx context.Context, userID int64) ([]repository.Debt, error) {
	return s.Debts.List(ctx, userID)
}

func (s *DebtService) Update(ctx context.Context, userID, id int64, patch DebtPatch) (*repository.Debt, error) {
	debt, err := s.Debts.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return nil, ErrDebtNotFound
	}
	if patch.Name != nil {
		debt.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Currency != nil {
		debt.Currency = strings.ToUpper(strings.TrimSpace(*patch.Currency))
	}
	if patch.Balance != nil {
		debt.Balance = *patch.Balance
	}
	if patch.InterestRate != nil {
		debt.InterestRate = patch.InterestRate
	}
	if patch.MinPayment != nil {
		debt.MinPayment = patch.MinPayment
	}
	if patch.DueDay != nil {
		debt.DueDay = patch.DueDay
	}
	if err := s.Debts.Update(ctx, *debt); err != nil {
		return nil, err
	}
	return s.Debts.Get(ctx, userID, id)
}

func (s *DebtService) Delete(ctx context.Context, userID, id int64) error {
	deleted, err := s.Debts.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrDebtNotFound
	}
	return nil
}

// PayoffProjection amortizes the debt at its minimum payment.
func (s *DebtService) PayoffProjection(ctx context.Context, userID, id int64) (*Payoff, error) {
	debt, err := s.Debts.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return nil, ErrDebtNotFound
	}
	payoff := calculatePayoff(debt.Balance, debt.InterestRate, debt.MinPayment)
	return &payoff, nil
}

func calculatePayoff(balance float64, interestRate, minPayment *float64) Payoff {
	if balance <= 0 {
		months := 0
		return Payoff{MonthsToPayoff: &months, MonthlyPayment: minPayment}
	}
	if minPayment == nil || *minPayment <= 0 {
		return Payoff{MonthlyPayment: minPayment}
	}
	if interestRate == nil || *interestRate == 0 {
		months := int((balance + *minPayment - 1) / *minPayment)
		return Payoff{MonthsToPayoff: &months, MonthlyPayment: minPayment}
	}

	monthlyRate := (*interestRate / 100) / 12
	months := 0
	totalInterest := 0.0
	remaining := balance
	for remaining > 0 && months < payoffMonthCap {
		interest := remaining * monthlyRate
		totalInterest += interest
		remaining = remaining + interest - *minPayment
		months++
		if remaining < 0 {
			remaining = 0
		}
	}
	if months >= payoffMonthCap {
		return Payoff{TotalInterestPaid: totalInterest, MonthlyPayment: minPayment}
	}
	return Payoff{MonthsToPayoff: &months, TotalInterestPaid: totalInterest, MonthlyPayment: minPayment}
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/marric/gelt/internal/database/repository"
)

var ErrBadDueAlert = errors.New("due_alert_days must be between 0 and 30")

const defaultDueAlertDays = 3

// DashboardService aggregates the figures for the overview screen.
type DashboardService struct {
	Transactions *repository.TransactionRepo
	Accounts     *repository.AccountRepo
	Debts        *repository.DebtRepo
	Crypto       *repository.CryptoRepo
	Budgets      *repository.BudgetRepo
	Recurring    *repository.RecurringRepo
}

// SummaryParams narrows the summary window. Zero values fall back to
// the current month, EUR and a three day due alert.
type SummaryParams struct {
	StartDate    *time.Time
	EndDate      *time.Time
	BudgetMonth  *time.Time
	Currency     string
	DueAlertDays *int
}

// Cashflow totals money in and out over the window. Outflow is a
// positive number.
type Cashflow struct {
	Inflow  float64
	Outflow float64
	Net     float64
}

// NetWorth is account balances plus crypto value minus debt.
type NetWorth struct {
	AccountsTotal float64
	DebtsTotal    float64
	CryptoTotal   float64
	Total         float64
	Currency      string
}

// BudgetItemStatus compares a category limit against what was spent
// in the budget month.
type BudgetItemStatus struct {
	CategoryID  int64
	LimitAmount float64
	Spent       float64
}

// BudgetStatus is one budget with per-category spending progress.
type BudgetStatus struct {
	ID       int64
	Name     string
	Month    time.Time
	Currency string
	Items    []BudgetItemStatus
}

// UpcomingPayment is an active recurring payment due soon.
type UpcomingPayment struct {
	ID           int64
	Name         string
	Amount       float64
	Currency     string
	Kind         string
	Frequency    string
	NextDueDate  time.Time
	DaysUntilDue int
}

// Summary is the dashboard payload.
type Summary struct {
	Cashflow          Cashflow
	SpendByCategory   []repository.CategorySpend
	NetWorth          NetWorth
	Budgets           []BudgetStatus
	UpcomingRecurring []UpcomingPayment
}

// Summary builds the overview for the window. When either bound is
// missing both fall back to the current month.
func (s *DashboardService) Summary(ctx context.Context, userID int64, params SummaryParams) (*Summary, error) {
	todayDate := today()
	start, end := monthBounds(todayDate)
	if params.StartDate != nil && params.EndDate != nil {
		start, end = params.StartDate.UTC(), params.EndDate.UTC()
	}
	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = defaultQuoteCurrency
	}
	dueAlertDays := defaultDueAlertDays
	if params.DueAlertDays != nil {
		if *params.DueAlertDays < 0 || *params.DueAlertDays > 30 {
			return nil, ErrBadDueAlert
		}
		dueAlertDays = *params.DueAlertDays
	}

	inflow, outflow, err := s.Transactions.CashflowTotals(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	spend, err := s.Transactions.SpendByCategory(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if spend == nil {
		spend = []repository.CategorySpend{}
	}

	netWorth, err := s.netWorth(ctx, userID, currency)
	if err != nil {
		return nil, err
	}

	budgetMonth := monthStart(todayDate)
	if params.BudgetMonth != nil {
		budgetMonth = monthStart(*params.BudgetMonth)
	}
	budgets, err := s.budgetStatuses(ctx, userID, budgetMonth)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.upcomingPayments(ctx, userID, todayDate, dueAlertDays)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Cashflow:          Cashflow{Inflow: inflow, Outflow: outflow, Net: inflow - outflow},
		SpendByCategory:   spend,
		NetWorth:          *netWorth,
		Budgets:           budgets,
		UpcomingRecurring: upcoming,
	}, nil
}

func (s *DashboardService) netWorth(ctx context.Context, userID int64, currency string) (*NetWorth, error) {
	accountsTotal, err := s.Accounts.TotalBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	debtsTotal, err := s.Debts.TotalBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	holdings, err := s.Crypto.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	cryptoTotal := 0.0
	for _, h := range holdings {
		quote, err := s.Crypto.GetPrice(ctx, h.Symbol, currency)
		if err != nil {
			return nil, err
		}
		if quote != nil {
			cryptoTotal += h.Quantity * quote.Price
		}
	}
	return &NetWorth{
		AccountsTotal: accountsTotal,
		DebtsTotal:    debtsTotal,
		CryptoTotal:   cryptoTotal,
		Total:         accountsTotal + cryptoTotal - debtsTotal,
		Currency:      currency,
	}, nil
}

func (s *DashboardService) budgetStatuses(ctx context.Context, userID int64, month time.Time) ([]BudgetStatus, error) {
	budgets, err := s.Budgets.List(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	start, end := monthBounds(month)
	spend, err := s.Transactions.SpendByCategory(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	spentByCategory := make(map[int64]float64, len(spend))
	for _, cs := range spend {
		if cs.CategoryID != nil {
			spentByCategory[*cs.CategoryID] = cs.Amount
		}
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, budget := range budgets {
		items := make([]BudgetItemStatus, 0, len(budget.Items))
		for _, item := range budget.Items {
			items = append(items, BudgetItemStatus{
				CategoryID:  item.CategoryID,
				LimitAmount: item.LimitAmount,
				Spent:       spentByCategory[item.CategoryID],
			})
		}
		statuses = append(statuses, BudgetStatus{
			ID:       budget.ID,
			Name:     budget.Name,
			Month:    budget.Month,
			Currency: budget.Currency,
			Items:    items,
		})
	}
	return statuses, nil
}

func (s *DashboardService) upcomingPayments(ctx context.Context, userID int64, todayDate time.Time, dueAlertDays int) ([]UpcomingPayment, error) {
	payments, err := s.Recurring.List(ctx, userID, false, todayDate, todayDate.AddDate(0, 0, dueAlertDays))
	if err != nil {
		return nil, err
	}
	upcoming := make([]UpcomingPayment, 0, len(payments))
	for _, p := range payments {
		upcoming = append(upcoming, UpcomingPayment{
			ID:           p.ID,
			Name:         p.Name,
			Amount:       p.Amount,
			Currency:     p.Currency,
			Kind:         p.Kind,
			Frequency:    p.Frequency,
			NextDueDate:  p.NextDueDate,
			DaysUntilDue: int(dateOnly(p.NextDueDate).Sub(todayDate).Hours() / 24),
		})
	}
	return upcoming, nil
}

// monthBounds returns [first of month, first of next month).
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := monthStart(t)
	return start, start.AddDate(0, 1, 0)
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marric/gelt/internal/database"
	"github.com/marric/gelt/internal/database/repository"
)

func TestDashboardSummaryDefaults(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)

	accountID, err := env.accountRepo.Create(ctx, repository.Account{
		UserID:      env.userID,
		Name:        "Checking",
		AccountType: "checking",
		Currency:    "EUR",
		Balance:     1200.50,
		IsManual:    true,
	})
	require.NoError(t, err)

	groceriesID := env.seedCategory(t, ctx, "Groceries Run", "expense")
	coffeeID := env.seedCategory(t, ctx, "Coffee", "expense")
	salary := env.systemCategory(t, ctx, "income")

	now := time.Now().UTC()
	env.seedTransaction(t, ctx, accountID, &groceriesID, "MARKET", -120.50, now)
	env.seedTransaction(t, ctx, accountID, &coffeeID, "CAFE", -45, now)
	env.seedTransaction(t, ctx, accountID, &salary.ID, "EMPLOYER", 3000, now)

	_, err = env.debts.Create(ctx, env.userID, DebtInput{Name: "Card", Currency: "EUR", Balance: 300})
	require.NoError(t, err)

	_, err = env.cryptoRepo.Create(ctx, repository.CryptoHolding{
		UserID: env.userID, Symbol: "BTC", Name: "BTC", Quantity: 0.5, Source: "manual",
	})
	require.NoError(t, err)
	require.NoError(t, env.cryptoRepo.UpsertPrice(ctx, repository.PriceQuote{
		Symbol: "BTC", Currency: "EUR", Price: 40000, AsOf: database.Now(),
	}))

	_, err = env.budgets.Create(ctx, env.userID, BudgetInput{
		Name:     "Monthly",
		Month:    now,
		Currency: "EUR",
		Items:    []BudgetItemInput{{CategoryID: groceriesID, LimitAmount: 300}},
	})
	require.NoError(t, err)

	env.seedRecurring(t, ctx, accountID, RecurringInput{
		Name: "Rent", Currency: "EUR", Amount: 800, Kind: "expense",
		Frequency: "monthly", Interval: 1, NextDueDate: today().AddDate(0, 0, 1), IsActive: true,
	})
	env.seedRecurring(t, ctx, accountID, RecurringInput{
		Name: "Insurance", Currency: "EUR", Amount: 60, Kind: "expense",
		Frequency: "monthly", Interval: 1, NextDueDate: today().AddDate(0, 0, 10), IsActive: true,
	})
	env.seedRecurring(t, ctx, accountID, RecurringInput{
		Name: "Old Gym", Currency: "EUR", Amount: 25, Kind: "expense",
		Frequency: "monthly", Interval: 1, NextDueDate: today(), IsActive: false,
	})

	summary, err := env.dashboard.Summary(ctx, env.userID, SummaryParams{})
	require.NoError(t, err)

	require.InDelta(t, 3000, summary.Cashflow.Inflow, 0.001)
	require.InDelta(t, 165.50, summary.Cashflow.Outflow, 0.001)
	require.InDelta(t, 2834.50, summary.Cashflow.Net, 0.001)

	require.Len(t, summary.SpendByCategory, 2, "income rows stay out of the spend breakdown")
	require.Equal(t, groceriesID, *summary.SpendByCategory[0].CategoryID, "largest spend first")
	require.InDelta(t, 120.50, summary.SpendByCategory[0].Amount, 0.001)
	require.Equal(t, coffeeID, *summary.SpendByCategory[1].CategoryID)
	require.InDelta(t, 45, summary.SpendByCategory[1].Amount, 0.001)

	require.Equal(t, "EUR", summary.NetWorth.Currency)
	require.InDelta(t, 1200.50, summary.NetWorth.AccountsTotal, 0.001)
	require.InDelta(t, 300, summary.NetWorth.DebtsTotal, 0.001)
	require.InDelta(t, 20000, summary.NetWorth.CryptoTotal, 0.001, "half a coin at the cached quote")
	require.InDelta(t, 20900.50, summary.NetWorth.Total, 0.001)

	require.Len(t, summary.Budgets, 1)
	require.Equal(t, "Monthly", summary.Budgets[0].Name)
	require.Len(t, summary.Budgets[0].Items, 1)
	require.Equal(t, groceriesID, summary.Budgets[0].Items[0].CategoryID)
	require.InDelta(t, 300, summary.Budgets[0].Items[0].LimitAmount, 0.001)
	require.InDelta(t, 120.50, summary.Budgets[0].Items[0].Spent, 0.001)

	require.Len(t, summary.UpcomingRecurring, 1, "only active payments inside the alert window")
	require.Equal(t, "Rent", summary.UpcomingRecurring[0].Name)
	require.Equal(t, 1, summary.UpcomingRecurring[0].DaysUntilDue)
}

func TestDashboardSummaryWindowOverride(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	accountID := env.seedAccount(t, ctx, "Checking")
	catID := env.seedCategory(t, ctx, "Hotels", "expense")

	march := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	env.seedTransaction(t, ctx, accountID, &catID, "HOTEL BLOOM", -200, march)
	env.seedTransaction(t, ctx, accountID, &catID, "SNACK", -10, time.Now().UTC())

	byDefault, err := env.dashboard.Summary(ctx, env.userID, SummaryParams{})
	require.NoError(t, err)
	require.InDelta(t, 10, byDefault.Cashflow.Outflow, 0.001, "default window is the current month")

	windowed, err := env.dashboard.Summary(ctx, env.userID, SummaryParams{
		StartDate: timePtr(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:   timePtr(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	require.InDelta(t, 200, windowed.Cashflow.Outflow, 0.001)
	require.Len(t, windowed.SpendByCategory, 1)
	require.Equal(t, "Hotels", windowed.SpendByCategory[0].Name)

	// One bound alone is ignored and the month default applies.
	halfOpen, err := env.dashboard.Summary(ctx, env.userID, SummaryParams{
		StartDate: timePtr(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	require.InDelta(t, 10, halfOpen.Cashflow.Outflow, 0.001)
}

func TestDashboardSummaryDueAlertBounds(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	accountID := env.seedAccount(t, ctx, "Checking")

	env.seedRecurring(t, ctx, accountID, RecurringInput{
		Name: "Rent", Currency: "EUR", Amount: 800, Kind: "expense",
		Frequency: "monthly", Interval: 1, NextDueDate: today(), IsActive: true,
	})
	env.seedRecurring(t, ctx, accountID, RecurringInput{
		Name: "Gym", Currency: "EUR", Amount: 25, Kind: "expense",
		Frequency: "monthly", Interval: 1, NextDueDate: today().AddDate(0, 0, 1), IsActive: true,
	})

	for _, bad := range []int{-1, 31} {
		_, err := env.dashboard.Summary(ctx, env.userID, SummaryParams{DueAlertDays: intPtr(bad)})
		require.ErrorIs(t, err, ErrBadDueAlert)
	}

	summary, err := env.dashboard.Summary(ctx, env.userID, SummaryParams{DueAlertDays: intPtr(0)})
	require.NoError(t, err)
	require.Len(t, summary.UpcomingRecurring, 1, "a zero window alerts on today only")
	require.Equal(t, "Rent", summary.UpcomingRecurring[0].Name)
	require.Equal(t, 0, summary.UpcomingRecurring[0].DaysUntilDue)
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marric/gelt/internal/database/repository"
)

func TestTransactionCreateGuardsManualAccounts(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	manualID := env.seedAccount(t, ctx, "Cash Wallet")

	_, err := env.transactions.Create(ctx, env.userID, TransactionInput{
		AccountID:   manualID,
		Description: "Imported row",
		Currency:    "EUR",
		Amount:      -5,
		OccurredAt:  time.Now(),
	})
	require.ErrorIs(t, err, ErrLinkedOnManual)

	created, err := env.transactions.Create(ctx, env.userID, TransactionInput{
		AccountID:   manualID,
		Description: "Pocket money",
		Currency:    "eur",
		Amount:      -5,
		OccurredAt:  time.Now(),
		IsManual:    true,
	})
	require.NoError(t, err)
	require.Equal(t, "EUR", created.Currency)
	require.True(t, created.IsManual)
}

func TestTransactionCreateAppliesRuleMatcher(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	accountID := env.seedAccount(t, ctx, "Checking")
	groceries := env.seedCategory(t, ctx, "Groceries Extra", "expense")

	_, err := env.ruleSvc.Create(ctx, env.userID, RuleInput{
		CategoryID:    groceries,
		Pattern:       "lidl",
		MatchType:     "contains",
		AppliesToKind: "expense",
		Priority:      10,
		IsActive:      true,
	})
	require.NoError(t, err)

	matched, err := env.transactions.Create(ctx, env.userID, TransactionInput{
		AccountID:   accountID,
		Description: "LIDL City Market",
		Currency:    "EUR",
		Amount:      -23.10,
		OccurredAt:  time.Now(),
		IsManual:    true,
	})
	require.NoError(t, err)
	require.NotNil(t, matched.CategoryID)
	require.Equal(t, groceries, *matched.CategoryID)

	// An expense rule never fires on income.
	income, err := env.transactions.Create(ctx, env.userID, TransactionInput{
		AccountID:   accountID,
		Description: "LIDL refund",
		Currency:    "EUR",
		Amount:      23.10,
		OccurredAt:  time.Now(),
		IsManual:    true,
	})
	require.NoError(t, err)
	require.Nil(t, income.CategoryID)

	// An explicit category wins over the matcher.
	dining := env.seedCategory(t, ctx, "Dining Out", "expense")
	explicit, err := env.transactions.Create(ctx, env.userID, TransactionInput{
		AccountID:   accountID,
		CategoryID:  &dining,
		Description: "LIDL bakery counter",
		Currency:    "EUR",
		Amount:      -4.50,
		OccurredAt:  time.Now(),
		IsManual:    true,
	})
	require.NoError(t, err)
	require.Equal(t, dining, *explicit.CategoryID)
}

func TestTransactionListFilters(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	checking := env.seedAccount(t, ctx, "Checking")
	savings := env.seedAccount(t, ctx, "Savings")
	groceries := env.seedCategory(t, ctx, "Food Shop", "expense")

	jan5 := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	jan9 := time.Date(2026, 1, 9, 12, 0, 0, 0, time.UTC)
	feb1 := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	env.seedTransaction(t, ctx, checking, &groceries, "Market", -20, jan5)
	env.seedTransaction(t, ctx, checking, nil, "Rent", -800, jan9)
	env.seedTransaction(t, ctx, savings, nil, "Transfer in", 300, feb1)

	all, err := env.transactions.List(ctx, env.userID, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Transfer in", all[0].Description, "newest first")

	byAccount, err := env.transactions.List(ctx, env.userID, repository.TransactionFilters{AccountID: &savings})
	require.NoError(t, err)
	require.Len(t, byAccount, 1)

	byCategory, err := env.transactions.List(ctx, env.userID, repository.TransactionFilters{CategoryID: &groceries})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	require.Equal(t, "Market", byCategory[0].Description)

	window, err := env.transactions.List(ctx, env.userID, repository.TransactionFilters{
		StartDate: timePtr(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:   timePtr(time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)),
	})
	require.NoError(t, err)
	require.Len(t, window, 2)

	limited, err := env.transactions.List(ctx, env.userID, repository.TransactionFilters{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)

	_, err = env.transactions.List(ctx, env.userID, repository.TransactionFilters{
		StartDate: timePtr(feb1),
		EndDate:   timePtr(jan5),
	})
	require.ErrorIs(t, err, ErrBadDateRange)
}

func TestTransactionUpdateRechecksAccount(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	manual := env.seedAccount(t, ctx, "Cash")

	linkedAccount, err := env.accountRepo.Create(ctx, repository.Account{
		UserID:      env.userID,
		Name:        "Linked",
		AccountType: "checking",
		Currency:    "EUR",
	})
	require.NoError(t, err)

	imported := env.seedTransaction(t, ctx, linkedAccount, nil, "Card payment", -9.99, time.Now())
	stored, err := env.transactions.Get(ctx, env.userID, imported)
	require.NoError(t, err)
	stored.IsManual = false
	require.NoError(t, env.txRepo.Update(ctx, *stored))

	// A linked transaction cannot be moved onto a manual account.
	_, err = env.transactions.Update(ctx, env.userID, imported, TransactionPatch{AccountID: &manual})
	require.ErrorIs(t, err, ErrLinkedOnManual)

	updated, err := env.transactions.Update(ctx, env.userID, imported, TransactionPatch{
		Description: strPtr("  Card payment POS  "),
		Amount:      f64Ptr(-19.99),
	})
	require.NoError(t, err)
	require.Equal(t, "Card payment POS", updated.Description)
	require.Equal(t, -19.99, updated.Amount)
}

func TestTransactionDelete(t *testing.T) {
	t.Parallel()

	env, ctx := newTestEnv(t)
	accountID := env.seedAccount(t, ctx, "Checking")
	id := env.seedTransaction(t, ctx, accountID, nil, "One off", -3, time.Now())

	require.NoError(t, env.transactions.Delete(ctx, env.userID, id))
	require.ErrorIs(t, env.transactions.Delete(ctx, env.userID, id), ErrTransactionNotFound)

	_, err := env.transactions.Get(ctx, env.userID, id)
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marric/gelt/internal/database"
	"github.com/marric/gelt/internal/database/repository"
	"github.com/marric/gelt/internal/rules"
)

// testEnv wires the full service stack against a scratch database.
type testEnv struct {
	db     *sql.DB
	userID int64

	accountRepo   *repository.AccountRepo
	categoryRepo  *repository.CategoryRepo
	txRepo        *repository.TransactionRepo
	ruleRepo      *repository.CategoryRuleRepo
	recurringRepo *repository.RecurringRepo
	budgetRepo    *repository.BudgetRepo
	debtRepo      *repository.DebtRepo
	goalRepo      *repository.GoalRepo
	cryptoRepo    *repository.CryptoRepo
	syncRepo      *repository.SyncLogRepo

	accounts     *AccountService
	categories   *CategoryService
	transactions *TransactionService
	ruleSvc      *RuleService
	recurring    *RecurringService
	budgets      *BudgetService
	debts        *DebtService
	goals        *GoalService
	dashboard    *DashboardService
	reports      *ReportService
	suggest      *SuggestService
}

func newTestEnv(t *testing.T) (*testEnv, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	userID, err := database.SeedDefaults(ctx, db, "test@gelt.local", "Test")
	require.NoError(t, err)

	env := &testEnv{
		db:            db,
		userID:        userID,
		accountRepo:   repository.NewAccountRepo(db),
		categoryRepo:  repository.NewCategoryRepo(db),
		txRepo:        repository.NewTransactionRepo(db),
		ruleRepo:      repository.NewCategoryRuleRepo(db),
		recurringRepo: repository.NewRecurringRepo(db),
		budgetRepo:    repository.NewBudgetRepo(db),
		debtRepo:      repository.NewDebtRepo(db),
		goalRepo:      repository.NewGoalRepo(db),
		cryptoRepo:    repository.NewCryptoRepo(db),
		syncRepo:      repository.NewSyncLogRepo(db),
	}
	env.accounts = &AccountService{Accounts: env.accountRepo}
	env.categories = &CategoryService{Categories: env.categoryRepo}
	env.transactions = &TransactionService{
		Transactions: env.txRepo,
		Accounts:     env.accountRepo,
		Matcher:      &rules.Matcher{Rules: env.ruleRepo},
	}
	env.ruleSvc = &RuleService{Rules: env.ruleRepo, Categories: env.categoryRepo}
	env.recurring = &RecurringService{
		Payments:     env.recurringRepo,
		Accounts:     env.accountRepo,
		Categories:   env.categoryRepo,
		Transactions: env.transactions,
	}
	env.budgets = &BudgetService{DB: db, Budgets: env.budgetRepo, Categories: env.categoryRepo}
	env.debts = &DebtService{Debts: env.debtRepo}
	env.goals = &GoalService{Goals: env.goalRepo}
	env.dashboard = &DashboardService{
		Transactions: env.txRepo,
		Accounts:     env.accountRepo,
		Debts:        env.debtRepo,
		Crypto:       env.cryptoRepo,
		Budgets:      env.budgetRepo,
		Recurring:    env.recurringRepo,
	}
	env.reports = &ReportService{Transactions: env.txRepo}
	env.suggest = &SuggestService{Transactions: env.txRepo, Categories: env.categoryRepo}
	return env, ctx
}

// seedAccount creates a manual account and returns its id.
func (e *testEnv) seedAccount(t *testing.T, ctx context.Context, name string) int64 {
	t.Helper()
	id, err := e.accountRepo.Create(ctx, repository.Account{
		UserID:      e.userID,
		Name:        name,
		AccountType: "checking",
		Currency:    "EUR",
		IsManual:    true,
	})
	require.NoError(t, err)
	return id
}

// seedCategory creates a user category and returns its id.
func (e *testEnv) seedCategory(t *testing.T, ctx context.Context, name, kind string) int64 {
	t.Helper()
	id, err := e.categoryRepo.Create(ctx, repository.Category{
		UserID: e.userID,
		Name:   name,
		Kind:   kind,
	})
	require.NoError(t, err)
	return id
}

// systemCategory returns one of the seeded read-only categories.
func (e *testEnv) systemCategory(t *testing.T, ctx context.Context, kind string) repository.Category {
	t.Helper()
	cats, err := e.categoryRepo.List(ctx, e.userID, kind)
	require.NoError(t, err)
	for _, c := range cats {
		if c.IsSystem {
			return c
		}
	}
	t.Fatalf("no system category of kind %s", kind)
	return repository.Category{}
}

// seedTransaction inserts a ledger row directly, bypassing service
// guards.
func (e *testEnv) seedTransaction(t *testing.T, ctx context.Context, accountID int64, categoryID *int64, description string, amount float64, occurredAt time.Time) int64 {
	t.Helper()
	id, err := e.txRepo.Insert(ctx, repository.Transaction{
		UserID:      e.userID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Description: description,
		Currency:    "EUR",
		Amount:      amount,
		OccurredAt:  occurredAt.UTC(),
		IsManual:    true,
	})
	require.NoError(t, err)
	return id
}

func strPtr(s string) *string         { return &s }
func f64Ptr(f float64) *float64       { return &f }
func intPtr(i int) *int               { return &i }
func i64Ptr(i int64) *int64           { return &i }
func timePtr(ts time.Time) *time.Time { return &ts }
func boolPtr(b bool) *bool            { return &b }

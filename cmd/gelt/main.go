package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/marric/gelt/internal/config"
	"github.com/marric/gelt/internal/database"
	"github.com/marric/gelt/internal/database/repository"
	"github.com/marric/gelt/internal/importer"
	"github.com/marric/gelt/internal/service"
	"github.com/marric/gelt/internal/tui"
)

func main() {
	ctx := context.Background()
	if err := newRootCommand(ctx).Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the wired stack behind every command.
type app struct {
	cfg    config.Config
	db     *sql.DB
	userID int64

	accountRepo *repository.AccountRepo

	accounts    *service.AccountService
	importer    *importer.Service
	reports     *service.ReportService
	dashboard   *service.DashboardService
	crypto      *service.CryptoService
	maintenance *service.MaintenanceService
}

// summaryDefaults builds dashboard params from the configured
// quote currency and due alert window.
func (a *app) summaryDefaults() service.SummaryParams {
	days := a.cfg.Recurring.DueAlertDays
	return service.SummaryParams{
		Currency:     a.cfg.Crypto.Currency,
		DueAlertDays: &days,
	}
}

// setup runs the startup sequence: config, data dir, migrations,
// database, seeded defaults, then repositories and services.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	userID, err := database.SeedDefaults(ctx, db, cfg.User.Email, cfg.User.Name)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// repositories
	accountRepo := repository.NewAccountRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	debtRepo := repository.NewDebtRepo(db)
	cryptoRepo := repository.NewCryptoRepo(db)
	budgetRepo := repository.NewBudgetRepo(db)
	recurringRepo := repository.NewRecurringRepo(db)
	syncRepo := repository.NewSyncLogRepo(db)

	return &app{
		cfg:         cfg,
		db:          db,
		userID:      userID,
		accountRepo: accountRepo,
		accounts:    &service.AccountService{Accounts: accountRepo},
		importer: &importer.Service{
			DB:             db,
			Accounts:       accountRepo,
			Transactions:   txRepo,
			Log:            log,
			MaxUploadBytes: cfg.Import.MaxUploadBytes,
		},
		reports: &service.ReportService{Transactions: txRepo},
		dashboard: &service.DashboardService{
			Transactions: txRepo,
			Accounts:     accountRepo,
			Debts:        debtRepo,
			Crypto:       cryptoRepo,
			Budgets:      budgetRepo,
			Recurring:    recurringRepo,
		},
		crypto: &service.CryptoService{
			Crypto:        cryptoRepo,
			SyncLogs:      syncRepo,
			Log:           log,
			QuoteCurrency: cfg.Crypto.Currency,
			StaleAfter:    cfg.Crypto.StaleAfter,
		},
		maintenance: &service.MaintenanceService{DB: db},
	}, nil
}

func (a *app) close() {
	_ = a.db.Close()
}

func newRootCommand(ctx context.Context) *cobra.Command {
	root := &cobra.Command{
		Use:   "gelt",
		Short: "Personal finance tracking in the terminal",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			program := tea.NewProgram(tui.New(ctx, a.userID, tui.Services{
				Importer:  a.importer,
				Accounts:  a.accountRepo,
				Dashboard: a.dashboard,
				Summary:   a.summaryDefaults(),
			}, ""), tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		},
	}
	root.AddCommand(newImportCommand(ctx))
	root.AddCommand(newReportCommand(ctx))
	root.AddCommand(newAccountsCommand(ctx))
	root.AddCommand(newCryptoCommand(ctx))
	root.AddCommand(newResetCommand(ctx))
	return root
}

func newImportCommand(ctx context.Context) *cobra.Command {
	var accountID int64
	var commit bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Preview a bank statement, optionally committing the rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			return runImport(ctx, a, args[0], accountID, commit)
		},
	}

	cmd.Flags().Int64Var(&accountID, "account", 0, "account id to import into (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().BoolVar(&commit, "commit", false, "persist the valid rows instead of only previewing")

	return cmd
}

func runImport(ctx context.Context, a *app, path string, accountID int64, commit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	preview, err := a.importer.Preview(ctx, a.userID, accountID, filepath.Base(path), data)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d rows (%d valid, %d duplicates, %d invalid)\n",
		preview.Filename, preview.TotalRows, preview.ValidRows, preview.DuplicateRows, preview.InvalidRows)
	for _, w := range preview.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, row := range preview.Rows {
		date := "          "
		if row.OccurredAt != nil {
			date = row.OccurredAt.Format("2006-01-02")
		}
		amount := "        -"
		if row.Amount != nil {
			amount = fmt.Sprintf("%9.2f", *row.Amount)
		}
		status := "ok"
		switch {
		case row.Error != "":
			status = "error: " + row.Error
		case row.IsDuplicate:
			status = "duplicate: " + row.DuplicateReason
		}
		fmt.Printf("%3d  %s  %-40.40s  %s  %s\n", row.RowNumber, date, row.Description, amount, status)
	}

	if !commit {
		return nil
	}
	result, err := a.importer.Commit(ctx, a.userID, accountID, preview.Filename, preview.Rows)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d, skipped %d duplicates, %d invalid\n",
		result.ImportedCount, result.SkippedDuplicates, result.SkippedInvalid)
	return nil
}

func newReportCommand(ctx context.Context) *cobra.Command {
	var months int
	var currency string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the monthly cashflow summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.reports.MonthlySummary(ctx, a.userID, months, currency)
			if err != nil {
				return err
			}
			fmt.Printf("Cashflow (%s)\n", report.Currency)
			for _, point := range report.Months {
				fmt.Printf("%s  in %10.2f  out %10.2f  net %10.2f\n",
					point.Month.Format("2006-01"), point.Inflow, point.Outflow, point.Net)
			}
			if len(report.TopExpenseCategories) > 0 {
				fmt.Println("Top spending categories:")
				for _, cs := range report.TopExpenseCategories {
					name := cs.Name
					if name == "" {
						name = "(uncategorized)"
					}
					fmt.Printf("  %-24s %10.2f\n", name, cs.Amount)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&months, "months", 0, "number of trailing months (default 6)")
	cmd.Flags().StringVar(&currency, "currency", "", "display currency (default EUR)")

	return cmd
}

func newAccountsCommand(ctx context.Context) *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
	}
	accountsCmd.AddCommand(newAccountsAddCommand(ctx))
	accountsCmd.AddCommand(newAccountsListCommand(ctx))
	return accountsCmd
}

func newAccountsAddCommand(ctx context.Context) *cobra.Command {
	var name string
	var accountType string
	var currency string
	var balance float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a manual account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if currency == "" {
				currency = a.cfg.Import.DefaultCurrency
			}
			account, err := a.accounts.Create(ctx, a.userID, service.AccountInput{
				Name:        name,
				AccountType: accountType,
				Currency:    currency,
				Balance:     &balance,
				IsManual:    true,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created account #%d %s (%s, %s)\n", account.ID, account.Name, account.AccountType, account.Currency)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&accountType, "type", "checking", "account type")
	cmd.Flags().StringVar(&currency, "currency", "", "account currency (default from config)")
	cmd.Flags().Float64Var(&balance, "balance", 0, "starting balance")

	return cmd
}

func newAccountsListCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			accounts, err := a.accounts.List(ctx, a.userID)
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Println("no accounts yet, create one with: gelt accounts add --name <name>")
				return nil
			}
			for _, account := range accounts {
				var balance float64
				if account.Balance != nil {
					balance = *account.Balance
				}
				fmt.Printf("#%-4d %-24s %-10s %s %10.2f\n",
					account.ID, account.Name, account.AccountType, account.Currency, balance)
			}
			return nil
		},
	}
}

func newCryptoCommand(ctx context.Context) *cobra.Command {
	cryptoCmd := &cobra.Command{
		Use:   "crypto",
		Short: "Manage crypto holdings",
	}
	cryptoCmd.AddCommand(newCryptoAddCommand(ctx))
	cryptoCmd.AddCommand(newCryptoListCommand(ctx))
	return cryptoCmd
}

func newCryptoAddCommand(ctx context.Context) *cobra.Command {
	var symbol string
	var name string
	var quantity float64
	var cost float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Track a crypto holding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			in := service.HoldingInput{Symbol: symbol, Name: name, Quantity: quantity}
			if cmd.Flags().Changed("cost") {
				in.CostBasis = &cost
			}
			holding, err := a.crypto.CreateHolding(ctx, a.userID, in)
			if err != nil {
				return err
			}
			fmt.Printf("tracking %s (%s), quantity %g\n", holding.Symbol, holding.Name, holding.Quantity)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "ticker symbol (required)")
	_ = cmd.MarkFlagRequired("symbol")
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the symbol)")
	cmd.Flags().Float64Var(&quantity, "quantity", 0, "quantity held (required)")
	_ = cmd.MarkFlagRequired("quantity")
	cmd.Flags().Float64Var(&cost, "cost", 0, "total cost basis")

	return cmd
}

func newCryptoListCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List holdings valued at cached quotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			holdings, err := a.crypto.ListHoldings(ctx, a.userID, a.cfg.Crypto.Currency)
			if err != nil {
				return err
			}
			if len(holdings) == 0 {
				fmt.Println("no holdings yet, track one with: gelt crypto add --symbol <sym> --quantity <qty>")
				return nil
			}
			for _, h := range holdings {
				fmt.Printf("#%-4d %-6s %-20s %14.6f  price %s  value %s  p/l %s\n",
					h.ID, h.Symbol, h.Name, h.Quantity,
					money(h.CurrentPrice), money(h.CurrentValue), money(h.GainLoss))
			}
			return nil
		},
	}
}

// money renders an optional amount, falling back to a dash when no
// quote is cached.
func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func newResetCommand(ctx context.Context) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all stored data and reseed defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to wipe data without --confirm")
			}
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.maintenance.Reset(ctx); err != nil {
				return err
			}
			if _, err := database.SeedDefaults(ctx, a.db, a.cfg.User.Email, a.cfg.User.Name); err != nil {
				return fmt.Errorf("reseed defaults: %w", err)
			}
			fmt.Println("database reset, defaults reseeded")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm wiping every table")

	return cmd
}

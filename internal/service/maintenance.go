package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/marric/gelt/internal/database"
)

// MaintenanceService houses destructive ops actions surfaced through
// the CLI.
type MaintenanceService struct {
	DB *sql.DB
}

// Reset wipes all stored data. It keeps the schema intact so the app
// can continue running; callers reseed defaults afterwards.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		// Children before parents, so deletes never trip a
		// foreign key.
		tables := []string{
			"budget_items",
			"budgets",
			"category_rules",
			"recurring_payments",
			"transactions",
			"sync_logs",
			"crypto_holdings",
			"price_cache",
			"debts",
			"goals",
			"categories",
			"accounts",
			"institutions",
			"users",
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}

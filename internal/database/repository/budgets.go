package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// BudgetRepo handles budgets and their items.
type BudgetRepo struct{ db *sql.DB }

func NewBudgetRepo(db *sql.DB) *BudgetRepo { return &BudgetRepo{db: db} }

// InsertTx creates the budget row inside an open transaction.
func (r *BudgetRepo) InsertTx(ctx context.Context, tx *sql.Tx, b Budget) (int64, error) {
	res, err := tx.ExecContext(ctx, `
	INSERT INTO budgets(user_id, name, month, currency, created_at, updated_at)
	VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, b.UserID, b.Name, b.Month, b.Currency)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *BudgetRepo) UpdateTx(ctx context.Context, tx *sql.Tx, b Budget) error {
	_, err := tx.ExecContext(ctx, `
	UPDATE budgets SET name=?, month=?, currency=?, updated_at=CURRENT_TIMESTAMP
	WHERE id=? AND user_id=?;
	`, b.Name, b.Month, b.Currency, b.ID, b.UserID)
	return err
}

// ReplaceItemsTx swaps the budget's item set inside an open transaction.
func (r *BudgetRepo) ReplaceItemsTx(ctx context.Context, tx *sql.Tx, budgetID int64, items []BudgetItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_items WHERE budget_id = ?`, budgetID); err != nil {
		return err
	}
	for _, it := range items {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO budget_items(budget_id, category_id, limit_amount) VALUES(?, ?, ?)
		ON CONFLICT(budget_id, category_id) DO UPDATE SET limit_amount=excluded.limit_amount;
		`, budgetID, it.CategoryID, it.LimitAmount)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *BudgetRepo) Get(ctx context.Context, userID, id int64) (*Budget, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, name, month, currency, created_at, updated_at
	FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	var b Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Month, &b.Currency, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	items, err := r.fetchItems(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return &b, nil
}

// List returns the user's budgets newest month first, items attached.
// A non-zero month narrows to that month.
func (r *BudgetRepo) List(ctx context.Context, userID int64, month time.Time) ([]Budget, error) {
	query := `SELECT id, user_id, name, month, currency, created_at, updated_at FROM budgets WHERE user_id = ?`
	args := []interface{}{userID}
	if !month.IsZero() {
		query += ` AND month = ?`
		args = append(args, month)
	}
	query += ` ORDER BY month DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Month, &b.Currency, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.fetchItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *BudgetRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *BudgetRepo) fetchItems(ctx context.Context, budgetID int64) ([]BudgetItem, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, budget_id, category_id, limit_amount FROM budget_items WHERE budget_id = ? ORDER BY id`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BudgetItem
	for rows.Next() {
		var it BudgetItem
		if err := rows.Scan(&it.ID, &it.BudgetID, &it.CategoryID, &it.LimitAmount); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

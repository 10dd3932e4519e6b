package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	StartDate  *time.Time
	EndDate    *time.Time
	AccountID  *int64
	CategoryID *int64
	Limit      int
	Offset     int
}

// CategorySpend is an aggregated outflow total for one category.
type CategorySpend struct {
	CategoryID *int64
	Name       string
	Amount     float64
}

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionCols = `id, user_id, account_id, category_id, external_id, description, note, currency, amount, occurred_at, is_manual, created_at, updated_at`

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(user_id, account_id, category_id, external_id, description, note, currency, amount, occurred_at, is_manual, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, t.UserID, t.AccountID, t.CategoryID, t.ExternalID, t.Description, t.Note, t.Currency, t.Amount, t.OccurredAt, t.IsManual)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertTx inserts within an open transaction, used for batch commits.
func (r *TransactionRepo) InsertTx(ctx context.Context, tx *sql.Tx, t Transaction) (int64, error) {
	res, err := tx.ExecContext(ctx, `
	INSERT INTO transactions(user_id, account_id, category_id, external_id, description, note, currency, amount, occurred_at, is_manual, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, t.UserID, t.AccountID, t.CategoryID, t.ExternalID, t.Description, t.Note, t.Currency, t.Amount, t.OccurredAt, t.IsManual)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *TransactionRepo) Update(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE transactions SET
	 account_id=?, category_id=?, external_id=?, description=?, note=?, currency=?, amount=?, occurred_at=?, is_manual=?,
	 updated_at=CURRENT_TIMESTAMP
	WHERE id=? AND user_id=?;
	`, t.AccountID, t.CategoryID, t.ExternalID, t.Description, t.Note, t.Currency, t.Amount, t.OccurredAt, t.IsManual, t.ID, t.UserID)
	return err
}

func (r *TransactionRepo) Get(ctx context.Context, userID, id int64) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	var t Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &t.ExternalID, &t.Description, &t.Note, &t.Currency, &t.Amount, &t.OccurredAt, &t.IsManual, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *TransactionRepo) List(ctx context.Context, userID int64, f TransactionFilters) ([]Transaction, error) {
	where := []string{"user_id = ?"}
	args := []interface{}{userID}

	if f.StartDate != nil {
		where = append(where, "occurred_at >= ?")
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		where = append(where, "occurred_at <= ?")
		args = append(args, *f.EndDate)
	}
	if f.AccountID != nil {
		where = append(where, "account_id = ?")
		args = append(args, *f.AccountID)
	}
	if f.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *f.CategoryID)
	}

	query := `SELECT ` + transactionCols + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY occurred_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	return r.queryMany(ctx, query, args...)
}

// ListByAccount returns every transaction on one account, used to build
// the duplicate fingerprint set for imports.
func (r *TransactionRepo) ListByAccount(ctx context.Context, userID, accountID int64) ([]Transaction, error) {
	return r.queryMany(ctx, `SELECT `+transactionCols+` FROM transactions WHERE user_id = ? AND account_id = ?`, userID, accountID)
}

// ExistingExternalIDs reports which of the given external ids are
// already present on the account.
func (r *TransactionRepo) ExistingExternalIDs(ctx context.Context, userID, accountID int64, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := []interface{}{userID, accountID}
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT external_id FROM transactions
	WHERE user_id = ? AND account_id = ? AND external_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id sql.NullString
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id.Valid {
			out[id.String] = true
		}
	}
	return out, rows.Err()
}

// ListCategorized returns recent categorized transactions, newest first.
func (r *TransactionRepo) ListCategorized(ctx context.Context, userID int64, limit int) ([]Transaction, error) {
	return r.queryMany(ctx, `
	SELECT `+transactionCols+` FROM transactions
	WHERE user_id = ? AND category_id IS NOT NULL
	ORDER BY occurred_at DESC, id DESC LIMIT ?`, userID, limit)
}

// CashflowTotals sums inflow and outflow over [start, end).
// Outflow is returned as a positive number.
func (r *TransactionRepo) CashflowTotals(ctx context.Context, userID int64, start, end time.Time) (inflow, outflow float64, err error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT
	 COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0),
	 COALESCE(SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END), 0)
	FROM transactions
	WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?`, userID, start, end)
	err = row.Scan(&inflow, &outflow)
	return inflow, outflow, err
}

// SpendByCategory aggregates outflow per category over [start, end),
// largest first. Uncategorized spend comes back with a nil CategoryID.
func (r *TransactionRepo) SpendByCategory(ctx context.Context, userID int64, start, end time.Time) ([]CategorySpend, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT t.category_id, COALESCE(c.name, ''), SUM(-t.amount)
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id
	WHERE t.user_id = ? AND t.amount < 0 AND t.occurred_at >= ? AND t.occurred_at < ?
	GROUP BY t.category_id, c.name
	ORDER BY SUM(-t.amount) DESC`, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategorySpend
	for rows.Next() {
		var cs CategorySpend
		if err := rows.Scan(&cs.CategoryID, &cs.Name, &cs.Amount); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (r *TransactionRepo) queryMany(ctx context.Context, query string, args ...interface{}) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &t.ExternalID, &t.Description, &t.Note, &t.Currency, &t.Amount, &t.OccurredAt, &t.IsManual, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

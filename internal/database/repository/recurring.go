package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// RecurringRepo handles recurring payments.
type RecurringRepo struct{ db *sql.DB }

func NewRecurringRepo(db *sql.DB) *RecurringRepo { return &RecurringRepo{db: db} }

const recurringCols = `id, user_id, account_id, category_id, name, note, currency, amount, kind, frequency, interval, next_due_date, is_active, created_at, updated_at`

func (r *RecurringRepo) Create(ctx context.Context, p RecurringPayment) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO recurring_payments(user_id, account_id, category_id, name, note, currency, amount, kind, frequency, interval, next_due_date, is_active, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, p.UserID, p.AccountID, p.CategoryID, p.Name, p.Note, p.Currency, p.Amount, p.Kind, p.Frequency, p.Interval, p.NextDueDate, p.IsActive)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *RecurringRepo) Update(ctx context.Context, p RecurringPayment) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE recurring_payments SET
	 account_id=?, category_id=?, name=?, note=?, currency=?, amount=?, kind=?, frequency=?, interval=?, next_due_date=?, is_active=?,
	 updated_at=CURRENT_TIMESTAMP
	WHERE id=? AND user_id=?;
	`, p.AccountID, p.CategoryID, p.Name, p.Note, p.Currency, p.Amount, p.Kind, p.Frequency, p.Interval, p.NextDueDate, p.IsActive, p.ID, p.UserID)
	return err
}

func (r *RecurringRepo) Get(ctx context.Context, userID, id int64) (*RecurringPayment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recurringCols+` FROM recurring_payments WHERE id = ? AND user_id = ?`, id, userID)
	var p RecurringPayment
	err := row.Scan(&p.ID, &p.UserID, &p.AccountID, &p.CategoryID, &p.Name, &p.Note, &p.Currency, &p.Amount, &p.Kind, &p.Frequency, &p.Interval, &p.NextDueDate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// List returns payments ordered soonest due first. Inactive payments
// are excluded unless includeInactive is set; dueFrom/dueTo bound
// next_due_date when non-zero.
func (r *RecurringRepo) List(ctx context.Context, userID int64, includeInactive bool, dueFrom, dueTo time.Time) ([]RecurringPayment, error) {
	query := `SELECT ` + recurringCols + ` FROM recurring_payments WHERE user_id = ?`
	args := []interface{}{userID}
	if !includeInactive {
		query += ` AND is_active = 1`
	}
	if !dueFrom.IsZero() {
		query += ` AND next_due_date >= ?`
		args = append(args, dueFrom)
	}
	if !dueTo.IsZero() {
		query += ` AND next_due_date <= ?`
		args = append(args, dueTo)
	}
	query += ` ORDER BY next_due_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecurringPayment
	for rows.Next() {
		var p RecurringPayment
		if err := rows.Scan(&p.ID, &p.UserID, &p.AccountID, &p.CategoryID, &p.Name, &p.Note, &p.Currency, &p.Amount, &p.Kind, &p.Frequency, &p.Interval, &p.NextDueDate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *RecurringRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_payments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

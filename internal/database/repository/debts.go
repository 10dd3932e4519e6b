package repository

import (
	"context"
	"database/sql"
	"errors"
)

// DebtRepo handles debts.
type DebtRepo struct{ db *sql.DB }

func NewDebtRepo(db *sql.DB) *DebtRepo { return &DebtRepo{db: db} }

func (r *DebtRepo) Create(ctx context.Context, d Debt) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO debts(user_id, name, currency, balance, interest_rate, min_payment, due_day, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, d.UserID, d.Name, d.Currency, d.Balance, d.InterestRate, d.MinPayment, d.DueDay)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *DebtRepo) Update(ctx context.Context, d Debt) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE debts SET name=?, currency=?, balance=?, interest_rate=?, min_payment=?, due_day=?, updated_at=CURRENT_TIMESTAMP
	WHERE id=? AND user_id=?;
	`, d.Name, d.Currency, d.Balance, d.InterestRate, d.MinPayment, d.DueDay, d.ID, d.UserID)
	return err
}

func (r *DebtRepo) Get(ctx context.Context, userID, id int64) (*Debt, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, name, currency, balance, interest_rate, min_payment, due_day, created_at, updated_at
	FROM debts WHERE id = ? AND user_id = ?`, id, userID)
	var d Debt
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Currency, &d.Balance, &d.InterestRate, &d.MinPayment, &d.DueDay, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DebtRepo) List(ctx context.Context, userID int64) ([]Debt, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, name, currency, balance, interest_rate, min_payment, due_day, created_at, updated_at
	FROM debts WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Debt
	for rows.Next() {
		var d Debt
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Currency, &d.Balance, &d.InterestRate, &d.MinPayment, &d.DueDay, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TotalBalance sums outstanding debt for net worth.
func (r *DebtRepo) TotalBalance(ctx context.Context, userID int64) (float64, error) {
	var total float64
	row := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(balance), 0) FROM debts WHERE user_id = ?`, userID)
	err := row.Scan(&total)
	return total, err
}

func (r *DebtRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

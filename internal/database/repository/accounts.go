package repository

import (
	"context"
	"database/sql"
	"errors"
)

// AccountRepo handles accounts.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, a Account) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(user_id, institution_id, external_id, name, account_type, currency, balance, is_manual, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, a.UserID, a.InstitutionID, a.ExternalID, a.Name, a.AccountType, a.Currency, a.Balance, a.IsManual)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *AccountRepo) Update(ctx context.Context, a Account) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE accounts SET
	 institution_id=?, external_id=?, name=?, account_type=?, currency=?, balance=?, is_manual=?,
	 updated_at=CURRENT_TIMESTAMP
	WHERE id=? AND user_id=?;
	`, a.InstitutionID, a.ExternalID, a.Name, a.AccountType, a.Currency, a.Balance, a.IsManual, a.ID, a.UserID)
	return err
}

func (r *AccountRepo) Get(ctx context.Context, userID, id int64) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, institution_id, external_id, name, account_type, currency, balance, is_manual, created_at, updated_at
	FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	var a Account
	err := row.Scan(&a.ID, &a.UserID, &a.InstitutionID, &a.ExternalID, &a.Name, &a.AccountType, &a.Currency, &a.Balance, &a.IsManual, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) List(ctx context.Context, userID int64) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, institution_id, external_id, name, account_type, currency, balance, is_manual, created_at, updated_at
	FROM accounts WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.InstitutionID, &a.ExternalID, &a.Name, &a.AccountType, &a.Currency, &a.Balance, &a.IsManual, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// TotalBalance sums account balances for net worth.
func (r *AccountRepo) TotalBalance(ctx context.Context, userID int64) (float64, error) {
	var total float64
	row := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE user_id = ?`, userID)
	err := row.Scan(&total)
	return total, err
}

func (r *AccountRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

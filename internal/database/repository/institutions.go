package repository

import (
	"context"
	"database/sql"
	"errors"
)

// InstitutionRepo handles provider connections.
type InstitutionRepo struct{ db *sql.DB }

func NewInstitutionRepo(db *sql.DB) *InstitutionRepo { return &InstitutionRepo{db: db} }

func (r *InstitutionRepo) Create(ctx context.Context, in Institution) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO institutions(user_id, provider, provider_account_id, name, created_at, updated_at)
	VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, in.UserID, in.Provider, in.ProviderAccountID, in.Name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *InstitutionRepo) Get(ctx context.Context, userID, id int64) (*Institution, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, provider, provider_account_id, name, created_at, updated_at
	FROM institutions WHERE id = ? AND user_id = ?`, id, userID)
	var in Institution
	err := row.Scan(&in.ID, &in.UserID, &in.Provider, &in.ProviderAccountID, &in.Name, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &in, nil
}

func (r *InstitutionRepo) List(ctx context.Context, userID int64) ([]Institution, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, provider, provider_account_id, name, created_at, updated_at
	FROM institutions WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Institution
	for rows.Next() {
		var in Institution
		if err := rows.Scan(&in.ID, &in.UserID, &in.Provider, &in.ProviderAccountID, &in.Name, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

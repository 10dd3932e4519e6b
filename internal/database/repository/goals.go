package repository

import (
	"context"
	"database/sql"
	"errors"
)

// GoalRepo handles savings goals.
type GoalRepo struct{ db *sql.DB }

func NewGoalRepo(db *sql.DB) *GoalRepo { return &GoalRepo{db: db} }

func (r *GoalRepo) Create(ctx context.Context, g Goal) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO goals(user_id, name, currency, target_amount, current_amount, target_date, kind, status, notes, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, g.UserID, g.Name, g.Currency, g.TargetAmount, g.CurrentAmount, g.TargetDate, g.Kind, g.Status, g.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *GoalRepo) Update(ctx context.Context, g Goal) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE goals SET name=?, currency=?, target_amount=?, current_amount=?, target_date=?, kind=?, status=?, notes=?, updated_at=CURRENT_TIMESTAMP
	WHERE id=? AND user_id=?;
	`, g.Name, g.Currency, g.TargetAmount, g.CurrentAmount, g.TargetDate, g.Kind, g.Status, g.Notes, g.ID, g.UserID)
	return err
}

func (r *GoalRepo) Get(ctx context.Context, userID, id int64) (*Goal, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, name, currency, target_amount, current_amount, target_date, kind, status, notes, created_at, updated_at
	FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	var g Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Currency, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate, &g.Kind, &g.Status, &g.Notes, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// List orders by target date ascending with undated goals last.
func (r *GoalRepo) List(ctx context.Context, userID int64) ([]Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, name, currency, target_amount, current_amount, target_date, kind, status, notes, created_at, updated_at
	FROM goals WHERE user_id = ?
	ORDER BY target_date IS NULL, target_date ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Goal
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Currency, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate, &g.Kind, &g.Status, &g.Notes, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GoalRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

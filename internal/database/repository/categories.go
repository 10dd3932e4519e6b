package repository

import (
	"context"
	"database/sql"
	"errors"
)

// CategoryRepo handles categories.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Create(ctx context.Context, c Category) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(user_id, name, kind, color, is_system, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, c.UserID, c.Name, c.Kind, c.Color, c.IsSystem)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *CategoryRepo) Update(ctx context.Context, c Category) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE categories SET name=?, kind=?, color=?, updated_at=CURRENT_TIMESTAMP
	WHERE id=? AND user_id=?;
	`, c.Name, c.Kind, c.Color, c.ID, c.UserID)
	return err
}

func (r *CategoryRepo) Get(ctx context.Context, userID, id int64) (*Category, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, name, kind, color, is_system, created_at, updated_at
	FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	var c Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.Color, &c.IsSystem, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// List returns the user's categories, optionally filtered by kind.
func (r *CategoryRepo) List(ctx context.Context, userID int64, kind string) ([]Category, error) {
	query := `SELECT id, user_id, name, kind, color, is_system, created_at, updated_at FROM categories WHERE user_id = ?`
	args := []interface{}{userID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY kind, name`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.Color, &c.IsSystem, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

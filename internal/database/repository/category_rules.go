package repository

import (
	"context"
	"database/sql"
	"errors"
)

// CategoryRuleRepo stores categorization rules.
type CategoryRuleRepo struct{ db *sql.DB }

func NewCategoryRuleRepo(db *sql.DB) *CategoryRuleRepo { return &CategoryRuleRepo{db: db} }

func (r *CategoryRuleRepo) Create(ctx context.Context, cr CategoryRule) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO category_rules(user_id, category_id, pattern, match_type, applies_to_kind, priority, case_sensitive, is_active, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, cr.UserID, cr.CategoryID, cr.Pattern, cr.MatchType, cr.AppliesToKind, cr.Priority, cr.CaseSensitive, cr.IsActive)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *CategoryRuleRepo) Update(ctx context.Context, cr CategoryRule) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE category_rules SET
	 category_id=?, pattern=?, match_type=?, applies_to_kind=?, priority=?, case_sensitive=?, is_active=?,
	 updated_at=CURRENT_TIMESTAMP
	WHERE id=? AND user_id=?;
	`, cr.CategoryID, cr.Pattern, cr.MatchType, cr.AppliesToKind, cr.Priority, cr.CaseSensitive, cr.IsActive, cr.ID, cr.UserID)
	return err
}

func (r *CategoryRuleRepo) Get(ctx context.Context, userID, id int64) (*CategoryRule, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, category_id, pattern, match_type, applies_to_kind, priority, case_sensitive, is_active, created_at, updated_at
	FROM category_rules WHERE id = ? AND user_id = ?`, id, userID)
	var cr CategoryRule
	err := row.Scan(&cr.ID, &cr.UserID, &cr.CategoryID, &cr.Pattern, &cr.MatchType, &cr.AppliesToKind, &cr.Priority, &cr.CaseSensitive, &cr.IsActive, &cr.CreatedAt, &cr.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cr, nil
}

// List returns rules ordered the way matching consumes them:
// priority ascending, insertion order breaking ties.
func (r *CategoryRuleRepo) List(ctx context.Context, userID int64, activeOnly bool) ([]CategoryRule, error) {
	query := `
	SELECT id, user_id, category_id, pattern, match_type, applies_to_kind, priority, case_sensitive, is_active, created_at, updated_at
	FROM category_rules WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY priority ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryRule
	for rows.Next() {
		var cr CategoryRule
		if err := rows.Scan(&cr.ID, &cr.UserID, &cr.CategoryID, &cr.Pattern, &cr.MatchType, &cr.AppliesToKind, &cr.Priority, &cr.CaseSensitive, &cr.IsActive, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

func (r *CategoryRuleRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM category_rules WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

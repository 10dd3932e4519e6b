package repository

import (
	"context"
	"database/sql"
	"errors"
)

// CryptoRepo handles crypto holdings and the price cache.
type CryptoRepo struct{ db *sql.DB }

func NewCryptoRepo(db *sql.DB) *CryptoRepo { return &CryptoRepo{db: db} }

func (r *CryptoRepo) Create(ctx context.Context, h CryptoHolding) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO crypto_holdings(user_id, symbol, name, quantity, cost_basis, source, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, h.UserID, h.Symbol, h.Name, h.Quantity, h.CostBasis, h.Source)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *CryptoRepo) Update(ctx context.Context, h CryptoHolding) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE crypto_holdings SET symbol=?, name=?, quantity=?, cost_basis=?, source=?, updated_at=CURRENT_TIMESTAMP
	WHERE id=? AND user_id=?;
	`, h.Symbol, h.Name, h.Quantity, h.CostBasis, h.Source, h.ID, h.UserID)
	return err
}

func (r *CryptoRepo) Get(ctx context.Context, userID, id int64) (*CryptoHolding, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, symbol, name, quantity, cost_basis, source, created_at, updated_at
	FROM crypto_holdings WHERE id = ? AND user_id = ?`, id, userID)
	var h CryptoHolding
	err := row.Scan(&h.ID, &h.UserID, &h.Symbol, &h.Name, &h.Quantity, &h.CostBasis, &h.Source, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (r *CryptoRepo) List(ctx context.Context, userID int64) ([]CryptoHolding, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, symbol, name, quantity, cost_basis, source, created_at, updated_at
	FROM crypto_holdings WHERE user_id = ? ORDER BY symbol, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CryptoHolding
	for rows.Next() {
		var h CryptoHolding
		if err := rows.Scan(&h.ID, &h.UserID, &h.Symbol, &h.Name, &h.Quantity, &h.CostBasis, &h.Source, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *CryptoRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM crypto_holdings WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpsertPrice stores a quote, replacing any previous one for the pair.
func (r *CryptoRepo) UpsertPrice(ctx context.Context, q PriceQuote) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO price_cache(symbol, currency, price, as_of)
	VALUES(?, ?, ?, ?)
	ON CONFLICT(symbol, currency) DO UPDATE SET
	 price=excluded.price,
	 as_of=excluded.as_of;
	`, q.Symbol, q.Currency, q.Price, q.AsOf)
	return err
}

// ListPrices returns cached quotes, optionally narrowed by symbol or
// currency. Empty filters match everything.
func (r *CryptoRepo) ListPrices(ctx context.Context, symbol, currency string) ([]PriceQuote, error) {
	query := `SELECT id, symbol, currency, price, as_of FROM price_cache WHERE 1=1`
	args := []interface{}{}
	if symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, symbol)
	}
	if currency != "" {
		query += ` AND currency = ?`
		args = append(args, currency)
	}
	query += ` ORDER BY symbol, currency`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PriceQuote
	for rows.Next() {
		var q PriceQuote
		if err := rows.Scan(&q.ID, &q.Symbol, &q.Currency, &q.Price, &q.AsOf); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *CryptoRepo) GetPrice(ctx context.Context, symbol, currency string) (*PriceQuote, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, symbol, currency, price, as_of FROM price_cache WHERE symbol = ? AND currency = ?`, symbol, currency)
	var q PriceQuote
	err := row.Scan(&q.ID, &q.Symbol, &q.Currency, &q.Price, &q.AsOf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

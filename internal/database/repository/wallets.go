package repository

import (
	"context"
	"database/sql"
)

// WalletRepo handles wallets.
type WalletRepo struct {
	db *sql.DB
}

func NewWalletRepo(db *sql.DB) *WalletRepo { return &WalletRepo{db: db} }

func (r *WalletRepo) Insert(ctx context.Context, w Wallet) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO wallets(id, name, icon, currency, start_money, count_in_total, archived, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, w.ID, w.Name, w.Icon, w.Currency, w.StartMoney, w.CountInTotal, w.Archived)
	return wrapErr(err)
}

func (r *WalletRepo) Get(ctx context.Context, id string) (*Wallet, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, name, icon, currency, start_money, count_in_total, archived, created_at, updated_at
	FROM wallets WHERE id = ?`, id)
	var w Wallet
	var icon sql.NullString
	if err := row.Scan(&w.ID, &w.Name, &icon, &w.Currency, &w.StartMoney, &w.CountInTotal, &w.Archived, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if icon.Valid {
		w.Icon = &icon.String
	}
	return &w, nil
}

func (r *WalletRepo) List(ctx context.Context) ([]Wallet, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, name, icon, currency, start_money, count_in_total, archived, created_at, updated_at
	FROM wallets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Wallet
	for rows.Next() {
		var w Wallet
		var icon sql.NullString
		if err := rows.Scan(&w.ID, &w.Name, &icon, &w.Currency, &w.StartMoney, &w.CountInTotal, &w.Archived, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		if icon.Valid {
			w.Icon = &icon.String
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

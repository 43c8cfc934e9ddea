package repository

import (
	"context"
	"database/sql"
)

// DebtRepo handles debts.
type DebtRepo struct {
	db *sql.DB
}

func NewDebtRepo(db *sql.DB) *DebtRepo { return &DebtRepo{db: db} }

func (r *DebtRepo) Insert(ctx context.Context, d Debt) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO debts(id, debt_type, icon, description, date, expiration_date, wallet_id, place_id, money, archived)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, d.ID, d.DebtType, d.Icon, d.Description, d.Date, d.ExpirationDate, d.WalletID, d.PlaceID, d.Money, d.Archived)
	return wrapErr(err)
}

func (r *DebtRepo) List(ctx context.Context) ([]Debt, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, debt_type, icon, description, date, expiration_date, wallet_id, place_id, money, archived
	FROM debts ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Debt
	for rows.Next() {
		var d Debt
		var icon, place sql.NullString
		var exp sql.NullTime
		if err := rows.Scan(&d.ID, &d.DebtType, &icon, &d.Description, &d.Date, &exp, &d.WalletID, &place, &d.Money, &d.Archived); err != nil {
			return nil, err
		}
		if icon.Valid {
			d.Icon = &icon.String
		}
		if exp.Valid {
			d.ExpirationDate = &exp.Time
		}
		if place.Valid {
			d.PlaceID = &place.String
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

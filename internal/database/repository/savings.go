package repository

import (
	"context"
	"database/sql"
)

// SavingRepo handles savings.
type SavingRepo struct {
	db *sql.DB
}

func NewSavingRepo(db *sql.DB) *SavingRepo { return &SavingRepo{db: db} }

func (r *SavingRepo) Insert(ctx context.Context, s Saving) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO savings(id, description, icon, start_money, end_money, wallet_id, end_date, complete)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`, s.ID, s.Description, s.Icon, s.StartMoney, s.EndMoney, s.WalletID, s.EndDate, s.Complete)
	return wrapErr(err)
}

func (r *SavingRepo) List(ctx context.Context) ([]Saving, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, description, icon, start_money, end_money, wallet_id, end_date, complete
	FROM savings ORDER BY description`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Saving
	for rows.Next() {
		var s Saving
		var icon sql.NullString
		var end sql.NullTime
		if err := rows.Scan(&s.ID, &s.Description, &icon, &s.StartMoney, &s.EndMoney, &s.WalletID, &end, &s.Complete); err != nil {
			return nil, err
		}
		if icon.Valid {
			s.Icon = &icon.String
		}
		if end.Valid {
			s.EndDate = &end.Time
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

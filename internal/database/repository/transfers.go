package repository

import (
	"context"
	"database/sql"
)

// TransferRepo handles transfers.
type TransferRepo struct {
	db *sql.DB
}

func NewTransferRepo(db *sql.DB) *TransferRepo { return &TransferRepo{db: db} }

func (r *TransferRepo) Insert(ctx context.Context, t Transfer) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transfers(id, description, date, transaction_from_id, transaction_to_id, transaction_tax_id, recurrence_id)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`, t.ID, t.Description, t.Date, t.TransactionFromID, t.TransactionToID, t.TransactionTaxID, t.RecurrenceID)
	return wrapErr(err)
}

func (r *TransferRepo) List(ctx context.Context) ([]Transfer, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, description, date, transaction_from_id, transaction_to_id, transaction_tax_id, recurrence_id
	FROM transfers ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transfer
	for rows.Next() {
		var t Transfer
		var tax, recurrence sql.NullString
		if err := rows.Scan(&t.ID, &t.Description, &t.Date, &t.TransactionFromID, &t.TransactionToID, &tax, &recurrence); err != nil {
			return nil, err
		}
		if tax.Valid {
			t.TransactionTaxID = &tax.String
		}
		if recurrence.Valid {
			t.RecurrenceID = &recurrence.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"time"
)

// RecurringTransactionRepo handles transaction templates.
type RecurringTransactionRepo struct {
	db *sql.DB
}

func NewRecurringTransactionRepo(db *sql.DB) *RecurringTransactionRepo {
	return &RecurringTransactionRepo{db: db}
}

func (r *RecurringTransactionRepo) Insert(ctx context.Context, t RecurringTransaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO recurring_transactions(
	 id, money, description, category_id, direction, wallet_id, place_id, event_id,
	 rule, last_occurrence, next_occurrence)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, t.ID, t.Money, t.Description, t.CategoryID, t.Direction, t.WalletID, t.PlaceID, t.EventID,
		t.Rule, t.LastOccurrence, t.NextOccurrence)
	return wrapErr(err)
}

// ListDue returns templates whose next occurrence is on or before asOf.
// Exhausted templates (next_occurrence NULL) never come back.
func (r *RecurringTransactionRepo) ListDue(ctx context.Context, asOf time.Time) ([]RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, money, description, category_id, direction, wallet_id, place_id, event_id,
	       rule, last_occurrence, next_occurrence
	FROM recurring_transactions
	WHERE next_occurrence IS NOT NULL AND next_occurrence <= ?
	ORDER BY id`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecurringTransaction
	for rows.Next() {
		var t RecurringTransaction
		var place, event sql.NullString
		var next sql.NullTime
		if err := rows.Scan(&t.ID, &t.Money, &t.Description, &t.CategoryID, &t.Direction,
			&t.WalletID, &place, &event, &t.Rule, &t.LastOccurrence, &next); err != nil {
			return nil, err
		}
		if place.Valid {
			t.PlaceID = &place.String
		}
		if event.Valid {
			t.EventID = &event.String
		}
		if next.Valid {
			t.NextOccurrence = &next.Time
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateCursor persists a template's materialization cursor in one write.
func (r *RecurringTransactionRepo) UpdateCursor(ctx context.Context, id string, last time.Time, next *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE recurring_transactions SET last_occurrence = ?, next_occurrence = ? WHERE id = ?`,
		last, next, id)
	if err != nil {
		return wrapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RecurringTransactionRepo) Get(ctx context.Context, id string) (*RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, money, description, category_id, direction, wallet_id, place_id, event_id,
	       rule, last_occurrence, next_occurrence
	FROM recurring_transactions WHERE id = ?`, id)
	var t RecurringTransaction
	var place, event sql.NullString
	var next sql.NullTime
	if err := row.Scan(&t.ID, &t.Money, &t.Description, &t.CategoryID, &t.Direction,
		&t.WalletID, &place, &event, &t.Rule, &t.LastOccurrence, &next); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if place.Valid {
		t.PlaceID = &place.String
	}
	if event.Valid {
		t.EventID = &event.String
	}
	if next.Valid {
		t.NextOccurrence = &next.Time
	}
	return &t, nil
}

// RecurringTransferRepo handles transfer templates.
type RecurringTransferRepo struct {
	db *sql.DB
}

func NewRecurringTransferRepo(db *sql.DB) *RecurringTransferRepo {
	return &RecurringTransferRepo{db: db}
}

func (r *RecurringTransferRepo) Insert(ctx context.Context, t RecurringTransfer) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO recurring_transfers(
	 id, description, wallet_from_id, wallet_to_id, money, money_tax, place_id, event_id,
	 rule, last_occurrence, next_occurrence)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, t.ID, t.Description, t.WalletFromID, t.WalletToID, t.Money, t.MoneyTax, t.PlaceID, t.EventID,
		t.Rule, t.LastOccurrence, t.NextOccurrence)
	return wrapErr(err)
}

func (r *RecurringTransferRepo) ListDue(ctx context.Context, asOf time.Time) ([]RecurringTransfer, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, description, wallet_from_id, wallet_to_id, money, money_tax, place_id, event_id,
	       rule, last_occurrence, next_occurrence
	FROM recurring_transfers
	WHERE next_occurrence IS NOT NULL AND next_occurrence <= ?
	ORDER BY id`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecurringTransfer
	for rows.Next() {
		var t RecurringTransfer
		var place, event sql.NullString
		var next sql.NullTime
		if err := rows.Scan(&t.ID, &t.Description, &t.WalletFromID, &t.WalletToID, &t.Money, &t.MoneyTax,
			&place, &event, &t.Rule, &t.LastOccurrence, &next); err != nil {
			return nil, err
		}
		if place.Valid {
			t.PlaceID = &place.String
		}
		if event.Valid {
			t.EventID = &event.String
		}
		if next.Valid {
			t.NextOccurrence = &next.Time
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *RecurringTransferRepo) UpdateCursor(ctx context.Context, id string, last time.Time, next *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE recurring_transfers SET last_occurrence = ?, next_occurrence = ? WHERE id = ?`,
		last, next, id)
	if err != nil {
		return wrapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

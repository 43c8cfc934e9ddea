package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	WalletID     string
	CategoryID   string
	RecurrenceID string
	Search       string
}

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	var debtID, savingID *string
	if id, ok := t.Link.DebtID(); ok {
		debtID = &id
	}
	if id, ok := t.Link.SavingID(); ok {
		savingID = &id
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, money, date, description, category_id, direction, tx_type, wallet_id, place_id,
	 event_id, debt_id, saving_id, recurrence_id, confirmed, count_in_total, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, t.ID, t.Money, t.Date, t.Description, t.CategoryID, t.Direction, int(t.Link.Kind()),
		t.WalletID, t.PlaceID, t.EventID, debtID, savingID, t.RecurrenceID, t.Confirmed, t.CountInTotal)
	return wrapErr(err)
}

// LatestOccurrenceDate returns the date of the newest entry produced by a
// template on or before asOf, or ok=false when none exists. Cursor
// rebuilds after a template edit read from here; the engine itself only
// trusts the persisted cursor.
func (r *TransactionRepo) LatestOccurrenceDate(ctx context.Context, recurrenceID string, asOf time.Time) (time.Time, bool, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT date FROM transactions
	WHERE recurrence_id = ? AND date <= ?
	ORDER BY date DESC LIMIT 1`, recurrenceID, asOf)
	var d time.Time
	if err := row.Scan(&d); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return d, true, nil
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	var where []string
	var args []interface{}

	if f.WalletID != "" {
		where = append(where, "wallet_id = ?")
		args = append(args, f.WalletID)
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.RecurrenceID != "" {
		where = append(where, "recurrence_id = ?")
		args = append(args, f.RecurrenceID)
	}
	if f.Search != "" {
		where = append(where, "description LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}

	query := `SELECT id, money, date, description, category_id, direction, tx_type, wallet_id,
	 place_id, event_id, debt_id, saving_id, recurrence_id, confirmed, count_in_total, created_at, updated_at
	 FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, money, date, description, category_id, direction, tx_type, wallet_id,
	 place_id, event_id, debt_id, saving_id, recurrence_id, confirmed, count_in_total, created_at, updated_at
	FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// scanTransaction handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var place, event, debt, saving, recurrence sql.NullString
	var kind int
	if err := row.Scan(&t.ID, &t.Money, &t.Date, &t.Description, &t.CategoryID, &t.Direction, &kind,
		&t.WalletID, &place, &event, &debt, &saving, &recurrence, &t.Confirmed, &t.CountInTotal,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	switch TransactionKind(kind) {
	case KindDebt:
		t.Link = DebtLink(debt.String)
	case KindSaving:
		t.Link = SavingLink(saving.String)
	case KindTransfer:
		t.Link = TransferLink()
	default:
		t.Link = StandardLink()
	}
	if place.Valid {
		t.PlaceID = &place.String
	}
	if event.Valid {
		t.EventID = &event.String
	}
	if recurrence.Valid {
		t.RecurrenceID = &recurrence.String
	}
	return t, nil
}

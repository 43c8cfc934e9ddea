// Package legacy reads the pre-migration ledger schema. Access is
// strictly read-only; the importer owns all writes to the current store.
package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrUnavailable means the legacy database file is missing or cannot be
// read at all. It aborts an import run before any write happens.
var ErrUnavailable = errors.New("legacy: store unavailable")

// Store is a read-only handle over the legacy database file.
type Store struct {
	db *sql.DB
}

// Open opens the legacy database read-only and probes that it is a
// usable sqlite file. Any failure here maps to ErrUnavailable.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	db.SetMaxOpenConns(1) // sqlite
	var probe string
	if err := db.QueryRow(`SELECT COALESCE(MAX(name), '') FROM sqlite_master`).Scan(&probe); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// WalletRow mirrors a legacy wallet. Money is in the legacy fixed
// 2-decimal precision regardless of currency.
type WalletRow struct {
	ID           int64
	Name         string
	Icon         *string
	CurrencyISO  string
	InitialMoney int64
	CountInTotal bool
	Archived     bool
}

// CategoryRow mirrors a legacy category. Negative ids denote hidden
// system categories; ParentID may reference one of those sentinels.
type CategoryRow struct {
	ID       int64
	Name     string
	Icon     *string
	ParentID *int64
}

// EventRow mirrors a legacy event.
type EventRow struct {
	ID        int64
	Name      string
	Icon      *string
	StartDate time.Time
	EndDate   time.Time
	Note      *string
}

// DebtRow mirrors a legacy debt. Places were free text in the legacy
// schema, hence PlaceName instead of a foreign key.
type DebtRow struct {
	ID             int64
	DebtType       int
	Icon           *string
	Description    string
	Date           time.Time
	ExpirationDate *time.Time
	WalletID       int64
	PlaceName      *string
	Money          int64
	Archived       bool
}

// BudgetRow mirrors a legacy budget. WalletIDs is the raw delimited
// wallet-set string.
type BudgetRow struct {
	ID         int64
	BudgetType int
	CategoryID *int64
	StartDate  time.Time
	EndDate    time.Time
	Money      int64
	WalletIDs  string
}

// SavingRow mirrors a legacy saving.
type SavingRow struct {
	ID           int64
	Description  string
	Icon         *string
	InitialMoney int64
	TargetMoney  int64
	WalletID     int64
	EndDate      *time.Time
	Complete     bool
}

// RecurrenceRow mirrors a legacy recurring transaction template.
type RecurrenceRow struct {
	ID          int64
	Money       int64
	Description string
	CategoryID  int64
	Direction   int
	WalletID    int64
	PlaceName   *string
	Rule        string
}

// TransactionRow mirrors a legacy transaction. TransferID groups the two
// or three rows that together describe one transfer.
type TransactionRow struct {
	ID           int64
	Money        int64
	Date         time.Time
	Description  string
	CategoryID   int64
	Direction    int
	WalletID     int64
	PlaceName    *string
	EventID      *int64
	DebtID       *int64
	SavingID     *int64
	TransferID   *string
	RecurrenceID *int64
	Confirmed    bool
	CountInTotal bool
}

// Wallets returns all non-deleted legacy wallets.
func (s *Store) Wallets(ctx context.Context) ([]WalletRow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT _id, name, icon, currency_iso, initial_money, count_in_total, archived
	FROM wallet WHERE deleted = 0 ORDER BY _id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WalletRow
	for rows.Next() {
		var w WalletRow
		var icon sql.NullString
		if err := rows.Scan(&w.ID, &w.Name, &icon, &w.CurrencyISO, &w.InitialMoney, &w.CountInTotal, &w.Archived); err != nil {
			return nil, err
		}
		if icon.Valid {
			w.Icon = &icon.String
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Categories returns all non-deleted legacy categories, roots and
// children alike. The importer decides pass ordering.
func (s *Store) Categories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT _id, name, icon, parent_id
	FROM category WHERE deleted = 0 ORDER BY _id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryRow
	for rows.Next() {
		var c CategoryRow
		var icon sql.NullString
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &icon, &parent); err != nil {
			return nil, err
		}
		if icon.Valid {
			c.Icon = &icon.String
		}
		if parent.Valid {
			c.ParentID = &parent.Int64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Events returns all non-deleted legacy events.
func (s *Store) Events(ctx context.Context) ([]EventRow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT _id, name, icon, start_date, end_date, note
	FROM event WHERE deleted = 0 ORDER BY _id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EventRow
	for rows.Next() {
		var e EventRow
		var icon, note sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &icon, &e.StartDate, &e.EndDate, &note); err != nil {
			return nil, err
		}
		if icon.Valid {
			e.Icon = &icon.String
		}
		if note.Valid {
			e.Note = &note.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PlaceNames harvests the distinct free-text place names scattered over
// transactions, recurrences and debts. The legacy schema never modeled
// places as rows of their own.
func (s *Store) PlaceNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT place_name FROM "transaction" WHERE deleted = 0 AND place_name IS NOT NULL AND TRIM(place_name) != ''
	UNION
	SELECT place_name FROM recurrence WHERE deleted = 0 AND place_name IS NOT NULL AND TRIM(place_name) != ''
	UNION
	SELECT place_name FROM debt WHERE deleted = 0 AND place_name IS NOT NULL AND TRIM(place_name) != ''
	ORDER BY place_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Debts returns all non-deleted legacy debts.
func (s *Store) Debts(ctx context.Context) ([]DebtRow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT _id, debt_type, icon, description, date, expiration_date, wallet_id, place_name, money, archived
	FROM debt WHERE deleted = 0 ORDER BY _id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DebtRow
	for rows.Next() {
		var d DebtRow
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
			d.PlaceName = &place.String
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Budgets returns all non-deleted legacy budgets.
func (s *Store) Budgets(ctx context.Context) ([]BudgetRow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT _id, budget_type, category_id, start_date, end_date, money, wallet_ids
	FROM budget WHERE deleted = 0 ORDER BY _id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BudgetRow
	for rows.Next() {
		var b BudgetRow
		var category sql.NullInt64
		if err := rows.Scan(&b.ID, &b.BudgetType, &category, &b.StartDate, &b.EndDate, &b.Money, &b.WalletIDs); err != nil {
			return nil, err
		}
		if category.Valid {
			b.CategoryID = &category.Int64
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Savings returns all non-deleted legacy savings.
func (s *Store) Savings(ctx context.Context) ([]SavingRow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT _id, description, icon, initial_money, target_money, wallet_id, end_date, complete
	FROM saving WHERE deleted = 0 ORDER BY _id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SavingRow
	for rows.Next() {
		var s SavingRow
		var icon sql.NullString
		var end sql.NullTime
		if err := rows.Scan(&s.ID, &s.Description, &icon, &s.InitialMoney, &s.TargetMoney, &s.WalletID, &end, &s.Complete); err != nil {
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

// Recurrences returns all non-deleted legacy recurring templates.
func (s *Store) Recurrences(ctx context.Context) ([]RecurrenceRow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT _id, money, description, category_id, direction, wallet_id, place_name, rule
	FROM recurrence WHERE deleted = 0 ORDER BY _id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecurrenceRow
	for rows.Next() {
		var r RecurrenceRow
		var place sql.NullString
		if err := rows.Scan(&r.ID, &r.Money, &r.Description, &r.CategoryID, &r.Direction, &r.WalletID, &place, &r.Rule); err != nil {
			return nil, err
		}
		if place.Valid {
			r.PlaceName = &place.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Transactions returns non-deleted legacy transactions dated on or
// before asOf. Future-dated rows are excluded outright, not deferred.
func (s *Store) Transactions(ctx context.Context, asOf time.Time) ([]TransactionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT _id, money, date, description, category_id, direction, wallet_id, place_name,
	       event_id, debt_id, saving_id, transfer_id, recurrence_id, confirmed, count_in_total
	FROM "transaction" WHERE deleted = 0 AND date <= ? ORDER BY _id`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TransactionRow
	for rows.Next() {
		var t TransactionRow
		var place, transfer sql.NullString
		var event, debt, saving, recurrence sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Money, &t.Date, &t.Description, &t.CategoryID, &t.Direction,
			&t.WalletID, &place, &event, &debt, &saving, &transfer, &recurrence, &t.Confirmed, &t.CountInTotal); err != nil {
			return nil, err
		}
		if place.Valid {
			t.PlaceName = &place.String
		}
		if event.Valid {
			t.EventID = &event.Int64
		}
		if debt.Valid {
			t.DebtID = &debt.Int64
		}
		if saving.Valid {
			t.SavingID = &saving.Int64
		}
		if transfer.Valid {
			t.TransferID = &transfer.String
		}
		if recurrence.Valid {
			t.RecurrenceID = &recurrence.Int64
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LatestRecurrenceDate returns the newest non-deleted transaction date
// for a legacy recurrence id on or before asOf. Used to backfill a
// template's cursor during import.
func (s *Store) LatestRecurrenceDate(ctx context.Context, recurrenceID int64, asOf time.Time) (time.Time, bool, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT date FROM "transaction"
	WHERE deleted = 0 AND recurrence_id = ? AND date <= ?
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

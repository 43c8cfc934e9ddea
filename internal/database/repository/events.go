package repository

import (
	"context"
	"database/sql"
)

// EventRepo handles events.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Insert(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO events(id, name, icon, start_date, end_date, note)
	VALUES (?, ?, ?, ?, ?, ?);
	`, e.ID, e.Name, e.Icon, e.StartDate, e.EndDate, e.Note)
	return wrapErr(err)
}

func (r *EventRepo) List(ctx context.Context) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, icon, start_date, end_date, note FROM events ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
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

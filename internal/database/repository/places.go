package repository

import (
	"context"
	"database/sql"
)

// PlaceRepo handles places.
type PlaceRepo struct {
	db *sql.DB
}

func NewPlaceRepo(db *sql.DB) *PlaceRepo { return &PlaceRepo{db: db} }

func (r *PlaceRepo) Insert(ctx context.Context, p Place) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO places(id, name, address, latitude, longitude)
	VALUES (?, ?, ?, ?, ?);
	`, p.ID, p.Name, p.Address, p.Latitude, p.Longitude)
	return wrapErr(err)
}

func (r *PlaceRepo) List(ctx context.Context) ([]Place, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, address, latitude, longitude FROM places ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Place
	for rows.Next() {
		var p Place
		var address sql.NullString
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.Name, &address, &lat, &lon); err != nil {
			return nil, err
		}
		if address.Valid {
			p.Address = &address.String
		}
		if lat.Valid {
			p.Latitude = &lat.Float64
		}
		if lon.Valid {
			p.Longitude = &lon.Float64
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
)

// CategoryRepo handles categories.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) Insert(ctx context.Context, c Category) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(id, parent_id, name, icon, tag, system, show_report, sort_order)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`, c.ID, c.ParentID, c.Name, c.Icon, c.Tag, c.System, c.ShowReport, c.SortOrder)
	return wrapErr(err)
}

func (r *CategoryRepo) Upsert(ctx context.Context, c Category) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(id, parent_id, name, icon, tag, system, show_report, sort_order)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 parent_id=excluded.parent_id,
	 name=excluded.name,
	 icon=excluded.icon,
	 tag=excluded.tag,
	 system=excluded.system,
	 show_report=excluded.show_report,
	 sort_order=excluded.sort_order;
	`, c.ID, c.ParentID, c.Name, c.Icon, c.Tag, c.System, c.ShowReport, c.SortOrder)
	return wrapErr(err)
}

// GetByTag finds the system category carrying tag, or ErrNotFound.
func (r *CategoryRepo) GetByTag(ctx context.Context, tag string) (*Category, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, parent_id, name, icon, tag, system, show_report, sort_order
	FROM categories WHERE tag = ?`, tag)
	return scanCategory(row)
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (*Category, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, parent_id, name, icon, tag, system, show_report, sort_order
	FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

func (r *CategoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, parent_id, name, icon, tag, system, show_report, sort_order
	FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategoryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanCategory(row *sql.Row) (*Category, error) {
	var c Category
	var parent, icon, tag sql.NullString
	if err := row.Scan(&c.ID, &parent, &c.Name, &icon, &tag, &c.System, &c.ShowReport, &c.SortOrder); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	applyCategoryNulls(&c, parent, icon, tag)
	return &c, nil
}

func scanCategoryRow(rows *sql.Rows) (*Category, error) {
	var c Category
	var parent, icon, tag sql.NullString
	if err := rows.Scan(&c.ID, &parent, &c.Name, &icon, &tag, &c.System, &c.ShowReport, &c.SortOrder); err != nil {
		return nil, err
	}
	applyCategoryNulls(&c, parent, icon, tag)
	return &c, nil
}

func applyCategoryNulls(c *Category, parent, icon, tag sql.NullString) {
	if parent.Valid {
		c.ParentID = &parent.String
	}
	if icon.Valid {
		c.Icon = &icon.String
	}
	if tag.Valid {
		c.Tag = &tag.String
	}
}

package repository

import (
	"context"
	"database/sql"
)

// BudgetRepo handles budgets and their wallet links.
type BudgetRepo struct {
	db *sql.DB
}

func NewBudgetRepo(db *sql.DB) *BudgetRepo { return &BudgetRepo{db: db} }

// Insert writes the budget and one link row per wallet in a single
// transaction, so a budget never lands without its wallet set.
func (r *BudgetRepo) Insert(ctx context.Context, b Budget) error {
	return withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO budgets(id, budget_type, category_id, start_date, end_date, money, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?);
		`, b.ID, b.BudgetType, b.CategoryID, b.StartDate, b.EndDate, b.Money, b.Currency); err != nil {
			return wrapErr(err)
		}
		for _, walletID := range b.WalletIDs {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO budget_wallets(budget_id, wallet_id) VALUES (?, ?);
			`, b.ID, walletID); err != nil {
				return wrapErr(err)
			}
		}
		return nil
	})
}

func (r *BudgetRepo) List(ctx context.Context) ([]Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, budget_type, category_id, start_date, end_date, money, currency
	FROM budgets ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Budget
	for rows.Next() {
		var b Budget
		var category sql.NullString
		if err := rows.Scan(&b.ID, &b.BudgetType, &category, &b.StartDate, &b.EndDate, &b.Money, &b.Currency); err != nil {
			return nil, err
		}
		if category.Valid {
			b.CategoryID = &category.String
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ids, err := r.walletIDs(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].WalletIDs = ids
	}
	return out, nil
}

func (r *BudgetRepo) walletIDs(ctx context.Context, budgetID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT wallet_id FROM budget_wallets WHERE budget_id = ? ORDER BY wallet_id`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

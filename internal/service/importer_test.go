package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/AndreAle94/moneywallet-sub006/internal/database"
	"github.com/AndreAle94/moneywallet-sub006/internal/database/repository"
	"github.com/AndreAle94/moneywallet-sub006/internal/legacy"
)

const legacySchema = `
CREATE TABLE wallet (
 _id INTEGER PRIMARY KEY, name TEXT, icon TEXT, currency_iso TEXT,
 initial_money INTEGER, count_in_total INTEGER, archived INTEGER, deleted INTEGER DEFAULT 0);
CREATE TABLE category (
 _id INTEGER PRIMARY KEY, name TEXT, icon TEXT, parent_id INTEGER, deleted INTEGER DEFAULT 0);
CREATE TABLE event (
 _id INTEGER PRIMARY KEY, name TEXT, icon TEXT, start_date TIMESTAMP, end_date TIMESTAMP,
 note TEXT, deleted INTEGER DEFAULT 0);
CREATE TABLE debt (
 _id INTEGER PRIMARY KEY, debt_type INTEGER, icon TEXT, description TEXT, date TIMESTAMP,
 expiration_date TIMESTAMP, wallet_id INTEGER, place_name TEXT, money INTEGER,
 archived INTEGER, deleted INTEGER DEFAULT 0);
CREATE TABLE budget (
 _id INTEGER PRIMARY KEY, budget_type INTEGER, category_id INTEGER, start_date TIMESTAMP,
 end_date TIMESTAMP, money INTEGER, wallet_ids TEXT, deleted INTEGER DEFAULT 0);
CREATE TABLE saving (
 _id INTEGER PRIMARY KEY, description TEXT, icon TEXT, initial_money INTEGER,
 target_money INTEGER, wallet_id INTEGER, end_date TIMESTAMP, complete INTEGER,
 deleted INTEGER DEFAULT 0);
CREATE TABLE recurrence (
 _id INTEGER PRIMARY KEY, money INTEGER, description TEXT, category_id INTEGER,
 direction INTEGER, wallet_id INTEGER, place_name TEXT, rule TEXT, deleted INTEGER DEFAULT 0);
CREATE TABLE "transaction" (
 _id INTEGER PRIMARY KEY, money INTEGER, date TIMESTAMP, description TEXT,
 category_id INTEGER, direction INTEGER, wallet_id INTEGER, place_name TEXT,
 event_id INTEGER, debt_id INTEGER, saving_id INTEGER, transfer_id TEXT,
 recurrence_id INTEGER, confirmed INTEGER, count_in_total INTEGER, deleted INTEGER DEFAULT 0);
`

// legacyFixture builds an old-schema database file for import tests.
type legacyFixture struct {
	t    *testing.T
	db   *sql.DB
	path string
}

func newLegacyFixture(t *testing.T) *legacyFixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite3", "file:"+path)
	require.NoError(t, err)
	_, err = db.Exec(legacySchema)
	require.NoError(t, err)
	return &legacyFixture{t: t, db: db, path: path}
}

func (f *legacyFixture) exec(query string, args ...interface{}) {
	f.t.Helper()
	_, err := f.db.Exec(query, args...)
	require.NoError(f.t, err)
}

// open finalizes the fixture and hands it to the read-only reader.
func (f *legacyFixture) open() *legacy.Store {
	f.t.Helper()
	require.NoError(f.t, f.db.Close())
	store, err := legacy.Open(f.path)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = store.Close() })
	return store
}

func (f *legacyFixture) addWallet(id int64, name, currency string, initialMoney int64) {
	f.exec(`INSERT INTO wallet (_id, name, currency_iso, initial_money, count_in_total, archived)
	 VALUES (?, ?, ?, ?, 1, 0)`, id, name, currency, initialMoney)
}

func (f *legacyFixture) addCategory(id int64, name string, parentID *int64) {
	f.exec(`INSERT INTO category (_id, name, parent_id) VALUES (?, ?, ?)`, id, name, parentID)
}

func (f *legacyFixture) addTransaction(id, money int64, d time.Time, description string,
	categoryID int64, direction int, walletID int64, transferID *string, recurrenceID *int64) {
	f.exec(`INSERT INTO "transaction"
	 (_id, money, date, description, category_id, direction, wallet_id, transfer_id, recurrence_id, confirmed, count_in_total)
	 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 1)`,
		id, money, d, description, categoryID, direction, walletID, transferID, recurrenceID)
}

func (s *testStore) importer(lg *legacy.Store) *Importer {
	return &Importer{
		Legacy:       lg,
		Wallets:      s.wallets,
		Categories:   s.categories,
		Events:       s.events,
		Places:       s.places,
		Debts:        s.debts,
		Budgets:      s.budgets,
		Savings:      s.savings,
		Templates:    s.templates,
		Transactions: s.transactions,
		Transfers:    s.transfers,
		Log:          zerolog.Nop(),
	}
}

func TestImportMissingLegacyFile(t *testing.T) {
	t.Parallel()

	_, err := legacy.Open(filepath.Join(t.TempDir(), "nope.db"))
	require.ErrorIs(t, err, legacy.ErrUnavailable)
}

func TestImportWalletMoneyRescale(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newTestStore(t, ctx)

	fx := newLegacyFixture(t)
	fx.addWallet(1, "Euro", "EUR", 12345)
	fx.addWallet(2, "Yen", "JPY", 150099)
	fx.addWallet(3, "Dinar", "BHD", 12345)

	res, err := store.importer(fx.open()).Run(ctx, date(2023, time.June, 1))
	require.NoError(t, err)
	require.Equal(t, 3, res.Wallets)
	require.Equal(t, 0, res.Skipped)

	wallets, err := store.wallets.List(ctx)
	require.NoError(t, err)
	byName := map[string]repository.Wallet{}
	for _, w := range wallets {
		byName[w.Name] = w
	}
	require.Equal(t, int64(12345), byName["Euro"].StartMoney)
	// 1500.99 truncates toward zero in a zero-decimal currency
	require.Equal(t, int64(1500), byName["Yen"].StartMoney)
	require.Equal(t, int64(123450), byName["Dinar"].StartMoney)
}

func TestImportTransferPairing(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newTestStore(t, ctx)

	fx := newLegacyFixture(t)
	fx.addWallet(1, "Checking", "EUR", 0)
	fx.addWallet(2, "Savings", "EUR", 0)

	d := date(2023, time.April, 1)
	pair := "transfer-abc"
	lone := "transfer-lone"
	fx.addTransaction(10, 5000, d, "Stash", -1, repository.DirectionExpense, 1, &pair, nil)
	fx.addTransaction(11, 5000, d, "Stash", -1, repository.DirectionIncome, 2, &pair, nil)
	fx.addTransaction(12, 25, d, "Stash fee", -2, repository.DirectionExpense, 1, &pair, nil)
	fx.addTransaction(13, 900, d, "Orphan leg", -1, repository.DirectionExpense, 1, &lone, nil)

	res, err := store.importer(fx.open()).Run(ctx, date(2023, time.June, 1))
	require.NoError(t, err)
	require.Equal(t, 4, res.Transactions)
	require.Equal(t, 1, res.Transfers)
	require.Equal(t, 1, res.Skipped)

	transfers, err := store.transfers.List(ctx)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	tr := transfers[0]
	require.NotNil(t, tr.TransactionTaxID)

	from, err := store.transactions.Get(ctx, tr.TransactionFromID)
	require.NoError(t, err)
	require.Equal(t, repository.DirectionExpense, from.Direction)
	require.Equal(t, int64(5000), from.Money)
	require.Equal(t, repository.KindTransfer, from.Link.Kind())

	to, err := store.transactions.Get(ctx, tr.TransactionToID)
	require.NoError(t, err)
	require.Equal(t, repository.DirectionIncome, to.Direction)

	tax, err := store.transactions.Get(ctx, *tr.TransactionTaxID)
	require.NoError(t, err)
	require.Equal(t, int64(25), tax.Money)
	taxCat, err := store.categories.GetByTag(ctx, database.TagTransferTax)
	require.NoError(t, err)
	require.Equal(t, taxCat.ID, tax.CategoryID)

	// the lone leg survives as a transaction but produces no transfer row
	orphans, err := store.transactions.List(ctx, repository.TransactionFilters{Search: "Orphan"})
	require.NoError(t, err)
	require.Len(t, orphans, 1)
}

func TestImportBudgetWalletSet(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newTestStore(t, ctx)

	fx := newLegacyFixture(t)
	fx.addWallet(1, "Yen", "JPY", 0)
	fx.addWallet(2, "Euro", "EUR", 0)
	fx.exec(`INSERT INTO budget (_id, budget_type, start_date, end_date, money, wallet_ids)
	 VALUES (1, 0, ?, ?, 500000, '1, 2, 99')`,
		date(2023, time.January, 1), date(2023, time.December, 31))
	fx.exec(`INSERT INTO budget (_id, budget_type, start_date, end_date, money, wallet_ids)
	 VALUES (2, 0, ?, ?, 1000, '99')`,
		date(2023, time.January, 1), date(2023, time.December, 31))

	res, err := store.importer(fx.open()).Run(ctx, date(2023, time.June, 1))
	require.NoError(t, err)
	require.Equal(t, 1, res.Budgets)
	require.Equal(t, 1, res.Skipped)

	budgets, err := store.budgets.List(ctx)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	b := budgets[0]
	// unresolvable wallet 99 is dropped, the rest survive
	require.Len(t, b.WalletIDs, 2)
	// currency and precision follow the first resolved wallet
	require.Equal(t, "JPY", b.Currency)
	require.Equal(t, int64(5000), b.Money)
}

func TestImportRecurrenceCursorBackfill(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newTestStore(t, ctx)

	fx := newLegacyFixture(t)
	fx.addWallet(1, "Checking", "EUR", 0)
	fx.addCategory(5, "Rent", nil)

	weekly := "1;1;0;1000000;0;0;2023-01-02;"
	fx.exec(`INSERT INTO recurrence (_id, money, description, category_id, direction, wallet_id, rule)
	 VALUES (1, -120000, 'Rent', 5, 0, 1, ?)`, weekly)
	fx.exec(`INSERT INTO recurrence (_id, money, description, category_id, direction, wallet_id, rule)
	 VALUES (2, -500, 'Fresh', 5, 0, 1, ?)`, weekly)
	fx.exec(`INSERT INTO recurrence (_id, money, description, category_id, direction, wallet_id, rule)
	 VALUES (3, -1, 'Broken', 5, 0, 1, 'garbage')`)

	rec1 := int64(1)
	fx.addTransaction(20, -120000, date(2023, time.January, 2), "Rent", 5, repository.DirectionExpense, 1, nil, &rec1)
	fx.addTransaction(21, -120000, date(2023, time.January, 9), "Rent", 5, repository.DirectionExpense, 1, nil, &rec1)

	res, err := store.importer(fx.open()).Run(ctx, date(2023, time.January, 10))
	require.NoError(t, err)
	require.Equal(t, 2, res.Recurrences)
	require.Equal(t, 1, res.Skipped)

	due, err := store.templates.ListDue(ctx, date(2030, time.January, 1))
	require.NoError(t, err)
	require.Len(t, due, 2)
	byDesc := map[string]repository.RecurringTransaction{}
	for _, tpl := range due {
		byDesc[tpl.Description] = tpl
	}

	// backfilled from the newest materialized legacy transaction
	rent := byDesc["Rent"]
	require.True(t, rent.LastOccurrence.Equal(date(2023, time.January, 9)))
	require.NotNil(t, rent.NextOccurrence)
	require.True(t, rent.NextOccurrence.Equal(date(2023, time.January, 16)))

	// never materialized: cursor sits on the rule start
	fresh := byDesc["Fresh"]
	require.True(t, fresh.LastOccurrence.Equal(date(2023, time.January, 2)))
	require.NotNil(t, fresh.NextOccurrence)
	require.True(t, fresh.NextOccurrence.Equal(date(2023, time.January, 9)))

	// the imported history is linked to the new template id
	txs, err := store.transactions.List(ctx, repository.TransactionFilters{RecurrenceID: rent.ID})
	require.NoError(t, err)
	require.Len(t, txs, 2)
}

func TestImportPlaceHarvest(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newTestStore(t, ctx)

	fx := newLegacyFixture(t)
	fx.addWallet(1, "Checking", "EUR", 0)
	fx.addCategory(5, "Food", nil)
	d := date(2023, time.March, 3)
	fx.exec(`INSERT INTO "transaction"
	 (_id, money, date, description, category_id, direction, wallet_id, place_name, confirmed, count_in_total)
	 VALUES (1, -1200, ?, 'Lunch', 5, 0, 1, 'Corner Cafe', 1, 1)`, d)
	fx.exec(`INSERT INTO debt
	 (_id, debt_type, description, date, wallet_id, place_name, money, archived)
	 VALUES (1, 0, 'Loan', ?, 1, 'Corner Cafe', 10000, 0)`, d)
	fx.exec(`INSERT INTO recurrence (_id, money, description, category_id, direction, wallet_id, place_name, rule)
	 VALUES (1, -900, 'Coffee run', 5, 0, 1, 'Bean Bar', '0;1;0;;0;0;2023-03-01;')`)

	res, err := store.importer(fx.open()).Run(ctx, date(2023, time.March, 10))
	require.NoError(t, err)
	require.Equal(t, 2, res.Places)

	places, err := store.places.List(ctx)
	require.NoError(t, err)
	names := map[string]string{}
	for _, p := range places {
		names[p.Name] = p.ID
	}
	require.Contains(t, names, "Corner Cafe")
	require.Contains(t, names, "Bean Bar")

	txs, err := store.transactions.List(ctx, repository.TransactionFilters{Search: "Lunch"})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].PlaceID)
	require.Equal(t, names["Corner Cafe"], *txs[0].PlaceID)

	debts, err := store.debts.List(ctx)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	require.NotNil(t, debts[0].PlaceID)
	require.Equal(t, names["Corner Cafe"], *debts[0].PlaceID)
}

func TestImportDebtLinkAndSentinelCategory(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newTestStore(t, ctx)

	fx := newLegacyFixture(t)
	fx.addWallet(1, "Checking", "EUR", 0)
	d := date(2023, time.February, 10)
	fx.exec(`INSERT INTO debt (_id, debt_type, description, date, wallet_id, money, archived)
	 VALUES (7, 0, 'Car loan', ?, 1, 500000, 0)`, d)
	// repayment row referencing the hidden debt sentinel category
	fx.exec(`INSERT INTO "transaction"
	 (_id, money, date, description, category_id, direction, wallet_id, debt_id, confirmed, count_in_total)
	 VALUES (1, -20000, ?, 'Repayment', -3, 0, 1, 7, 1, 1)`, d)

	res, err := store.importer(fx.open()).Run(ctx, date(2023, time.June, 1))
	require.NoError(t, err)
	require.Equal(t, 1, res.Debts)
	require.Equal(t, 1, res.Transactions)
	require.Equal(t, 0, res.Skipped)

	debts, err := store.debts.List(ctx)
	require.NoError(t, err)
	require.Len(t, debts, 1)

	txs, err := store.transactions.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	tx := txs[0]
	require.Equal(t, repository.KindDebt, tx.Link.Kind())
	debtID, ok := tx.Link.DebtID()
	require.True(t, ok)
	require.Equal(t, debts[0].ID, debtID)

	debtCat, err := store.categories.GetByTag(ctx, database.TagDebt)
	require.NoError(t, err)
	require.Equal(t, debtCat.ID, tx.CategoryID)
}

func TestImportSkipsRowsWithMissingWallet(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newTestStore(t, ctx)

	fx := newLegacyFixture(t)
	fx.addCategory(5, "Food", nil)
	fx.addTransaction(1, -100, date(2023, time.May, 5), "Nowhere", 5, repository.DirectionExpense, 42, nil, nil)

	res, err := store.importer(fx.open()).Run(ctx, date(2023, time.June, 1))
	require.NoError(t, err)
	require.Equal(t, 0, res.Transactions)
	require.Equal(t, 1, res.Skipped)

	_, err = store.transactions.Get(ctx, "anything")
	require.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestImportCategoryHierarchy(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newTestStore(t, ctx)

	fx := newLegacyFixture(t)
	root := int64(1)
	missing := int64(404)
	fx.addCategory(1, "Hobbies", nil)
	fx.addCategory(2, "Board games", &root)
	fx.addCategory(3, "Stray child", &missing)

	res, err := store.importer(fx.open()).Run(ctx, date(2023, time.June, 1))
	require.NoError(t, err)
	require.Equal(t, 2, res.Categories)
	require.Equal(t, 1, res.Skipped)

	cats, err := store.categories.List(ctx)
	require.NoError(t, err)
	byName := map[string]repository.Category{}
	for _, c := range cats {
		byName[c.Name] = c
	}
	require.NotNil(t, byName["Board games"].ParentID)
	require.Equal(t, byName["Hobbies"].ID, *byName["Board games"].ParentID)
	_, stray := byName["Stray child"]
	require.False(t, stray)
}

func TestImportSavingsRescalesBothBounds(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newTestStore(t, ctx)

	fx := newLegacyFixture(t)
	fx.addWallet(1, "Yen", "JPY", 0)
	fx.exec(`INSERT INTO saving (_id, description, initial_money, target_money, wallet_id, complete)
	 VALUES (1, 'Trip fund', 123456, 999999, 1, 0)`)
	fx.exec(`INSERT INTO saving (_id, description, initial_money, target_money, wallet_id, complete)
	 VALUES (2, 'Orphan fund', 100, 200, 9, 0)`)
	// deposit row referencing the hidden saving sentinel category
	fx.exec(`INSERT INTO "transaction"
	 (_id, money, date, description, category_id, direction, wallet_id, saving_id, confirmed, count_in_total)
	 VALUES (1, 50000, ?, 'Deposit', -6, 0, 1, 1, 1, 1)`, date(2023, time.March, 1))

	res, err := store.importer(fx.open()).Run(ctx, date(2023, time.June, 1))
	require.NoError(t, err)
	require.Equal(t, 1, res.Savings)
	require.Equal(t, 1, res.Transactions)
	require.Equal(t, 1, res.Skipped)

	savings, err := store.savings.List(ctx)
	require.NoError(t, err)
	require.Len(t, savings, 1)
	sv := savings[0]
	// both bounds rescale 2 -> 0 decimals with truncation
	require.Equal(t, int64(1234), sv.StartMoney)
	require.Equal(t, int64(9999), sv.EndMoney)
	require.False(t, sv.Complete)

	txs, err := store.transactions.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, repository.KindSaving, txs[0].Link.Kind())
	savingID, ok := txs[0].Link.SavingID()
	require.True(t, ok)
	require.Equal(t, sv.ID, savingID)
}

func TestImportEventsLinkTransactions(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newTestStore(t, ctx)

	fx := newLegacyFixture(t)
	fx.addWallet(1, "Checking", "EUR", 0)
	fx.addCategory(5, "Travel", nil)
	start := date(2023, time.September, 1)
	end := date(2023, time.September, 10)
	fx.exec(`INSERT INTO event (_id, name, start_date, end_date, note)
	 VALUES (1, 'Berlin trip', ?, ?, 'work travel')`, start, end)
	d := date(2023, time.September, 3)
	fx.exec(`INSERT INTO "transaction"
	 (_id, money, date, description, category_id, direction, wallet_id, event_id, confirmed, count_in_total)
	 VALUES (1, -4500, ?, 'Hotel', 5, 0, 1, 1, 1, 1)`, d)
	// dangling event reference: the row imports, the relationship drops
	fx.exec(`INSERT INTO "transaction"
	 (_id, money, date, description, category_id, direction, wallet_id, event_id, confirmed, count_in_total)
	 VALUES (2, -900, ?, 'Taxi', 5, 0, 1, 99, 1, 1)`, d)

	res, err := store.importer(fx.open()).Run(ctx, date(2023, time.October, 1))
	require.NoError(t, err)
	require.Equal(t, 1, res.Events)
	require.Equal(t, 2, res.Transactions)

	events, err := store.events.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]
	require.Equal(t, "Berlin trip", ev.Name)
	require.True(t, ev.StartDate.Equal(start))
	require.True(t, ev.EndDate.Equal(end))
	require.NotNil(t, ev.Note)
	require.Equal(t, "work travel", *ev.Note)

	hotel, err := store.transactions.List(ctx, repository.TransactionFilters{Search: "Hotel"})
	require.NoError(t, err)
	require.Len(t, hotel, 1)
	require.NotNil(t, hotel[0].EventID)
	require.Equal(t, ev.ID, *hotel[0].EventID)

	taxi, err := store.transactions.List(ctx, repository.TransactionFilters{Search: "Taxi"})
	require.NoError(t, err)
	require.Len(t, taxi, 1)
	require.Nil(t, taxi[0].EventID)
}

func TestImportExcludesFutureAndDeletedRows(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := newTestStore(t, ctx)

	fx := newLegacyFixture(t)
	fx.addWallet(1, "Checking", "EUR", 0)
	fx.addCategory(5, "Food", nil)
	now := date(2023, time.June, 1)
	fx.addTransaction(1, -100, date(2023, time.May, 1), "Kept", 5, repository.DirectionExpense, 1, nil, nil)
	fx.addTransaction(2, -100, date(2023, time.July, 1), "Future", 5, repository.DirectionExpense, 1, nil, nil)
	fx.exec(`INSERT INTO "transaction"
	 (_id, money, date, description, category_id, direction, wallet_id, confirmed, count_in_total, deleted)
	 VALUES (3, -100, ?, 'Deleted', 5, 0, 1, 1, 1, 1)`, date(2023, time.May, 2))

	res, err := store.importer(fx.open()).Run(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, res.Transactions)

	txs, err := store.transactions.List(ctx, repository.TransactionFilters{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, "Kept", txs[0].Description)
}

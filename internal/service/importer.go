package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AndreAle94/moneywallet-sub006/internal/database"
	"github.com/AndreAle94/moneywallet-sub006/internal/database/repository"
	"github.com/AndreAle94/moneywallet-sub006/internal/legacy"
	"github.com/AndreAle94/moneywallet-sub006/internal/money"
	"github.com/AndreAle94/moneywallet-sub006/internal/recurrence"
)

// Hidden system categories in the legacy schema carried fixed negative
// ids. They are redirected to the seeded system category of the same tag
// instead of being re-created.
var legacySystemCategories = map[int64]string{
	-1: database.TagTransfer,
	-2: database.TagTransferTax,
	-3: database.TagDebt,
	-4: database.TagCredit,
	-5: database.TagTax,
	-6: database.TagSaving,
}

// Importer replays a legacy database into the current schema. Stages run
// in dependency order; every per-row failure is skipped and logged, and
// only legacy-store unavailability aborts the run.
type Importer struct {
	Legacy *legacy.Store

	Wallets      *repository.WalletRepo
	Categories   *repository.CategoryRepo
	Events       *repository.EventRepo
	Places       *repository.PlaceRepo
	Debts        *repository.DebtRepo
	Budgets      *repository.BudgetRepo
	Savings      *repository.SavingRepo
	Templates    *repository.RecurringTransactionRepo
	Transactions *repository.TransactionRepo
	Transfers    *repository.TransferRepo

	Notifier Notifier
	Log      zerolog.Logger
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Wallets      int
	Categories   int
	Events       int
	Places       int
	Debts        int
	Budgets      int
	Savings      int
	Recurrences  int
	Transactions int
	Transfers    int
	Skipped      int
}

// importedWallet is the wallet cache value: the new id plus the currency
// info every money rescale needs.
type importedWallet struct {
	id       string
	currency string
	decimals int
}

// transferLegs buffers the new transaction ids of one legacy transfer
// until the finalization stage can pair them.
type transferLegs struct {
	from        *string
	to          *string
	tax         *string
	date        time.Time
	description string
}

// caches hold the legacy-id to new-id mappings for one run. A missing
// entry always means "that row did not import"; dependents drop the
// relationship or skip themselves, never fail.
type caches struct {
	wallets     map[int64]importedWallet
	categories  map[int64]string
	categoryTag map[string]string
	events      map[int64]string
	places      map[string]string
	debts       map[int64]string
	savings     map[int64]string
	recurrences map[int64]string
	transfers   map[string]*transferLegs
}

func newCaches() *caches {
	return &caches{
		wallets:     make(map[int64]importedWallet),
		categories:  make(map[int64]string),
		categoryTag: make(map[string]string),
		events:      make(map[int64]string),
		places:      make(map[string]string),
		debts:       make(map[int64]string),
		savings:     make(map[int64]string),
		recurrences: make(map[int64]string),
		transfers:   make(map[string]*transferLegs),
	}
}

// Run imports every entity type in dependency order. now bounds which
// transactions are imported and where recurrence cursors land.
func (s *Importer) Run(ctx context.Context, now time.Time) (ImportResult, error) {
	res := ImportResult{}
	if s.Legacy == nil {
		err := fmt.Errorf("%w: no handle", legacy.ErrUnavailable)
		s.notify(res, err)
		return res, err
	}

	c := newCaches()
	stages := []func(context.Context, *caches, time.Time, *ImportResult) error{
		s.importWallets,
		s.importCategories,
		s.importEvents,
		s.importPlaces,
		s.importDebts,
		s.importBudgets,
		s.importSavings,
		s.importRecurrences,
		s.importTransactions,
		s.importTransfers,
	}
	for _, stage := range stages {
		if err := stage(ctx, c, now, &res); err != nil {
			s.notify(res, err)
			return res, err
		}
	}

	s.notify(res, nil)
	return res, nil
}

func (s *Importer) importWallets(ctx context.Context, c *caches, _ time.Time, res *ImportResult) error {
	rows, err := s.Legacy.Wallets(ctx)
	if err != nil {
		return fmt.Errorf("read legacy wallets: %w", err)
	}
	for _, r := range rows {
		decimals := money.DecimalsFor(r.CurrencyISO)
		w := repository.Wallet{
			ID:           uuid.NewString(),
			Name:         r.Name,
			Icon:         r.Icon,
			Currency:     r.CurrencyISO,
			StartMoney:   money.Normalize(r.InitialMoney, money.LegacyDecimals, decimals),
			CountInTotal: r.CountInTotal,
			Archived:     r.Archived,
		}
		if err := s.Wallets.Insert(ctx, w); err != nil {
			s.skipRow(res, err, "wallet", r.ID)
			continue
		}
		c.wallets[r.ID] = importedWallet{id: w.ID, currency: r.CurrencyISO, decimals: decimals}
		res.Wallets++
	}
	return nil
}

// importCategories is the only two-pass stage: roots first (redirecting
// legacy system sentinels onto the seeded categories), then children
// resolved against the root pass.
func (s *Importer) importCategories(ctx context.Context, c *caches, _ time.Time, res *ImportResult) error {
	rows, err := s.Legacy.Categories(ctx)
	if err != nil {
		return fmt.Errorf("read legacy categories: %w", err)
	}

	// resolve the seeded system categories up front: sentinel ids can be
	// referenced by transactions that never had a matching category row.
	for _, tag := range legacySystemCategories {
		existing, err := s.Categories.GetByTag(ctx, tag)
		if err != nil {
			return fmt.Errorf("system category %q: %w", tag, err)
		}
		c.categoryTag[tag] = existing.ID
	}

	for _, r := range rows {
		if r.ParentID != nil {
			continue
		}
		if tag, ok := legacySystemCategories[r.ID]; ok {
			c.categories[r.ID] = c.categoryTag[tag]
			continue
		}
		cat := repository.Category{
			ID:         uuid.NewString(),
			Name:       r.Name,
			Icon:       r.Icon,
			ShowReport: true,
		}
		if err := s.Categories.Insert(ctx, cat); err != nil {
			s.skipRow(res, err, "category", r.ID)
			continue
		}
		c.categories[r.ID] = cat.ID
		res.Categories++
	}

	for _, r := range rows {
		if r.ParentID == nil {
			continue
		}
		parentID, ok := c.categories[*r.ParentID]
		if !ok {
			s.skipMissing(res, "category", r.ID, "parent")
			continue
		}
		cat := repository.Category{
			ID:         uuid.NewString(),
			ParentID:   &parentID,
			Name:       r.Name,
			Icon:       r.Icon,
			ShowReport: true,
		}
		if err := s.Categories.Insert(ctx, cat); err != nil {
			s.skipRow(res, err, "category", r.ID)
			continue
		}
		c.categories[r.ID] = cat.ID
		res.Categories++
	}
	return nil
}

func (s *Importer) importEvents(ctx context.Context, c *caches, _ time.Time, res *ImportResult) error {
	rows, err := s.Legacy.Events(ctx)
	if err != nil {
		return fmt.Errorf("read legacy events: %w", err)
	}
	for _, r := range rows {
		e := repository.Event{
			ID:        uuid.NewString(),
			Name:      r.Name,
			Icon:      r.Icon,
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
			Note:      r.Note,
		}
		if err := s.Events.Insert(ctx, e); err != nil {
			s.skipRow(res, err, "event", r.ID)
			continue
		}
		c.events[r.ID] = e.ID
		res.Events++
	}
	return nil
}

// importPlaces promotes the free-text place names the legacy schema
// scattered over three tables into first-class rows, cached by name
// because no legacy id ever existed.
func (s *Importer) importPlaces(ctx context.Context, c *caches, _ time.Time, res *ImportResult) error {
	names, err := s.Legacy.PlaceNames(ctx)
	if err != nil {
		return fmt.Errorf("read legacy place names: %w", err)
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := c.places[name]; ok {
			continue
		}
		p := repository.Place{ID: uuid.NewString(), Name: name}
		if err := s.Places.Insert(ctx, p); err != nil {
			s.Log.Warn().Err(err).Str("place", name).Msg("skipping legacy row")
			res.Skipped++
			continue
		}
		c.places[name] = p.ID
		res.Places++
	}
	return nil
}

func (s *Importer) importDebts(ctx context.Context, c *caches, _ time.Time, res *ImportResult) error {
	rows, err := s.Legacy.Debts(ctx)
	if err != nil {
		return fmt.Errorf("read legacy debts: %w", err)
	}
	for _, r := range rows {
		w, ok := c.wallets[r.WalletID]
		if !ok {
			s.skipMissing(res, "debt", r.ID, "wallet")
			continue
		}
		d := repository.Debt{
			ID:             uuid.NewString(),
			DebtType:       r.DebtType,
			Icon:           r.Icon,
			Description:    r.Description,
			Date:           r.Date,
			ExpirationDate: r.ExpirationDate,
			WalletID:       w.id,
			PlaceID:        s.resolvePlace(c, r.PlaceName),
			Money:          money.Normalize(r.Money, money.LegacyDecimals, w.decimals),
			Archived:       r.Archived,
		}
		if err := s.Debts.Insert(ctx, d); err != nil {
			s.skipRow(res, err, "debt", r.ID)
			continue
		}
		c.debts[r.ID] = d.ID
		res.Debts++
	}
	return nil
}

// importBudgets decodes the legacy delimited wallet-set string. Ids that
// fail to resolve are dropped, and a budget without a single resolved
// wallet is not imported at all.
func (s *Importer) importBudgets(ctx context.Context, c *caches, _ time.Time, res *ImportResult) error {
	rows, err := s.Legacy.Budgets(ctx)
	if err != nil {
		return fmt.Errorf("read legacy budgets: %w", err)
	}
	for _, r := range rows {
		var walletIDs []string
		var first *importedWallet
		for _, raw := range strings.Split(r.WalletIDs, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			legacyID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			w, ok := c.wallets[legacyID]
			if !ok {
				continue
			}
			walletIDs = append(walletIDs, w.id)
			if first == nil {
				wCopy := w
				first = &wCopy
			}
		}
		if len(walletIDs) == 0 {
			s.skipMissing(res, "budget", r.ID, "wallet set")
			continue
		}
		var categoryID *string
		if r.CategoryID != nil {
			if id, ok := c.categories[*r.CategoryID]; ok {
				categoryID = &id
			}
		}
		// currency comes from the first resolved wallet; mixed-currency
		// wallet sets keep this historical ambiguity.
		b := repository.Budget{
			ID:         uuid.NewString(),
			BudgetType: r.BudgetType,
			CategoryID: categoryID,
			StartDate:  r.StartDate,
			EndDate:    r.EndDate,
			Money:      money.Normalize(r.Money, money.LegacyDecimals, first.decimals),
			Currency:   first.currency,
			WalletIDs:  walletIDs,
		}
		if err := s.Budgets.Insert(ctx, b); err != nil {
			s.skipRow(res, err, "budget", r.ID)
			continue
		}
		res.Budgets++
	}
	return nil
}

func (s *Importer) importSavings(ctx context.Context, c *caches, _ time.Time, res *ImportResult) error {
	rows, err := s.Legacy.Savings(ctx)
	if err != nil {
		return fmt.Errorf("read legacy savings: %w", err)
	}
	for _, r := range rows {
		w, ok := c.wallets[r.WalletID]
		if !ok {
			s.skipMissing(res, "saving", r.ID, "wallet")
			continue
		}
		sv := repository.Saving{
			ID:          uuid.NewString(),
			Description: r.Description,
			Icon:        r.Icon,
			StartMoney:  money.Normalize(r.InitialMoney, money.LegacyDecimals, w.decimals),
			EndMoney:    money.Normalize(r.TargetMoney, money.LegacyDecimals, w.decimals),
			WalletID:    w.id,
			EndDate:     r.EndDate,
			Complete:    r.Complete,
		}
		if err := s.Savings.Insert(ctx, sv); err != nil {
			s.skipRow(res, err, "saving", r.ID)
			continue
		}
		c.savings[r.ID] = sv.ID
		res.Savings++
	}
	return nil
}

// importRecurrences parses the legacy rule text, backfills the cursor
// from the latest already-materialized legacy transaction and positions
// the next occurrence with a single iterator step.
func (s *Importer) importRecurrences(ctx context.Context, c *caches, now time.Time, res *ImportResult) error {
	rows, err := s.Legacy.Recurrences(ctx)
	if err != nil {
		return fmt.Errorf("read legacy recurrences: %w", err)
	}
	for _, r := range rows {
		rule, err := recurrence.ParseLegacyRule(r.Rule)
		if err != nil {
			s.skipRow(res, err, "recurrence", r.ID)
			continue
		}
		w, ok := c.wallets[r.WalletID]
		if !ok {
			s.skipMissing(res, "recurrence", r.ID, "wallet")
			continue
		}
		categoryID, ok := s.resolveCategory(c, r.CategoryID)
		if !ok {
			s.skipMissing(res, "recurrence", r.ID, "category")
			continue
		}

		last, found, err := s.Legacy.LatestRecurrenceDate(ctx, r.ID, now)
		if err != nil {
			s.skipRow(res, err, "recurrence", r.ID)
			continue
		}
		if !found {
			last = rule.StartDate
		}
		var next *time.Time
		if d, ok := rule.Iterate().NextAfter(last); ok {
			next = &d
		}

		t := repository.RecurringTransaction{
			ID:             uuid.NewString(),
			Money:          money.Normalize(r.Money, money.LegacyDecimals, w.decimals),
			Description:    r.Description,
			CategoryID:     categoryID,
			Direction:      r.Direction,
			WalletID:       w.id,
			PlaceID:        s.resolvePlace(c, r.PlaceName),
			Rule:           rule.Encode(),
			LastOccurrence: last,
			NextOccurrence: next,
		}
		if err := s.Templates.Insert(ctx, t); err != nil {
			s.skipRow(res, err, "recurrence", r.ID)
			continue
		}
		c.recurrences[r.ID] = t.ID
		res.Recurrences++
	}
	return nil
}

// importTransactions copies rows and classifies each one from whichever
// optional legacy foreign key is present, in debt > saving > transfer
// priority. Transfer legs are inserted but buffered for pairing instead
// of producing transfer rows here.
func (s *Importer) importTransactions(ctx context.Context, c *caches, now time.Time, res *ImportResult) error {
	rows, err := s.Legacy.Transactions(ctx, now)
	if err != nil {
		return fmt.Errorf("read legacy transactions: %w", err)
	}
	for _, r := range rows {
		w, ok := c.wallets[r.WalletID]
		if !ok {
			s.skipMissing(res, "transaction", r.ID, "wallet")
			continue
		}
		categoryID, ok := s.resolveCategory(c, r.CategoryID)
		if !ok {
			s.skipMissing(res, "transaction", r.ID, "category")
			continue
		}

		link := repository.StandardLink()
		transferLeg := false
		switch {
		case r.DebtID != nil:
			if id, ok := c.debts[*r.DebtID]; ok {
				link = repository.DebtLink(id)
			}
		case r.SavingID != nil:
			if id, ok := c.savings[*r.SavingID]; ok {
				link = repository.SavingLink(id)
			}
		case r.TransferID != nil:
			link = repository.TransferLink()
			transferLeg = true
		}

		var recurrenceID *string
		if r.RecurrenceID != nil {
			if id, ok := c.recurrences[*r.RecurrenceID]; ok {
				recurrenceID = &id
			}
		}
		var eventID *string
		if r.EventID != nil {
			if id, ok := c.events[*r.EventID]; ok {
				eventID = &id
			}
		}

		t := repository.Transaction{
			ID:           uuid.NewString(),
			Money:        money.Normalize(r.Money, money.LegacyDecimals, w.decimals),
			Date:         r.Date,
			Description:  r.Description,
			CategoryID:   categoryID,
			Direction:    r.Direction,
			Link:         link,
			WalletID:     w.id,
			PlaceID:      s.resolvePlace(c, r.PlaceName),
			EventID:      eventID,
			RecurrenceID: recurrenceID,
			Confirmed:    r.Confirmed,
			CountInTotal: r.CountInTotal,
		}
		if err := s.Transactions.Insert(ctx, t); err != nil {
			s.skipRow(res, err, "transaction", r.ID)
			continue
		}
		res.Transactions++

		if transferLeg {
			s.bufferTransferLeg(c, r, categoryID, t.ID)
		}
	}
	return nil
}

// bufferTransferLeg classifies one leg by direction and category tag:
// the income row is the destination, an expense row tagged transfer-tax
// is the fee, any other expense row is the source.
func (s *Importer) bufferTransferLeg(c *caches, r legacy.TransactionRow, categoryID, newID string) {
	legs, ok := c.transfers[*r.TransferID]
	if !ok {
		legs = &transferLegs{date: r.Date, description: r.Description}
		c.transfers[*r.TransferID] = legs
	}
	id := newID
	switch {
	case r.Direction == repository.DirectionIncome:
		legs.to = &id
	case categoryID == c.categoryTag[database.TagTransferTax]:
		legs.tax = &id
	default:
		legs.from = &id
		legs.date = r.Date
		legs.description = r.Description
	}
}

// importTransfers finalizes the buffered legs. Pairs missing either side
// are discarded: their legs stay in the ledger as ordinary unlinked
// transactions.
func (s *Importer) importTransfers(ctx context.Context, c *caches, _ time.Time, res *ImportResult) error {
	for legacyID, legs := range c.transfers {
		if legs.from == nil || legs.to == nil {
			s.Log.Debug().Str("transfer", legacyID).Msg("discarding unpaired transfer legs")
			res.Skipped++
			continue
		}
		t := repository.Transfer{
			ID:                uuid.NewString(),
			Description:       legs.description,
			Date:              legs.date,
			TransactionFromID: *legs.from,
			TransactionToID:   *legs.to,
			TransactionTaxID:  legs.tax,
		}
		if err := s.Transfers.Insert(ctx, t); err != nil {
			s.Log.Warn().Err(err).Str("transfer", legacyID).Msg("skipping legacy row")
			res.Skipped++
			continue
		}
		res.Transfers++
	}
	return nil
}

// resolveCategory maps a legacy category id through the cache, falling
// back to the sentinel table for hidden system categories referenced
// directly by rows that never appeared in the legacy category table.
func (s *Importer) resolveCategory(c *caches, legacyID int64) (string, bool) {
	if id, ok := c.categories[legacyID]; ok {
		return id, true
	}
	if tag, ok := legacySystemCategories[legacyID]; ok {
		if id, ok := c.categoryTag[tag]; ok {
			return id, true
		}
	}
	return "", false
}

func (s *Importer) resolvePlace(c *caches, name *string) *string {
	if name == nil {
		return nil
	}
	if id, ok := c.places[strings.TrimSpace(*name)]; ok {
		return &id
	}
	return nil
}

func (s *Importer) skipRow(res *ImportResult, err error, entity string, legacyID int64) {
	s.Log.Warn().Err(err).Str("entity", entity).Int64("legacy_id", legacyID).Msg("skipping legacy row")
	res.Skipped++
}

func (s *Importer) skipMissing(res *ImportResult, entity string, legacyID int64, dep string) {
	s.Log.Warn().Str("entity", entity).Int64("legacy_id", legacyID).Str("missing", dep).Msg("skipping legacy row")
	res.Skipped++
}

func (s *Importer) notify(res ImportResult, err error) {
	if s.Notifier != nil {
		s.Notifier.ImportDone(res, err)
	}
}

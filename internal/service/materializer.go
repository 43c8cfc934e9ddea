package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AndreAle94/moneywallet-sub006/internal/database"
	"github.com/AndreAle94/moneywallet-sub006/internal/database/repository"
	"github.com/AndreAle94/moneywallet-sub006/internal/recurrence"
)

// Materializer expands due recurring templates into concrete ledger
// entries. Safe to run repeatedly: it resumes each template strictly
// after its persisted cursor and never scans existing entries.
type Materializer struct {
	Templates         *repository.RecurringTransactionRepo
	TransferTemplates *repository.RecurringTransferRepo
	Transactions      *repository.TransactionRepo
	Transfers         *repository.TransferRepo
	Categories        *repository.CategoryRepo
	Notifier          Notifier
	Log               zerolog.Logger
}

// MaterializeResult summarizes one engine run.
type MaterializeResult struct {
	Templates int // templates visited
	Entries   int // transaction rows created
	Transfers int // transfer rows created
	Frozen    int // templates frozen due to unparsable rules
}

// Run processes every template due on or before now. A broken template
// never aborts the batch: its cursor is frozen and the run moves on.
func (s *Materializer) Run(ctx context.Context, now time.Time) (MaterializeResult, error) {
	res := MaterializeResult{}

	due, err := s.Templates.ListDue(ctx, now)
	if err != nil {
		s.notify(res, err)
		return res, err
	}
	for _, t := range due {
		res.Templates++
		s.materializeTransaction(ctx, t, now, &res)
	}

	dueTransfers, err := s.TransferTemplates.ListDue(ctx, now)
	if err != nil {
		s.notify(res, err)
		return res, err
	}
	for _, t := range dueTransfers {
		res.Templates++
		s.materializeTransfer(ctx, t, now, &res)
	}

	s.notify(res, nil)
	return res, nil
}

func (s *Materializer) materializeTransaction(ctx context.Context, t repository.RecurringTransaction, now time.Time, res *MaterializeResult) {
	rule, err := recurrence.Parse(t.Rule)
	if err != nil {
		// fail safe by going inert: the text will never parse better.
		s.Log.Warn().Err(err).Str("template", t.ID).Msg("freezing template with unparsable rule")
		if err := s.Templates.UpdateCursor(ctx, t.ID, t.LastOccurrence, nil); err != nil {
			s.Log.Error().Err(err).Str("template", t.ID).Msg("freeze failed")
		}
		res.Frozen++
		return
	}

	it := rule.Iterate()
	last := t.LastOccurrence
	var next *time.Time

	d, ok := it.NextAfter(last)
	for ok {
		if d.After(now) {
			occ := d
			next = &occ
			break
		}
		entry := repository.Transaction{
			ID:           uuid.NewString(),
			Money:        t.Money,
			Date:         d,
			Description:  t.Description,
			CategoryID:   t.CategoryID,
			Direction:    t.Direction,
			Link:         repository.StandardLink(),
			WalletID:     t.WalletID,
			PlaceID:      t.PlaceID,
			EventID:      t.EventID,
			RecurrenceID: &t.ID,
			Confirmed:    true,
			CountInTotal: true,
		}
		if err := s.Transactions.Insert(ctx, entry); err != nil {
			// leave the failed date as the cursor so a later run retries it.
			s.Log.Error().Err(err).Str("template", t.ID).Time("date", d).Msg("materialization write failed")
			occ := d
			next = &occ
			break
		}
		res.Entries++
		last = d
		d, ok = it.Next()
	}

	if err := s.Templates.UpdateCursor(ctx, t.ID, last, next); err != nil {
		s.Log.Error().Err(err).Str("template", t.ID).Msg("cursor update failed")
	}
}

func (s *Materializer) materializeTransfer(ctx context.Context, t repository.RecurringTransfer, now time.Time, res *MaterializeResult) {
	rule, err := recurrence.Parse(t.Rule)
	if err != nil {
		s.Log.Warn().Err(err).Str("template", t.ID).Msg("freezing transfer template with unparsable rule")
		if err := s.TransferTemplates.UpdateCursor(ctx, t.ID, t.LastOccurrence, nil); err != nil {
			s.Log.Error().Err(err).Str("template", t.ID).Msg("freeze failed")
		}
		res.Frozen++
		return
	}

	transferCat, err := s.Categories.GetByTag(ctx, database.TagTransfer)
	if err != nil {
		s.Log.Error().Err(err).Msg("transfer system category missing")
		return
	}
	taxCat, err := s.Categories.GetByTag(ctx, database.TagTransferTax)
	if err != nil {
		s.Log.Error().Err(err).Msg("transfer-tax system category missing")
		return
	}

	it := rule.Iterate()
	last := t.LastOccurrence
	var next *time.Time

	d, ok := it.NextAfter(last)
	for ok {
		if d.After(now) {
			occ := d
			next = &occ
			break
		}
		if err := s.insertTransferLegs(ctx, t, d, transferCat.ID, taxCat.ID); err != nil {
			s.Log.Error().Err(err).Str("template", t.ID).Time("date", d).Msg("transfer materialization write failed")
			occ := d
			next = &occ
			break
		}
		res.Transfers++
		last = d
		d, ok = it.Next()
	}

	if err := s.TransferTemplates.UpdateCursor(ctx, t.ID, last, next); err != nil {
		s.Log.Error().Err(err).Str("template", t.ID).Msg("cursor update failed")
	}
}

// insertTransferLegs writes the outgoing and incoming legs, the optional
// tax leg, and the transfer row tying them together.
func (s *Materializer) insertTransferLegs(ctx context.Context, t repository.RecurringTransfer, d time.Time, transferCatID, taxCatID string) error {
	from := repository.Transaction{
		ID:           uuid.NewString(),
		Money:        t.Money,
		Date:         d,
		Description:  t.Description,
		CategoryID:   transferCatID,
		Direction:    repository.DirectionExpense,
		Link:         repository.TransferLink(),
		WalletID:     t.WalletFromID,
		PlaceID:      t.PlaceID,
		EventID:      t.EventID,
		RecurrenceID: &t.ID,
		Confirmed:    true,
		CountInTotal: true,
	}
	if err := s.Transactions.Insert(ctx, from); err != nil {
		return err
	}

	to := from
	to.ID = uuid.NewString()
	to.Direction = repository.DirectionIncome
	to.WalletID = t.WalletToID
	if err := s.Transactions.Insert(ctx, to); err != nil {
		return err
	}

	var taxID *string
	if t.MoneyTax > 0 {
		tax := from
		tax.ID = uuid.NewString()
		tax.Money = t.MoneyTax
		tax.CategoryID = taxCatID
		if err := s.Transactions.Insert(ctx, tax); err != nil {
			return err
		}
		taxID = &tax.ID
	}

	return s.Transfers.Insert(ctx, repository.Transfer{
		ID:                uuid.NewString(),
		Description:       t.Description,
		Date:              d,
		TransactionFromID: from.ID,
		TransactionToID:   to.ID,
		TransactionTaxID:  taxID,
		RecurrenceID:      &t.ID,
	})
}

func (s *Materializer) notify(res MaterializeResult, err error) {
	if s.Notifier != nil {
		s.Notifier.RecurrenceDone(res, err)
	}
}

package service

import "github.com/rs/zerolog"

// Notifier receives the single done/failed signal emitted at the end of
// a full engine or importer run. There is no partial-progress protocol;
// callers that want stage-level progress layer it on top.
type Notifier interface {
	RecurrenceDone(result MaterializeResult, err error)
	ImportDone(result ImportResult, err error)
}

// LogNotifier reports run outcomes through the structured log.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n *LogNotifier) RecurrenceDone(result MaterializeResult, err error) {
	if err != nil {
		n.Log.Error().Err(err).Msg("recurrence materialization failed")
		return
	}
	n.Log.Info().
		Int("templates", result.Templates).
		Int("entries", result.Entries).
		Int("transfers", result.Transfers).
		Int("frozen", result.Frozen).
		Msg("recurrence materialization done")
}

func (n *LogNotifier) ImportDone(result ImportResult, err error) {
	if err != nil {
		n.Log.Error().Err(err).Msg("legacy import failed")
		return
	}
	n.Log.Info().
		Int("wallets", result.Wallets).
		Int("categories", result.Categories).
		Int("events", result.Events).
		Int("places", result.Places).
		Int("debts", result.Debts).
		Int("budgets", result.Budgets).
		Int("savings", result.Savings).
		Int("recurrences", result.Recurrences).
		Int("transactions", result.Transactions).
		Int("transfers", result.Transfers).
		Int("skipped", result.Skipped).
		Msg("legacy import done")
}

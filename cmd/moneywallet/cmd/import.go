package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/AndreAle94/moneywallet-sub006/internal/database"
	"github.com/AndreAle94/moneywallet-sub006/internal/legacy"
	"github.com/AndreAle94/moneywallet-sub006/internal/service"
)

var (
	importLegacyPath string
	importAsOf       string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a legacy-schema database into the ledger",
	Long: `Import reads a database in the legacy schema and replays its wallets,
categories, events, places, debts, budgets, savings, recurring templates,
transactions and transfers into the current store.

Rows that cannot be imported are skipped and logged; only a missing or
unreadable legacy file aborts the run.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importLegacyPath, "legacy", "", "path to the legacy database (default from config)")
	importCmd.Flags().StringVar(&importAsOf, "as-of", "", "import transactions through this date (YYYY-MM-DD, default today)")
}

func runImport(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()
	ctx := context.Background()

	if err := database.SeedDefaults(ctx, e.db); err != nil {
		return err
	}
	asOf, err := parseAsOf(importAsOf)
	if err != nil {
		return err
	}

	path := e.cfg.Legacy.Path
	if importLegacyPath != "" {
		path = importLegacyPath
	}
	lg, err := legacy.Open(path)
	if err != nil {
		return err
	}
	defer lg.Close()

	imp := &service.Importer{
		Legacy:       lg,
		Wallets:      e.wallets,
		Categories:   e.categories,
		Events:       e.events,
		Places:       e.places,
		Debts:        e.debts,
		Budgets:      e.budgets,
		Savings:      e.savings,
		Templates:    e.templates,
		Transactions: e.transactions,
		Transfers:    e.transfers,
		Notifier:     &service.LogNotifier{Log: e.log},
		Log:          e.log,
	}
	_, err = imp.Run(ctx, asOf)
	return err
}

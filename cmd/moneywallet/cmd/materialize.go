package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/AndreAle94/moneywallet-sub006/internal/database"
	"github.com/AndreAle94/moneywallet-sub006/internal/service"
)

var materializeAsOf string

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Materialize due recurring templates into ledger entries",
	Long: `Materialize expands every recurring transaction and transfer template
whose next occurrence is due, creating the concrete ledger entries and
advancing each template's cursor. Running it repeatedly is safe: a
template never produces the same occurrence twice.`,
	RunE: runMaterialize,
}

func init() {
	materializeCmd.Flags().StringVar(&materializeAsOf, "as-of", "", "materialize through this date (YYYY-MM-DD, default today)")
}

func runMaterialize(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()
	ctx := context.Background()

	if err := database.SeedDefaults(ctx, e.db); err != nil {
		return err
	}
	asOf, err := parseAsOf(materializeAsOf)
	if err != nil {
		return err
	}

	m := &service.Materializer{
		Templates:         e.templates,
		TransferTemplates: e.transferTpls,
		Transactions:      e.transactions,
		Transfers:         e.transfers,
		Categories:        e.categories,
		Notifier:          &service.LogNotifier{Log: e.log},
		Log:               e.log,
	}
	_, err = m.Run(ctx, asOf)
	return err
}

// Package cmd provides the CLI commands for moneywallet.
package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AndreAle94/moneywallet-sub006/internal/config"
	"github.com/AndreAle94/moneywallet-sub006/internal/database"
	"github.com/AndreAle94/moneywallet-sub006/internal/database/repository"
	"github.com/AndreAle94/moneywallet-sub006/internal/logger"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "moneywallet",
	Short: "Personal finance ledger maintenance",
	Long: `moneywallet maintains a personal finance ledger stored in sqlite.

It materializes recurring transaction and transfer templates into
concrete ledger entries, and imports data from the legacy schema.

Example:
  moneywallet materialize
  moneywallet import --legacy ~/old/moneywallet.db`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/moneywallet/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(materializeCmd)
	rootCmd.AddCommand(importCmd)
}

// env holds everything a subcommand needs after setup.
type env struct {
	cfg config.Config
	log zerolog.Logger
	db  *sql.DB

	wallets      *repository.WalletRepo
	categories   *repository.CategoryRepo
	events       *repository.EventRepo
	places       *repository.PlaceRepo
	debts        *repository.DebtRepo
	budgets      *repository.BudgetRepo
	savings      *repository.SavingRepo
	templates    *repository.RecurringTransactionRepo
	transferTpls *repository.RecurringTransferRepo
	transactions *repository.TransactionRepo
	transfers    *repository.TransferRepo
}

// setup loads config, opens the ledger store, applies migrations and
// seeds the system categories.
func setup() (*env, error) {
	if cfgFile != "" {
		os.Setenv("MONEYWALLET_CONFIG", cfgFile)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	log := logger.New(level)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path, cfg.Database.MigrationsPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &env{
		cfg:          cfg,
		log:          log,
		db:           db,
		wallets:      repository.NewWalletRepo(db),
		categories:   repository.NewCategoryRepo(db),
		events:       repository.NewEventRepo(db),
		places:       repository.NewPlaceRepo(db),
		debts:        repository.NewDebtRepo(db),
		budgets:      repository.NewBudgetRepo(db),
		savings:      repository.NewSavingRepo(db),
		templates:    repository.NewRecurringTransactionRepo(db),
		transferTpls: repository.NewRecurringTransferRepo(db),
		transactions: repository.NewTransactionRepo(db),
		transfers:    repository.NewTransferRepo(db),
	}, nil
}

func (e *env) close() {
	_ = e.db.Close()
}

// parseAsOf resolves the --as-of flag, defaulting to today.
func parseAsOf(value string) (time.Time, error) {
	if value == "" {
		return database.Today(), nil
	}
	d, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: %w", value, err)
	}
	return d, nil
}

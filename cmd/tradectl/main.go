// Command tradectl is the operator CLI: it migrates and seeds the database, exports
// trade workbooks and issues bearer tokens for local testing.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tradelens/hts-tracker/internal/config"
	"github.com/tradelens/hts-tracker/internal/database"
	"github.com/tradelens/hts-tracker/internal/logging"
)

var (
	logLevel  string
	logFormat string
	flushLogs = func() {}

	rootCmd = &cobra.Command{
		Use:               "tradectl",
		Short:             "Operator tooling for the HTS tracker",
		SilenceUsage:      true,
		PersistentPreRunE: initLogging,
		PersistentPostRun: func(*cobra.Command, []string) { flushLogs() },
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(tokenCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging(*cobra.Command, []string) error {
	flush, err := logging.Setup(config.LogConfig{Level: logLevel, Format: logFormat})
	if err != nil {
		return err
	}
	flushLogs = flush
	return nil
}

// openDatabase connects using the DB_* environment without requiring the server-only settings.
func openDatabase() (*gorm.DB, func(), error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, nil, err
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
	return db, closeFn, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the tracker tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := database.Migrate(db.WithContext(cmd.Context())); err != nil {
				return err
			}
			slog.Info("migrations applied")
			return nil
		},
	}
}

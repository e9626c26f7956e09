package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tradelens/hts-tracker/internal/database"
	"github.com/tradelens/hts-tracker/internal/seed"
)

func seedCmd() *cobra.Command {
	var (
		file    string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load HS codes, profiles, subscriptions and trade stats from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := seed.Load(file)
			if err != nil {
				return err
			}

			db, closeDB, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDB()

			if migrate {
				if err := database.Migrate(db.WithContext(cmd.Context())); err != nil {
					return err
				}
			}

			result, err := seed.Apply(cmd.Context(), db, data, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			slog.Info("seed applied",
				"file", file,
				"hs_codes", result.HSCodes,
				"profiles", result.Profiles,
				"subscriptions", result.Subscriptions,
				"trade_stats", result.TradeStats)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d hs codes, %d profiles, %d subscriptions, %d trade stats\n",
				result.HSCodes, result.Profiles, result.Subscriptions, result.TradeStats)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "seed file")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run migrations before seeding")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradelens/hts-tracker/internal/reports"
	"github.com/tradelens/hts-tracker/internal/tracker/service"
)

func exportCmd() *cobra.Command {
	var hsCode, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the monthly trade chart of an HS code to an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDB()

			chart, err := service.NewTradeStatsService(db).Chart(cmd.Context(), hsCode)
			if err != nil {
				return err
			}

			buf, err := reports.RenderWorkbook(chart)
			if err != nil {
				return err
			}

			if out == "" {
				out = reports.FileName(chart.HSCode, time.Now())
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d months to %s\n", len(chart.Points), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&hsCode, "hs-code", "", "10-digit HS code")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default trade-<code>-<date>.xlsx)")
	_ = cmd.MarkFlagRequired("hs-code")
	return cmd
}

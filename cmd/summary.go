package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var summaryLimit int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize disclosure completeness across active sponsors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		summary, err := a.engine.BuildPopulationSummary(ctx, summaryLimit)
		if err != nil {
			return eris.Wrap(err, "summary")
		}
		return writeOutput(cmd, summary)
	},
}

func init() {
	summaryCmd.Flags().IntVar(&summaryLimit, "limit", 100, "max number of active sponsors to analyze")
	rootCmd.AddCommand(summaryCmd)
}

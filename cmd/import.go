package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chanuka/disclosure-cli/internal/report"
	"github.com/chanuka/disclosure-cli/internal/store"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import sponsors, disclosures and affiliations from a YAML or JSON dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ds, err := store.LoadDataset(importFile)
		if err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		stats, err := store.Import(ctx, a.store, ds)
		if err != nil {
			return eris.Wrap(err, "import dataset")
		}
		if outputFormat == "" || outputFormat == string(report.FormatTable) {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sponsors, %d disclosures, %d affiliations\n",
				stats.Sponsors, stats.Disclosures, stats.Affiliations)
			return err
		}
		return writeOutput(cmd, &stats)
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to dataset file (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

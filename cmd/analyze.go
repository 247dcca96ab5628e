package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chanuka/disclosure-cli/internal/analytics"
)

var sponsorID string

// sponsorAnalysis runs one per-sponsor analysis on the engine.
type sponsorAnalysis func(ctx context.Context, e *analytics.Engine, sponsorID string) (any, error)

func newSponsorCmd(use, short string, run sponsorAnalysis) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if sponsorID == "" {
				return eris.New("--sponsor is required")
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			result, err := run(ctx, a.engine, sponsorID)
			if analytics.IsNotFound(err) {
				return eris.Errorf("sponsor %s not found", sponsorID)
			}
			if err != nil {
				return eris.Wrap(err, use)
			}
			return writeOutput(cmd, result)
		},
	}
	cmd.Flags().StringVar(&sponsorID, "sponsor", "", "sponsor id (required)")
	_ = cmd.MarkFlagRequired("sponsor")
	return cmd
}

var completenessCmd = newSponsorCmd("completeness", "Score a sponsor's disclosure completeness",
	func(ctx context.Context, e *analytics.Engine, id string) (any, error) {
		return e.ScoreCompleteness(ctx, id)
	})

var relationshipsCmd = newSponsorCmd("relationships", "Map a sponsor's financial relationships and conflicts",
	func(ctx context.Context, e *analytics.Engine, id string) (any, error) {
		return e.MapRelationships(ctx, id)
	})

var anomaliesCmd = newSponsorCmd("anomalies", "Detect anomalies in a sponsor's disclosures",
	func(ctx context.Context, e *analytics.Engine, id string) (any, error) {
		return e.DetectAnomalies(ctx, id)
	})

var analyzeCmd = newSponsorCmd("analyze", "Run every analyzer and combine them into an overall risk verdict",
	func(ctx context.Context, e *analytics.Engine, id string) (any, error) {
		return e.AnalyzeComprehensive(ctx, id)
	})

func init() {
	rootCmd.AddCommand(completenessCmd, relationshipsCmd, anomaliesCmd, analyzeCmd)
}

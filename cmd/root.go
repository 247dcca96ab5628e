package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chanuka/disclosure-cli/internal/config"
)

var cfg *config.Config

var (
	outputFormat string
	outputPath   string
	metricsFile  string
)

var rootCmd = &cobra.Command{
	Use:   "disclosure-cli",
	Short: "Financial disclosure analytics for legislative sponsors",
	Long:  "Scores disclosure completeness, maps financial relationships and conflicts of interest, and detects anomalies in sponsor disclosures.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "output format: table, json, yaml (summary also supports csv, xlsx)")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile after the command")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

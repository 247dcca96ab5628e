package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chanuka/disclosure-cli/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis result cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired entries from the SQLite analysis cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sq, ok := st.(*store.SQLiteStore)
		if !ok {
			return eris.Errorf("cache prune requires the sqlite store driver, got %s", cfg.Store.Driver)
		}
		if err := sq.Migrate(ctx); err != nil {
			return err
		}
		n, err := sq.DeleteExpiredCache(ctx)
		if err != nil {
			return eris.Wrap(err, "cache prune")
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired cache entries\n", n)
		return err
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

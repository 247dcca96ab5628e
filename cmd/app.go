package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chanuka/disclosure-cli/internal/analytics"
	"github.com/chanuka/disclosure-cli/internal/cache"
	"github.com/chanuka/disclosure-cli/internal/metrics"
	"github.com/chanuka/disclosure-cli/internal/report"
	"github.com/chanuka/disclosure-cli/internal/store"
)

// app bundles the collaborators of one command invocation.
type app struct {
	store    store.Store
	engine   *analytics.Engine
	registry *prometheus.Registry
	closers  []func() error
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "disclosure.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initCache(ctx context.Context, st store.Store) (cache.Cache, func() error, error) {
	switch cfg.Cache.Driver {
	case "", "none":
		return nil, nil, nil
	case "redis":
		r, err := cache.NewRedis(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case "sqlite":
		sq, ok := st.(*store.SQLiteStore)
		if !ok {
			return nil, nil, eris.New("sqlite cache requires the sqlite store driver")
		}
		return sq, nil, nil
	default:
		return nil, nil, eris.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

// newApp opens the store, migrates it, and builds the engine.
func newApp(ctx context.Context) (*app, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	a := &app{registry: prometheus.NewRegistry()}
	a.closers = append(a.closers, st.Close)

	if err := st.Migrate(ctx); err != nil {
		a.Close() //nolint:errcheck
		return nil, err
	}

	c, closeCache, err := initCache(ctx, st)
	if err != nil {
		a.Close() //nolint:errcheck
		return nil, err
	}
	if closeCache != nil {
		a.closers = append(a.closers, closeCache)
	}

	a.store = store.WithRetry(st, cfg.Retry.Resilience())
	opts := []analytics.Option{
		analytics.WithMetrics(metrics.New(a.registry)),
		analytics.WithBatch(analytics.BatchOptions{
			Concurrency: cfg.Batch.Concurrency,
			RatePerSec:  cfg.Batch.RatePerSec,
		}),
	}
	if c != nil {
		opts = append(opts, analytics.WithCache(c, time.Duration(cfg.Cache.TTLSecs)*time.Second))
	}
	a.engine = analytics.NewEngine(a.store, cfg.Analytics, opts...)
	return a, nil
}

// Close releases resources in reverse order of acquisition and writes the
// metrics textfile if one was requested.
func (a *app) Close() error {
	var first error
	if metricsFile != "" {
		if err := metrics.WriteTextfile(metricsFile, a.registry); err != nil {
			first = eris.Wrap(err, "write metrics textfile")
		} else {
			zap.L().Debug("metrics written", zap.String("path", metricsFile))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// writeOutput renders v in the selected format to --output or the command's stdout.
func writeOutput(cmd *cobra.Command, v any) error {
	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == report.FormatXLSX && outputPath == "" {
		return eris.New("xlsx output requires --output")
	}

	var w io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	}
	return report.Render(w, format, v)
}

package analytics

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chanuka/disclosure-cli/internal/cache"
	"github.com/chanuka/disclosure-cli/internal/metrics"
	"github.com/chanuka/disclosure-cli/internal/model"
)

// Repository supplies the data an analysis needs for a sponsor.
type Repository interface {
	GetSponsor(ctx context.Context, sponsorID string) (*model.Sponsor, error)
	ListDisclosures(ctx context.Context, sponsorID string) ([]model.Disclosure, error)
	ListAffiliations(ctx context.Context, sponsorID string) ([]model.Affiliation, error)
	ListActiveSponsorIDs(ctx context.Context, limit int) ([]string, error)
}

// Operation names used in errors, logs and metrics.
const (
	opCompleteness  = "calculate disclosure completeness"
	opRelationships = "map financial relationships"
	opAnomalies     = "detect financial anomalies"
	opComprehensive = "run comprehensive analysis"
	opPopulation    = "build population summary"
)

// Result kinds, used as cache key segments and metric labels.
const (
	kindCompleteness  = "completeness"
	kindRelationships = "relationships"
	kindAnomalies     = "anomalies"
	kindComprehensive = "comprehensive"
	kindPopulation    = "population"
)

// Engine fetches sponsor data and runs the analyzers over it. It holds no
// mutable state; every call works on its own snapshot.
type Engine struct {
	repo    Repository
	cfg     Config
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
	batch   BatchOptions
}

// BatchOptions bounds population-level work.
type BatchOptions struct {
	// Concurrency is the number of sponsors analyzed in parallel. Default: 4.
	Concurrency int
	// RatePerSec paces sponsor analyses; 0 disables pacing.
	RatePerSec float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache wraps each analysis in a get-or-set against c with the given TTL.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.ttl = ttl
	}
}

// WithMetrics records analysis metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithBatch sets population batch bounds.
func WithBatch(b BatchOptions) Option {
	return func(e *Engine) { e.batch = b }
}

// NewEngine creates an Engine over repo with the given analyzer config.
func NewEngine(repo Repository, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		repo:  repo,
		cfg:   cfg,
		cache: cache.Nop{},
		now:   time.Now,
		batch: BatchOptions{Concurrency: 4},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cache.Nop{}
	}
	if e.batch.Concurrency <= 0 {
		e.batch.Concurrency = 4
	}
	return e
}

// Config returns the analyzer configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// ScoreCompleteness computes the completeness report of a sponsor.
func (e *Engine) ScoreCompleteness(ctx context.Context, sponsorID string) (*model.CompletenessReport, error) {
	return observe(e, kindCompleteness, func() (*model.CompletenessReport, error) {
		return getOrCompute(ctx, e, kindCompleteness, sponsorID, func(ctx context.Context) (*model.CompletenessReport, error) {
			snap, err := e.fetch(ctx, opCompleteness, sponsorID, false)
			if err != nil {
				return nil, err
			}
			return ScoreCompleteness(snap.sponsor, snap.disclosures, e.now(), e.cfg.Completeness), nil
		})
	})
}

// MapRelationships builds the relationship network and conflicts of a sponsor.
func (e *Engine) MapRelationships(ctx context.Context, sponsorID string) (*model.RelationshipMapping, error) {
	return observe(e, kindRelationships, func() (*model.RelationshipMapping, error) {
		return getOrCompute(ctx, e, kindRelationships, sponsorID, func(ctx context.Context) (*model.RelationshipMapping, error) {
			snap, err := e.fetch(ctx, opRelationships, sponsorID, true)
			if err != nil {
				return nil, err
			}
			return MapRelationships(snap.sponsor, snap.disclosures, snap.affiliations, e.now(), e.cfg.Relationships), nil
		})
	})
}

// DetectAnomalies scans the disclosure history of a sponsor.
func (e *Engine) DetectAnomalies(ctx context.Context, sponsorID string) (*model.AnomalyDetectionResult, error) {
	return observe(e, kindAnomalies, func() (*model.AnomalyDetectionResult, error) {
		return getOrCompute(ctx, e, kindAnomalies, sponsorID, func(ctx context.Context) (*model.AnomalyDetectionResult, error) {
			snap, err := e.fetch(ctx, opAnomalies, sponsorID, false)
			if err != nil {
				return nil, err
			}
			result := DetectAnomalies(snap.sponsor, snap.disclosures, e.now(), e.cfg.Anomalies)
			for _, a := range result.Anomalies {
				e.metrics.IncAnomaly(string(a.Type), string(a.Severity))
			}
			return result, nil
		})
	})
}

// snapshot is the immutable data of one sponsor fetched for one analysis.
type snapshot struct {
	sponsor      model.Sponsor
	disclosures  []model.Disclosure
	affiliations []model.Affiliation
}

// fetch loads sponsor info, disclosures and optionally affiliations
// concurrently. Affiliation failures degrade to an empty list.
func (e *Engine) fetch(ctx context.Context, op, sponsorID string, withAffiliations bool) (*snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sponsor, err := e.repo.GetSponsor(gctx, sponsorID)
		if err != nil {
			return wrapFetchError(op, sponsorID, err)
		}
		snap.sponsor = *sponsor
		return nil
	})

	g.Go(func() error {
		ds, err := e.repo.ListDisclosures(gctx, sponsorID)
		if err != nil {
			return wrapFetchError(op, sponsorID, err)
		}
		snap.disclosures = ds
		return nil
	})

	if withAffiliations {
		g.Go(func() error {
			affs, err := e.repo.ListAffiliations(gctx, sponsorID)
			if err != nil {
				zap.L().Warn("analytics: affiliation fetch failed, continuing without affiliations",
					zap.String("sponsor_id", sponsorID),
					zap.Error(err),
				)
				return nil
			}
			snap.affiliations = affs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// getOrCompute consults the cache before computing and stores the result
// after. Cache failures are logged and otherwise ignored.
func getOrCompute[T any](ctx context.Context, e *Engine, kind, sponsorID string, compute func(ctx context.Context) (*T, error)) (*T, error) {
	if _, nop := e.cache.(cache.Nop); nop {
		return compute(ctx)
	}
	key := cache.Key(kind, sponsorID)
	log := zap.L().With(zap.String("cache_key", key))

	data, ok, err := e.cache.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn("analytics: cache get failed", zap.Error(err))
	case ok:
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			e.metrics.CacheLookup(kind, true)
			return &v, nil
		}
		log.Warn("analytics: discarding undecodable cache entry")
	}
	e.metrics.CacheLookup(kind, false)

	v, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(v); err != nil {
		log.Warn("analytics: cache encode failed", zap.Error(err))
	} else if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
		log.Warn("analytics: cache set failed", zap.Error(err))
	}
	return v, nil
}

// observe times fn and records its outcome under kind.
func observe[T any](e *Engine, kind string, fn func() (*T, error)) (*T, error) {
	start := time.Now()
	v, err := fn()
	outcome := "ok"
	switch {
	case IsNotFound(err):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	e.metrics.ObserveAnalysis(kind, outcome, time.Since(start))
	return v, err
}

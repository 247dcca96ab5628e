package analytics

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/chanuka/disclosure-cli/internal/model"
)

const (
	topPerformers    = 5
	bottomPerformers = 10
)

// BuildPopulationSummary scores up to limit active sponsors and aggregates
// their completeness. Sponsors whose analysis fails are logged and skipped.
func (e *Engine) BuildPopulationSummary(ctx context.Context, limit int) (*model.PopulationSummary, error) {
	return observe(e, kindPopulation, func() (*model.PopulationSummary, error) {
		return e.buildPopulationSummary(ctx, limit)
	})
}

func (e *Engine) buildPopulationSummary(ctx context.Context, limit int) (*model.PopulationSummary, error) {
	ids, err := e.repo.ListActiveSponsorIDs(ctx, limit)
	if err != nil {
		return nil, &DataAccessError{Op: opPopulation, Err: err}
	}

	log := zap.L().With(zap.String("operation", opPopulation))
	log.Info("analytics: building population summary",
		zap.Int("sponsors", len(ids)),
		zap.Int("concurrency", e.batch.Concurrency),
	)

	var limiter *rate.Limiter
	if e.batch.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(e.batch.RatePerSec), 1)
	}

	// Each goroutine owns one slot; a nil slot marks a skipped sponsor.
	reports := make([]*model.CompletenessReport, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.batch.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			r, err := e.ScoreCompleteness(gctx, id)
			if err != nil {
				log.Warn("analytics: skipping sponsor",
					zap.String("sponsor_id", id),
					zap.Error(err),
				)
				e.metrics.IncSkipped()
				return nil
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &DataAccessError{Op: opPopulation, Err: err}
	}

	summary := summarize(reports, e.now())
	summary.TotalSponsors = len(ids)
	summary.SkippedSponsors = len(ids) - summary.AnalyzedSponsors

	log.Info("analytics: population summary complete",
		zap.Int("analyzed", summary.AnalyzedSponsors),
		zap.Int("skipped", summary.SkippedSponsors),
	)
	return summary, nil
}

// summarize aggregates the non-nil reports.
func summarize(reports []*model.CompletenessReport, now time.Time) *model.PopulationSummary {
	performers := make([]model.Performer, 0, len(reports))
	summary := &model.PopulationSummary{GeneratedAt: now}

	var total int
	for _, r := range reports {
		if r == nil {
			continue
		}
		summary.RiskDistribution.Add(r.RiskAssessment)
		total += r.OverallScore
		performers = append(performers, model.Performer{
			SponsorID:   r.SponsorID,
			SponsorName: r.SponsorName,
			Score:       r.OverallScore,
			RiskLevel:   r.RiskAssessment,
		})
	}

	summary.AnalyzedSponsors = len(performers)
	if len(performers) > 0 {
		summary.AverageCompletenessScore = float64(total) / float64(len(performers))
	}

	sort.Slice(performers, func(i, j int) bool {
		if performers[i].Score != performers[j].Score {
			return performers[i].Score > performers[j].Score
		}
		return performers[i].SponsorID < performers[j].SponsorID
	})
	summary.TopPerformers = head(performers, topPerformers)

	bottom := make([]model.Performer, len(performers))
	copy(bottom, performers)
	sort.Slice(bottom, func(i, j int) bool {
		if bottom[i].Score != bottom[j].Score {
			return bottom[i].Score < bottom[j].Score
		}
		return bottom[i].SponsorID < bottom[j].SponsorID
	})
	summary.BottomPerformers = head(bottom, bottomPerformers)

	return summary
}

func head(ps []model.Performer, n int) []model.Performer {
	if len(ps) > n {
		ps = ps[:n]
	}
	out := make([]model.Performer, len(ps))
	copy(out, ps)
	return out
}

package analytics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/chanuka/disclosure-cli/internal/model"
)

// AnalyzeComprehensive fetches a sponsor once, runs the three analyzers
// concurrently on that snapshot and blends their tiers into one verdict.
func (e *Engine) AnalyzeComprehensive(ctx context.Context, sponsorID string) (*model.ComprehensiveAnalysis, error) {
	return observe(e, kindComprehensive, func() (*model.ComprehensiveAnalysis, error) {
		return getOrCompute(ctx, e, kindComprehensive, sponsorID, func(ctx context.Context) (*model.ComprehensiveAnalysis, error) {
			snap, err := e.fetch(ctx, opComprehensive, sponsorID, true)
			if err != nil {
				return nil, err
			}
			return e.combine(snap), nil
		})
	})
}

func (e *Engine) combine(snap *snapshot) *model.ComprehensiveAnalysis {
	now := e.now()
	out := &model.ComprehensiveAnalysis{
		SponsorID:   snap.sponsor.ID,
		SponsorName: snap.sponsor.Name,
		AnalyzedAt:  now,
	}

	var g errgroup.Group
	g.Go(func() error {
		out.Completeness = ScoreCompleteness(snap.sponsor, snap.disclosures, now, e.cfg.Completeness)
		return nil
	})
	g.Go(func() error {
		out.Relationships = MapRelationships(snap.sponsor, snap.disclosures, snap.affiliations, now, e.cfg.Relationships)
		return nil
	})
	g.Go(func() error {
		out.Anomalies = DetectAnomalies(snap.sponsor, snap.disclosures, now, e.cfg.Anomalies)
		return nil
	})
	_ = g.Wait() // analyzers never fail

	for _, a := range out.Anomalies.Anomalies {
		e.metrics.IncAnomaly(string(a.Type), string(a.Severity))
	}

	anomalyLevel := AnomalyTier(out.Anomalies.RiskScore)
	out.OverallRisk = OverallRisk(out.Completeness.RiskAssessment, out.Relationships.RiskAssessment, anomalyLevel, e.cfg.Overall)
	out.RiskFactors = riskFactors(out, anomalyLevel)
	return out
}

// AnomalyTier maps an anomaly risk score in [0,100] to a tier.
func AnomalyTier(score int) model.RiskLevel {
	switch {
	case score > 75:
		return model.RiskCritical
	case score > 50:
		return model.RiskHigh
	case score > 25:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// OverallRisk blends three tiers by weight. The weighted mean of tier ranks
// maps back to a tier at 3.5, 2.5 and 1.5.
func OverallRisk(completeness, relationship, anomaly model.RiskLevel, cfg OverallRiskConfig) model.RiskLevel {
	total := cfg.CompletenessWeight + cfg.RelationshipWeight + cfg.AnomalyWeight
	if total <= 0 {
		return model.RiskLow
	}
	avg := (float64(completeness.Rank())*cfg.CompletenessWeight +
		float64(relationship.Rank())*cfg.RelationshipWeight +
		float64(anomaly.Rank())*cfg.AnomalyWeight) / total

	switch {
	case avg >= 3.5:
		return model.RiskCritical
	case avg >= 2.5:
		return model.RiskHigh
	case avg >= 1.5:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func riskFactors(a *model.ComprehensiveAnalysis, anomalyLevel model.RiskLevel) []string {
	factors := []string{}
	if elevated(a.Completeness.RiskAssessment) {
		factors = append(factors, fmt.Sprintf("Disclosure completeness risk is %s (score %d)",
			a.Completeness.RiskAssessment, a.Completeness.OverallScore))
	}
	if elevated(a.Relationships.RiskAssessment) {
		factors = append(factors, fmt.Sprintf("Financial relationship risk is %s with %d detected conflicts",
			a.Relationships.RiskAssessment, len(a.Relationships.DetectedConflicts)))
	}
	if elevated(anomalyLevel) {
		factors = append(factors, fmt.Sprintf("Anomaly risk is %s (score %d, %d anomalies)",
			anomalyLevel, a.Anomalies.RiskScore, len(a.Anomalies.Anomalies)))
	}
	return factors
}

func elevated(level model.RiskLevel) bool {
	return level.Rank() >= model.RiskHigh.Rank()
}

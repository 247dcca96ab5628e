package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/chanuka/disclosure-cli/internal/model"
)

const hoursPerDay = 24

// ScoreCompleteness computes the compliance report of a sponsor from its
// disclosures. It never fails: no disclosures yields score 0, risk critical.
func ScoreCompleteness(sponsor model.Sponsor, disclosures []model.Disclosure, now time.Time, cfg CompletenessConfig) *model.CompletenessReport {
	present, missing := coverage(disclosures)

	metrics := model.DetailedMetrics{
		RequiredDisclosureScore: float64(len(present)) / float64(len(model.RequiredDisclosureTypes)),
		VerificationScore:       verificationRate(disclosures),
		RecencyScore:            recencyScore(disclosures, now, cfg.DecayRate),
		DetailScore:             detailScore(disclosures, cfg.MinDescriptionLength),
	}

	score := overallCompleteness(metrics, cfg)
	last := latestDisclosure(disclosures)

	return &model.CompletenessReport{
		SponsorID:            sponsor.ID,
		SponsorName:          sponsor.Name,
		OverallScore:         score,
		RequiredDisclosures:  len(model.RequiredDisclosureTypes),
		CompletedDisclosures: len(present),
		MissingDisclosures:   missing,
		RiskAssessment:       completenessRisk(score, last, now, cfg),
		TemporalTrend:        temporalTrend(disclosures, now, cfg),
		Recommendations:      completenessRecommendations(metrics, missing, disclosures, now, cfg),
		LastUpdateDate:       last,
		DetailedMetrics:      metrics,
	}
}

// overallCompleteness blends the sub-metrics into a 0-100 score.
func overallCompleteness(m model.DetailedMetrics, cfg CompletenessConfig) int {
	total := m.RequiredDisclosureScore*cfg.CoverageWeight +
		m.VerificationScore*cfg.VerificationWeight +
		m.RecencyScore*cfg.RecencyWeight +
		m.DetailScore*cfg.DetailWeight
	return clampScore(math.Round(total * 100))
}

// coverage returns the required types present and missing, in canonical order.
func coverage(disclosures []model.Disclosure) (present, missing []model.DisclosureType) {
	seen := make(map[model.DisclosureType]bool, len(disclosures))
	for _, d := range disclosures {
		seen[d.DisclosureType] = true
	}
	missing = []model.DisclosureType{}
	for _, t := range model.RequiredDisclosureTypes {
		if seen[t] {
			present = append(present, t)
		} else {
			missing = append(missing, t)
		}
	}
	return present, missing
}

func verificationRate(disclosures []model.Disclosure) float64 {
	if len(disclosures) == 0 {
		return 0
	}
	verified := 0
	for _, d := range disclosures {
		if d.IsVerified {
			verified++
		}
	}
	return float64(verified) / float64(len(disclosures))
}

// recencyScore is the mean of exp(-rate * ageDays) over all disclosures.
func recencyScore(disclosures []model.Disclosure, now time.Time, rate float64) float64 {
	if len(disclosures) == 0 {
		return 0
	}
	var sum float64
	for _, d := range disclosures {
		sum += recencyWeight(ageDays(d.DateReported, now), rate)
	}
	return sum / float64(len(disclosures))
}

// recencyWeight is the exponential decay of a single record of the given age.
func recencyWeight(age, rate float64) float64 {
	return math.Exp(-rate * age)
}

// ageDays returns the fractional age in days; future dates count as 0.
func ageDays(t, now time.Time) float64 {
	age := now.Sub(t).Hours() / hoursPerDay
	if age < 0 {
		return 0
	}
	return age
}

func detailScore(disclosures []model.Disclosure, minDescription int) float64 {
	if len(disclosures) == 0 {
		return 0
	}
	detailed := 0
	for _, d := range disclosures {
		if d.HasAmount() && d.HasSource() && len(d.Description) > minDescription {
			detailed++
		}
	}
	return float64(detailed) / float64(len(disclosures))
}

func latestDisclosure(disclosures []model.Disclosure) *time.Time {
	var latest *time.Time
	for i := range disclosures {
		t := disclosures[i].DateReported
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest
}

// completenessRisk combines the score with the age of the freshest record.
func completenessRisk(score int, last *time.Time, now time.Time, cfg CompletenessConfig) model.RiskLevel {
	age := math.Inf(1)
	if last != nil {
		age = ageDays(*last, now)
	}
	switch {
	case score < 50 || age > float64(cfg.StaleDays):
		return model.RiskCritical
	case score < 70 || age > float64(cfg.RecentDays):
		return model.RiskHigh
	case score < 85 || age > float64(cfg.CurrentDays):
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// temporalTrend compares the recency of the older and newer halves.
func temporalTrend(disclosures []model.Disclosure, now time.Time, cfg CompletenessConfig) model.Trend {
	if len(disclosures) < cfg.TrendMinDisclosures {
		return model.TrendStable
	}
	sorted := sortedByDate(disclosures)
	mid := len(sorted) / 2
	first := recencyScore(sorted[:mid], now, cfg.DecayRate)
	second := recencyScore(sorted[mid:], now, cfg.DecayRate)

	switch {
	case second > first*cfg.TrendFactor:
		return model.TrendImproving
	case first > second*cfg.TrendFactor:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

func completenessRecommendations(m model.DetailedMetrics, missing []model.DisclosureType, disclosures []model.Disclosure, now time.Time, cfg CompletenessConfig) []string {
	var recs []string

	if m.RequiredDisclosureScore < 0.75 {
		names := make([]string, len(missing))
		for i, t := range missing {
			names[i] = string(t)
		}
		recs = append(recs, fmt.Sprintf("Submit missing required disclosures: %s", strings.Join(names, ", ")))
	}

	// The remaining checks describe existing records.
	if len(disclosures) == 0 {
		return recs
	}

	if m.VerificationScore < 0.6 {
		unverified, risky := 0, 0
		for _, d := range disclosures {
			if d.IsVerified {
				continue
			}
			unverified++
			if d.RiskLevel == model.RiskHigh || d.RiskLevel == model.RiskCritical {
				risky++
			}
		}
		if risky > 0 {
			recs = append(recs, fmt.Sprintf("Prioritize verification of %d high-risk unverified disclosures", risky))
		} else {
			recs = append(recs, fmt.Sprintf("Verify %d unverified disclosures to improve credibility", unverified))
		}
	}

	if m.RecencyScore < 0.5 {
		stale := 0
		for _, d := range disclosures {
			if ageDays(d.DateReported, now) > float64(cfg.StaleDays) {
				stale++
			}
		}
		recs = append(recs, fmt.Sprintf("Update %d disclosures older than %d days", stale, cfg.StaleDays))
	}

	if m.DetailScore < 0.4 {
		recs = append(recs, "Add amounts, sources and detailed descriptions to disclosures")
	}

	if len(recs) == 0 {
		recs = append(recs, "Disclosure record is complete and current; maintain regular updates")
	}
	return recs
}

// sortedByDate returns a chronologically ordered copy.
func sortedByDate(disclosures []model.Disclosure) []model.Disclosure {
	sorted := make([]model.Disclosure, len(disclosures))
	copy(sorted, disclosures)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DateReported.Before(sorted[j].DateReported)
	})
	return sorted
}

func clampScore(v float64) int {
	return int(math.Max(0, math.Min(100, v)))
}

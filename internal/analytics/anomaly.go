package analytics

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/chanuka/disclosure-cli/internal/model"
)

const daysPerMonth = 30

// severityWeights feed the anomaly risk score.
var severityWeights = map[model.RiskLevel]float64{
	model.RiskLow:      10,
	model.RiskMedium:   25,
	model.RiskHigh:     50,
	model.RiskCritical: 100,
}

// DetectAnomalies scans a sponsor's disclosure history for amount spikes,
// frequency shifts, verification gaps, missing data and temporal
// inconsistencies. Insufficient data yields an empty anomaly list.
func DetectAnomalies(sponsor model.Sponsor, disclosures []model.Disclosure, now time.Time, cfg AnomalyConfig) *model.AnomalyDetectionResult {
	p := message.NewPrinter(language.English)

	anomalies := []model.FinancialAnomaly{}
	anomalies = append(anomalies, amountSpikes(p, disclosures, cfg)...)
	anomalies = append(anomalies, frequencyChanges(p, disclosures, cfg)...)
	anomalies = append(anomalies, verificationGaps(p, disclosures, now, cfg)...)
	anomalies = append(anomalies, missingData(p, disclosures, cfg)...)
	anomalies = append(anomalies, temporalInconsistencies(p, disclosures, now, cfg)...)

	return &model.AnomalyDetectionResult{
		SponsorID:     sponsor.ID,
		SponsorName:   sponsor.Name,
		Anomalies:     anomalies,
		RiskScore:     AnomalyRiskScore(anomalies),
		DetectionDate: now,
	}
}

// AnomalyRiskScore sums severity weights and divides by sqrt(count) so that
// additional anomalies have diminishing returns.
func AnomalyRiskScore(anomalies []model.FinancialAnomaly) int {
	if len(anomalies) == 0 {
		return 0
	}
	var sum float64
	for _, a := range anomalies {
		sum += severityWeights[a.Severity]
	}
	return clampScore(math.Round(sum / math.Sqrt(float64(len(anomalies)))))
}

func amountSpikes(p *message.Printer, disclosures []model.Disclosure, cfg AnomalyConfig) []model.FinancialAnomaly {
	var withAmount []model.Disclosure
	for _, d := range disclosures {
		if d.AmountValue() > 0 {
			withAmount = append(withAmount, d)
		}
	}
	if len(withAmount) < cfg.SpikeMinDisclosures {
		return nil
	}

	amounts := make([]float64, len(withAmount))
	for i, d := range withAmount {
		amounts[i] = d.AmountValue()
	}
	mean, stddev := meanStdDev(amounts)
	if stddev == 0 {
		return nil
	}
	threshold := mean + cfg.SpikeStdDevs*stddev
	expected := model.ValueRange{Min: math.Max(0, mean-cfg.SpikeStdDevs*stddev), Max: threshold}

	var out []model.FinancialAnomaly
	for _, d := range withAmount {
		amount := d.AmountValue()
		if amount <= threshold {
			continue
		}
		deviations := (amount - mean) / stddev
		out = append(out, model.FinancialAnomaly{
			Type:                model.AnomalyAmountSpike,
			Severity:            spikeSeverity(deviations),
			Description:         p.Sprintf("Disclosed amount $%.0f is %.1f standard deviations above the sponsor's mean of $%.0f", amount, deviations, mean),
			AffectedDisclosures: []string{d.ID},
			DetectedValue:       amount,
			ExpectedRange:       expected,
			Recommendation:      "Request supporting documentation for the unusually large disclosure",
		})
	}
	return out
}

func spikeSeverity(deviations float64) model.RiskLevel {
	switch {
	case deviations > 5:
		return model.RiskCritical
	case deviations > 4:
		return model.RiskHigh
	case deviations > 3:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func frequencyChanges(p *message.Printer, disclosures []model.Disclosure, cfg AnomalyConfig) []model.FinancialAnomaly {
	if len(disclosures) < cfg.FrequencyMinDisclosures {
		return nil
	}
	sorted := sortedByDate(disclosures)
	mid := len(sorted) / 2
	first := monthlyRate(sorted[:mid])
	second := monthlyRate(sorted[mid:])

	ratio := math.Abs(second-first) / first
	if ratio <= cfg.FrequencyChangeRatio {
		return nil
	}

	severity := model.RiskMedium
	if ratio > 1.0 {
		severity = model.RiskHigh
	}
	direction := "increased"
	if second < first {
		direction = "decreased"
	}
	return []model.FinancialAnomaly{{
		Type:                model.AnomalyFrequencyChange,
		Severity:            severity,
		Description:         p.Sprintf("Disclosure frequency %s from %.2f to %.2f per month", direction, first, second),
		AffectedDisclosures: disclosureIDs(sorted[mid:]),
		DetectedValue:       second,
		ExpectedRange: model.ValueRange{
			Min: first * (1 - cfg.FrequencyChangeRatio),
			Max: first * (1 + cfg.FrequencyChangeRatio),
		},
		Recommendation: "Review whether the change in filing cadence reflects new holdings or lapsed reporting",
	}}
}

// monthlyRate is the number of disclosures per month over the period span,
// with a minimum span of one month. Input must be sorted.
func monthlyRate(period []model.Disclosure) float64 {
	span := period[len(period)-1].DateReported.Sub(period[0].DateReported).Hours() / hoursPerDay / daysPerMonth
	months := math.Max(span, 1)
	return float64(len(period)) / months
}

func verificationGaps(p *message.Printer, disclosures []model.Disclosure, now time.Time, cfg AnomalyConfig) []model.FinancialAnomaly {
	var out []model.FinancialAnomaly

	var large []model.Disclosure
	var largeSum float64
	for _, d := range disclosures {
		if !d.IsVerified && d.AmountValue() > cfg.InvestmentThreshold {
			large = append(large, d)
			largeSum += d.AmountValue()
		}
	}
	if len(large) > 0 {
		severity := model.RiskHigh
		if largeSum > cfg.UnverifiedCritical {
			severity = model.RiskCritical
		}
		out = append(out, model.FinancialAnomaly{
			Type:                model.AnomalyVerificationGap,
			Severity:            severity,
			Description:         p.Sprintf("%d unverified disclosures above $%.0f totalling $%.0f", len(large), cfg.InvestmentThreshold, largeSum),
			AffectedDisclosures: disclosureIDs(large),
			DetectedValue:       largeSum,
			ExpectedRange:       model.ValueRange{Min: 0, Max: 0},
			Recommendation:      "Verify high-value disclosures before relying on them",
		})
	}

	window := now.AddDate(0, 0, -cfg.RecentWindowDays)
	var recent []model.Disclosure
	for _, d := range disclosures {
		if !d.DateReported.Before(window) && !d.DateReported.After(now) {
			recent = append(recent, d)
		}
	}
	if len(recent) >= cfg.RecentMinDisclosures {
		overall := verificationRate(disclosures)
		recentRate := verificationRate(recent)
		if recentRate < cfg.RecentVerifyFactor*overall {
			out = append(out, model.FinancialAnomaly{
				Type:                model.AnomalyVerificationGap,
				Severity:            model.RiskMedium,
				Description:         p.Sprintf("Recent verification rate %.0f%% is well below the historical %.0f%%", recentRate*100, overall*100),
				AffectedDisclosures: disclosureIDs(recent),
				DetectedValue:       recentRate,
				ExpectedRange:       model.ValueRange{Min: cfg.RecentVerifyFactor * overall, Max: 1},
				Recommendation:      "Investigate the recent decline in verified disclosures",
			})
		}
	}
	return out
}

func missingData(p *message.Printer, disclosures []model.Disclosure, cfg AnomalyConfig) []model.FinancialAnomaly {
	if len(disclosures) == 0 {
		return nil
	}
	var out []model.FinancialAnomaly

	monetary := 0
	var noAmount []model.Disclosure
	for _, d := range disclosures {
		switch d.DisclosureType {
		case model.DisclosureFinancial, model.DisclosureInvestment, model.DisclosureIncome:
			monetary++
			if !d.HasAmount() {
				noAmount = append(noAmount, d)
			}
		}
	}
	if len(noAmount) > 0 {
		rate := float64(len(noAmount)) / float64(monetary)
		severity := model.RiskLow
		switch {
		case rate > 0.5:
			severity = model.RiskHigh
		case rate > 0.25:
			severity = model.RiskMedium
		}
		out = append(out, model.FinancialAnomaly{
			Type:                model.AnomalyMissingData,
			Severity:            severity,
			Description:         p.Sprintf("%d of %d monetary disclosures do not report an amount", len(noAmount), monetary),
			AffectedDisclosures: disclosureIDs(noAmount),
			DetectedValue:       rate,
			ExpectedRange:       model.ValueRange{Min: 0, Max: 0},
			Recommendation:      "Report amounts for all financial, investment and income disclosures",
		})
	}

	var noSource []model.Disclosure
	for _, d := range disclosures {
		if !d.HasSource() {
			noSource = append(noSource, d)
		}
	}
	rate := float64(len(noSource)) / float64(len(disclosures))
	if rate > cfg.MissingSourceRate {
		out = append(out, model.FinancialAnomaly{
			Type:                model.AnomalyMissingData,
			Severity:            model.RiskMedium,
			Description:         p.Sprintf("%.0f%% of disclosures do not name a source", rate*100),
			AffectedDisclosures: disclosureIDs(noSource),
			DetectedValue:       rate,
			ExpectedRange:       model.ValueRange{Min: 0, Max: cfg.MissingSourceRate},
			Recommendation:      "Identify the source entity for every disclosure",
		})
	}
	return out
}

func temporalInconsistencies(p *message.Printer, disclosures []model.Disclosure, now time.Time, cfg AnomalyConfig) []model.FinancialAnomaly {
	var out []model.FinancialAnomaly

	var future []model.Disclosure
	for _, d := range disclosures {
		if d.DateReported.After(now) {
			future = append(future, d)
		}
	}
	if len(future) > 0 {
		out = append(out, model.FinancialAnomaly{
			Type:                model.AnomalyTemporalInconsistency,
			Severity:            model.RiskHigh,
			Description:         p.Sprintf("%d disclosures are dated in the future", len(future)),
			AffectedDisclosures: disclosureIDs(future),
			DetectedValue:       float64(len(future)),
			ExpectedRange:       model.ValueRange{Min: 0, Max: 0},
			Recommendation:      "Correct the reporting dates of future-dated disclosures",
		})
	}

	sorted := sortedByDate(disclosures)
	var affected []string
	var longest float64
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].DateReported.Sub(sorted[i-1].DateReported).Hours() / hoursPerDay
		if gap <= float64(cfg.GapDays) {
			continue
		}
		if len(affected) == 0 || affected[len(affected)-1] != sorted[i-1].ID {
			affected = append(affected, sorted[i-1].ID)
		}
		affected = append(affected, sorted[i].ID)
		longest = math.Max(longest, gap)
	}
	if len(affected) > 0 {
		severity := model.RiskMedium
		if longest > float64(cfg.LongGapDays) {
			severity = model.RiskHigh
		}
		out = append(out, model.FinancialAnomaly{
			Type:                model.AnomalyTemporalInconsistency,
			Severity:            severity,
			Description:         p.Sprintf("Disclosure history has reporting gaps of up to %.0f days", longest),
			AffectedDisclosures: affected,
			DetectedValue:       longest,
			ExpectedRange:       model.ValueRange{Min: 0, Max: float64(cfg.GapDays)},
			Recommendation:      "Confirm that no disclosures were omitted during the reporting gap",
		})
	}
	return out
}

func disclosureIDs(ds []model.Disclosure) []string {
	ids := make([]string, len(ds))
	for i, d := range ds {
		ids[i] = d.ID
	}
	return ids
}

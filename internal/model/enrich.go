package model

// Per-record enrichment points.
const (
	descriptionPoints = 20
	amountPoints      = 30
	sourcePoints      = 30
	verifiedPoints    = 20
)

// Amount bands used by the per-record risk heuristic.
const (
	recordCriticalAmount = 1_000_000
	recordHighAmount     = 100_000
)

// Enrich sets the derived CompletenessScore and RiskLevel of a disclosure.
// It is independent of the sponsor-level completeness score.
func Enrich(d *Disclosure) {
	d.CompletenessScore = recordCompleteness(d)
	d.RiskLevel = recordRisk(d)
}

// EnrichAll enriches every disclosure in place and returns the slice.
func EnrichAll(ds []Disclosure) []Disclosure {
	for i := range ds {
		Enrich(&ds[i])
	}
	return ds
}

func recordCompleteness(d *Disclosure) int {
	score := 0
	if d.Description != "" {
		score += descriptionPoints
	}
	if d.HasAmount() {
		score += amountPoints
	}
	if d.HasSource() {
		score += sourcePoints
	}
	if d.IsVerified {
		score += verifiedPoints
	}
	return score
}

func recordRisk(d *Disclosure) RiskLevel {
	amount := d.AmountValue()
	switch {
	case amount >= recordCriticalAmount:
		if d.IsVerified {
			return RiskHigh
		}
		return RiskCritical
	case amount >= recordHighAmount:
		if d.IsVerified {
			return RiskMedium
		}
		return RiskHigh
	case d.CompletenessScore < 50:
		return RiskMedium
	default:
		return RiskLow
	}
}

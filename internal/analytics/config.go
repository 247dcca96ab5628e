// Package analytics implements the disclosure analytics engine: completeness
// scoring, relationship/conflict mapping and anomaly detection.
package analytics

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Config is the immutable tuning of every analyzer. It is passed by value.
type Config struct {
	Completeness  CompletenessConfig `yaml:"completeness" mapstructure:"completeness"`
	Relationships RelationshipConfig `yaml:"relationships" mapstructure:"relationships"`
	Anomalies     AnomalyConfig      `yaml:"anomalies" mapstructure:"anomalies"`
	Overall       OverallRiskConfig  `yaml:"overall" mapstructure:"overall"`
}

// CompletenessConfig tunes the completeness scorer.
type CompletenessConfig struct {
	CoverageWeight     float64 `yaml:"coverage_weight" mapstructure:"coverage_weight"`
	VerificationWeight float64 `yaml:"verification_weight" mapstructure:"verification_weight"`
	RecencyWeight      float64 `yaml:"recency_weight" mapstructure:"recency_weight"`
	DetailWeight       float64 `yaml:"detail_weight" mapstructure:"detail_weight"`

	// DecayRate is the per-day exponential decay (0.002 is roughly 50% at 365 days).
	DecayRate float64 `yaml:"decay_rate" mapstructure:"decay_rate"`

	StaleDays   int `yaml:"stale_days" mapstructure:"stale_days"`
	RecentDays  int `yaml:"recent_days" mapstructure:"recent_days"`
	CurrentDays int `yaml:"current_days" mapstructure:"current_days"`

	MinDescriptionLength int     `yaml:"min_description_length" mapstructure:"min_description_length"`
	TrendMinDisclosures  int     `yaml:"trend_min_disclosures" mapstructure:"trend_min_disclosures"`
	TrendFactor          float64 `yaml:"trend_factor" mapstructure:"trend_factor"`
}

// RelationshipConfig tunes the relationship mapper.
type RelationshipConfig struct {
	LowExposure    float64 `yaml:"low_exposure" mapstructure:"low_exposure"`
	MediumExposure float64 `yaml:"medium_exposure" mapstructure:"medium_exposure"`
	HighExposure   float64 `yaml:"high_exposure" mapstructure:"high_exposure"`

	// MinConflictValue gates employment+investment conflicts.
	MinConflictValue float64 `yaml:"min_conflict_value" mapstructure:"min_conflict_value"`
	// CriticalConflictValue promotes ownership+investment conflicts to critical.
	CriticalConflictValue float64 `yaml:"critical_conflict_value" mapstructure:"critical_conflict_value"`
}

// AnomalyConfig tunes the anomaly detector.
type AnomalyConfig struct {
	SpikeMinDisclosures     int     `yaml:"spike_min_disclosures" mapstructure:"spike_min_disclosures"`
	SpikeStdDevs            float64 `yaml:"spike_std_devs" mapstructure:"spike_std_devs"`
	FrequencyMinDisclosures int     `yaml:"frequency_min_disclosures" mapstructure:"frequency_min_disclosures"`
	FrequencyChangeRatio    float64 `yaml:"frequency_change_ratio" mapstructure:"frequency_change_ratio"`

	// InvestmentThreshold flags unverified disclosures above it.
	InvestmentThreshold  float64 `yaml:"investment_threshold" mapstructure:"investment_threshold"`
	UnverifiedCritical   float64 `yaml:"unverified_critical" mapstructure:"unverified_critical"`
	RecentWindowDays     int     `yaml:"recent_window_days" mapstructure:"recent_window_days"`
	RecentMinDisclosures int     `yaml:"recent_min_disclosures" mapstructure:"recent_min_disclosures"`
	RecentVerifyFactor   float64 `yaml:"recent_verify_factor" mapstructure:"recent_verify_factor"`

	MissingSourceRate float64 `yaml:"missing_source_rate" mapstructure:"missing_source_rate"`
	GapDays           int     `yaml:"gap_days" mapstructure:"gap_days"`
	LongGapDays       int     `yaml:"long_gap_days" mapstructure:"long_gap_days"`
}

// OverallRiskConfig weights the three analyzers in the combined verdict.
type OverallRiskConfig struct {
	CompletenessWeight float64 `yaml:"completeness_weight" mapstructure:"completeness_weight"`
	RelationshipWeight float64 `yaml:"relationship_weight" mapstructure:"relationship_weight"`
	AnomalyWeight      float64 `yaml:"anomaly_weight" mapstructure:"anomaly_weight"`
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		Completeness: CompletenessConfig{
			CoverageWeight:       0.40,
			VerificationWeight:   0.30,
			RecencyWeight:        0.20,
			DetailWeight:         0.10,
			DecayRate:            0.002,
			StaleDays:            365,
			RecentDays:           180,
			CurrentDays:          90,
			MinDescriptionLength: 50,
			TrendMinDisclosures:  5,
			TrendFactor:          1.1,
		},
		Relationships: RelationshipConfig{
			LowExposure:           500_000,
			MediumExposure:        2_000_000,
			HighExposure:          5_000_000,
			MinConflictValue:      500_000,
			CriticalConflictValue: 1_000_000,
		},
		Anomalies: AnomalyConfig{
			SpikeMinDisclosures:     3,
			SpikeStdDevs:            3,
			FrequencyMinDisclosures: 6,
			FrequencyChangeRatio:    0.5,
			InvestmentThreshold:     50_000,
			UnverifiedCritical:      1_000_000,
			RecentWindowDays:        180,
			RecentMinDisclosures:    5,
			RecentVerifyFactor:      0.7,
			MissingSourceRate:       0.3,
			GapDays:                 365,
			LongGapDays:             730,
		},
		Overall: OverallRiskConfig{
			CompletenessWeight: 0.40,
			RelationshipWeight: 0.35,
			AnomalyWeight:      0.25,
		},
	}
}

// ValidateConfig checks that a Config is internally consistent.
func ValidateConfig(c Config) error {
	var errs []string

	checkWeights := func(section string, weights map[string]float64) {
		var sum float64
		for name, w := range weights {
			if w < 0 {
				errs = append(errs, fmt.Sprintf("%s.%s must be >= 0", section, name))
			}
			sum += w
		}
		if math.Abs(sum-1) > 0.01 {
			errs = append(errs, fmt.Sprintf("%s weights should sum to 1.0, got %.2f", section, sum))
		}
	}

	cc := c.Completeness
	checkWeights("completeness", map[string]float64{
		"coverage_weight":     cc.CoverageWeight,
		"verification_weight": cc.VerificationWeight,
		"recency_weight":      cc.RecencyWeight,
		"detail_weight":       cc.DetailWeight,
	})
	if cc.DecayRate <= 0 {
		errs = append(errs, "completeness.decay_rate must be > 0")
	}
	if !(cc.CurrentDays > 0 && cc.CurrentDays <= cc.RecentDays && cc.RecentDays <= cc.StaleDays) {
		errs = append(errs, "completeness thresholds must satisfy 0 < current_days <= recent_days <= stale_days")
	}
	if cc.TrendFactor < 1 {
		errs = append(errs, "completeness.trend_factor must be >= 1")
	}

	rc := c.Relationships
	if !(rc.LowExposure >= 0 && rc.LowExposure <= rc.MediumExposure && rc.MediumExposure <= rc.HighExposure) {
		errs = append(errs, "relationships exposure thresholds must satisfy 0 <= low <= medium <= high")
	}
	if rc.MinConflictValue < 0 || rc.CriticalConflictValue < 0 {
		errs = append(errs, "relationships conflict values must be >= 0")
	}

	ac := c.Anomalies
	if ac.SpikeMinDisclosures < 2 {
		errs = append(errs, "anomalies.spike_min_disclosures must be >= 2")
	}
	if ac.SpikeStdDevs <= 0 {
		errs = append(errs, "anomalies.spike_std_devs must be > 0")
	}
	if ac.FrequencyMinDisclosures < 2 {
		errs = append(errs, "anomalies.frequency_min_disclosures must be >= 2")
	}
	if ac.GapDays <= 0 || ac.LongGapDays < ac.GapDays {
		errs = append(errs, "anomalies gap thresholds must satisfy 0 < gap_days <= long_gap_days")
	}
	if ac.MissingSourceRate < 0 || ac.MissingSourceRate > 1 {
		errs = append(errs, "anomalies.missing_source_rate must be between 0 and 1")
	}

	oc := c.Overall
	checkWeights("overall", map[string]float64{
		"completeness_weight": oc.CompletenessWeight,
		"relationship_weight": oc.RelationshipWeight,
		"anomaly_weight":      oc.AnomalyWeight,
	})

	if len(errs) > 0 {
		return eris.Errorf("analytics: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

package model

import "time"

// Trend describes the direction of a sponsor's disclosure currency.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// DetailedMetrics holds the four completeness sub-metrics, each in [0,1].
type DetailedMetrics struct {
	RequiredDisclosureScore float64 `json:"required_disclosure_score" yaml:"required_disclosure_score"`
	VerificationScore       float64 `json:"verification_score" yaml:"verification_score"`
	RecencyScore            float64 `json:"recency_score" yaml:"recency_score"`
	DetailScore             float64 `json:"detail_score" yaml:"detail_score"`
}

// CompletenessReport is the compliance score of a single sponsor.
type CompletenessReport struct {
	SponsorID            string           `json:"sponsor_id" yaml:"sponsor_id"`
	SponsorName          string           `json:"sponsor_name" yaml:"sponsor_name"`
	OverallScore         int              `json:"overall_score" yaml:"overall_score"`
	RequiredDisclosures  int              `json:"required_disclosures" yaml:"required_disclosures"`
	CompletedDisclosures int              `json:"completed_disclosures" yaml:"completed_disclosures"`
	MissingDisclosures   []DisclosureType `json:"missing_disclosures" yaml:"missing_disclosures"`
	LastUpdateDate       *time.Time       `json:"last_update_date,omitempty" yaml:"last_update_date,omitempty"`
	RiskAssessment       RiskLevel        `json:"risk_assessment" yaml:"risk_assessment"`
	TemporalTrend        Trend            `json:"temporal_trend" yaml:"temporal_trend"`
	Recommendations      []string         `json:"recommendations" yaml:"recommendations"`
	DetailedMetrics      DetailedMetrics  `json:"detailed_metrics" yaml:"detailed_metrics"`
}

// RelationshipType classifies a financial relationship.
type RelationshipType string

const (
	RelationshipOwnership       RelationshipType = "ownership"
	RelationshipEmployment      RelationshipType = "employment"
	RelationshipInvestment      RelationshipType = "investment"
	RelationshipFamily          RelationshipType = "family"
	RelationshipBusinessPartner RelationshipType = "business_partner"
)

// FinancialRelationship is a single sponsor-to-entity tie.
// RelatedEntity identity is case-insensitive.
type FinancialRelationship struct {
	SponsorID         string           `json:"sponsor_id" yaml:"sponsor_id"`
	RelatedEntity     string           `json:"related_entity" yaml:"related_entity"`
	RelationshipType  RelationshipType `json:"relationship_type" yaml:"relationship_type"`
	Strength          float64          `json:"strength" yaml:"strength"`
	FinancialValue    *float64         `json:"financial_value,omitempty" yaml:"financial_value,omitempty"`
	ActiveFrom        *time.Time       `json:"active_from,omitempty" yaml:"active_from,omitempty"`
	ActiveTo          *time.Time       `json:"active_to,omitempty" yaml:"active_to,omitempty"`
	IsActive          bool             `json:"is_active" yaml:"is_active"`
	ConflictPotential RiskLevel        `json:"conflict_potential" yaml:"conflict_potential"`
}

// Value returns the financial value or 0.
func (r *FinancialRelationship) Value() float64 {
	if r.FinancialValue == nil {
		return 0
	}
	return *r.FinancialValue
}

// ConflictOfInterest is always recomputed from the current relationship set.
type ConflictOfInterest struct {
	Entity               string                  `json:"entity" yaml:"entity"`
	Severity             RiskLevel               `json:"severity" yaml:"severity"`
	Description          string                  `json:"description" yaml:"description"`
	RelatedRelationships []FinancialRelationship `json:"related_relationships" yaml:"related_relationships"`
	PotentialImpact      string                  `json:"potential_impact" yaml:"potential_impact"`
}

// NetworkMetrics are relationship network measures, each in [0,100].
type NetworkMetrics struct {
	CentralityScore       float64 `json:"centrality_score" yaml:"centrality_score"`
	ClusteringCoefficient float64 `json:"clustering_coefficient" yaml:"clustering_coefficient"`
	RiskPropagation       float64 `json:"risk_propagation" yaml:"risk_propagation"`
	RiskConcentration     float64 `json:"risk_concentration" yaml:"risk_concentration"`
}

// RelationshipMapping is the conflict-of-interest network of a sponsor.
type RelationshipMapping struct {
	SponsorID              string                  `json:"sponsor_id" yaml:"sponsor_id"`
	SponsorName            string                  `json:"sponsor_name" yaml:"sponsor_name"`
	Relationships          []FinancialRelationship `json:"relationships" yaml:"relationships"`
	TotalFinancialExposure float64                 `json:"total_financial_exposure" yaml:"total_financial_exposure"`
	RiskAssessment         RiskLevel               `json:"risk_assessment" yaml:"risk_assessment"`
	DetectedConflicts      []ConflictOfInterest    `json:"detected_conflicts" yaml:"detected_conflicts"`
	NetworkMetrics         NetworkMetrics          `json:"network_metrics" yaml:"network_metrics"`
	LastMappingUpdate      time.Time               `json:"last_mapping_update" yaml:"last_mapping_update"`
}

// AnomalyType classifies a detected anomaly.
type AnomalyType string

const (
	AnomalyAmountSpike           AnomalyType = "amount_spike"
	AnomalyFrequencyChange       AnomalyType = "frequency_change"
	AnomalyVerificationGap       AnomalyType = "verification_gap"
	AnomalyMissingData           AnomalyType = "missing_data"
	AnomalyTemporalInconsistency AnomalyType = "temporal_inconsistency"
)

// ValueRange is an inclusive expected range.
type ValueRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// FinancialAnomaly is one finding of the anomaly detector.
type FinancialAnomaly struct {
	Type                AnomalyType `json:"type" yaml:"type"`
	Severity            RiskLevel   `json:"severity" yaml:"severity"`
	Description         string      `json:"description" yaml:"description"`
	AffectedDisclosures []string    `json:"affected_disclosures" yaml:"affected_disclosures"`
	DetectedValue       float64     `json:"detected_value" yaml:"detected_value"`
	ExpectedRange       ValueRange  `json:"expected_range" yaml:"expected_range"`
	Recommendation      string      `json:"recommendation" yaml:"recommendation"`
}

// AnomalyDetectionResult is the anomaly report of a sponsor.
type AnomalyDetectionResult struct {
	SponsorID     string             `json:"sponsor_id" yaml:"sponsor_id"`
	SponsorName   string             `json:"sponsor_name" yaml:"sponsor_name"`
	Anomalies     []FinancialAnomaly `json:"anomalies" yaml:"anomalies"`
	RiskScore     int                `json:"risk_score" yaml:"risk_score"`
	DetectionDate time.Time          `json:"detection_date" yaml:"detection_date"`
}

// ComprehensiveAnalysis combines all three analyzers into one verdict.
type ComprehensiveAnalysis struct {
	SponsorID     string                  `json:"sponsor_id" yaml:"sponsor_id"`
	SponsorName   string                  `json:"sponsor_name" yaml:"sponsor_name"`
	Completeness  *CompletenessReport     `json:"completeness" yaml:"completeness"`
	Relationships *RelationshipMapping    `json:"relationships" yaml:"relationships"`
	Anomalies     *AnomalyDetectionResult `json:"anomalies" yaml:"anomalies"`
	OverallRisk   RiskLevel               `json:"overall_risk" yaml:"overall_risk"`
	RiskFactors   []string                `json:"risk_factors" yaml:"risk_factors"`
	AnalyzedAt    time.Time               `json:"analyzed_at" yaml:"analyzed_at"`
}

// RiskDistribution counts sponsors per risk tier.
type RiskDistribution struct {
	Low      int `json:"low" yaml:"low"`
	Medium   int `json:"medium" yaml:"medium"`
	High     int `json:"high" yaml:"high"`
	Critical int `json:"critical" yaml:"critical"`
}

// Add increments the counter for level.
func (d *RiskDistribution) Add(level RiskLevel) {
	switch level {
	case RiskLow:
		d.Low++
	case RiskMedium:
		d.Medium++
	case RiskHigh:
		d.High++
	case RiskCritical:
		d.Critical++
	}
}

// Performer is one row of the population leaderboards.
type Performer struct {
	SponsorID   string    `json:"sponsor_id" yaml:"sponsor_id"`
	SponsorName string    `json:"sponsor_name" yaml:"sponsor_name"`
	Score       int       `json:"score" yaml:"score"`
	RiskLevel   RiskLevel `json:"risk_level" yaml:"risk_level"`
}

// PopulationSummary aggregates completeness across active sponsors.
type PopulationSummary struct {
	TotalSponsors            int              `json:"total_sponsors" yaml:"total_sponsors"`
	AnalyzedSponsors         int              `json:"analyzed_sponsors" yaml:"analyzed_sponsors"`
	SkippedSponsors          int              `json:"skipped_sponsors" yaml:"skipped_sponsors"`
	AverageCompletenessScore float64          `json:"average_completeness_score" yaml:"average_completeness_score"`
	RiskDistribution         RiskDistribution `json:"risk_distribution" yaml:"risk_distribution"`
	TopPerformers            []Performer      `json:"top_performers" yaml:"top_performers"`
	BottomPerformers         []Performer      `json:"bottom_performers" yaml:"bottom_performers"`
	GeneratedAt              time.Time        `json:"generated_at" yaml:"generated_at"`
}

package model

import (
	"strings"
	"time"
)

// DisclosureType classifies a disclosure record.
type DisclosureType string

const (
	DisclosureFinancial  DisclosureType = "financial"
	DisclosureBusiness   DisclosureType = "business"
	DisclosureInvestment DisclosureType = "investment"
	DisclosureIncome     DisclosureType = "income"
	DisclosureRealEstate DisclosureType = "real_estate"
	DisclosureGifts      DisclosureType = "gifts"
)

// RequiredDisclosureTypes is the fixed set every sponsor is expected to file.
var RequiredDisclosureTypes = []DisclosureType{
	DisclosureFinancial,
	DisclosureBusiness,
	DisclosureInvestment,
	DisclosureIncome,
	DisclosureRealEstate,
	DisclosureGifts,
}

// RiskLevel is the common risk vocabulary across all analyzers.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank returns 1 (low) through 4 (critical), or 0 for an unknown level.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 0
	}
}

// Sponsor is the basic identity of a legislative sponsor.
type Sponsor struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	IsActive bool   `json:"is_active" yaml:"is_active"`
}

// Disclosure is a single reported financial or interest record.
// CompletenessScore and RiskLevel are derived at ingestion by Enrich.
type Disclosure struct {
	ID                string         `json:"id" yaml:"id"`
	SponsorID         string         `json:"sponsor_id" yaml:"sponsor_id"`
	DisclosureType    DisclosureType `json:"disclosure_type" yaml:"disclosure_type"`
	Description       string         `json:"description" yaml:"description"`
	Amount            *float64       `json:"amount,omitempty" yaml:"amount,omitempty"`
	Source            *string        `json:"source,omitempty" yaml:"source,omitempty"`
	DateReported      time.Time      `json:"date_reported" yaml:"date_reported"`
	IsVerified        bool           `json:"is_verified" yaml:"is_verified"`
	CompletenessScore int            `json:"completeness_score" yaml:"completeness_score"`
	RiskLevel         RiskLevel      `json:"risk_level" yaml:"risk_level"`
}

// HasAmount reports whether an amount was reported.
func (d *Disclosure) HasAmount() bool {
	return d.Amount != nil
}

// AmountValue returns the reported amount or 0.
func (d *Disclosure) AmountValue() float64 {
	if d.Amount == nil {
		return 0
	}
	return *d.Amount
}

// HasSource reports whether a non-blank source was reported.
func (d *Disclosure) HasSource() bool {
	return d.Source != nil && strings.TrimSpace(*d.Source) != ""
}

// SourceValue returns the trimmed source or "".
func (d *Disclosure) SourceValue() string {
	if d.Source == nil {
		return ""
	}
	return strings.TrimSpace(*d.Source)
}

// Affiliation is an organizational relationship separate from financial disclosures.
type Affiliation struct {
	ID           string     `json:"id" yaml:"id"`
	SponsorID    string     `json:"sponsor_id" yaml:"sponsor_id"`
	Organization string     `json:"organization" yaml:"organization"`
	Type         string     `json:"type" yaml:"type"`
	ConflictType *string    `json:"conflict_type,omitempty" yaml:"conflict_type,omitempty"`
	IsActive     bool       `json:"is_active" yaml:"is_active"`
	StartDate    *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// HasConflictType reports whether a non-blank conflict type is recorded.
func (a *Affiliation) HasConflictType() bool {
	return a.ConflictType != nil && strings.TrimSpace(*a.ConflictType) != ""
}

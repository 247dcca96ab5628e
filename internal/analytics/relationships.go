package analytics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chanuka/disclosure-cli/internal/model"
)

// disclosureRelationshipTypes maps disclosure types onto relationship types.
// family and debt are legacy disclosure types still present in older filings.
var disclosureRelationshipTypes = map[model.DisclosureType]model.RelationshipType{
	model.DisclosureFinancial:  model.RelationshipInvestment,
	model.DisclosureBusiness:   model.RelationshipOwnership,
	model.DisclosureInvestment: model.RelationshipInvestment,
	model.DisclosureIncome:     model.RelationshipEmployment,
	"family":                   model.RelationshipFamily,
	"debt":                     model.RelationshipInvestment,
	model.DisclosureRealEstate: model.RelationshipOwnership,
	model.DisclosureGifts:      model.RelationshipFamily,
}

// affiliationRelationshipTypes maps affiliation types onto relationship types.
var affiliationRelationshipTypes = map[string]model.RelationshipType{
	"economic":     model.RelationshipBusinessPartner,
	"professional": model.RelationshipEmployment,
	"ownership":    model.RelationshipOwnership,
	"family":       model.RelationshipFamily,
}

// MapRelationships builds the deduplicated relationship network of a sponsor,
// its network metrics and the conflicts of interest it implies.
func MapRelationships(sponsor model.Sponsor, disclosures []model.Disclosure, affiliations []model.Affiliation, now time.Time, cfg RelationshipConfig) *model.RelationshipMapping {
	extracted := append(relationshipsFromDisclosures(sponsor.ID, disclosures),
		relationshipsFromAffiliations(sponsor.ID, affiliations)...)
	relationships := DeduplicateRelationships(extracted)
	conflicts := DetectConflicts(relationships, cfg)
	exposure := totalExposure(relationships)

	return &model.RelationshipMapping{
		SponsorID:              sponsor.ID,
		SponsorName:            sponsor.Name,
		Relationships:          relationships,
		TotalFinancialExposure: exposure,
		RiskAssessment:         relationshipRisk(exposure, conflicts, cfg),
		DetectedConflicts:      conflicts,
		NetworkMetrics:         networkMetrics(relationships, exposure),
		LastMappingUpdate:      now,
	}
}

func relationshipsFromDisclosures(sponsorID string, disclosures []model.Disclosure) []model.FinancialRelationship {
	var out []model.FinancialRelationship
	for _, d := range disclosures {
		if !d.HasSource() || !d.HasAmount() {
			continue
		}
		relType, ok := disclosureRelationshipTypes[d.DisclosureType]
		if !ok {
			continue
		}
		amount := d.AmountValue()
		from := d.DateReported
		out = append(out, model.FinancialRelationship{
			SponsorID:         sponsorID,
			RelatedEntity:     d.SourceValue(),
			RelationshipType:  relType,
			Strength:          amountStrength(amount),
			FinancialValue:    &amount,
			ActiveFrom:        &from,
			IsActive:          true,
			ConflictPotential: d.RiskLevel,
		})
	}
	return out
}

// amountStrength is a step function of the disclosed amount.
func amountStrength(amount float64) float64 {
	switch {
	case amount >= 1_000_000:
		return 100
	case amount >= 500_000:
		return 80
	case amount >= 100_000:
		return 60
	case amount >= 50_000:
		return 40
	default:
		return 20
	}
}

func relationshipsFromAffiliations(sponsorID string, affiliations []model.Affiliation) []model.FinancialRelationship {
	var out []model.FinancialRelationship
	for _, a := range affiliations {
		relType, ok := affiliationRelationshipTypes[strings.ToLower(a.Type)]
		if !ok || strings.TrimSpace(a.Organization) == "" {
			continue
		}
		strength := 50.0
		if a.IsActive {
			strength += 30
		}
		if a.HasConflictType() {
			strength += 20
		}
		out = append(out, model.FinancialRelationship{
			SponsorID:         sponsorID,
			RelatedEntity:     strings.TrimSpace(a.Organization),
			RelationshipType:  relType,
			Strength:          math.Min(strength, 100),
			ActiveFrom:        a.StartDate,
			ActiveTo:          a.EndDate,
			IsActive:          a.IsActive,
			ConflictPotential: affiliationConflictPotential(a),
		})
	}
	return out
}

func affiliationConflictPotential(a model.Affiliation) model.RiskLevel {
	if a.HasConflictType() {
		switch strings.ToLower(*a.ConflictType) {
		case "ownership":
			return model.RiskCritical
		case "financial":
			return model.RiskHigh
		}
	}
	if strings.EqualFold(a.Type, "economic") {
		return model.RiskMedium
	}
	return model.RiskLow
}

type relationshipKey struct {
	entity  string
	relType model.RelationshipType
}

func keyOf(r model.FinancialRelationship) relationshipKey {
	return relationshipKey{entity: strings.ToLower(r.RelatedEntity), relType: r.RelationshipType}
}

// DeduplicateRelationships merges relationships describing the same
// (entity, type) pair. The result is independent of input order within a
// pair and applying it twice is a no-op.
func DeduplicateRelationships(relationships []model.FinancialRelationship) []model.FinancialRelationship {
	index := make(map[relationshipKey]int, len(relationships))
	out := make([]model.FinancialRelationship, 0, len(relationships))
	for _, r := range relationships {
		k := keyOf(r)
		if i, ok := index[k]; ok {
			out[i] = mergeRelationships(out[i], r)
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// mergeRelationships keeps the stronger record and sums financial values.
func mergeRelationships(a, b model.FinancialRelationship) model.FinancialRelationship {
	if b.Strength > a.Strength || (b.Strength == a.Strength && b.RelatedEntity < a.RelatedEntity) {
		a, b = b, a
	}
	merged := a

	if a.FinancialValue != nil || b.FinancialValue != nil {
		sum := a.Value() + b.Value()
		merged.FinancialValue = &sum
	}
	if b.ConflictPotential.Rank() > merged.ConflictPotential.Rank() {
		merged.ConflictPotential = b.ConflictPotential
	}
	merged.IsActive = a.IsActive || b.IsActive
	merged.ActiveFrom = earliest(a.ActiveFrom, b.ActiveFrom)
	merged.ActiveTo = latest(a.ActiveTo, b.ActiveTo)
	return merged
}

func earliest(a, b *time.Time) *time.Time {
	if a == nil || (b != nil && b.Before(*a)) {
		return b
	}
	return a
}

func latest(a, b *time.Time) *time.Time {
	if a == nil || (b != nil && b.After(*a)) {
		return b
	}
	return a
}

// DetectConflicts groups relationships by entity and reports conflicting
// combinations of relationship types.
func DetectConflicts(relationships []model.FinancialRelationship, cfg RelationshipConfig) []model.ConflictOfInterest {
	groups := make(map[string][]model.FinancialRelationship)
	var order []string
	for _, r := range relationships {
		entity := strings.ToLower(r.RelatedEntity)
		if _, ok := groups[entity]; !ok {
			order = append(order, entity)
		}
		groups[entity] = append(groups[entity], r)
	}

	conflicts := []model.ConflictOfInterest{}
	for _, entity := range order {
		rels := groups[entity]
		if len(rels) < 2 {
			continue
		}

		types := make(map[model.RelationshipType]bool, len(rels))
		var value float64
		for _, r := range rels {
			types[r.RelationshipType] = true
			value += r.Value()
		}

		controls := types[model.RelationshipOwnership] || types[model.RelationshipBusinessPartner]
		if controls && types[model.RelationshipInvestment] {
			severity := model.RiskHigh
			if value > cfg.CriticalConflictValue {
				severity = model.RiskCritical
			}
			conflicts = append(conflicts, model.ConflictOfInterest{
				Entity:               entity,
				Severity:             severity,
				Description:          fmt.Sprintf("Sponsor holds both a controlling interest and an investment in %s", entity),
				RelatedRelationships: rels,
				PotentialImpact:      "Legislative action affecting this entity directly changes the value of the sponsor's holdings",
			})
		}

		if types[model.RelationshipEmployment] && types[model.RelationshipInvestment] && value > cfg.MinConflictValue {
			conflicts = append(conflicts, model.ConflictOfInterest{
				Entity:               entity,
				Severity:             model.RiskMedium,
				Description:          fmt.Sprintf("Sponsor is both employed by and invested in %s", entity),
				RelatedRelationships: rels,
				PotentialImpact:      "Employment income and investment returns from the same entity may bias votes on related bills",
			})
		}
	}
	return conflicts
}

func totalExposure(relationships []model.FinancialRelationship) float64 {
	var total float64
	for i := range relationships {
		total += relationships[i].Value()
	}
	return total
}

func networkMetrics(relationships []model.FinancialRelationship, exposure float64) model.NetworkMetrics {
	n := len(relationships)
	if n == 0 {
		return model.NetworkMetrics{}
	}

	var strengthSum float64
	strong, critical, high := 0, 0, 0
	for _, r := range relationships {
		strengthSum += r.Strength
		if r.Strength > 70 {
			strong++
		}
		switch r.ConflictPotential {
		case model.RiskCritical:
			critical++
		case model.RiskHigh:
			high++
		}
	}

	return model.NetworkMetrics{
		CentralityScore:       math.Min(float64(n)*10+strengthSum/float64(n), 100),
		ClusteringCoefficient: 100 * float64(strong) / float64(n),
		RiskPropagation:       math.Min(30*float64(critical)+15*float64(high), 100),
		RiskConcentration:     herfindahl(relationships, exposure),
	}
}

// herfindahl is the sum of squared exposure shares scaled to 0-100.
func herfindahl(relationships []model.FinancialRelationship, exposure float64) float64 {
	if exposure <= 0 || len(relationships) == 0 {
		return 0
	}
	var hhi float64
	for i := range relationships {
		share := relationships[i].Value() / exposure
		hhi += share * share
	}
	return 100 * hhi
}

func relationshipRisk(exposure float64, conflicts []model.ConflictOfInterest, cfg RelationshipConfig) model.RiskLevel {
	critical, high := 0, 0
	for _, c := range conflicts {
		switch c.Severity {
		case model.RiskCritical:
			critical++
		case model.RiskHigh:
			high++
		}
	}
	switch {
	case exposure > cfg.HighExposure || critical > 0:
		return model.RiskCritical
	case exposure > cfg.MediumExposure || high > 2:
		return model.RiskHigh
	case exposure > cfg.LowExposure || high >= 1:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

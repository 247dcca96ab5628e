package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chanuka/disclosure-cli/internal/model"
)

func TestMapRelationships_OwnershipInvestmentConflict(t *testing.T) {
	sponsor := model.Sponsor{ID: "s1", Name: "Jane Doe", IsActive: true}
	disclosures := model.EnrichAll([]model.Disclosure{
		{ID: "d1", SponsorID: "s1", DisclosureType: model.DisclosureFinancial, Amount: ptrFloat64(500_000), IsVerified: true, DateReported: testNow},
		{ID: "d2", SponsorID: "s1", DisclosureType: model.DisclosureInvestment, Amount: ptrFloat64(100_000), DateReported: daysAgo(200), Source: ptrString("AcmeCo")},
	})
	affiliations := []model.Affiliation{
		{ID: "a1", SponsorID: "s1", Organization: "AcmeCo", Type: "ownership", IsActive: true},
	}

	mapping := MapRelationships(sponsor, disclosures, affiliations, testNow, DefaultConfig().Relationships)

	require.Len(t, mapping.Relationships, 2)
	require.Len(t, mapping.DetectedConflicts, 1)
	conflict := mapping.DetectedConflicts[0]
	assert.Equal(t, "acmeco", conflict.Entity)
	assert.Equal(t, model.RiskHigh, conflict.Severity)
	assert.Len(t, conflict.RelatedRelationships, 2)

	assert.Equal(t, 100_000.0, mapping.TotalFinancialExposure)
	assert.Equal(t, model.RiskMedium, mapping.RiskAssessment)
	assert.Equal(t, testNow, mapping.LastMappingUpdate)
	assert.Equal(t, "Jane Doe", mapping.SponsorName)
}

func TestMapRelationships_Empty(t *testing.T) {
	mapping := MapRelationships(model.Sponsor{ID: "s"}, nil, nil, testNow, DefaultConfig().Relationships)
	assert.Empty(t, mapping.Relationships)
	assert.NotNil(t, mapping.DetectedConflicts)
	assert.Empty(t, mapping.DetectedConflicts)
	assert.Equal(t, model.NetworkMetrics{}, mapping.NetworkMetrics)
	assert.Equal(t, model.RiskLow, mapping.RiskAssessment)
}

func TestRelationshipsFromDisclosures(t *testing.T) {
	ds := []model.Disclosure{
		{ID: "ok", DisclosureType: model.DisclosureIncome, Amount: ptrFloat64(75_000), Source: ptrString("Widget Corp"), DateReported: testNow, RiskLevel: model.RiskLow},
		{ID: "no-source", DisclosureType: model.DisclosureIncome, Amount: ptrFloat64(75_000)},
		{ID: "blank-source", DisclosureType: model.DisclosureIncome, Amount: ptrFloat64(75_000), Source: ptrString("  ")},
		{ID: "no-amount", DisclosureType: model.DisclosureIncome, Source: ptrString("Widget Corp")},
		{ID: "unknown", DisclosureType: "lottery", Amount: ptrFloat64(75_000), Source: ptrString("State")},
	}
	rels := relationshipsFromDisclosures("s", ds)
	require.Len(t, rels, 1)
	r := rels[0]
	assert.Equal(t, "Widget Corp", r.RelatedEntity)
	assert.Equal(t, model.RelationshipEmployment, r.RelationshipType)
	assert.Equal(t, 40.0, r.Strength)
	assert.Equal(t, 75_000.0, r.Value())
	assert.True(t, r.IsActive)
	require.NotNil(t, r.ActiveFrom)
	assert.Equal(t, testNow, *r.ActiveFrom)
}

func TestAmountStrength(t *testing.T) {
	tests := []struct {
		amount float64
		want   float64
	}{
		{1_000_000, 100},
		{999_999, 80},
		{500_000, 80},
		{100_000, 60},
		{50_000, 40},
		{49_999, 20},
		{0, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, amountStrength(tt.amount), "amount %v", tt.amount)
	}
}

func TestRelationshipsFromAffiliations(t *testing.T) {
	affs := []model.Affiliation{
		{Organization: "Farm Bureau", Type: "Economic", IsActive: true},
		{Organization: "Holdings LLC", Type: "ownership", IsActive: true, ConflictType: ptrString("ownership")},
		{Organization: "Law Firm", Type: "professional", ConflictType: ptrString("financial")},
		{Organization: "Cousin", Type: "family"},
		{Organization: "Golf Club", Type: "club", IsActive: true},
		{Organization: "  ", Type: "economic"},
	}
	rels := relationshipsFromAffiliations("s", affs)
	require.Len(t, rels, 4)

	assert.Equal(t, model.RelationshipBusinessPartner, rels[0].RelationshipType)
	assert.Equal(t, 80.0, rels[0].Strength)
	assert.Equal(t, model.RiskMedium, rels[0].ConflictPotential)
	assert.Nil(t, rels[0].FinancialValue)

	assert.Equal(t, model.RelationshipOwnership, rels[1].RelationshipType)
	assert.Equal(t, 100.0, rels[1].Strength)
	assert.Equal(t, model.RiskCritical, rels[1].ConflictPotential)

	assert.Equal(t, model.RelationshipEmployment, rels[2].RelationshipType)
	assert.Equal(t, 70.0, rels[2].Strength)
	assert.Equal(t, model.RiskHigh, rels[2].ConflictPotential)
	assert.False(t, rels[2].IsActive)

	assert.Equal(t, model.RelationshipFamily, rels[3].RelationshipType)
	assert.Equal(t, 50.0, rels[3].Strength)
	assert.Equal(t, model.RiskLow, rels[3].ConflictPotential)
}

func TestDeduplicateRelationships(t *testing.T) {
	early, late := daysAgo(300), daysAgo(10)
	a := model.FinancialRelationship{
		SponsorID: "s", RelatedEntity: "AcmeCo", RelationshipType: model.RelationshipInvestment,
		Strength: 60, FinancialValue: ptrFloat64(100_000), ActiveFrom: &late, IsActive: true,
		ConflictPotential: model.RiskMedium,
	}
	b := model.FinancialRelationship{
		SponsorID: "s", RelatedEntity: "acmeco", RelationshipType: model.RelationshipInvestment,
		Strength: 40, FinancialValue: ptrFloat64(50_000), ActiveFrom: &early,
		ConflictPotential: model.RiskHigh,
	}

	t.Run("commutative", func(t *testing.T) {
		ab := DeduplicateRelationships([]model.FinancialRelationship{a, b})
		ba := DeduplicateRelationships([]model.FinancialRelationship{b, a})
		require.Len(t, ab, 1)
		assert.Equal(t, ab, ba)

		merged := ab[0]
		assert.Equal(t, "AcmeCo", merged.RelatedEntity)
		assert.Equal(t, 60.0, merged.Strength)
		assert.Equal(t, 150_000.0, merged.Value())
		assert.Equal(t, model.RiskHigh, merged.ConflictPotential)
		assert.True(t, merged.IsActive)
		assert.Equal(t, early, *merged.ActiveFrom)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := DeduplicateRelationships([]model.FinancialRelationship{a, b})
		twice := DeduplicateRelationships(once)
		assert.Equal(t, once, twice)
	})

	t.Run("equal strength picks smaller spelling", func(t *testing.T) {
		c := b
		c.Strength = a.Strength
		ac := DeduplicateRelationships([]model.FinancialRelationship{a, c})
		ca := DeduplicateRelationships([]model.FinancialRelationship{c, a})
		assert.Equal(t, ac, ca)
		assert.Equal(t, "AcmeCo", ac[0].RelatedEntity)
	})

	t.Run("distinct types kept", func(t *testing.T) {
		c := b
		c.RelationshipType = model.RelationshipOwnership
		out := DeduplicateRelationships([]model.FinancialRelationship{a, c})
		assert.Len(t, out, 2)
	})

	t.Run("nil values stay nil", func(t *testing.T) {
		x := model.FinancialRelationship{RelatedEntity: "Org", RelationshipType: model.RelationshipFamily, Strength: 50}
		out := DeduplicateRelationships([]model.FinancialRelationship{x, x})
		require.Len(t, out, 1)
		assert.Nil(t, out[0].FinancialValue)
	})
}

func TestDetectConflicts(t *testing.T) {
	cfg := DefaultConfig().Relationships
	rel := func(entity string, typ model.RelationshipType, value *float64) model.FinancialRelationship {
		return model.FinancialRelationship{RelatedEntity: entity, RelationshipType: typ, FinancialValue: value}
	}

	tests := []struct {
		name         string
		rels         []model.FinancialRelationship
		wantSeverity []model.RiskLevel
	}{
		{
			name: "ownership and investment under threshold",
			rels: []model.FinancialRelationship{
				rel("AcmeCo", model.RelationshipOwnership, nil),
				rel("acmeco", model.RelationshipInvestment, ptrFloat64(600_000)),
			},
			wantSeverity: []model.RiskLevel{model.RiskHigh},
		},
		{
			name: "ownership and investment above threshold",
			rels: []model.FinancialRelationship{
				rel("AcmeCo", model.RelationshipOwnership, ptrFloat64(900_000)),
				rel("AcmeCo", model.RelationshipInvestment, ptrFloat64(200_000)),
			},
			wantSeverity: []model.RiskLevel{model.RiskCritical},
		},
		{
			name: "business partner and investment",
			rels: []model.FinancialRelationship{
				rel("Partner", model.RelationshipBusinessPartner, nil),
				rel("Partner", model.RelationshipInvestment, ptrFloat64(10)),
			},
			wantSeverity: []model.RiskLevel{model.RiskHigh},
		},
		{
			name: "employment and large investment",
			rels: []model.FinancialRelationship{
				rel("Employer", model.RelationshipEmployment, ptrFloat64(100_000)),
				rel("Employer", model.RelationshipInvestment, ptrFloat64(500_000)),
			},
			wantSeverity: []model.RiskLevel{model.RiskMedium},
		},
		{
			name: "employment and small investment",
			rels: []model.FinancialRelationship{
				rel("Employer", model.RelationshipEmployment, ptrFloat64(100_000)),
				rel("Employer", model.RelationshipInvestment, ptrFloat64(300_000)),
			},
		},
		{
			name: "different entities",
			rels: []model.FinancialRelationship{
				rel("A", model.RelationshipOwnership, nil),
				rel("B", model.RelationshipInvestment, ptrFloat64(5_000_000)),
			},
		},
		{
			name: "single relationship",
			rels: []model.FinancialRelationship{rel("A", model.RelationshipInvestment, ptrFloat64(5_000_000))},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts := DetectConflicts(tt.rels, cfg)
			require.NotNil(t, conflicts)
			got := make([]model.RiskLevel, 0, len(conflicts))
			for _, c := range conflicts {
				got = append(got, c.Severity)
			}
			if len(tt.wantSeverity) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.wantSeverity, got)
		})
	}
}

func TestHerfindahl(t *testing.T) {
	equal := func(n int) []model.FinancialRelationship {
		out := make([]model.FinancialRelationship, n)
		for i := range out {
			out[i].FinancialValue = ptrFloat64(250_000)
		}
		return out
	}

	single := equal(1)
	assert.InDelta(t, 100, herfindahl(single, totalExposure(single)), 1e-9)

	four := equal(4)
	assert.InDelta(t, 25, herfindahl(four, totalExposure(four)), 1e-9)

	many := equal(100)
	assert.InDelta(t, 1, herfindahl(many, totalExposure(many)), 1e-9)

	assert.Equal(t, 0.0, herfindahl([]model.FinancialRelationship{{}}, 0))
}

func TestNetworkMetrics(t *testing.T) {
	rels := []model.FinancialRelationship{
		{Strength: 100, FinancialValue: ptrFloat64(300_000), ConflictPotential: model.RiskCritical},
		{Strength: 80, FinancialValue: ptrFloat64(100_000), ConflictPotential: model.RiskHigh},
		{Strength: 30, ConflictPotential: model.RiskLow},
		{Strength: 50, ConflictPotential: model.RiskHigh},
	}
	m := networkMetrics(rels, totalExposure(rels))

	assert.InDelta(t, 100, m.CentralityScore, 1e-9) // 40 + 65 capped
	assert.InDelta(t, 50, m.ClusteringCoefficient, 1e-9)
	assert.InDelta(t, 60, m.RiskPropagation, 1e-9)
	assert.InDelta(t, 62.5, m.RiskConcentration, 1e-9)
}

func TestRelationshipRisk(t *testing.T) {
	cfg := DefaultConfig().Relationships
	conflicts := func(levels ...model.RiskLevel) []model.ConflictOfInterest {
		out := make([]model.ConflictOfInterest, len(levels))
		for i, l := range levels {
			out[i].Severity = l
		}
		return out
	}
	tests := []struct {
		name      string
		exposure  float64
		conflicts []model.ConflictOfInterest
		want      model.RiskLevel
	}{
		{"nothing", 0, nil, model.RiskLow},
		{"at low threshold", 500_000, nil, model.RiskLow},
		{"above low", 500_001, nil, model.RiskMedium},
		{"one high conflict", 0, conflicts(model.RiskHigh), model.RiskMedium},
		{"above medium", 2_000_001, nil, model.RiskHigh},
		{"three high conflicts", 0, conflicts(model.RiskHigh, model.RiskHigh, model.RiskHigh), model.RiskHigh},
		{"above high", 5_000_001, nil, model.RiskCritical},
		{"critical conflict", 0, conflicts(model.RiskCritical), model.RiskCritical},
		{"medium conflicts only", 0, conflicts(model.RiskMedium, model.RiskMedium), model.RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relationshipRisk(tt.exposure, tt.conflicts, cfg))
		})
	}
}

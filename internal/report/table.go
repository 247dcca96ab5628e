package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chanuka/disclosure-cli/internal/model"
)

const dateLayout = "2006-01-02"

func newTab(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeCompleteness(out io.Writer, r *model.CompletenessReport) error {
	w := newTab(out)
	_, _ = fmt.Fprintf(w, "Sponsor:\t%s (%s)\n", r.SponsorName, r.SponsorID)
	_, _ = fmt.Fprintf(w, "Completeness score:\t%d/100\n", r.OverallScore)
	_, _ = fmt.Fprintf(w, "Risk:\t%s\n", r.RiskAssessment)
	_, _ = fmt.Fprintf(w, "Trend:\t%s\n", r.TemporalTrend)
	_, _ = fmt.Fprintf(w, "Required disclosures:\t%d of %d\n", r.CompletedDisclosures, r.RequiredDisclosures)
	_, _ = fmt.Fprintf(w, "Missing:\t%s\n", joinTypes(r.MissingDisclosures))
	_, _ = fmt.Fprintf(w, "Last update:\t%s\n", formatDate(r.LastUpdateDate))
	m := r.DetailedMetrics
	_, _ = fmt.Fprintf(w, "Metrics:\tcoverage %.2f  verification %.2f  recency %.2f  detail %.2f\n",
		m.RequiredDisclosureScore, m.VerificationScore, m.RecencyScore, m.DetailScore)
	if err := w.Flush(); err != nil {
		return err
	}
	return writeList(out, "Recommendations", r.Recommendations)
}

func writeRelationships(out io.Writer, r *model.RelationshipMapping) error {
	w := newTab(out)
	_, _ = fmt.Fprintf(w, "Sponsor:\t%s (%s)\n", r.SponsorName, r.SponsorID)
	_, _ = fmt.Fprintf(w, "Risk:\t%s\n", r.RiskAssessment)
	_, _ = fmt.Fprintf(w, "Total exposure:\t%s\n", formatMoney(r.TotalFinancialExposure))
	n := r.NetworkMetrics
	_, _ = fmt.Fprintf(w, "Network:\tcentrality %.1f  clustering %.1f  propagation %.1f  concentration %.1f\n",
		n.CentralityScore, n.ClusteringCoefficient, n.RiskPropagation, n.RiskConcentration)
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "ENTITY\tTYPE\tSTRENGTH\tVALUE\tACTIVE\tCONFLICT")
	for _, rel := range r.Relationships {
		value := "-"
		if rel.FinancialValue != nil {
			value = formatMoney(*rel.FinancialValue)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\t%t\t%s\n",
			rel.RelatedEntity, rel.RelationshipType, rel.Strength, value, rel.IsActive, rel.ConflictPotential)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(r.DetectedConflicts) == 0 {
		_, err := fmt.Fprintln(out, "\nNo conflicts of interest detected.")
		return err
	}
	_, _ = fmt.Fprintln(out, "\nConflicts of interest:")
	for _, c := range r.DetectedConflicts {
		_, _ = fmt.Fprintf(out, "  [%s] %s: %s\n", c.Severity, c.Entity, c.Description)
	}
	return nil
}

func writeAnomalies(out io.Writer, r *model.AnomalyDetectionResult) error {
	w := newTab(out)
	_, _ = fmt.Fprintf(w, "Sponsor:\t%s (%s)\n", r.SponsorName, r.SponsorID)
	_, _ = fmt.Fprintf(w, "Anomaly risk score:\t%d/100\n", r.RiskScore)
	if err := w.Flush(); err != nil {
		return err
	}
	if len(r.Anomalies) == 0 {
		_, err := fmt.Fprintln(out, "\nNo anomalies detected.")
		return err
	}

	_, _ = fmt.Fprintln(out)
	w = newTab(out)
	_, _ = fmt.Fprintln(w, "TYPE\tSEVERITY\tDESCRIPTION")
	for _, a := range r.Anomalies {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", a.Type, a.Severity, a.Description)
	}
	return w.Flush()
}

func writeComprehensive(out io.Writer, r *model.ComprehensiveAnalysis) error {
	w := newTab(out)
	_, _ = fmt.Fprintf(w, "Sponsor:\t%s (%s)\n", r.SponsorName, r.SponsorID)
	_, _ = fmt.Fprintf(w, "Overall risk:\t%s\n", strings.ToUpper(string(r.OverallRisk)))
	if r.Completeness != nil {
		_, _ = fmt.Fprintf(w, "Completeness:\t%d/100 (%s)\n", r.Completeness.OverallScore, r.Completeness.RiskAssessment)
	}
	if r.Relationships != nil {
		_, _ = fmt.Fprintf(w, "Relationships:\t%d (%d conflicts, %s)\n",
			len(r.Relationships.Relationships), len(r.Relationships.DetectedConflicts), r.Relationships.RiskAssessment)
	}
	if r.Anomalies != nil {
		_, _ = fmt.Fprintf(w, "Anomalies:\t%d (score %d)\n", len(r.Anomalies.Anomalies), r.Anomalies.RiskScore)
	}
	_, _ = fmt.Fprintf(w, "Analyzed at:\t%s\n", r.AnalyzedAt.UTC().Format(time.RFC3339))
	if err := w.Flush(); err != nil {
		return err
	}
	return writeList(out, "Risk factors", r.RiskFactors)
}

func writeSummary(out io.Writer, s *model.PopulationSummary) error {
	w := newTab(out)
	_, _ = fmt.Fprintf(w, "Sponsors analyzed:\t%d of %d (%d skipped)\n", s.AnalyzedSponsors, s.TotalSponsors, s.SkippedSponsors)
	_, _ = fmt.Fprintf(w, "Average completeness:\t%.1f\n", s.AverageCompletenessScore)
	d := s.RiskDistribution
	_, _ = fmt.Fprintf(w, "Risk distribution:\tlow %d  medium %d  high %d  critical %d\n", d.Low, d.Medium, d.High, d.Critical)
	if err := w.Flush(); err != nil {
		return err
	}

	for _, section := range []struct {
		title string
		rows  []model.Performer
	}{
		{"Top performers", s.TopPerformers},
		{"Bottom performers", s.BottomPerformers},
	} {
		_, _ = fmt.Fprintf(out, "\n%s:\n", section.title)
		w = newTab(out)
		_, _ = fmt.Fprintln(w, "RANK\tSPONSOR\tNAME\tSCORE\tRISK")
		for i, p := range section.rows {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", i+1, p.SponsorID, p.SponsorName, p.Score, p.RiskLevel)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func writeList(out io.Writer, title string, items []string) error {
	if len(items) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(out, "\n%s:\n", title); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(out, "  - %s\n", item); err != nil {
			return err
		}
	}
	return nil
}

func joinTypes(types []model.DisclosureType) string {
	if len(types) == 0 {
		return "none"
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(dateLayout)
}

package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/chanuka/disclosure-cli/internal/model"
)

var performerHeader = []string{"section", "rank", "sponsor_id", "sponsor_name", "score", "risk_level"}

// WriteSummaryCSV writes the leaderboards of s as CSV, one row per performer.
func WriteSummaryCSV(w io.Writer, s *model.PopulationSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(performerHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, row := range performerRows(s) {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

func performerRows(s *model.PopulationSummary) [][]string {
	var rows [][]string
	add := func(section string, ps []model.Performer) {
		for i, p := range ps {
			rows = append(rows, []string{
				section, strconv.Itoa(i + 1), p.SponsorID, p.SponsorName, strconv.Itoa(p.Score), string(p.RiskLevel),
			})
		}
	}
	add("top", s.TopPerformers)
	add("bottom", s.BottomPerformers)
	return rows
}

// Sheet names of the XLSX summary workbook.
const (
	SheetOverview = "Overview"
	SheetTop      = "Top Performers"
	SheetBottom   = "Bottom Performers"
)

// WriteSummaryXLSX writes s as a workbook with an overview sheet and one
// sheet per leaderboard.
func WriteSummaryXLSX(w io.Writer, s *model.PopulationSummary) error {
	f := xlsx.NewFile()

	overview, err := f.AddSheet(SheetOverview)
	if err != nil {
		return eris.Wrap(err, "report: add overview sheet")
	}
	addStringRow(overview, "metric", "value")
	addIntRow(overview, "total_sponsors", s.TotalSponsors)
	addIntRow(overview, "analyzed_sponsors", s.AnalyzedSponsors)
	addIntRow(overview, "skipped_sponsors", s.SkippedSponsors)
	avg := overview.AddRow()
	avg.AddCell().SetString("average_completeness_score")
	avg.AddCell().SetFloat(s.AverageCompletenessScore)
	addIntRow(overview, "risk_low", s.RiskDistribution.Low)
	addIntRow(overview, "risk_medium", s.RiskDistribution.Medium)
	addIntRow(overview, "risk_high", s.RiskDistribution.High)
	addIntRow(overview, "risk_critical", s.RiskDistribution.Critical)
	addStringRow(overview, "generated_at", s.GeneratedAt.UTC().Format(time.RFC3339))

	for _, sec := range []struct {
		name string
		rows []model.Performer
	}{
		{SheetTop, s.TopPerformers},
		{SheetBottom, s.BottomPerformers},
	} {
		sheet, err := f.AddSheet(sec.name)
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %s", sec.name)
		}
		addStringRow(sheet, performerHeader[1:]...)
		for i, p := range sec.rows {
			row := sheet.AddRow()
			row.AddCell().SetInt(i + 1)
			row.AddCell().SetString(p.SponsorID)
			row.AddCell().SetString(p.SponsorName)
			row.AddCell().SetInt(p.Score)
			row.AddCell().SetString(string(p.RiskLevel))
		}
	}

	return eris.Wrap(f.Write(w), "report: write xlsx")
}

func addStringRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addIntRow(sheet *xlsx.Sheet, label string, n int) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetInt(n)
}

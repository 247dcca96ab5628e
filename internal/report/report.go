// Package report renders analysis results for the terminal and for export.
package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/chanuka/disclosure-cli/internal/model"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatCSV, FormatXLSX:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", eris.Errorf("report: unknown format %q (want table, json, yaml, csv or xlsx)", s)
	}
}

// Render writes v to w in the given format. CSV and XLSX are only
// available for population summaries.
func Render(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "report: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "report: encode yaml")
		}
		return eris.Wrap(enc.Close(), "report: close yaml encoder")
	case FormatCSV, FormatXLSX:
		s, ok := v.(*model.PopulationSummary)
		if !ok {
			return eris.Errorf("report: %s output is only supported for population summaries", f)
		}
		if f == FormatCSV {
			return WriteSummaryCSV(w, s)
		}
		return WriteSummaryXLSX(w, s)
	case FormatTable, "":
		return renderTable(w, v)
	default:
		return eris.Errorf("report: unknown format %q", f)
	}
}

func renderTable(w io.Writer, v any) error {
	switch r := v.(type) {
	case *model.CompletenessReport:
		return writeCompleteness(w, r)
	case *model.RelationshipMapping:
		return writeRelationships(w, r)
	case *model.AnomalyDetectionResult:
		return writeAnomalies(w, r)
	case *model.ComprehensiveAnalysis:
		return writeComprehensive(w, r)
	case *model.PopulationSummary:
		return writeSummary(w, r)
	default:
		return eris.Errorf("report: no table layout for %T", v)
	}
}

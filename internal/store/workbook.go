package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/chanuka/disclosure-cli/internal/model"
)

// Sheet names read from an XLSX dataset. Each sheet has a header row with
// the same column names as the YAML fields.
const (
	sheetSponsors     = "sponsors"
	sheetDisclosures  = "disclosures"
	sheetAffiliations = "affiliations"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05", "01-02-06", "1/2/06", "1/2/2006"}

// ParseWorkbook decodes and validates an XLSX dataset. The sponsors sheet
// is required, the other two are optional.
func ParseWorkbook(raw []byte) (*Dataset, error) {
	f, err := xlsx.OpenBinary(raw)
	if err != nil {
		return nil, eris.Wrap(err, "store: open workbook")
	}

	sponsors, ok := sheetTable(f, sheetSponsors)
	if !ok {
		return nil, eris.Errorf("store: workbook has no %q sheet", sheetSponsors)
	}

	var ds Dataset
	for i, row := range sponsors.rows {
		active, err := sponsors.boolean(row, "is_active", true)
		if err != nil {
			return nil, eris.Wrapf(err, "store: sponsors row %d", i+2)
		}
		ds.Sponsors = append(ds.Sponsors, model.Sponsor{
			ID:       sponsors.get(row, "id"),
			Name:     sponsors.get(row, "name"),
			IsActive: active,
		})
	}

	if t, ok := sheetTable(f, sheetDisclosures); ok {
		for i, row := range t.rows {
			d, err := t.disclosure(row)
			if err != nil {
				return nil, eris.Wrapf(err, "store: disclosures row %d", i+2)
			}
			ds.Disclosures = append(ds.Disclosures, d)
		}
	}

	if t, ok := sheetTable(f, sheetAffiliations); ok {
		for i, row := range t.rows {
			a, err := t.affiliation(row)
			if err != nil {
				return nil, eris.Wrapf(err, "store: affiliations row %d", i+2)
			}
			ds.Affiliations = append(ds.Affiliations, a)
		}
	}

	if err := ds.normalize(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// table is a sheet split into a header index and data rows.
type table struct {
	columns map[string]int
	rows    [][]string
}

func sheetTable(f *xlsx.File, name string) (*table, bool) {
	var sheet *xlsx.Sheet
	for sheetName, s := range f.Sheet {
		if strings.EqualFold(sheetName, name) {
			sheet = s
			break
		}
	}
	if sheet == nil || len(sheet.Rows) == 0 {
		return nil, false
	}

	t := &table{columns: make(map[string]int)}
	for j, cell := range sheet.Rows[0].Cells {
		t.columns[strings.ToLower(strings.TrimSpace(cell.String()))] = j
	}
	for _, row := range sheet.Rows[1:] {
		cells := make([]string, len(row.Cells))
		blank := true
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
			if cells[j] != "" {
				blank = false
			}
		}
		if !blank {
			t.rows = append(t.rows, cells)
		}
	}
	return t, true
}

func (t *table) get(row []string, col string) string {
	j, ok := t.columns[col]
	if !ok || j >= len(row) {
		return ""
	}
	return row[j]
}

func (t *table) optional(row []string, col string) *string {
	if v := t.get(row, col); v != "" {
		return &v
	}
	return nil
}

func (t *table) boolean(row []string, col string, def bool) (bool, error) {
	v := t.get(row, col)
	if v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, eris.Errorf("column %s: invalid boolean %q", col, v)
	}
	return b, nil
}

func (t *table) number(row []string, col string) (*float64, error) {
	v := strings.NewReplacer("$", "", ",", "").Replace(t.get(row, col))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, eris.Errorf("column %s: invalid number %q", col, v)
	}
	return &n, nil
}

func (t *table) date(row []string, col string) (*time.Time, error) {
	v := t.get(row, col)
	if v == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return &ts, nil
		}
	}
	// Unformatted date cells hold the Excel serial day number.
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		ts := xlsx.TimeFromExcelTime(serial, false)
		return &ts, nil
	}
	return nil, eris.Errorf("column %s: invalid date %q", col, v)
}

func (t *table) disclosure(row []string) (model.Disclosure, error) {
	d := model.Disclosure{
		ID:             t.get(row, "id"),
		SponsorID:      t.get(row, "sponsor_id"),
		DisclosureType: model.DisclosureType(strings.ToLower(t.get(row, "disclosure_type"))),
		Description:    t.get(row, "description"),
		Source:         t.optional(row, "source"),
	}
	var err error
	if d.Amount, err = t.number(row, "amount"); err != nil {
		return d, err
	}
	reported, err := t.date(row, "date_reported")
	if err != nil {
		return d, err
	}
	if reported != nil {
		d.DateReported = *reported
	}
	if d.IsVerified, err = t.boolean(row, "is_verified", false); err != nil {
		return d, err
	}
	return d, nil
}

func (t *table) affiliation(row []string) (model.Affiliation, error) {
	a := model.Affiliation{
		ID:           t.get(row, "id"),
		SponsorID:    t.get(row, "sponsor_id"),
		Organization: t.get(row, "organization"),
		Type:         strings.ToLower(t.get(row, "type")),
		ConflictType: t.optional(row, "conflict_type"),
	}
	var err error
	if a.IsActive, err = t.boolean(row, "is_active", true); err != nil {
		return a, err
	}
	if a.StartDate, err = t.date(row, "start_date"); err != nil {
		return a, err
	}
	if a.EndDate, err = t.date(row, "end_date"); err != nil {
		return a, err
	}
	return a, nil
}

package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/chanuka/disclosure-cli/internal/model"
)

func buildWorkbook(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseWorkbook(t *testing.T) {
	raw := buildWorkbook(t, map[string][][]string{
		"Sponsors": {
			{"id", "name", "is_active"},
			{"s1", "Jane Doe", "yes"},
			{"s2", "John Roe", "false"},
			{"", "", ""},
		},
		"Disclosures": {
			{"id", "sponsor_id", "disclosure_type", "description", "amount", "source", "date_reported", "is_verified"},
			{"d1", "s1", "Investment", "index fund", "$250,000", "Vanguard", "2025-01-15", "true"},
			{"", "s1", "gifts", "", "", "", "1/2/2024", ""},
		},
		"Affiliations": {
			{"id", "sponsor_id", "organization", "type", "conflict_type", "is_active", "start_date", "end_date"},
			{"a1", "s1", "Acme Corp", "Economic", "board seat", "", "2019-03-01", ""},
		},
	})

	ds, err := ParseWorkbook(raw)
	require.NoError(t, err)

	require.Len(t, ds.Sponsors, 2)
	assert.True(t, ds.Sponsors[0].IsActive)
	assert.False(t, ds.Sponsors[1].IsActive)

	require.Len(t, ds.Disclosures, 2)
	d := ds.Disclosures[0]
	assert.Equal(t, model.DisclosureInvestment, d.DisclosureType)
	require.NotNil(t, d.Amount)
	assert.InDelta(t, 250_000, *d.Amount, 1e-9)
	assert.Equal(t, "Vanguard", d.SourceValue())
	assert.True(t, d.DateReported.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, d.IsVerified)

	gift := ds.Disclosures[1]
	assert.NotEmpty(t, gift.ID)
	assert.Nil(t, gift.Amount)
	assert.Nil(t, gift.Source)
	assert.True(t, gift.DateReported.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))

	require.Len(t, ds.Affiliations, 1)
	a := ds.Affiliations[0]
	assert.Equal(t, "economic", a.Type)
	assert.True(t, a.IsActive)
	require.NotNil(t, a.StartDate)
	assert.Nil(t, a.EndDate)
}

func TestParseWorkbook_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sheets  map[string][][]string
		wantErr string
	}{
		{
			name:    "no sponsors sheet",
			sheets:  map[string][][]string{"Other": {{"id"}}},
			wantErr: `workbook has no "sponsors" sheet`,
		},
		{
			name: "bad amount",
			sheets: map[string][][]string{
				"sponsors":    {{"id"}, {"s1"}},
				"disclosures": {{"sponsor_id", "disclosure_type", "amount", "date_reported"}, {"s1", "gifts", "lots", "2025-01-01"}},
			},
			wantErr: `disclosures row 2: column amount: invalid number "lots"`,
		},
		{
			name: "bad date",
			sheets: map[string][][]string{
				"sponsors":    {{"id"}, {"s1"}},
				"disclosures": {{"sponsor_id", "disclosure_type", "date_reported"}, {"s1", "gifts", "someday"}},
			},
			wantErr: `column date_reported: invalid date "someday"`,
		},
		{
			name: "bad boolean",
			sheets: map[string][][]string{
				"sponsors": {{"id", "is_active"}, {"s1", "maybe"}},
			},
			wantErr: `sponsors row 2: column is_active: invalid boolean "maybe"`,
		},
		{
			name: "unknown sponsor",
			sheets: map[string][][]string{
				"sponsors":     {{"id"}, {"s1"}},
				"affiliations": {{"id", "sponsor_id", "organization"}, {"a1", "s9", "Acme"}},
			},
			wantErr: `affiliation a1: unknown sponsor "s9"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWorkbook(buildWorkbook(t, tt.sheets))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseWorkbook_NotAWorkbook(t *testing.T) {
	_, err := ParseWorkbook([]byte("not a zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store: open workbook")
}

func TestLoadDataset_XLSX(t *testing.T) {
	raw := buildWorkbook(t, map[string][][]string{
		"sponsors": {{"id", "name"}, {"s1", "Jane Doe"}},
	})
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, ds.Sponsors, 1)
	assert.True(t, ds.Sponsors[0].IsActive)
}

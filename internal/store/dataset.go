package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/chanuka/disclosure-cli/internal/model"
)

// Dataset is an importable set of sponsors with their records.
type Dataset struct {
	Sponsors     []model.Sponsor     `json:"sponsors" yaml:"sponsors"`
	Disclosures  []model.Disclosure  `json:"disclosures" yaml:"disclosures"`
	Affiliations []model.Affiliation `json:"affiliations" yaml:"affiliations"`
}

// ImportStats counts what Import wrote.
type ImportStats struct {
	Sponsors     int `json:"sponsors"`
	Disclosures  int `json:"disclosures"`
	Affiliations int `json:"affiliations"`
}

// LoadDataset reads a dataset file. The extension selects the decoder:
// .json, .xlsx, anything else is YAML.
func LoadDataset(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: read dataset %s", path)
	}
	var ds *Dataset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		ds, err = ParseWorkbook(raw)
	case ".json":
		ds, err = ParseDataset(raw, true)
	default:
		ds, err = ParseDataset(raw, false)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: load dataset %s", path)
	}
	return ds, nil
}

// ParseDataset decodes and validates a dataset. Empty record ids are
// replaced with generated UUIDs.
func ParseDataset(raw []byte, isJSON bool) (*Dataset, error) {
	var ds Dataset
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ds); err != nil {
			return nil, eris.Wrap(err, "store: decode json dataset")
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&ds); err != nil {
			return nil, eris.Wrap(err, "store: decode yaml dataset")
		}
	}
	if err := ds.normalize(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (ds *Dataset) normalize() error {
	sponsors := make(map[string]bool, len(ds.Sponsors))
	for i, sp := range ds.Sponsors {
		id := strings.TrimSpace(sp.ID)
		if id == "" {
			return eris.Errorf("store: sponsor %d: id is required", i)
		}
		if sponsors[id] {
			return eris.Errorf("store: sponsor %s: duplicate id", id)
		}
		sponsors[id] = true
		ds.Sponsors[i].ID = id
	}

	for i := range ds.Disclosures {
		d := &ds.Disclosures[i]
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		if !sponsors[d.SponsorID] {
			return eris.Errorf("store: disclosure %s: unknown sponsor %q", d.ID, d.SponsorID)
		}
		if d.DisclosureType == "" {
			return eris.Errorf("store: disclosure %s: disclosure_type is required", d.ID)
		}
		if d.DateReported.IsZero() {
			return eris.Errorf("store: disclosure %s: date_reported is required", d.ID)
		}
	}

	for i := range ds.Affiliations {
		a := &ds.Affiliations[i]
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if !sponsors[a.SponsorID] {
			return eris.Errorf("store: affiliation %s: unknown sponsor %q", a.ID, a.SponsorID)
		}
		if strings.TrimSpace(a.Organization) == "" {
			return eris.Errorf("store: affiliation %s: organization is required", a.ID)
		}
	}
	return nil
}

// Import writes ds to st. Disclosures are enriched before they are saved.
func Import(ctx context.Context, st Store, ds *Dataset) (ImportStats, error) {
	var stats ImportStats
	if err := st.SaveSponsors(ctx, ds.Sponsors); err != nil {
		return stats, eris.Wrap(err, "store: import sponsors")
	}
	stats.Sponsors = len(ds.Sponsors)

	if err := st.SaveDisclosures(ctx, model.EnrichAll(ds.Disclosures)); err != nil {
		return stats, eris.Wrap(err, "store: import disclosures")
	}
	stats.Disclosures = len(ds.Disclosures)

	if err := st.SaveAffiliations(ctx, ds.Affiliations); err != nil {
		return stats, eris.Wrap(err, "store: import affiliations")
	}
	stats.Affiliations = len(ds.Affiliations)

	zap.L().Info("store: dataset imported",
		zap.Int("sponsors", stats.Sponsors),
		zap.Int("disclosures", stats.Disclosures),
		zap.Int("affiliations", stats.Affiliations),
	)
	return stats, nil
}

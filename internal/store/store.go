// Package store persists sponsors, disclosures and affiliations and serves
// them to the analytics engine.
package store

import (
	"context"

	"github.com/chanuka/disclosure-cli/internal/analytics"
	"github.com/chanuka/disclosure-cli/internal/model"
)

// defaultSponsorLimit caps ListActiveSponsorIDs when no limit is given.
const defaultSponsorLimit = 100

// Store defines the persistence interface of the disclosure data set.
// GetSponsor returns an error wrapping model.ErrNotFound for unknown ids.
type Store interface {
	// Reads
	GetSponsor(ctx context.Context, sponsorID string) (*model.Sponsor, error)
	ListDisclosures(ctx context.Context, sponsorID string) ([]model.Disclosure, error)
	ListAffiliations(ctx context.Context, sponsorID string) ([]model.Affiliation, error)
	ListActiveSponsorIDs(ctx context.Context, limit int) ([]string, error)

	// Writes (upsert by id)
	SaveSponsors(ctx context.Context, sponsors []model.Sponsor) error
	SaveDisclosures(ctx context.Context, disclosures []model.Disclosure) error
	SaveAffiliations(ctx context.Context, affiliations []model.Affiliation) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

var _ analytics.Repository = Store(nil)

func sponsorLimit(limit int) int {
	if limit <= 0 {
		return defaultSponsorLimit
	}
	return limit
}

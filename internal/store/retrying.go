package store

import (
	"context"

	"github.com/chanuka/disclosure-cli/internal/model"
	"github.com/chanuka/disclosure-cli/internal/resilience"
)

// RetryingStore retries the reads of an underlying Store on transient
// errors. Writes and lifecycle calls pass through unchanged.
type RetryingStore struct {
	Store
	cfg resilience.RetryConfig
}

// WithRetry wraps st so that its reads are retried according to cfg.
func WithRetry(st Store, cfg resilience.RetryConfig) *RetryingStore {
	return &RetryingStore{Store: st, cfg: cfg}
}

func (r *RetryingStore) config(operation string) resilience.RetryConfig {
	cfg := r.cfg
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("store", operation)
	}
	return cfg
}

func (r *RetryingStore) GetSponsor(ctx context.Context, sponsorID string) (*model.Sponsor, error) {
	return resilience.DoVal(ctx, r.config("get_sponsor"), func(ctx context.Context) (*model.Sponsor, error) {
		return r.Store.GetSponsor(ctx, sponsorID)
	})
}

func (r *RetryingStore) ListDisclosures(ctx context.Context, sponsorID string) ([]model.Disclosure, error) {
	return resilience.DoVal(ctx, r.config("list_disclosures"), func(ctx context.Context) ([]model.Disclosure, error) {
		return r.Store.ListDisclosures(ctx, sponsorID)
	})
}

func (r *RetryingStore) ListAffiliations(ctx context.Context, sponsorID string) ([]model.Affiliation, error) {
	return resilience.DoVal(ctx, r.config("list_affiliations"), func(ctx context.Context) ([]model.Affiliation, error) {
		return r.Store.ListAffiliations(ctx, sponsorID)
	})
}

func (r *RetryingStore) ListActiveSponsorIDs(ctx context.Context, limit int) ([]string, error) {
	return resilience.DoVal(ctx, r.config("list_active_sponsors"), func(ctx context.Context) ([]string, error) {
		return r.Store.ListActiveSponsorIDs(ctx, limit)
	})
}

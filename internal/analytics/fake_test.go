package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"

	"github.com/chanuka/disclosure-cli/internal/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

func daysAgo(n int) time.Time { return testNow.AddDate(0, 0, -n) }

// fakeRepo is an in-memory Repository with per-sponsor error injection.
type fakeRepo struct {
	sponsors     map[string]model.Sponsor
	disclosures  map[string][]model.Disclosure
	affiliations map[string][]model.Affiliation
	ids          []string

	sponsorErr     map[string]error
	disclosureErr  map[string]error
	affiliationErr error
	listErr        error

	disclosureCalls atomic.Int32
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sponsors:      map[string]model.Sponsor{},
		disclosures:   map[string][]model.Disclosure{},
		affiliations:  map[string][]model.Affiliation{},
		sponsorErr:    map[string]error{},
		disclosureErr: map[string]error{},
	}
}

func (f *fakeRepo) add(s model.Sponsor, ds []model.Disclosure, affs []model.Affiliation) {
	f.sponsors[s.ID] = s
	f.disclosures[s.ID] = model.EnrichAll(ds)
	f.affiliations[s.ID] = affs
	f.ids = append(f.ids, s.ID)
}

func (f *fakeRepo) GetSponsor(_ context.Context, id string) (*model.Sponsor, error) {
	if err := f.sponsorErr[id]; err != nil {
		return nil, err
	}
	s, ok := f.sponsors[id]
	if !ok {
		return nil, eris.Wrapf(model.ErrNotFound, "fake: sponsor %s", id)
	}
	return &s, nil
}

func (f *fakeRepo) ListDisclosures(_ context.Context, id string) ([]model.Disclosure, error) {
	f.disclosureCalls.Add(1)
	if err := f.disclosureErr[id]; err != nil {
		return nil, err
	}
	return f.disclosures[id], nil
}

func (f *fakeRepo) ListAffiliations(_ context.Context, id string) ([]model.Affiliation, error) {
	if f.affiliationErr != nil {
		return nil, f.affiliationErr
	}
	return f.affiliations[id], nil
}

func (f *fakeRepo) ListActiveSponsorIDs(_ context.Context, limit int) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > 0 && len(f.ids) > limit {
		return f.ids[:limit], nil
	}
	return f.ids, nil
}

// memCache is a map-backed cache.Cache that counts hits.
type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	hits   int
	getErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

// completeDisclosures is one verified, fully detailed disclosure of every
// required type, dated at testNow, each from a distinct source.
func completeDisclosures(sponsorID string) []model.Disclosure {
	out := make([]model.Disclosure, 0, len(model.RequiredDisclosureTypes))
	for _, t := range model.RequiredDisclosureTypes {
		out = append(out, model.Disclosure{
			ID:             sponsorID + "-" + string(t),
			SponsorID:      sponsorID,
			DisclosureType: t,
			Description:    "A fully itemised description of the reported holding and its origin",
			Amount:         ptrFloat64(10_000),
			Source:         ptrString("Source " + string(t)),
			DateReported:   testNow,
			IsVerified:     true,
		})
	}
	return out
}

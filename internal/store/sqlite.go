package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/chanuka/disclosure-cli/internal/cache"
	"github.com/chanuka/disclosure-cli/internal/model"
)

// SQLiteStore implements Store and cache.Cache using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ cache.Cache = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sponsors (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS disclosures (
	id                 TEXT PRIMARY KEY,
	sponsor_id         TEXT NOT NULL REFERENCES sponsors(id),
	disclosure_type    TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	amount             REAL,
	source             TEXT,
	date_reported      DATETIME NOT NULL,
	is_verified        INTEGER NOT NULL DEFAULT 0,
	completeness_score INTEGER NOT NULL DEFAULT 0,
	risk_level         TEXT NOT NULL DEFAULT 'low'
);

CREATE TABLE IF NOT EXISTS affiliations (
	id            TEXT PRIMARY KEY,
	sponsor_id    TEXT NOT NULL REFERENCES sponsors(id),
	organization  TEXT NOT NULL,
	type          TEXT NOT NULL,
	conflict_type TEXT,
	is_active     INTEGER NOT NULL DEFAULT 1,
	start_date    DATETIME,
	end_date      DATETIME
);

CREATE TABLE IF NOT EXISTS analysis_cache (
	key        TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	value      BLOB NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_disclosures_sponsor ON disclosures(sponsor_id, date_reported);
CREATE INDEX IF NOT EXISTS idx_affiliations_sponsor ON affiliations(sponsor_id);
CREATE INDEX IF NOT EXISTS idx_sponsors_active ON sponsors(is_active);
CREATE INDEX IF NOT EXISTS idx_analysis_cache_expires_at ON analysis_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetSponsor(ctx context.Context, sponsorID string) (*model.Sponsor, error) {
	var sp model.Sponsor
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, is_active FROM sponsors WHERE id = ?`, sponsorID,
	).Scan(&sp.ID, &sp.Name, &sp.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "sqlite: get sponsor %s", sponsorID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get sponsor %s", sponsorID)
	}
	return &sp, nil
}

func (s *SQLiteStore) ListDisclosures(ctx context.Context, sponsorID string) ([]model.Disclosure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sponsor_id, disclosure_type, description, amount, source, date_reported,
		        is_verified, completeness_score, risk_level
		 FROM disclosures WHERE sponsor_id = ? ORDER BY date_reported, id`,
		sponsorID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list disclosures %s", sponsorID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Disclosure
	for rows.Next() {
		var d model.Disclosure
		var dtype, risk string
		var amount sql.NullFloat64
		var source sql.NullString
		if err := rows.Scan(&d.ID, &d.SponsorID, &dtype, &d.Description, &amount, &source,
			&d.DateReported, &d.IsVerified, &d.CompletenessScore, &risk); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan disclosure")
		}
		d.DisclosureType = model.DisclosureType(dtype)
		d.RiskLevel = model.RiskLevel(risk)
		if amount.Valid {
			d.Amount = &amount.Float64
		}
		if source.Valid {
			d.Source = &source.String
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list disclosures iterate")
}

func (s *SQLiteStore) ListAffiliations(ctx context.Context, sponsorID string) ([]model.Affiliation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sponsor_id, organization, type, conflict_type, is_active, start_date, end_date
		 FROM affiliations WHERE sponsor_id = ? ORDER BY id`,
		sponsorID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list affiliations %s", sponsorID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Affiliation
	for rows.Next() {
		var a model.Affiliation
		var conflict sql.NullString
		var start, end sql.NullTime
		if err := rows.Scan(&a.ID, &a.SponsorID, &a.Organization, &a.Type, &conflict,
			&a.IsActive, &start, &end); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan affiliation")
		}
		if conflict.Valid {
			a.ConflictType = &conflict.String
		}
		if start.Valid {
			a.StartDate = &start.Time
		}
		if end.Valid {
			a.EndDate = &end.Time
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list affiliations iterate")
}

func (s *SQLiteStore) ListActiveSponsorIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM sponsors WHERE is_active = 1 ORDER BY id LIMIT ?`, sponsorLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list active sponsors")
	}
	defer rows.Close() //nolint:errcheck

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sponsor id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: list active sponsors iterate")
}

func (s *SQLiteStore) SaveSponsors(ctx context.Context, sponsors []model.Sponsor) error {
	return s.inTx(ctx, "save sponsors",
		`INSERT INTO sponsors (id, name, is_active) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, is_active = excluded.is_active`,
		len(sponsors), func(i int) []any {
			sp := sponsors[i]
			return []any{sp.ID, sp.Name, sp.IsActive}
		})
}

func (s *SQLiteStore) SaveDisclosures(ctx context.Context, disclosures []model.Disclosure) error {
	return s.inTx(ctx, "save disclosures",
		`INSERT INTO disclosures (id, sponsor_id, disclosure_type, description, amount, source,
		                          date_reported, is_verified, completeness_score, risk_level)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			sponsor_id = excluded.sponsor_id, disclosure_type = excluded.disclosure_type,
			description = excluded.description, amount = excluded.amount, source = excluded.source,
			date_reported = excluded.date_reported, is_verified = excluded.is_verified,
			completeness_score = excluded.completeness_score, risk_level = excluded.risk_level`,
		len(disclosures), func(i int) []any {
			d := disclosures[i]
			return []any{d.ID, d.SponsorID, string(d.DisclosureType), d.Description, deref(d.Amount), deref(d.Source),
				d.DateReported.UTC(), d.IsVerified, d.CompletenessScore, string(d.RiskLevel)}
		})
}

func (s *SQLiteStore) SaveAffiliations(ctx context.Context, affiliations []model.Affiliation) error {
	return s.inTx(ctx, "save affiliations",
		`INSERT INTO affiliations (id, sponsor_id, organization, type, conflict_type, is_active, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			sponsor_id = excluded.sponsor_id, organization = excluded.organization, type = excluded.type,
			conflict_type = excluded.conflict_type, is_active = excluded.is_active,
			start_date = excluded.start_date, end_date = excluded.end_date`,
		len(affiliations), func(i int) []any {
			a := affiliations[i]
			return []any{a.ID, a.SponsorID, a.Organization, a.Type, deref(a.ConflictType), a.IsActive,
				utcPtr(a.StartDate), utcPtr(a.EndDate)}
		})
}

// inTx executes one prepared statement per row inside a transaction.
func (s *SQLiteStore) inTx(ctx context.Context, op, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: %s: begin", op)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return eris.Wrapf(err, "sqlite: %s: prepare", op)
	}
	defer stmt.Close() //nolint:errcheck

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return eris.Wrapf(err, "sqlite: %s: row %d", op, i)
		}
	}
	return eris.Wrapf(tx.Commit(), "sqlite: %s: commit", op)
}

// Get returns an unexpired analysis cache entry.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM analysis_cache WHERE key = ? AND expires_at > ?`,
		key, time.Now().UnixMilli(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: get cached analysis %s", key)
	}
	return value, true, nil
}

// Set stores an analysis cache entry for ttl.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_cache (key, id, value, cached_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET id = excluded.id, value = excluded.value,
			cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		key, uuid.New().String(), value, now, now.Add(ttl).UnixMilli(),
	)
	return eris.Wrapf(err, "sqlite: set cached analysis %s", key)
}

// DeleteExpiredCache removes expired analysis cache entries.
func (s *SQLiteStore) DeleteExpiredCache(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_cache WHERE expires_at <= ?`, time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired cache")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// deref binds a nil pointer as NULL.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

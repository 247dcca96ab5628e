package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/chanuka/disclosure-cli/internal/db"
	"github.com/chanuka/disclosure-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	zap.L().Debug("postgres: pool ready",
		zap.Int32("max_conns", pgxCfg.MaxConns),
		zap.Int32("min_conns", pgxCfg.MinConns),
	)
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sponsors (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS disclosures (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	sponsor_id         TEXT NOT NULL REFERENCES sponsors(id),
	disclosure_type    TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	amount             DOUBLE PRECISION,
	source             TEXT,
	date_reported      TIMESTAMPTZ NOT NULL,
	is_verified        BOOLEAN NOT NULL DEFAULT false,
	completeness_score INTEGER NOT NULL DEFAULT 0,
	risk_level         TEXT NOT NULL DEFAULT 'low'
);

CREATE TABLE IF NOT EXISTS affiliations (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	sponsor_id    TEXT NOT NULL REFERENCES sponsors(id),
	organization  TEXT NOT NULL,
	type          TEXT NOT NULL,
	conflict_type TEXT,
	is_active     BOOLEAN NOT NULL DEFAULT true,
	start_date    TIMESTAMPTZ,
	end_date      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_disclosures_sponsor ON disclosures(sponsor_id, date_reported);
CREATE INDEX IF NOT EXISTS idx_affiliations_sponsor ON affiliations(sponsor_id);
CREATE INDEX IF NOT EXISTS idx_sponsors_active ON sponsors(id) WHERE is_active;
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetSponsor(ctx context.Context, sponsorID string) (*model.Sponsor, error) {
	var sp model.Sponsor
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, is_active FROM sponsors WHERE id = $1`, sponsorID,
	).Scan(&sp.ID, &sp.Name, &sp.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "postgres: get sponsor %s", sponsorID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get sponsor %s", sponsorID)
	}
	return &sp, nil
}

func (s *PostgresStore) ListDisclosures(ctx context.Context, sponsorID string) ([]model.Disclosure, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sponsor_id, disclosure_type, description, amount, source, date_reported,
		        is_verified, completeness_score, risk_level
		 FROM disclosures WHERE sponsor_id = $1 ORDER BY date_reported, id`,
		sponsorID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list disclosures %s", sponsorID)
	}
	defer rows.Close()

	var out []model.Disclosure
	for rows.Next() {
		var d model.Disclosure
		var dtype, risk string
		if err := rows.Scan(&d.ID, &d.SponsorID, &dtype, &d.Description, &d.Amount, &d.Source,
			&d.DateReported, &d.IsVerified, &d.CompletenessScore, &risk); err != nil {
			return nil, eris.Wrap(err, "postgres: scan disclosure")
		}
		d.DisclosureType = model.DisclosureType(dtype)
		d.RiskLevel = model.RiskLevel(risk)
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list disclosures iterate")
}

func (s *PostgresStore) ListAffiliations(ctx context.Context, sponsorID string) ([]model.Affiliation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sponsor_id, organization, type, conflict_type, is_active, start_date, end_date
		 FROM affiliations WHERE sponsor_id = $1 ORDER BY id`,
		sponsorID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list affiliations %s", sponsorID)
	}
	defer rows.Close()

	var out []model.Affiliation
	for rows.Next() {
		var a model.Affiliation
		if err := rows.Scan(&a.ID, &a.SponsorID, &a.Organization, &a.Type, &a.ConflictType,
			&a.IsActive, &a.StartDate, &a.EndDate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan affiliation")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list affiliations iterate")
}

func (s *PostgresStore) ListActiveSponsorIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM sponsors WHERE is_active ORDER BY id LIMIT $1`, sponsorLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list active sponsors")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sponsor id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: list active sponsors iterate")
}

var (
	sponsorColumns     = []string{"id", "name", "is_active"}
	disclosureColumns  = []string{"id", "sponsor_id", "disclosure_type", "description", "amount", "source", "date_reported", "is_verified", "completeness_score", "risk_level"}
	affiliationColumns = []string{"id", "sponsor_id", "organization", "type", "conflict_type", "is_active", "start_date", "end_date"}
)

func (s *PostgresStore) SaveSponsors(ctx context.Context, sponsors []model.Sponsor) error {
	rows := make([][]any, len(sponsors))
	for i, sp := range sponsors {
		rows[i] = []any{sp.ID, sp.Name, sp.IsActive}
	}
	return s.upsert(ctx, "sponsors", sponsorColumns, rows)
}

func (s *PostgresStore) SaveDisclosures(ctx context.Context, disclosures []model.Disclosure) error {
	rows := make([][]any, len(disclosures))
	for i, d := range disclosures {
		rows[i] = []any{d.ID, d.SponsorID, string(d.DisclosureType), d.Description, d.Amount, d.Source,
			d.DateReported, d.IsVerified, d.CompletenessScore, string(d.RiskLevel)}
	}
	return s.upsert(ctx, "disclosures", disclosureColumns, rows)
}

func (s *PostgresStore) SaveAffiliations(ctx context.Context, affiliations []model.Affiliation) error {
	rows := make([][]any, len(affiliations))
	for i, a := range affiliations {
		rows[i] = []any{a.ID, a.SponsorID, a.Organization, a.Type, a.ConflictType, a.IsActive, a.StartDate, a.EndDate}
	}
	return s.upsert(ctx, "affiliations", affiliationColumns, rows)
}

func (s *PostgresStore) upsert(ctx context.Context, table string, columns []string, rows [][]any) error {
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        table,
		Columns:      columns,
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return eris.Wrapf(err, "postgres: save %s", table)
	}
	zap.L().Debug("postgres: upserted rows", zap.String("table", table), zap.Int64("rows", n))
	return nil
}

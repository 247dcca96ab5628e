package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chanuka/disclosure-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func expectBulkUpsert(mock pgxmock.PgxPoolIface, table string, columns []string, n int64) {
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_" + table}, columns).WillReturnResult(n)
	mock.ExpectExec("DELETE FROM").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO "` + table + `"`).WillReturnResult(pgxmock.NewResult("INSERT", n))
	mock.ExpectCommit()
}

func TestPostgresStore_GetSponsor(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, is_active FROM sponsors WHERE id = \$1`).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "is_active"}).AddRow("s1", "Jane Doe", true))

	sp, err := s.GetSponsor(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", sp.Name)
	assert.True(t, sp.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSponsor_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, is_active FROM sponsors WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSponsor(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "get sponsor ghost")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSponsor_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM sponsors WHERE id`).
		WithArgs("s1").
		WillReturnError(errors.New("connection reset"))

	_, err := s.GetSponsor(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresStore_ListDisclosures(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	reported := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(disclosureColumns).
		AddRow("d1", "s1", "investment", "index fund", ptrFloat64(250_000), ptrString("Vanguard"),
			reported, true, 100, "medium").
		AddRow("d2", "s1", "gifts", "", nil, nil, reported, false, 0, "medium")
	mock.ExpectQuery(`FROM disclosures WHERE sponsor_id = \$1 ORDER BY date_reported, id`).
		WithArgs("s1").
		WillReturnRows(rows)

	out, err := s.ListDisclosures(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, model.DisclosureInvestment, out[0].DisclosureType)
	require.NotNil(t, out[0].Amount)
	assert.InDelta(t, 250_000, *out[0].Amount, 1e-9)
	assert.Equal(t, "Vanguard", out[0].SourceValue())
	assert.Equal(t, model.RiskMedium, out[0].RiskLevel)
	assert.True(t, out[0].DateReported.Equal(reported))

	assert.Equal(t, model.DisclosureGifts, out[1].DisclosureType)
	assert.Nil(t, out[1].Amount)
	assert.Nil(t, out[1].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAffiliations(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(affiliationColumns).
		AddRow("a1", "s1", "Acme Corp", "board_member", ptrString("financial"), true, &start, nil)
	mock.ExpectQuery(`FROM affiliations WHERE sponsor_id = \$1`).
		WithArgs("s1").
		WillReturnRows(rows)

	out, err := s.ListAffiliations(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Acme Corp", out[0].Organization)
	assert.True(t, out[0].HasConflictType())
	require.NotNil(t, out[0].StartDate)
	assert.True(t, out[0].StartDate.Equal(start))
	assert.Nil(t, out[0].EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListActiveSponsorIDs_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id FROM sponsors WHERE is_active ORDER BY id LIMIT \$1`).
		WithArgs(defaultSponsorLimit).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("s1").AddRow("s2"))

	ids, err := s.ListActiveSponsorIDs(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSponsors(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	expectBulkUpsert(mock, "sponsors", sponsorColumns, 2)

	err := s.SaveSponsors(context.Background(), []model.Sponsor{
		{ID: "s1", Name: "A", IsActive: true},
		{ID: "s2", Name: "B"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveDisclosures(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	expectBulkUpsert(mock, "disclosures", disclosureColumns, 1)

	err := s.SaveDisclosures(context.Background(), []model.Disclosure{
		{ID: "d1", SponsorID: "s1", DisclosureType: model.DisclosureGifts, DateReported: time.Now()},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAffiliations_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	err := s.SaveAffiliations(context.Background(), []model.Affiliation{{ID: "a1", SponsorID: "s1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: save affiliations")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveEmpty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	require.NoError(t, s.SaveSponsors(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sponsors").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

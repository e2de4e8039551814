package records

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
)

var (
	now     = time.Date(2024, 3, 15, 10, 0, 0, 123456789, time.UTC)
	stamped = now.Truncate(time.Microsecond)
	cols    = []string{"id", "user_id", "date", "content", "summary", "created_at", "updated_at"}
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db).WithClock(func() time.Time { return now }), mock
}

func recordRow(summary any) *sqlmock.Rows {
	return sqlmock.NewRows(cols).AddRow("r1", "u1", "2024-03-15", "ran 5k", summary, stamped, stamped)
}

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM daily_records WHERE user_id = \$1 AND date = \$2`).
		WithArgs("u1", "2024-03-15").
		WillReturnRows(recordRow("• ran"))

	got, err := repo.Get(context.Background(), "u1", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "2024-03-15", got.Date)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "• ran", *got.Summary)
}

func TestGet_Missing(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM daily_records`).
		WithArgs("u1", "2024-03-15").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.Get(context.Background(), "u1", "2024-03-15")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestUpsert_BumpsStamp(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)INSERT INTO daily_records .+ON CONFLICT \(user_id, date\) DO UPDATE SET.+content = EXCLUDED.content.+GREATEST\(\$5, daily_records.updated_at \+ interval '1 microsecond'\).+RETURNING`).
		WithArgs(sqlmock.AnyArg(), "u1", "2024-03-15", "ran 5k", stamped).
		WillReturnRows(recordRow(nil))

	got, err := repo.Upsert(context.Background(), "u1", "2024-03-15", "ran 5k")
	require.NoError(t, err)
	assert.Nil(t, got.Summary)
	assert.Equal(t, stamped, got.UpdatedAt)
}

func TestUpdateSummary(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)UPDATE daily_records SET summary = \$3`).
		WithArgs("u1", "2024-03-15", "• ran", stamped).
		WillReturnRows(recordRow("• ran"))

	s := "  • ran  "
	got, err := repo.UpdateSummary(context.Background(), "u1", "2024-03-15", &s)
	require.NoError(t, err)
	assert.Equal(t, "• ran", *got.Summary)
}

func TestUpdateSummary_EmptyClears(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`UPDATE daily_records SET summary = \$3`).
		WithArgs("u1", "2024-03-15", sql.NullString{}, stamped).
		WillReturnRows(recordRow(nil))

	empty := ""
	got, err := repo.UpdateSummary(context.Background(), "u1", "2024-03-15", &empty)
	require.NoError(t, err)
	assert.Nil(t, got.Summary)
}

func TestUpdateSummary_Missing(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`UPDATE daily_records`).WillReturnError(sql.ErrNoRows)

	s := "x"
	_, err := repo.UpdateSummary(context.Background(), "u1", "2024-03-15", &s)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateSummaryIfUnchanged(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	saved := stamped.Add(-time.Minute)

	mock.ExpectQuery(`(?s)UPDATE daily_records SET summary = \$4.+AND updated_at = \$3`).
		WithArgs("u1", "2024-03-15", saved, "• ran", stamped).
		WillReturnRows(recordRow("• ran"))

	s := "• ran"
	got, err := repo.UpdateSummaryIfUnchanged(context.Background(), "u1", "2024-03-15", saved, &s)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "• ran", *got.Summary)
}

func TestUpdateSummaryIfUnchanged_StaleIsNoop(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	saved := stamped.Add(-time.Minute)

	// A later save or a manual summary moved updated_at past saved.
	mock.ExpectQuery(`(?s)UPDATE daily_records SET summary = \$4.+AND updated_at = \$3`).
		WithArgs("u1", "2024-03-15", saved, "• old", stamped).
		WillReturnRows(sqlmock.NewRows(cols))

	s := "• old"
	got, err := repo.UpdateSummaryIfUnchanged(context.Background(), "u1", "2024-03-15", saved, &s)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE FROM daily_records WHERE user_id = \$1 AND date = \$2`).
		WithArgs("u1", "2024-03-15").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "u1", "2024-03-15"))
}

func TestListRange(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows(cols).
		AddRow("r1", "u1", "2024-02-01", "a", nil, stamped, stamped).
		AddRow("r2", "u1", "2024-02-29", "b", "• b", stamped, stamped)
	mock.ExpectQuery(`(?s)WHERE user_id = \$1 AND date >= \$2 AND date <= \$3.+ORDER BY date ASC`).
		WithArgs("u1", "2024-02-01", "2024-02-29").
		WillReturnRows(rows)

	got, err := repo.ListRange(context.Background(), "u1", "2024-02-01", "2024-02-29")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-02-29", got[1].Date)
}

func TestListRange_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM daily_records`).WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.ListRange(context.Background(), "u1", "2024-02-01", "2024-02-29")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestRestore_OverwritesSummary(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)INSERT INTO daily_records.+summary = EXCLUDED.summary`).
		WithArgs(sqlmock.AnyArg(), "u1", "2024-01-01", "test", sql.NullString{String: "• t", Valid: true}, created, stamped).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("r1", "u1", "2024-01-01", "test", "• t", created, stamped))

	s := "• t"
	got, err := repo.Restore(context.Background(), "u1", journal.Record{Date: "2024-01-01", Content: "test", Summary: &s, CreatedAt: created})
	require.NoError(t, err)
	assert.Equal(t, "test", got.Content)
	assert.Equal(t, created, got.CreatedAt)
}

func TestMonthlySummary_PutGetList(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	body := []byte(`{"overview":"o","takeaways":["t"],"themes":[],"keywords":[{"word":"go","count":2}]}`)
	scols := []string{"user_id", "month", "summary", "created_at", "updated_at"}

	mock.ExpectQuery(`(?s)INSERT INTO monthly_summary.+ON CONFLICT \(user_id, month\)`).
		WithArgs("u1", "2024-03", sqlmock.AnyArg(), now, now).
		WillReturnRows(sqlmock.NewRows(scols).AddRow("u1", "2024-03", body, now, now))

	put, err := repo.PutMonthlySummary(context.Background(), "u1", journal.MonthlySummary{
		Month:  "2024-03",
		Review: journal.Review{Overview: "o", Takeaways: []string{"t"}, Themes: []journal.Theme{}, Keywords: []journal.Keyword{{Word: "go", Count: 2}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "o", put.Review.Overview)

	mock.ExpectQuery(`FROM monthly_summary WHERE user_id = \$1 AND month = \$2`).
		WithArgs("u1", "2024-04").
		WillReturnError(sql.ErrNoRows)
	missing, err := repo.GetMonthlySummary(context.Background(), "u1", "2024-04")
	require.NoError(t, err)
	assert.Nil(t, missing)

	mock.ExpectQuery(`FROM monthly_summary WHERE user_id = \$1 ORDER BY month ASC`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(scols).AddRow("u1", "2024-03", body, now, now))
	list, err := repo.ListMonthlySummaries(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []journal.Keyword{{Word: "go", Count: 2}}, list[0].Review.Keywords)
}

func TestStoreErr_Unavailable(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	// Nothing listens on port 1, so pgconn fails with a real ConnectError.
	_, connErr := pgconn.Connect(context.Background(), "postgres://daylog@127.0.0.1:1/daylog?connect_timeout=2")
	var target *pgconn.ConnectError
	require.ErrorAs(t, connErr, &target)

	mock.ExpectQuery(`FROM daily_records`).WillReturnError(connErr)
	_, err := repo.Get(context.Background(), "u1", "2024-03-15")
	require.ErrorIs(t, err, common.ErrUnavailable)

	mock.ExpectExec(`DELETE FROM daily_records`).WillReturnError(&pgconn.PgError{Code: "42P01"})
	err = repo.Delete(context.Background(), "u1", "2024-03-15")
	require.Error(t, err)
	require.False(t, errors.Is(err, common.ErrUnavailable))
}

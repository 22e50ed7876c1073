package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockHistoryRepo(t *testing.T) (sqlmock.Sqlmock, *SearchHistoryRepository, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "failed to create sqlmock")

	sqlxDB := sqlx.NewDb(db, "postgres")
	return mock, NewSearchHistoryRepository(sqlxDB), func() { db.Close() }
}

func TestSearchHistoryRepository_Save_NormalizesAndUpserts(t *testing.T) {
	mock, repo, closeDB := newMockHistoryRepo(t)
	defer closeDB()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"search_query", "search_count", "last_searched_at"}).
		AddRow("samsung earbuds", 3, now)
	mock.ExpectQuery(`INSERT INTO search_history`).
		WithArgs("samsung earbuds").
		WillReturnRows(rows)

	entry, err := repo.Save(context.Background(), "  Samsung Earbuds ")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "samsung earbuds", entry.Query)
	assert.Equal(t, 3, entry.SearchCount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchHistoryRepository_Save_IgnoresEmptyQuery(t *testing.T) {
	mock, repo, closeDB := newMockHistoryRepo(t)
	defer closeDB()

	entry, err := repo.Save(context.Background(), "   ")

	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchHistoryRepository_Recent_DefaultLimit(t *testing.T) {
	mock, repo, closeDB := newMockHistoryRepo(t)
	defer closeDB()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"search_query", "search_count", "last_searched_at"}).
		AddRow("sony headphones", 2, now).
		AddRow("boat airdopes", 1, now.Add(-time.Minute))
	mock.ExpectQuery(`ORDER BY last_searched_at DESC`).
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := repo.Recent(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sony headphones", entries[0].Query)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchHistoryRepository_Popular(t *testing.T) {
	mock, repo, closeDB := newMockHistoryRepo(t)
	defer closeDB()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"search_query", "search_count", "last_searched_at"}).
		AddRow("earbuds", 42, now)
	mock.ExpectQuery(`ORDER BY search_count DESC, last_searched_at DESC`).
		WithArgs(5).
		WillReturnRows(rows)

	entries, err := repo.Popular(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 42, entries[0].SearchCount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchHistoryRepository_Clear(t *testing.T) {
	mock, repo, closeDB := newMockHistoryRepo(t)
	defer closeDB()

	mock.ExpectExec(`DELETE FROM search_history`).
		WillReturnResult(sqlmock.NewResult(0, 7))

	require.NoError(t, repo.Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

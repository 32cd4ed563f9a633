package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGalleryRepositoryFindByShortnameMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGalleryRepository(db)
	mock.ExpectQuery("SELECT id, shortname").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	gallery, err := repo.FindByShortname(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, gallery)
}

func TestGalleryRepositoryReplaceFilesKeepsOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGalleryRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM gallery_file").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO gallery_file").
		WithArgs(int64(3), int64(30), 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO gallery_file").
		WithArgs(int64(3), int64(10), 2).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.ReplaceFiles(context.Background(), 3, []int64{30, 10})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGalleryRepositorySearchByTokensIsConjunctive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGalleryRepository(db)
	rows := sqlmock.NewRows([]string{"id", "shortname", "description", "acl_id",
		"creator", "created", "modifier", "modified"}).
		AddRow(int64(2), "summer-2024", "summer trip photos", int64(4), int64(1), time.Now(), nil, nil)
	mock.ExpectQuery(`(?s)SELECT DISTINCT g\.id, g\.shortname.*sf\.file_name ILIKE \$1.*AND.*sf\.file_path ILIKE \$2`).
		WithArgs("%summer%", "%photos%").
		WillReturnRows(rows)

	galleries, err := repo.SearchByTokens(context.Background(), []string{"summer", "photos"})
	require.NoError(t, err)
	require.Len(t, galleries, 1)
	assert.Equal(t, "summer-2024", galleries[0].Shortname)
}

func TestGalleryRepositorySearchByTokensEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGalleryRepository(db)
	galleries, err := repo.SearchByTokens(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, galleries)
}

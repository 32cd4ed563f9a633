package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valokuva/cms-admin-api/internal/models"
)

func TestSiteFileRepositoryUpsertInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSiteFileRepository(db)
	mock.ExpectQuery("INSERT INTO site_file").
		WithArgs("kitten.jpg", "2024/spring", "image/jpeg", "image", int64(2048),
			"ab12", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated"}).AddRow(int64(41), false))

	file := &models.SiteFile{
		FileName:  "kitten.jpg",
		FilePath:  "2024/spring",
		MimeType:  "image/jpeg",
		FileClass: models.FileClassImage,
		Size:      2048,
		Sha256Sum: "ab12",
		Creator:   1,
	}
	updated, err := repo.Upsert(context.Background(), file)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.Equal(t, int64(41), file.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSiteFileRepositoryUpsertReportsUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSiteFileRepository(db)
	mock.ExpectQuery("INSERT INTO site_file").
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated"}).AddRow(int64(41), true))

	file := &models.SiteFile{FileName: "kitten.jpg", FilePath: "2024/spring", Creator: 1}
	updated, err := repo.Upsert(context.Background(), file)
	require.NoError(t, err)
	assert.True(t, updated)
}

func TestSiteFileRepositoryFindByLocationMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSiteFileRepository(db)
	mock.ExpectQuery("SELECT id, file_name").
		WithArgs("2024/spring", "missing.jpg").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	file, err := repo.FindByLocation(context.Background(), "2024/spring", "missing.jpg")
	require.NoError(t, err)
	assert.Nil(t, file)
}

func TestSiteFileRepositoryListImagesWithoutThumb(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSiteFileRepository(db)
	rows := sqlmock.NewRows([]string{"id", "file_name", "file_path", "mime_type", "file_class",
		"size", "sha256sum", "metadata", "comment", "creator", "created", "modifier", "modified"}).
		AddRow(int64(7), "a.jpg", "x", "image/jpeg", "image", int64(10), "s", nil, nil, int64(1), time.Now(), nil, nil)
	mock.ExpectQuery("SELECT sf.id").
		WithArgs(100).
		WillReturnRows(rows)

	files, err := repo.ListImagesWithoutThumb(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.jpg", files[0].FileName)
}

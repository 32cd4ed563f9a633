package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valokuva/cms-admin-api/internal/models"
)

func resourceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"resource_type", "resource_id", "name", "path", "acl_id", "file_type"})
}

func TestWebResourceRepositoryListFilesTypeAndQueryStack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWebResourceRepository(db)
	fileType := models.FileClassImage
	// Type filter and text query narrow the result together.
	mock.ExpectQuery(`(?s)SELECT 'SITE_FILE' AS resource_type.*file_type = \$1.*path ILIKE \$2`).
		WithArgs("image", "%sunset%", 20, 0).
		WillReturnRows(resourceRows().
			AddRow("SITE_FILE", int64(1), "2024/sunset.jpg", "2024/sunset.jpg", int64(3), "image"))

	filter := models.ResourceFilter{FileType: &fileType, Query: "sunset", Sort: "id"}
	items, err := repo.ListFiles(context.Background(), filter, 20, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ResourceTypeFile, items[0].ResourceType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebResourceRepositoryCountFilesStacksFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWebResourceRepository(db)
	fileType := models.FileClassImage
	mock.ExpectQuery(`(?s)SELECT COUNT.*file_type = \$1.*path ILIKE \$2`).
		WithArgs("image", "%sunset%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	filter := models.ResourceFilter{FileType: &fileType, Query: "sunset"}
	total, err := repo.CountFiles(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebResourceRepositoryListFilesQueryTokensAreDisjunctive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWebResourceRepository(db)
	mock.ExpectQuery("SELECT 'SITE_FILE' AS resource_type").
		WithArgs("%spring%", "%kitten%", 20, 0).
		WillReturnRows(resourceRows().
			AddRow("SITE_FILE", int64(1), "2024/spring/a.jpg", "2024/spring/a.jpg", int64(3), "image").
			AddRow("SITE_FILE", int64(2), "2023/kitten.jpg", "2023/kitten.jpg", int64(3), "image"))

	filter := models.ResourceFilter{Query: "spring kitten", Sort: "id"}
	items, err := repo.ListFiles(context.Background(), filter, 20, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestWebResourceRepositorySearchPagesTokenSortAliases(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWebResourceRepository(db)
	mock.ExpectQuery("SELECT 'PAGE' AS resource_type").
		WithArgs("%about%", 40).
		WillReturnRows(resourceRows().
			AddRow("PAGE", int64(9), "About us", "/about", int64(2), nil))

	filter := models.ResourceFilter{Sort: "name", Direction: "desc"}
	items, err := repo.SearchPagesToken(context.Background(), "about", filter, 40)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ResourceTypePage, items[0].ResourceType)
	assert.Nil(t, items[0].FileType)
}

func TestWebResourceRepositorySearchPagesTokenMatchesBodyAndHeader(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWebResourceRepository(db)
	mock.ExpectQuery(`(?s)SELECT 'PAGE' AS resource_type.*title ILIKE \$1 OR body ILIKE \$1 OR header ILIKE \$1 OR path ILIKE \$1`).
		WithArgs("%kesä%", 40).
		WillReturnRows(resourceRows().
			AddRow("PAGE", int64(9), "Etusivu", "/etusivu", int64(2), nil))

	items, err := repo.SearchPagesToken(context.Background(), "kesä", models.ResourceFilter{}, 40)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebResourceRepositoryCountGalleriesWithAcl(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewWebResourceRepository(db)
	aclID := int64(5)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("%summer%", int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	filter := models.ResourceFilter{Query: "summer", AclID: &aclID}
	total, err := repo.CountGalleries(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/valokuva/cms-admin-api/internal/models"
)

// SiteFileRepository persists ingested file metadata in the admin database.
type SiteFileRepository struct {
	db *sqlx.DB
}

// NewSiteFileRepository constructs the repository.
func NewSiteFileRepository(db *sqlx.DB) *SiteFileRepository {
	return &SiteFileRepository{db: db}
}

const siteFileColumns = `id, file_name, file_path, mime_type, file_class, size, sha256sum,
metadata, comment, creator, created, modifier, modified`

// FindByID fetches one file row.
func (r *SiteFileRepository) FindByID(ctx context.Context, id int64) (*models.SiteFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM site_file WHERE id = $1`, siteFileColumns)
	var file models.SiteFile
	if err := r.db.GetContext(ctx, &file, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find site file %d: %w", id, err)
	}
	return &file, nil
}

// FindByLocation fetches a file row by its logical path and name.
func (r *SiteFileRepository) FindByLocation(ctx context.Context, filePath, fileName string) (*models.SiteFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM site_file WHERE file_path = $1 AND file_name = $2`, siteFileColumns)
	var file models.SiteFile
	if err := r.db.GetContext(ctx, &file, query, filePath, fileName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find site file %s/%s: %w", filePath, fileName, err)
	}
	return &file, nil
}

// Upsert inserts the file row or refreshes the stored metadata when the same
// path and name already exist. The returned flag is true when an existing row
// was updated rather than created.
func (r *SiteFileRepository) Upsert(ctx context.Context, file *models.SiteFile) (bool, error) {
	const query = `INSERT INTO site_file
(file_name, file_path, mime_type, file_class, size, sha256sum, metadata, comment, creator, created)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (file_path, file_name)
DO UPDATE SET mime_type = EXCLUDED.mime_type, file_class = EXCLUDED.file_class,
              size = EXCLUDED.size, sha256sum = EXCLUDED.sha256sum,
              metadata = EXCLUDED.metadata, comment = EXCLUDED.comment,
              modifier = EXCLUDED.creator, modified = NOW()
RETURNING id, (xmax <> 0) AS updated`
	if file.Created.IsZero() {
		file.Created = time.Now().UTC()
	}
	row := r.db.QueryRowxContext(ctx, query,
		file.FileName, file.FilePath, file.MimeType, file.FileClass, file.Size,
		file.Sha256Sum, file.Metadata, file.Comment, file.Creator, file.Created)
	var updated bool
	if err := row.Scan(&file.ID, &updated); err != nil {
		return false, fmt.Errorf("upsert site file %s/%s: %w", file.FilePath, file.FileName, err)
	}
	return updated, nil
}

// ListImagesWithoutThumb returns image files that have no thumbnail row. The
// thumbnail sweep regenerates these.
func (r *SiteFileRepository) ListImagesWithoutThumb(ctx context.Context, limit int) ([]models.SiteFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM site_file sf
WHERE sf.file_class = 'image'
  AND NOT EXISTS (SELECT 1 FROM file_thumb ft WHERE ft.parent_id = sf.id)
ORDER BY sf.id ASC LIMIT $1`, prefixColumns("sf", siteFileColumns))
	var files []models.SiteFile
	if err := r.db.SelectContext(ctx, &files, query, limit); err != nil {
		return nil, fmt.Errorf("list images without thumb: %w", err)
	}
	return files, nil
}

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

// FileThumbRepository persists thumbnail rows. Each source file has at most
// one thumbnail, keyed by parent_id.
type FileThumbRepository struct {
	db *sqlx.DB
}

// NewFileThumbRepository constructs the repository.
func NewFileThumbRepository(db *sqlx.DB) *FileThumbRepository {
	return &FileThumbRepository{db: db}
}

const fileThumbColumns = `id, parent_id, filepath, filename, filesize, width, height, sha1sum, created`

// FindByParentID fetches the thumbnail row of a source file, nil when none
// exists.
func (r *FileThumbRepository) FindByParentID(ctx context.Context, parentID int64) (*models.FileThumb, error) {
	query := fmt.Sprintf(`SELECT %s FROM file_thumb WHERE parent_id = $1`, fileThumbColumns)
	var thumb models.FileThumb
	if err := r.db.GetContext(ctx, &thumb, query, parentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find thumb for file %d: %w", parentID, err)
	}
	return &thumb, nil
}

// Upsert inserts the thumbnail row or replaces the existing one for the same
// source file.
func (r *FileThumbRepository) Upsert(ctx context.Context, thumb *models.FileThumb) error {
	const query = `INSERT INTO file_thumb
(parent_id, filepath, filename, filesize, width, height, sha1sum, created)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (parent_id)
DO UPDATE SET filepath = EXCLUDED.filepath, filename = EXCLUDED.filename,
              filesize = EXCLUDED.filesize, width = EXCLUDED.width,
              height = EXCLUDED.height, sha1sum = EXCLUDED.sha1sum,
              created = EXCLUDED.created
RETURNING id`
	if thumb.Created.IsZero() {
		thumb.Created = time.Now().UTC()
	}
	row := r.db.QueryRowxContext(ctx, query,
		thumb.ParentID, thumb.FilePath, thumb.FileName, thumb.FileSize,
		thumb.Width, thumb.Height, thumb.Sha1Sum, thumb.Created)
	if err := row.Scan(&thumb.ID); err != nil {
		return fmt.Errorf("upsert thumb for file %d: %w", thumb.ParentID, err)
	}
	return nil
}

// DeleteByParentID removes the thumbnail row of a source file. Deleting a
// missing row is not an error.
func (r *FileThumbRepository) DeleteByParentID(ctx context.Context, parentID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM file_thumb WHERE parent_id = $1`, parentID); err != nil {
		return fmt.Errorf("delete thumb for file %d: %w", parentID, err)
	}
	return nil
}

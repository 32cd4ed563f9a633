package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/valokuva/cms-admin-api/internal/models"
)

// GalleryRepository persists galleries and their file membership in the admin
// database.
type GalleryRepository struct {
	db *sqlx.DB
}

// NewGalleryRepository constructs the repository.
func NewGalleryRepository(db *sqlx.DB) *GalleryRepository {
	return &GalleryRepository{db: db}
}

const galleryColumns = `id, shortname, description, acl_id, creator, created, modifier, modified`

// FindByID fetches one gallery, nil when missing.
func (r *GalleryRepository) FindByID(ctx context.Context, id int64) (*models.Gallery, error) {
	query := fmt.Sprintf(`SELECT %s FROM gallery WHERE id = $1`, galleryColumns)
	var gallery models.Gallery
	if err := r.db.GetContext(ctx, &gallery, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find gallery %d: %w", id, err)
	}
	return &gallery, nil
}

// FindByShortname fetches one gallery by its unique shortname, nil when
// missing.
func (r *GalleryRepository) FindByShortname(ctx context.Context, shortname string) (*models.Gallery, error) {
	query := fmt.Sprintf(`SELECT %s FROM gallery WHERE shortname = $1`, galleryColumns)
	var gallery models.Gallery
	if err := r.db.GetContext(ctx, &gallery, query, shortname); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find gallery %q: %w", shortname, err)
	}
	return &gallery, nil
}

// Create inserts a gallery and fills its id.
func (r *GalleryRepository) Create(ctx context.Context, gallery *models.Gallery) error {
	const query = `INSERT INTO gallery (shortname, description, acl_id, creator, created)
VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if gallery.Created.IsZero() {
		gallery.Created = time.Now().UTC()
	}
	row := r.db.QueryRowxContext(ctx, query,
		gallery.Shortname, gallery.Description, gallery.AclID, gallery.Creator, gallery.Created)
	if err := row.Scan(&gallery.ID); err != nil {
		return fmt.Errorf("create gallery %q: %w", gallery.Shortname, err)
	}
	return nil
}

// UpdateDescription patches the description of an existing gallery.
func (r *GalleryRepository) UpdateDescription(ctx context.Context, id int64, description string, modifier string) error {
	const query = `UPDATE gallery SET description = $2, modifier = $3, modified = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, description, modifier); err != nil {
		return fmt.Errorf("update gallery %d: %w", id, err)
	}
	return nil
}

// AppendFile adds a file to the end of the gallery ordering. Re-adding an
// already present file keeps its current position.
func (r *GalleryRepository) AppendFile(ctx context.Context, galleryID, fileID int64) error {
	const query = `INSERT INTO gallery_file (gallery_id, site_file_id, sort_order)
VALUES ($1, $2, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM gallery_file WHERE gallery_id = $1))
ON CONFLICT (gallery_id, site_file_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, galleryID, fileID); err != nil {
		return fmt.Errorf("append file %d to gallery %d: %w", fileID, galleryID, err)
	}
	return nil
}

// ReplaceFiles swaps the whole membership of a gallery, preserving the order
// of the provided file ids.
func (r *GalleryRepository) ReplaceFiles(ctx context.Context, galleryID int64, fileIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin gallery files tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM gallery_file WHERE gallery_id = $1`, galleryID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear gallery %d files: %w", galleryID, err)
	}
	const insert = `INSERT INTO gallery_file (gallery_id, site_file_id, sort_order) VALUES ($1, $2, $3)`
	for i, fileID := range fileIDs {
		if _, err := tx.ExecContext(ctx, insert, galleryID, fileID, i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert gallery %d file %d: %w", galleryID, fileID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit gallery files tx: %w", err)
	}
	return nil
}

// Files returns the member files of a gallery in their sort order.
func (r *GalleryRepository) Files(ctx context.Context, galleryID int64) ([]models.SiteFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM site_file sf
JOIN gallery_file gf ON gf.site_file_id = sf.id
WHERE gf.gallery_id = $1
ORDER BY gf.sort_order ASC`, prefixColumns("sf", siteFileColumns))
	var files []models.SiteFile
	if err := r.db.SelectContext(ctx, &files, query, galleryID); err != nil {
		return nil, fmt.Errorf("list gallery %d files: %w", galleryID, err)
	}
	return files, nil
}

// SearchByTokens finds galleries matching every token, each token against
// shortname, description or a member file's name or path. The match is
// conjunctive across tokens, unlike the resource directory search which
// merges per-token results.
func (r *GalleryRepository) SearchByTokens(ctx context.Context, tokens []string) ([]models.Gallery, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	clauses := make([]string, len(tokens))
	args := make([]interface{}, len(tokens))
	for i, token := range tokens {
		clauses[i] = fmt.Sprintf(
			"(g.shortname ILIKE $%d OR g.description ILIKE $%d OR sf.file_name ILIKE $%d OR sf.file_path ILIKE $%d)",
			i+1, i+1, i+1, i+1)
		args[i] = "%" + token + "%"
	}
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM gallery g
LEFT JOIN gallery_file gf ON gf.gallery_id = g.id
LEFT JOIN site_file sf ON sf.id = gf.site_file_id
WHERE %s ORDER BY g.shortname ASC`,
		prefixColumns("g", galleryColumns), strings.Join(clauses, " AND "))
	var galleries []models.Gallery
	if err := r.db.SelectContext(ctx, &galleries, query, args...); err != nil {
		return nil, fmt.Errorf("search galleries: %w", err)
	}
	return galleries, nil
}

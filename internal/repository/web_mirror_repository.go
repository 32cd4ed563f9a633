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

// WebMirrorRepository writes the published mirror in the site database. The
// two databases share no transaction, so every write here is idempotent: the
// publish saga may run the same step twice after a partial failure.
type WebMirrorRepository struct {
	db *sqlx.DB
}

// NewWebMirrorRepository constructs the repository.
func NewWebMirrorRepository(db *sqlx.DB) *WebMirrorRepository {
	return &WebMirrorRepository{db: db}
}

// NextAclID reserves the next free site-side acl group id. Site acl numbering
// is independent of the admin database.
func (r *WebMirrorRepository) NextAclID(ctx context.Context) (int64, error) {
	var next int64
	if err := r.db.GetContext(ctx, &next, `SELECT COALESCE(MAX(acl_id), 0) + 1 FROM web_site_acl`); err != nil {
		return 0, fmt.Errorf("next site acl id: %w", err)
	}
	return next, nil
}

// ReplaceAclGroup rewrites a site-side permission group. Only read grants are
// mirrored; the public site never mutates content.
func (r *WebMirrorRepository) ReplaceAclGroup(ctx context.Context, aclID int64, rows []models.WebSiteAcl) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin site acl tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM web_site_acl WHERE acl_id = $1`, aclID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear site acl group %d: %w", aclID, err)
	}
	const insert = `INSERT INTO web_site_acl (acl_id, user_id, unit_id, read_privilege) VALUES ($1, $2, $3, $4)`
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, insert, aclID, row.UserID, row.UnitID, row.ReadPriv); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert site acl row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit site acl tx: %w", err)
	}
	return nil
}

// FindPageByPageID looks up the mirror row of an admin page, nil when the
// page has never been published.
func (r *WebMirrorRepository) FindPageByPageID(ctx context.Context, pageID int64) (*models.WebSitePage, error) {
	const query = `SELECT id, page_id, parent_id, path, title, header, body, secure, index_list,
creator, modifier, acl_id, published FROM web_site_page WHERE page_id = $1`
	var page models.WebSitePage
	if err := r.db.GetContext(ctx, &page, query, pageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find site page for page %d: %w", pageID, err)
	}
	return &page, nil
}

// UpsertPage inserts or refreshes the mirror row of an admin page, keyed by
// the admin page id, and fills the site-side id.
func (r *WebMirrorRepository) UpsertPage(ctx context.Context, page *models.WebSitePage) error {
	const query = `INSERT INTO web_site_page
(page_id, parent_id, path, title, header, body, secure, index_list, creator, modifier, acl_id, published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (page_id)
DO UPDATE SET parent_id = EXCLUDED.parent_id, path = EXCLUDED.path, title = EXCLUDED.title,
              header = EXCLUDED.header, body = EXCLUDED.body, secure = EXCLUDED.secure,
              index_list = EXCLUDED.index_list, creator = EXCLUDED.creator,
              modifier = EXCLUDED.modifier, acl_id = EXCLUDED.acl_id, published = EXCLUDED.published
RETURNING id`
	if page.Published.IsZero() {
		page.Published = time.Now().UTC()
	}
	row := r.db.QueryRowxContext(ctx, query,
		page.PageID, page.ParentID, page.Path, page.Title, page.Header, page.Body,
		page.Secure, page.IndexList, page.Creator, page.Modifier, page.AclID, page.Published)
	if err := row.Scan(&page.ID); err != nil {
		return fmt.Errorf("upsert site page for page %d: %w", page.PageID, err)
	}
	return nil
}

// DeletePageByPageID removes the mirror row of an admin page. Missing rows
// are not an error.
func (r *WebMirrorRepository) DeletePageByPageID(ctx context.Context, pageID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM web_site_page WHERE page_id = $1`, pageID); err != nil {
		return fmt.Errorf("delete site page for page %d: %w", pageID, err)
	}
	return nil
}

// FindGalleryByGalleryID looks up the mirror row of an admin gallery, nil
// when never published.
func (r *WebMirrorRepository) FindGalleryByGalleryID(ctx context.Context, galleryID int64) (*models.WebSiteGallery, error) {
	const query = `SELECT id, gallery_id, shortname, description, acl_id, created
FROM web_site_gallery WHERE gallery_id = $1`
	var gallery models.WebSiteGallery
	if err := r.db.GetContext(ctx, &gallery, query, galleryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find site gallery for gallery %d: %w", galleryID, err)
	}
	return &gallery, nil
}

// UpsertGallery inserts or refreshes the mirror row of an admin gallery and
// fills the site-side id.
func (r *WebMirrorRepository) UpsertGallery(ctx context.Context, gallery *models.WebSiteGallery) error {
	const query = `INSERT INTO web_site_gallery (gallery_id, shortname, description, acl_id, created)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (gallery_id)
DO UPDATE SET shortname = EXCLUDED.shortname, description = EXCLUDED.description,
              acl_id = EXCLUDED.acl_id
RETURNING id`
	if gallery.Created.IsZero() {
		gallery.Created = time.Now().UTC()
	}
	row := r.db.QueryRowxContext(ctx, query,
		gallery.GalleryID, gallery.Shortname, gallery.Description, gallery.AclID, gallery.Created)
	if err := row.Scan(&gallery.ID); err != nil {
		return fmt.Errorf("upsert site gallery for gallery %d: %w", gallery.GalleryID, err)
	}
	return nil
}

// DeleteGalleryByGalleryID removes the mirror row of an admin gallery along
// with its membership rows. Missing rows are not an error.
func (r *WebMirrorRepository) DeleteGalleryByGalleryID(ctx context.Context, galleryID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin site gallery delete tx: %w", err)
	}
	const clear = `DELETE FROM web_site_gallery_file
WHERE gallery_id IN (SELECT id FROM web_site_gallery WHERE gallery_id = $1)`
	if _, err := tx.ExecContext(ctx, clear, galleryID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear site gallery membership for gallery %d: %w", galleryID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM web_site_gallery WHERE gallery_id = $1`, galleryID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete site gallery for gallery %d: %w", galleryID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit site gallery delete tx: %w", err)
	}
	return nil
}

// ReplaceGalleryFiles swaps the site-side membership of a mirrored gallery,
// preserving the provided order. File ids reference admin-side file ids via
// the mirrored file rows.
func (r *WebMirrorRepository) ReplaceGalleryFiles(ctx context.Context, siteGalleryID int64, siteFileIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin site gallery files tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM web_site_gallery_file WHERE gallery_id = $1`, siteGalleryID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear site gallery %d files: %w", siteGalleryID, err)
	}
	const insert = `INSERT INTO web_site_gallery_file (gallery_id, file_id, sort_order) VALUES ($1, $2, $3)`
	for i, fileID := range siteFileIDs {
		if _, err := tx.ExecContext(ctx, insert, siteGalleryID, fileID, i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert site gallery %d file %d: %w", siteGalleryID, fileID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit site gallery files tx: %w", err)
	}
	return nil
}

// UpsertFile inserts or refreshes the mirror row of an admin file, keyed by
// the admin file id, and fills the site-side id.
func (r *WebMirrorRepository) UpsertFile(ctx context.Context, file *models.WebSiteFile) error {
	const query = `INSERT INTO web_site_file
(file_id, path, mime_type, file_type, width, height, length, metadata, comment, acl_id, created)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (file_id)
DO UPDATE SET path = EXCLUDED.path, mime_type = EXCLUDED.mime_type, file_type = EXCLUDED.file_type,
              width = EXCLUDED.width, height = EXCLUDED.height, length = EXCLUDED.length,
              metadata = EXCLUDED.metadata, comment = EXCLUDED.comment, acl_id = EXCLUDED.acl_id
RETURNING id`
	if file.Created.IsZero() {
		file.Created = time.Now().UTC()
	}
	row := r.db.QueryRowxContext(ctx, query,
		file.FileID, file.Path, file.MimeType, file.FileType, file.Width, file.Height,
		file.Length, file.Metadata, file.Comment, file.AclID, file.Created)
	if err := row.Scan(&file.ID); err != nil {
		return fmt.Errorf("upsert site file for file %d: %w", file.FileID, err)
	}
	return nil
}

// UpsertUser mirrors an admin user nick so bylines resolve on the public
// site.
func (r *WebMirrorRepository) UpsertUser(ctx context.Context, user *models.WebSiteUser) error {
	const query = `INSERT INTO web_site_user (user_id, nick) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET nick = EXCLUDED.nick
RETURNING id`
	row := r.db.QueryRowxContext(ctx, query, user.UserID, user.Nick)
	if err := row.Scan(&user.ID); err != nil {
		return fmt.Errorf("upsert site user %d: %w", user.UserID, err)
	}
	return nil
}

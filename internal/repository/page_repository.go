package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/valokuva/cms-admin-api/internal/models"
)

// PageRepository reads pages and the form, layout and component rows needed
// to render them for the public site.
type PageRepository struct {
	db *sqlx.DB
}

// NewPageRepository constructs the repository.
func NewPageRepository(db *sqlx.DB) *PageRepository {
	return &PageRepository{db: db}
}

const pageColumns = `id, parent_id, form_id, path, secure, index_list, title, header, body,
acl_id, creator, created, modifier, modified`

// FindByID fetches one page, nil when missing.
func (r *PageRepository) FindByID(ctx context.Context, id int64) (*models.Page, error) {
	query := fmt.Sprintf(`SELECT %s FROM page WHERE id = $1`, pageColumns)
	var page models.Page
	if err := r.db.GetContext(ctx, &page, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find page %d: %w", id, err)
	}
	return &page, nil
}

// FindForm fetches the form of a page, nil when missing.
func (r *PageRepository) FindForm(ctx context.Context, formID int64) (*models.Form, error) {
	var form models.Form
	if err := r.db.GetContext(ctx, &form, `SELECT id, layout_id, acl_id FROM form WHERE id = $1`, formID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find form %d: %w", formID, err)
	}
	return &form, nil
}

// FindLayout fetches the layout of a form, nil when missing.
func (r *PageRepository) FindLayout(ctx context.Context, layoutID int64) (*models.Layout, error) {
	var layout models.Layout
	if err := r.db.GetContext(ctx, &layout, `SELECT id, layout_name, structure, acl_id FROM layout WHERE id = $1`, layoutID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find layout %d: %w", layoutID, err)
	}
	return &layout, nil
}

// FormComponents returns the components of a form in their sort order.
func (r *PageRepository) FormComponents(ctx context.Context, formID int64) ([]models.Component, error) {
	const query = `SELECT c.id, c.comp_name, c.comp_data, c.acl_id
FROM component c
JOIN form_component fc ON fc.component_id = c.id
WHERE fc.form_id = $1
ORDER BY fc.sort_order ASC`
	var components []models.Component
	if err := r.db.SelectContext(ctx, &components, query, formID); err != nil {
		return nil, fmt.Errorf("list form %d components: %w", formID, err)
	}
	return components, nil
}

// FindUserNick resolves the nick of an admin account for site-side bylines.
func (r *PageRepository) FindUserNick(ctx context.Context, userID int64) (string, error) {
	var nick string
	if err := r.db.GetContext(ctx, &nick, `SELECT nick FROM user_account WHERE id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("user %d not found", userID)
		}
		return "", fmt.Errorf("find user %d: %w", userID, err)
	}
	return nick, nil
}

// PageGalleries returns the ids of galleries attached to a page in their sort
// order.
func (r *PageRepository) PageGalleries(ctx context.Context, pageID int64) ([]int64, error) {
	const query = `SELECT gallery_id FROM page_gallery WHERE page_id = $1 ORDER BY sort_order ASC`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, pageID); err != nil {
		return nil, fmt.Errorf("list page %d galleries: %w", pageID, err)
	}
	return ids, nil
}

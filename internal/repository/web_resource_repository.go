package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/valokuva/cms-admin-api/internal/models"
)

// WebResourceRepository reads the published mirror in the site database for
// the resource directory. It never writes.
type WebResourceRepository struct {
	db *sqlx.DB
}

// NewWebResourceRepository constructs the repository.
func NewWebResourceRepository(db *sqlx.DB) *WebResourceRepository {
	return &WebResourceRepository{db: db}
}

// fileSortColumn maps the API sort key to a column of web_site_file. The
// "name" key is an alias resolved per resource type.
func fileSortColumn(sort string) string {
	switch sort {
	case "name":
		return "path"
	case "created":
		return "created"
	default:
		return "id"
	}
}

func sortDirection(direction string) string {
	if strings.EqualFold(direction, "desc") {
		return "DESC"
	}
	return "ASC"
}

// ListFiles returns published files matching the filter. All present filters
// stack: acl, file type and text query apply together, each narrowing the
// result.
func (r *WebResourceRepository) ListFiles(ctx context.Context, filter models.ResourceFilter, limit, offset int) ([]models.ResourceSummary, error) {
	where, args := fileWhere(filter)
	idx := len(args) + 1
	query := fmt.Sprintf(`SELECT 'SITE_FILE' AS resource_type, id AS resource_id, path AS name, path, acl_id, file_type
FROM web_site_file WHERE %s
ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		where, fileSortColumn(filter.Sort), sortDirection(filter.Direction), idx, idx+1)
	args = append(args, limit, offset)

	var items []models.ResourceSummary
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list site files: %w", err)
	}
	return items, nil
}

// CountFiles returns the filtered file total.
func (r *WebResourceRepository) CountFiles(ctx context.Context, filter models.ResourceFilter) (int, error) {
	where, args := fileWhere(filter)
	var total int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM web_site_file WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count site files: %w", err)
	}
	return total, nil
}

func fileWhere(filter models.ResourceFilter) (string, []interface{}) {
	where := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	if filter.FileType != nil {
		where = append(where, fmt.Sprintf("file_type = $%d", idx))
		args = append(args, string(*filter.FileType))
		idx++
	}
	if filter.Query != "" {
		tokens := models.SplitQueryTerms(filter.Query)
		clauses := make([]string, 0, len(tokens))
		for _, token := range tokens {
			clauses = append(clauses, fmt.Sprintf("path ILIKE $%d", idx))
			args = append(args, "%"+token+"%")
			idx++
		}
		if len(clauses) > 0 {
			where = append(where, "("+strings.Join(clauses, " OR ")+")")
		}
	}
	if filter.AclID != nil {
		where = append(where, fmt.Sprintf("acl_id = $%d", idx))
		args = append(args, *filter.AclID)
	}
	return strings.Join(where, " AND "), args
}

// SearchGalleriesToken returns published galleries matching one query token
// against shortname or description. Callers merge per token.
func (r *WebResourceRepository) SearchGalleriesToken(ctx context.Context, token string, filter models.ResourceFilter, limit int) ([]models.ResourceSummary, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	idx := 1
	if token != "" {
		where = append(where, fmt.Sprintf("(shortname ILIKE $%d OR description ILIKE $%d)", idx, idx))
		args = append(args, "%"+token+"%")
		idx++
	}
	if filter.AclID != nil {
		where = append(where, fmt.Sprintf("acl_id = $%d", idx))
		args = append(args, *filter.AclID)
		idx++
	}

	sortCol := "id"
	switch filter.Sort {
	case "name":
		sortCol = "shortname"
	case "created":
		sortCol = "created"
	}
	query := fmt.Sprintf(`SELECT 'GALLERY' AS resource_type, id AS resource_id, shortname AS name, shortname AS path, acl_id, NULL AS file_type
FROM web_site_gallery WHERE %s
ORDER BY %s %s, id ASC LIMIT $%d`,
		strings.Join(where, " AND "), sortCol, sortDirection(filter.Direction), idx)
	args = append(args, limit)

	var items []models.ResourceSummary
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("search site galleries: %w", err)
	}
	return items, nil
}

// CountGalleries returns the gallery total for the filter with all query
// tokens applied disjunctively.
func (r *WebResourceRepository) CountGalleries(ctx context.Context, filter models.ResourceFilter) (int, error) {
	where, args := tokenWhere(filter, []string{"shortname", "description"})
	var total int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM web_site_gallery WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count site galleries: %w", err)
	}
	return total, nil
}

// SearchPagesToken returns published pages matching one query token against
// title, body, header or path. Callers merge per token.
func (r *WebResourceRepository) SearchPagesToken(ctx context.Context, token string, filter models.ResourceFilter, limit int) ([]models.ResourceSummary, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	idx := 1
	if token != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR body ILIKE $%d OR header ILIKE $%d OR path ILIKE $%d)", idx, idx, idx, idx))
		args = append(args, "%"+token+"%")
		idx++
	}
	if filter.AclID != nil {
		where = append(where, fmt.Sprintf("acl_id = $%d", idx))
		args = append(args, *filter.AclID)
		idx++
	}

	sortCol := "id"
	switch filter.Sort {
	case "name":
		sortCol = "title"
	case "created":
		sortCol = "published"
	}
	query := fmt.Sprintf(`SELECT 'PAGE' AS resource_type, id AS resource_id, title AS name, path, acl_id, NULL AS file_type
FROM web_site_page WHERE %s
ORDER BY %s %s, id ASC LIMIT $%d`,
		strings.Join(where, " AND "), sortCol, sortDirection(filter.Direction), idx)
	args = append(args, limit)

	var items []models.ResourceSummary
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("search site pages: %w", err)
	}
	return items, nil
}

// CountPages returns the page total for the filter with all query tokens
// applied disjunctively.
func (r *WebResourceRepository) CountPages(ctx context.Context, filter models.ResourceFilter) (int, error) {
	where, args := tokenWhere(filter, []string{"title", "body", "header", "path"})
	var total int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM web_site_page WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count site pages: %w", err)
	}
	return total, nil
}

// tokenWhere builds a disjunctive match of every query token over the given
// columns, stacked with the optional acl filter.
func tokenWhere(filter models.ResourceFilter, columns []string) (string, []interface{}) {
	where := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	tokens := models.SplitQueryTerms(filter.Query)
	clauses := make([]string, 0, len(tokens)*len(columns))
	for _, token := range tokens {
		for _, col := range columns {
			clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", col, idx))
		}
		args = append(args, "%"+token+"%")
		idx++
	}
	if len(clauses) > 0 {
		where = append(where, "("+strings.Join(clauses, " OR ")+")")
	}
	if filter.AclID != nil {
		where = append(where, fmt.Sprintf("acl_id = $%d", idx))
		args = append(args, *filter.AclID)
	}
	return strings.Join(where, " AND "), args
}

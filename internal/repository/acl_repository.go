package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/valokuva/cms-admin-api/internal/models"
)

// AclRepository persists permission groups in the admin database. A group is
// the set of acl rows sharing one acl_id; entities reference the group id,
// never individual rows.
type AclRepository struct {
	db *sqlx.DB
}

// NewAclRepository constructs the repository.
func NewAclRepository(db *sqlx.DB) *AclRepository {
	return &AclRepository{db: db}
}

const aclColumns = `permission_id, acl_id, user_id, unit_id,
create_privilege, read_privilege, modify_privilege, delete_privilege`

// FindByAclID returns every permission row of a group ordered by row id.
func (r *AclRepository) FindByAclID(ctx context.Context, aclID int64) ([]models.Acl, error) {
	query := fmt.Sprintf(`SELECT %s FROM acl WHERE acl_id = $1 ORDER BY permission_id ASC`, aclColumns)
	var rows []models.Acl
	if err := r.db.SelectContext(ctx, &rows, query, aclID); err != nil {
		return nil, fmt.Errorf("find acl group %d: %w", aclID, err)
	}
	return rows, nil
}

// NextAclID reserves the next free group id. Group ids are allocated from the
// current maximum, not a sequence, so mirrored ids stay comparable across
// databases.
func (r *AclRepository) NextAclID(ctx context.Context) (int64, error) {
	var next int64
	if err := r.db.GetContext(ctx, &next, `SELECT COALESCE(MAX(acl_id), 0) + 1 FROM acl`); err != nil {
		return 0, fmt.Errorf("next acl id: %w", err)
	}
	return next, nil
}

// CreateGroup inserts the rows of a new permission group inside one
// transaction and returns the allocated group id.
func (r *AclRepository) CreateGroup(ctx context.Context, rows []models.Acl) (int64, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("acl group requires at least one permission row")
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin acl group tx: %w", err)
	}

	var aclID int64
	if err := tx.GetContext(ctx, &aclID, `SELECT COALESCE(MAX(acl_id), 0) + 1 FROM acl`); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("allocate acl id: %w", err)
	}

	const insert = `INSERT INTO acl (acl_id, user_id, unit_id, create_privilege, read_privilege, modify_privilege, delete_privilege)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, insert, aclID, row.UserID, row.UnitID,
			row.CreatePriv, row.ReadPriv, row.ModifyPriv, row.DeletePriv); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert acl row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit acl group tx: %w", err)
	}
	return aclID, nil
}

// ReplaceGroup swaps every row of an existing group for the provided set. The
// group id is kept so entity references stay valid.
func (r *AclRepository) ReplaceGroup(ctx context.Context, aclID int64, rows []models.Acl) error {
	if len(rows) == 0 {
		return fmt.Errorf("acl group requires at least one permission row")
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin acl replace tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM acl WHERE acl_id = $1`, aclID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear acl group %d: %w", aclID, err)
	}
	const insert = `INSERT INTO acl (acl_id, user_id, unit_id, create_privilege, read_privilege, modify_privilege, delete_privilege)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, insert, aclID, row.UserID, row.UnitID,
			row.CreatePriv, row.ReadPriv, row.ModifyPriv, row.DeletePriv); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert acl row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit acl replace tx: %w", err)
	}
	return nil
}

// DeleteGroup removes every row of a group.
func (r *AclRepository) DeleteGroup(ctx context.Context, aclID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM acl WHERE acl_id = $1`, aclID)
	if err != nil {
		return fmt.Errorf("delete acl group %d: %w", aclID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("acl group %d not found", aclID)
	}
	return nil
}

// DistinctAclIDs lists every group id present in the acl table.
func (r *AclRepository) DistinctAclIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT acl_id FROM acl ORDER BY acl_id ASC`); err != nil {
		return nil, fmt.Errorf("list acl ids: %w", err)
	}
	return ids, nil
}

// EntityAclRefs collects every acl reference held by content entities. The
// consistency sweep diffs these against the acl table.
func (r *AclRepository) EntityAclRefs(ctx context.Context) ([]models.AclEntityRef, error) {
	const query = `SELECT 'page' AS entity, id, acl_id FROM page
UNION ALL SELECT 'form', id, acl_id FROM form
UNION ALL SELECT 'layout', id, acl_id FROM layout
UNION ALL SELECT 'component', id, acl_id FROM component
UNION ALL SELECT 'gallery', id, acl_id FROM gallery
UNION ALL SELECT 'unit', id, acl_id FROM unit
UNION ALL SELECT 'user', id, acl_id FROM user_account
ORDER BY acl_id ASC, entity ASC, id ASC`
	var refs []models.AclEntityRef
	if err := r.db.SelectContext(ctx, &refs, query); err != nil {
		return nil, fmt.Errorf("collect entity acl refs: %w", err)
	}
	return refs, nil
}

package models

import "fmt"

// Acl is one privilege row in a permission group. Rows sharing an AclID form a
// group; protected entities reference the group by AclID only and never own the
// rows. Exactly one of UserID and UnitID must be set.
type Acl struct {
	PermissionID int64  `db:"permission_id" json:"permissionId"`
	AclID        int64  `db:"acl_id" json:"aclId"`
	UserID       *int64 `db:"user_id" json:"userId,omitempty"`
	UnitID       *int64 `db:"unit_id" json:"unitId,omitempty"`
	CreatePriv   bool   `db:"create_privilege" json:"createPrivilege"`
	ReadPriv     bool   `db:"read_privilege" json:"readPrivilege"`
	ModifyPriv   bool   `db:"modify_privilege" json:"modifyPrivilege"`
	DeletePriv   bool   `db:"delete_privilege" json:"deletePrivilege"`
}

// Validate enforces the subject exclusivity invariant. The group id is not
// checked here; it is allocated at insert time.
func (a *Acl) Validate() error {
	if a.UserID == nil && a.UnitID == nil {
		return fmt.Errorf("acl row: neither user nor unit is set")
	}
	if a.UserID != nil && a.UnitID != nil {
		return fmt.Errorf("acl row: both user and unit are set")
	}
	return nil
}

// AclEntityRef names an entity table carrying an acl_id column, used by the
// consistency sweep.
type AclEntityRef struct {
	Entity string `db:"entity" json:"entity"`
	ID     int64  `db:"id" json:"id"`
	AclID  int64  `db:"acl_id" json:"aclId"`
}

// ConsistencyReport is the read-only outcome of one consistency sweep. The
// sweep surfaces divergence and never repairs it.
type ConsistencyReport struct {
	MissingGroups []int64        `json:"missingGroups"`
	OrphanGroups  []int64        `json:"orphanGroups"`
	DuplicateRefs []AclEntityRef `json:"duplicateRefs"`
	CheckedGroups int            `json:"checkedGroups"`
}

// Clean reports whether the sweep found no divergence.
func (r *ConsistencyReport) Clean() bool {
	return len(r.MissingGroups) == 0 && len(r.OrphanGroups) == 0 && len(r.DuplicateRefs) == 0
}

package dto

// AclPermissionRequest is one permission row in a create or replace call.
// Exactly one of UserID and UnitID must be set.
type AclPermissionRequest struct {
	UserID *int64 `json:"userId,omitempty"`
	UnitID *int64 `json:"unitId,omitempty"`
	Create bool   `json:"create"`
	Read   bool   `json:"read"`
	Modify bool   `json:"modify"`
	Delete bool   `json:"delete"`
}

// AclCreateRequest creates a new permission group from one or more rows.
type AclCreateRequest struct {
	Permissions []AclPermissionRequest `json:"permissions" validate:"required,min=1,dive"`
}

// AclGroupResponse returns the group id with its permission rows.
type AclGroupResponse struct {
	AclID       int64                  `json:"aclId"`
	Permissions []AclPermissionRequest `json:"permissions"`
}

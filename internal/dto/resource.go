package dto

import "github.com/valokuva/cms-admin-api/internal/models"

// ResourceListRequest captures query parameters for the resource directory.
type ResourceListRequest struct {
	Type      string `form:"type"`
	FileType  string `form:"file_type"`
	Query     string `form:"search"`
	AclID     int64  `form:"acl_id"`
	Sort      string `form:"sort"`
	Direction string `form:"direction"`
	Page      int    `form:"page"`
	Size      int    `form:"size"`
}

// ResourceListResponse wraps one directory page with its combined totals.
type ResourceListResponse struct {
	Items      []models.ResourceSummary `json:"items"`
	Pagination models.Pagination        `json:"pagination"`
}

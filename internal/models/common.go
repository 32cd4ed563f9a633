package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// NewPagination derives page metadata from a total row count.
func NewPagination(page, size int, total int64) *Pagination {
	if size < 1 {
		size = 1
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	return &Pagination{
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

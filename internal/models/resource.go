package models

import "regexp"

var queryTermPattern = regexp.MustCompile(`"([^"]+)"|(\S+)`)

// SplitQueryTerms splits a search query into terms. Double-quoted substrings
// stay intact as one term (without the quotes); the rest splits on whitespace.
func SplitQueryTerms(query string) []string {
	matches := queryTermPattern.FindAllStringSubmatch(query, -1)
	terms := make([]string, 0, len(matches))
	for _, match := range matches {
		if match[1] != "" {
			terms = append(terms, match[1])
			continue
		}
		terms = append(terms, match[2])
	}
	return terms
}

// ResourceType discriminates the resource directory union. Every merge and
// format site must switch exhaustively over these values.
type ResourceType string

const (
	ResourceTypeFile    ResourceType = "SITE_FILE"
	ResourceTypeGallery ResourceType = "GALLERY"
	ResourceTypePage    ResourceType = "PAGE"
)

// ParseResourceType maps a query parameter to a resource type; empty means all
// types.
func ParseResourceType(raw string) (ResourceType, bool) {
	switch ResourceType(raw) {
	case ResourceTypeFile, ResourceTypeGallery, ResourceTypePage:
		return ResourceType(raw), true
	}
	return "", false
}

// ResourceSummary is one row of the unified cross-store directory.
type ResourceSummary struct {
	ResourceType ResourceType `db:"resource_type" json:"resourceType"`
	ResourceID   int64        `db:"resource_id" json:"resourceId"`
	Name         string       `db:"name" json:"name"`
	Path         string       `db:"path" json:"path"`
	AclID        int64        `db:"acl_id" json:"aclId"`
	FileType     *string      `db:"file_type" json:"fileType,omitempty"`
}

// ResourceFilter carries directory query parameters after normalization.
type ResourceFilter struct {
	Type      *ResourceType
	FileType  *FileClass
	Query     string
	AclID     *int64
	Sort      string
	Direction string
	Page      int
	Size      int
}

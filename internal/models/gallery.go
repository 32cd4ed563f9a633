package models

import "time"

// Gallery is an aggregate root over an ordered set of site files.
type Gallery struct {
	ID          int64      `db:"id" json:"id"`
	Shortname   string     `db:"shortname" json:"shortname"`
	Description string     `db:"description" json:"description"`
	AclID       int64      `db:"acl_id" json:"aclId"`
	Creator     int64      `db:"creator" json:"creator"`
	Created     time.Time  `db:"created" json:"created"`
	Modifier    *int64     `db:"modifier" json:"modifier,omitempty"`
	Modified    *time.Time `db:"modified" json:"modified,omitempty"`
}

// GalleryFile is one ordered membership row linking a gallery to a site file.
// Membership is replaced wholesale on update, never diffed.
type GalleryFile struct {
	GalleryID  int64 `db:"gallery_id" json:"galleryId"`
	SiteFileID int64 `db:"site_file_id" json:"siteFileId"`
	SortOrder  int   `db:"sort_order" json:"sortOrder"`
}

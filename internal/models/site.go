package models

import "time"

// Site-side mirror rows. Each carries its own surrogate id plus a natural
// reference back to the admin-side id, and its own acl numbering decoupled from
// the admin database. Written only by the replication step of publish.

type WebSiteFile struct {
	ID       int64     `db:"id" json:"id"`
	FileID   int64     `db:"file_id" json:"fileId"`
	Path     string    `db:"path" json:"path"`
	MimeType string    `db:"mime_type" json:"mimeType"`
	FileType FileClass `db:"file_type" json:"fileType"`
	Width    *int      `db:"width" json:"width,omitempty"`
	Height   *int      `db:"height" json:"height,omitempty"`
	Length   *int      `db:"length" json:"length,omitempty"`
	Metadata *string   `db:"metadata" json:"metadata,omitempty"`
	Comment  *string   `db:"comment" json:"comment,omitempty"`
	AclID    int64     `db:"acl_id" json:"aclId"`
	Created  time.Time `db:"created" json:"created"`
}

type WebSiteGallery struct {
	ID          int64     `db:"id" json:"id"`
	GalleryID   int64     `db:"gallery_id" json:"galleryId"`
	Shortname   string    `db:"shortname" json:"shortname"`
	Description string    `db:"description" json:"description"`
	AclID       int64     `db:"acl_id" json:"aclId"`
	Created     time.Time `db:"created" json:"created"`
}

type WebSiteGalleryFile struct {
	GalleryID int64 `db:"gallery_id" json:"galleryId"`
	FileID    int64 `db:"file_id" json:"fileId"`
	SortOrder int   `db:"sort_order" json:"sortOrder"`
}

type WebSitePage struct {
	ID        int64     `db:"id" json:"id"`
	PageID    int64     `db:"page_id" json:"pageId"`
	ParentID  *int64    `db:"parent_id" json:"parentId,omitempty"`
	Path      string    `db:"path" json:"path"`
	Title     string    `db:"title" json:"title"`
	Header    string    `db:"header" json:"header"`
	Body      string    `db:"body" json:"body"`
	Secure    bool      `db:"secure" json:"secure"`
	IndexList bool      `db:"index_list" json:"indexList"`
	Creator   string    `db:"creator" json:"creator"`
	Modifier  *string   `db:"modifier" json:"modifier,omitempty"`
	AclID     int64     `db:"acl_id" json:"aclId"`
	Published time.Time `db:"published" json:"published"`
}

type WebSiteAcl struct {
	ID       int64  `db:"id" json:"id"`
	AclID    int64  `db:"acl_id" json:"aclId"`
	UserID   *int64 `db:"user_id" json:"userId,omitempty"`
	UnitID   *int64 `db:"unit_id" json:"unitId,omitempty"`
	ReadPriv bool   `db:"read_privilege" json:"readPrivilege"`
}

type WebSiteUser struct {
	ID     int64  `db:"id" json:"id"`
	UserID int64  `db:"user_id" json:"userId"`
	Nick   string `db:"nick" json:"nick"`
}

package models

import "time"

// Page is an authored page on the admin side. The body is composed with its
// form's layout and components at publish time.
type Page struct {
	ID        int64      `db:"id" json:"id"`
	ParentID  *int64     `db:"parent_id" json:"parentId,omitempty"`
	FormID    int64      `db:"form_id" json:"formId"`
	Path      string     `db:"path" json:"path"`
	Title     string     `db:"title" json:"title"`
	Header    string     `db:"header" json:"header"`
	Body      string     `db:"body" json:"body"`
	Secure    bool       `db:"secure" json:"secure"`
	IndexList bool       `db:"index_list" json:"indexList"`
	AclID     int64      `db:"acl_id" json:"aclId"`
	Creator   int64      `db:"creator" json:"creator"`
	Created   time.Time  `db:"created" json:"created"`
	Modifier  *int64     `db:"modifier" json:"modifier,omitempty"`
	Modified  *time.Time `db:"modified" json:"modified,omitempty"`
}

// Form binds a page to a layout and an ordered component list.
type Form struct {
	ID       int64 `db:"id" json:"id"`
	LayoutID int64 `db:"layout_id" json:"layoutId"`
	AclID    int64 `db:"acl_id" json:"aclId"`
}

// FormComponent is one ordered component reference within a form.
type FormComponent struct {
	FormID      int64 `db:"form_id" json:"formId"`
	ComponentID int64 `db:"component_id" json:"componentId"`
	SortOrder   int   `db:"sort_order" json:"sortOrder"`
}

// Layout carries the page skeleton with a body placeholder.
type Layout struct {
	ID         int64  `db:"id" json:"id"`
	LayoutName string `db:"layout_name" json:"layoutName"`
	Structure  string `db:"structure" json:"structure"`
	AclID      int64  `db:"acl_id" json:"aclId"`
}

// Component is a reusable content fragment substituted into the layout.
type Component struct {
	ID       int64  `db:"id" json:"id"`
	CompName string `db:"comp_name" json:"compName"`
	CompData string `db:"comp_data" json:"compData"`
	AclID    int64  `db:"acl_id" json:"aclId"`
}

// Unit is a permission subject grouping users.
type Unit struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	AclID int64  `db:"acl_id" json:"aclId"`
}

// User is an admin-side account, referenced by ACL rows and audit columns.
type User struct {
	ID    int64  `db:"id" json:"id"`
	Nick  string `db:"nick" json:"nick"`
	AclID int64  `db:"acl_id" json:"aclId"`
}

// PageGallery links a page to an embedded gallery. Publishing the page also
// publishes its galleries.
type PageGallery struct {
	PageID    int64 `db:"page_id" json:"pageId"`
	GalleryID int64 `db:"gallery_id" json:"galleryId"`
	SortOrder int   `db:"sort_order" json:"sortOrder"`
}

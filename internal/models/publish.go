package models

import "time"

// PublishStatus values are persisted as strings; do not renumber or rename.
type PublishStatus string

const (
	PublishStatusPending    PublishStatus = "PENDING"
	PublishStatusProcessing PublishStatus = "PROCESSING"
	PublishStatusPublished  PublishStatus = "PUBLISHED"
	PublishStatusFailed     PublishStatus = "FAILED"
)

// PublishType values are persisted as strings; stable storage vocabulary.
type PublishType string

const (
	PublishTypePage    PublishType = "PAGE"
	PublishTypeGallery PublishType = "GALLERY"
)

// Valid reports whether the type is a known publishable content type.
func (t PublishType) Valid() bool {
	return t == PublishTypePage || t == PublishTypeGallery
}

// PublishSchedule is one persisted deferred-publication request. Rows are an
// audit trail: status moves PENDING -> PUBLISHED or PENDING -> FAILED via
// single-column updates and rows are never deleted.
type PublishSchedule struct {
	ID             int64         `db:"id" json:"id"`
	PublishTime    time.Time     `db:"publish_time" json:"publishTime"`
	PublishStatus  PublishStatus `db:"publish_status" json:"publishStatus"`
	PublishMessage *string       `db:"publish_message" json:"publishMessage,omitempty"`
	PublishType    PublishType   `db:"publish_type" json:"publishType"`
	PublishID      int64         `db:"publish_id" json:"publishId"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      *time.Time    `db:"updated_at" json:"updatedAt,omitempty"`
}

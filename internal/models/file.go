package models

import (
	"strings"
	"time"
)

// FileClass buckets files by mimetype main type.
type FileClass string

const (
	FileClassImage    FileClass = "image"
	FileClassVideo    FileClass = "video"
	FileClassAudio    FileClass = "audio"
	FileClassDocument FileClass = "document"
	FileClassOther    FileClass = "other"
	FileClassThumb    FileClass = "thumb"
)

// FileClassForMime maps a "type/subtype" mimetype to its storage class.
func FileClassForMime(mimeType string) FileClass {
	mainType, _, found := strings.Cut(mimeType, "/")
	if !found {
		return FileClassOther
	}
	switch strings.ToLower(strings.TrimSpace(mainType)) {
	case "image":
		return FileClassImage
	case "video":
		return FileClassVideo
	case "audio":
		return FileClassAudio
	case "application", "text":
		return FileClassDocument
	default:
		return FileClassOther
	}
}

// SiteFile is the admin-side record of one ingested file, unique on
// (file_path, file_name).
type SiteFile struct {
	ID        int64      `db:"id" json:"id"`
	FileName  string     `db:"file_name" json:"fileName"`
	FilePath  string     `db:"file_path" json:"filePath"`
	MimeType  string     `db:"mime_type" json:"mimeType"`
	FileClass FileClass  `db:"file_class" json:"fileClass"`
	Size      int64      `db:"size" json:"size"`
	Sha256Sum string     `db:"sha256sum" json:"sha256sum"`
	Metadata  *string    `db:"metadata" json:"metadata,omitempty"`
	Comment   *string    `db:"comment" json:"comment,omitempty"`
	Creator   int64      `db:"creator" json:"creator"`
	Created   time.Time  `db:"created" json:"created"`
	Modifier  *int64     `db:"modifier" json:"modifier,omitempty"`
	Modified  *time.Time `db:"modified" json:"modified,omitempty"`
}

// FileThumb is the derived thumbnail row for one source file, at most one per
// parent. Regenerated wholesale, never versioned. The checksum is computed over
// the source file, not the generated artifact.
type FileThumb struct {
	ID       int64     `db:"id" json:"id"`
	ParentID int64     `db:"parent_id" json:"parentId"`
	FilePath string    `db:"filepath" json:"filepath"`
	FileName string    `db:"filename" json:"filename"`
	FileSize int64     `db:"filesize" json:"filesize"`
	Width    int       `db:"width" json:"width"`
	Height   int       `db:"height" json:"height"`
	Sha1Sum  string    `db:"sha1sum" json:"sha1sum"`
	Created  time.Time `db:"created" json:"created"`
}

package dto

// IngestRequest carries the upload metadata. The publishing tool sends it as a
// JSON part named "meta" next to the file part; plain form fields are accepted
// as a fallback.
type IngestRequest struct {
	UserID      int64  `form:"userId" json:"userId" validate:"required,gt=0"`
	FilePath    string `form:"filePath" json:"filePath"`
	FileName    string `form:"fileName" json:"fileName" validate:"required"`
	MimeType    string `form:"mimeType" json:"mimeType" validate:"required"`
	Sha256      string `form:"sha256sum" json:"sha256sum" validate:"required,len=64,hexadecimal"`
	Metadata    string `form:"metadata" json:"metadata"`
	Comment     string `form:"comment" json:"comment"`
	Gallery     string `form:"galleryName" json:"galleryName"`
	GalleryDesc string `form:"galleryDescription" json:"galleryDescription"`
}

// IngestResponse reports what the ingest did with the file.
type IngestResponse struct {
	FileID      int64  `json:"fileId"`
	FileClass   string `json:"fileClass"`
	Updated     bool   `json:"updated"`
	ThumbID     *int64 `json:"thumbId,omitempty"`
	GalleryID   *int64 `json:"galleryId,omitempty"`
	GalleryName string `json:"galleryName,omitempty"`
}

package dto

// GalleryFilesRequest replaces the whole ordered membership of a gallery.
type GalleryFilesRequest struct {
	FileIDs []int64 `json:"fileIds" binding:"required"`
}

// GalleryFilesResponse echoes the membership after the update, in sort order.
type GalleryFilesResponse struct {
	GalleryID int64   `json:"galleryId"`
	Shortname string  `json:"shortname"`
	FileIDs   []int64 `json:"fileIds"`
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
	"github.com/valokuva/cms-admin-api/pkg/response"
)

type galleryService interface {
	ReplaceMembership(ctx context.Context, galleryID int64, fileIDs []int64) (*dto.GalleryFilesResponse, error)
	Search(ctx context.Context, query string) ([]models.Gallery, error)
}

// GalleryHandler manages gallery membership.
type GalleryHandler struct {
	service galleryService
}

// NewGalleryHandler builds a new handler.
func NewGalleryHandler(service galleryService) *GalleryHandler {
	return &GalleryHandler{service: service}
}

// Search godoc
// @Summary Search admin galleries by name, description or member file
// @Tags Gallery
// @Produce json
// @Param search query string true "Search terms, quoted substrings kept intact"
// @Success 200 {object} response.Envelope
// @Router /galleries [get]
func (h *GalleryHandler) Search(c *gin.Context) {
	galleries, err := h.service.Search(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, galleries, nil)
}

// ReplaceFiles godoc
// @Summary Replace the ordered file membership of a gallery
// @Tags Gallery
// @Accept json
// @Produce json
// @Param id path int true "Gallery id"
// @Param payload body dto.GalleryFilesRequest true "Ordered file ids"
// @Success 200 {object} response.Envelope
// @Router /galleries/{id}/files [put]
func (h *GalleryHandler) ReplaceFiles(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.GalleryFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid membership payload"))
		return
	}
	result, err := h.service.ReplaceMembership(c.Request.Context(), id, req.FileIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

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

type publishService interface {
	Publish(ctx context.Context, req dto.PublishRequest) (*dto.PublishResponse, error)
	Unpublish(ctx context.Context, publishType models.PublishType, publishID int64) error
	Retrigger(ctx context.Context, scheduleID int64) error
}

// PublishHandler exposes page and gallery publication.
type PublishHandler struct {
	service publishService
}

// NewPublishHandler builds a new handler.
func NewPublishHandler(service publishService) *PublishHandler {
	return &PublishHandler{service: service}
}

// PublishPage godoc
// @Summary Publish a page now or at a scheduled time
// @Tags Publish
// @Accept json
// @Produce json
// @Param id path int true "Page ID"
// @Param payload body dto.PublishRequest false "Optional schedule"
// @Success 200 {object} response.Envelope
// @Router /pages/{id}/publish [post]
func (h *PublishHandler) PublishPage(c *gin.Context) {
	h.publish(c, models.PublishTypePage)
}

// PublishGallery godoc
// @Summary Publish a gallery now or at a scheduled time
// @Tags Publish
// @Accept json
// @Produce json
// @Param id path int true "Gallery ID"
// @Param payload body dto.PublishRequest false "Optional schedule"
// @Success 200 {object} response.Envelope
// @Router /galleries/{id}/publish [post]
func (h *PublishHandler) PublishGallery(c *gin.Context) {
	h.publish(c, models.PublishTypeGallery)
}

func (h *PublishHandler) publish(c *gin.Context, publishType models.PublishType) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.PublishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid publish payload"))
			return
		}
	}
	req.PublishType = publishType
	req.PublishID = id
	if claims := claimsFromContext(c); claims != nil && req.Message == "" {
		req.Message = "requested by " + claims.Nick
	}

	result, err := h.service.Publish(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.ScheduleID != nil {
		status = http.StatusAccepted
	}
	response.JSON(c, status, result, nil)
}

// UnpublishPage godoc
// @Summary Remove a page from the site
// @Tags Publish
// @Produce json
// @Param id path int true "Page ID"
// @Success 204
// @Router /pages/{id}/publish [delete]
func (h *PublishHandler) UnpublishPage(c *gin.Context) {
	h.unpublish(c, models.PublishTypePage)
}

// UnpublishGallery godoc
// @Summary Remove a gallery and its shipped files from the site
// @Tags Publish
// @Produce json
// @Param id path int true "Gallery ID"
// @Success 204
// @Router /galleries/{id}/publish [delete]
func (h *PublishHandler) UnpublishGallery(c *gin.Context) {
	h.unpublish(c, models.PublishTypeGallery)
}

func (h *PublishHandler) unpublish(c *gin.Context, publishType models.PublishType) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Unpublish(c.Request.Context(), publishType, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Retrigger godoc
// @Summary Put a failed schedule entry back in line
// @Tags Publish
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 204
// @Router /publish/schedules/{id}/trigger [post]
func (h *PublishHandler) Retrigger(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Retrigger(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valokuva/cms-admin-api/internal/dto"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
	"github.com/valokuva/cms-admin-api/pkg/response"
)

type resourceService interface {
	List(ctx context.Context, req dto.ResourceListRequest) (*dto.ResourceListResponse, error)
}

// ResourceHandler serves the published resource directory.
type ResourceHandler struct {
	service resourceService
}

// NewResourceHandler builds a new handler.
func NewResourceHandler(service resourceService) *ResourceHandler {
	return &ResourceHandler{service: service}
}

// List godoc
// @Summary Browse and search published resources
// @Tags Resources
// @Produce json
// @Param type query string false "SITE_FILE, GALLERY or PAGE; omit for all"
// @Param file_type query string false "File class filter"
// @Param search query string false "Free-text search"
// @Param acl_id query int false "Permission group filter"
// @Param sort query string false "id, name or created"
// @Param direction query string false "asc or desc"
// @Param page query int false "Page number, from 0"
// @Param size query int false "Page size, capped at 200"
// @Success 200 {object} response.Envelope
// @Router /resources [get]
func (h *ResourceHandler) List(c *gin.Context) {
	var req dto.ResourceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resource query"))
		return
	}
	result, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Items, &result.Pagination)
}

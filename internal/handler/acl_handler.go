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

type aclService interface {
	GetGroup(ctx context.Context, aclID int64) (*dto.AclGroupResponse, error)
	CreateGroup(ctx context.Context, req dto.AclCreateRequest) (*dto.AclGroupResponse, error)
	ReplaceGroup(ctx context.Context, aclID int64, req dto.AclCreateRequest) error
	DeleteGroup(ctx context.Context, aclID int64) error
}

type aclConsistencyService interface {
	Sweep(ctx context.Context) (*models.ConsistencyReport, error)
}

// AclHandler manages permission groups.
type AclHandler struct {
	service     aclService
	consistency aclConsistencyService
}

// NewAclHandler builds a new handler.
func NewAclHandler(service aclService, consistency aclConsistencyService) *AclHandler {
	return &AclHandler{service: service, consistency: consistency}
}

// Get godoc
// @Summary Get a permission group
// @Tags ACL
// @Produce json
// @Param aclId path int true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /acls/{aclId} [get]
func (h *AclHandler) Get(c *gin.Context) {
	aclID, err := pathID(c, "aclId")
	if err != nil {
		response.Error(c, err)
		return
	}
	group, err := h.service.GetGroup(c.Request.Context(), aclID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Create godoc
// @Summary Create a permission group
// @Tags ACL
// @Accept json
// @Produce json
// @Param payload body dto.AclCreateRequest true "Permission rows"
// @Success 201 {object} response.Envelope
// @Router /acls [post]
func (h *AclHandler) Create(c *gin.Context) {
	var req dto.AclCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid permission payload"))
		return
	}
	group, err := h.service.CreateGroup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Replace godoc
// @Summary Replace the rows of a permission group
// @Tags ACL
// @Accept json
// @Produce json
// @Param aclId path int true "Group ID"
// @Param payload body dto.AclCreateRequest true "Permission rows"
// @Success 204
// @Router /acls/{aclId} [put]
func (h *AclHandler) Replace(c *gin.Context) {
	aclID, err := pathID(c, "aclId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AclCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid permission payload"))
		return
	}
	if err := h.service.ReplaceGroup(c.Request.Context(), aclID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a permission group
// @Tags ACL
// @Produce json
// @Param aclId path int true "Group ID"
// @Success 204
// @Router /acls/{aclId} [delete]
func (h *AclHandler) Delete(c *gin.Context) {
	aclID, err := pathID(c, "aclId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteGroup(c.Request.Context(), aclID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Consistency godoc
// @Summary Run the reference consistency sweep and return the report
// @Tags ACL
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /acls/consistency [get]
func (h *AclHandler) Consistency(c *gin.Context) {
	report, err := h.consistency.Sweep(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
	"github.com/valokuva/cms-admin-api/pkg/response"
)

type scheduleService interface {
	Get(ctx context.Context, id int64) (*dto.ScheduleItem, error)
	List(ctx context.Context, filter dto.ScheduleFilter) ([]dto.ScheduleItem, *models.Pagination, error)
	Export(ctx context.Context, format string) ([]byte, string, error)
}

// ScheduleHandler exposes the publish schedule.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler builds a new handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// List godoc
// @Summary List schedule entries
// @Tags Publish
// @Produce json
// @Param status query string false "Publish status"
// @Param type query string false "Publish type"
// @Param from query string false "RFC3339 lower bound on publish time"
// @Param to query string false "RFC3339 upper bound on publish time"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /publish/schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter, err := scheduleFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), *filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get one schedule entry
// @Tags Publish
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /publish/schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Export godoc
// @Summary Export upcoming schedule entries as CSV or PDF
// @Tags Publish
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /publish/schedules/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	out, contentType, err := h.service.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	name := fmt.Sprintf("publish-schedule-%s.%s", time.Now().Format("20060102"), format)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, out)
}

func scheduleFilterFromQuery(c *gin.Context) (*dto.ScheduleFilter, error) {
	filter := dto.ScheduleFilter{
		Status: models.PublishStatus(c.Query("status")),
		Type:   models.PublishType(c.Query("type")),
	}
	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid from timestamp")
		}
		filter.From = &ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid to timestamp")
		}
		filter.To = &ts
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	return &filter, nil
}

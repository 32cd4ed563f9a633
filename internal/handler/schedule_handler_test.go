package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
)

type scheduleServiceMock struct {
	lastFilter dto.ScheduleFilter
	items      []dto.ScheduleItem
	exportBody []byte
	exportType string
}

func (m *scheduleServiceMock) Get(ctx context.Context, id int64) (*dto.ScheduleItem, error) {
	return &dto.ScheduleItem{ID: id}, nil
}

func (m *scheduleServiceMock) List(ctx context.Context, filter dto.ScheduleFilter) ([]dto.ScheduleItem, *models.Pagination, error) {
	m.lastFilter = filter
	return m.items, models.NewPagination(filter.Page, filter.Size, int64(len(m.items))), nil
}

func (m *scheduleServiceMock) Export(ctx context.Context, format string) ([]byte, string, error) {
	return m.exportBody, m.exportType, nil
}

func TestScheduleHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &scheduleServiceMock{}
	handler := NewScheduleHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet,
		"/publish/schedules?status=PENDING&type=PAGE&from=2024-06-01T00:00:00Z&page=2&size=50", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PublishStatusPending, svc.lastFilter.Status)
	assert.Equal(t, models.PublishTypePage, svc.lastFilter.Type)
	require.NotNil(t, svc.lastFilter.From)
	assert.Equal(t, 2, svc.lastFilter.Page)
	assert.Equal(t, 50, svc.lastFilter.Size)
}

func TestScheduleHandlerListRejectsBadTimestamp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/publish/schedules?from=yesterday", nil)
	c.Request = req

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerExportSetsDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &scheduleServiceMock{exportBody: []byte("ID,Status\n"), exportType: "text/csv"}
	handler := NewScheduleHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/publish/schedules/export", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "publish-schedule-")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
}

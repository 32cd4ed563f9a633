package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
	"github.com/valokuva/cms-admin-api/pkg/export"
)

type scheduleListStore interface {
	FindByID(ctx context.Context, id int64) (*models.PublishSchedule, error)
	List(ctx context.Context, filter dto.ScheduleFilter) ([]models.PublishSchedule, int, error)
	ListUpcoming(ctx context.Context, limit int) ([]models.PublishSchedule, error)
}

// ScheduleService exposes the publish schedule for inspection and reporting.
type ScheduleService struct {
	repo    scheduleListStore
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	metrics *MetricsService
	logger  *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(repo scheduleListStore, metrics *MetricsService, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:    repo,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		metrics: metrics,
		logger:  logger,
	}
}

// Get returns one schedule entry.
func (s *ScheduleService) Get(ctx context.Context, id int64) (*dto.ScheduleItem, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if row == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	item := toScheduleItem(*row)
	return &item, nil
}

// List returns a filtered schedule page with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter dto.ScheduleFilter) ([]dto.ScheduleItem, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Size < 1 || filter.Size > 200 {
		filter.Size = 20
	}
	if filter.Status != "" {
		switch filter.Status {
		case models.PublishStatusPending, models.PublishStatusProcessing,
			models.PublishStatusPublished, models.PublishStatusFailed:
		default:
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown publish status")
		}
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown publish type")
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	items := make([]dto.ScheduleItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toScheduleItem(row))
	}
	if s.metrics != nil && filter.Status == models.PublishStatusPending {
		s.metrics.SetScheduleBacklog(total)
	}
	return items, models.NewPagination(filter.Page, filter.Size, int64(total)), nil
}

// Export renders the upcoming schedule as CSV or PDF.
func (s *ScheduleService) Export(ctx context.Context, format string) ([]byte, string, error) {
	rows, err := s.repo.ListUpcoming(ctx, 500)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load upcoming schedules")
	}

	data := export.Dataset{
		Headers: []string{"ID", "Publish Time", "Type", "Content ID", "Status"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"ID":           strconv.FormatInt(row.ID, 10),
			"Publish Time": row.PublishTime.UTC().Format(time.RFC3339),
			"Type":         string(row.PublishType),
			"Content ID":   strconv.FormatInt(row.PublishID, 10),
			"Status":       string(row.PublishStatus),
		})
	}

	switch format {
	case "", "csv":
		out, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return out, "text/csv", nil
	case "pdf":
		out, err := s.pdf.Render(data, "Upcoming publications")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return out, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func toScheduleItem(row models.PublishSchedule) dto.ScheduleItem {
	return dto.ScheduleItem{
		ID:          row.ID,
		PublishTime: row.PublishTime,
		Status:      row.PublishStatus,
		Message:     row.PublishMessage,
		PublishType: row.PublishType,
		PublishID:   row.PublishID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

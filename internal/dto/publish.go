package dto

import (
	"time"

	"github.com/valokuva/cms-admin-api/internal/models"
)

// PublishRequest asks for a page or gallery to be published, either now or at
// a scheduled time.
type PublishRequest struct {
	PublishType models.PublishType `json:"publishType" validate:"required"`
	PublishID   int64              `json:"publishId" validate:"required,gt=0"`
	PublishTime *time.Time         `json:"publishTime,omitempty"`
	Message     string             `json:"message,omitempty"`
}

// PublishResponse describes the outcome of an immediate publish or the
// schedule entry created for a deferred one.
type PublishResponse struct {
	PublishType models.PublishType   `json:"publishType"`
	PublishID   int64                `json:"publishId"`
	Status      models.PublishStatus `json:"status"`
	ScheduleID  *int64               `json:"scheduleId,omitempty"`
	PublishTime *time.Time           `json:"publishTime,omitempty"`
	SiteID      *int64               `json:"siteId,omitempty"`
}

// ScheduleFilter captures query parameters for schedule listing.
type ScheduleFilter struct {
	Status models.PublishStatus
	Type   models.PublishType
	From   *time.Time
	To     *time.Time
	Page   int
	Size   int
}

// ScheduleItem is one persisted publish request in API form.
type ScheduleItem struct {
	ID          int64                `json:"id"`
	PublishTime time.Time            `json:"publishTime"`
	Status      models.PublishStatus `json:"status"`
	Message     *string              `json:"message,omitempty"`
	PublishType models.PublishType   `json:"publishType"`
	PublishID   int64                `json:"publishId"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   *time.Time           `json:"updatedAt,omitempty"`
}

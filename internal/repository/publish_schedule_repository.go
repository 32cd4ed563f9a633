package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
)

// PublishScheduleRepository persists deferred publish requests. Rows are
// claimed with a status compare-and-set so concurrent trigger runs never
// process the same row twice.
type PublishScheduleRepository struct {
	db *sqlx.DB
}

// NewPublishScheduleRepository constructs the repository.
func NewPublishScheduleRepository(db *sqlx.DB) *PublishScheduleRepository {
	return &PublishScheduleRepository{db: db}
}

const scheduleColumns = `id, publish_time, publish_status, publish_message, publish_type, publish_id, created_at, updated_at`

// Create inserts a pending schedule row and fills its id.
func (r *PublishScheduleRepository) Create(ctx context.Context, sched *models.PublishSchedule) error {
	const query = `INSERT INTO publish_schedule
(publish_time, publish_status, publish_message, publish_type, publish_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if sched.PublishStatus == "" {
		sched.PublishStatus = models.PublishStatusPending
	}
	if sched.CreatedAt.IsZero() {
		sched.CreatedAt = time.Now().UTC()
	}
	row := r.db.QueryRowxContext(ctx, query,
		sched.PublishTime, sched.PublishStatus, sched.PublishMessage,
		sched.PublishType, sched.PublishID, sched.CreatedAt)
	if err := row.Scan(&sched.ID); err != nil {
		return fmt.Errorf("create publish schedule: %w", err)
	}
	return nil
}

// FindByID fetches one schedule row, nil when missing.
func (r *PublishScheduleRepository) FindByID(ctx context.Context, id int64) (*models.PublishSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM publish_schedule WHERE id = $1`, scheduleColumns)
	var sched models.PublishSchedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find publish schedule %d: %w", id, err)
	}
	return &sched, nil
}

// A PROCESSING row older than this was claimed by a run that died before
// writing an outcome; the next trigger run picks it up again.
const processingStaleAfter = 15 * time.Minute

// ClaimDue atomically flips every pending row whose time has come to
// PROCESSING and returns the claimed rows, oldest publish time first. Only
// one trigger run wins each row. Rows stuck in PROCESSING past the staleness
// cutoff are claimed again.
func (r *PublishScheduleRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.PublishSchedule, error) {
	query := fmt.Sprintf(`UPDATE publish_schedule SET publish_status = $1, updated_at = $2
WHERE id IN (
    SELECT id FROM publish_schedule
    WHERE (publish_status = $3 AND publish_time <= $2)
       OR (publish_status = $1 AND updated_at <= $4)
    ORDER BY publish_time ASC, id ASC
    LIMIT $5
    FOR UPDATE SKIP LOCKED
)
RETURNING %s`, scheduleColumns)
	stale := now.UTC().Add(-processingStaleAfter)
	var claimed []models.PublishSchedule
	if err := r.db.SelectContext(ctx, &claimed, query,
		models.PublishStatusProcessing, now.UTC(), models.PublishStatusPending, stale, limit); err != nil {
		return nil, fmt.Errorf("claim due schedules: %w", err)
	}
	return claimed, nil
}

// Reclaim flips a PROCESSING or FAILED row back to PENDING so the next
// trigger run retries it.
func (r *PublishScheduleRepository) Reclaim(ctx context.Context, id int64) error {
	const query = `UPDATE publish_schedule SET publish_status = $2, updated_at = NOW()
WHERE id = $1 AND publish_status IN ($3, $4)`
	result, err := r.db.ExecContext(ctx, query, id,
		models.PublishStatusPending, models.PublishStatusProcessing, models.PublishStatusFailed)
	if err != nil {
		return fmt.Errorf("reclaim schedule %d: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("schedule %d is not retryable", id)
	}
	return nil
}

// UpdateStatus records the outcome of a claimed row.
func (r *PublishScheduleRepository) UpdateStatus(ctx context.Context, id int64, status models.PublishStatus, message *string) error {
	const query = `UPDATE publish_schedule SET publish_status = $2, publish_message = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, message); err != nil {
		return fmt.Errorf("update schedule %d status: %w", id, err)
	}
	return nil
}

// List returns schedule rows matching the filter, newest publish time first,
// with the filtered total for pagination.
func (r *PublishScheduleRepository) List(ctx context.Context, filter dto.ScheduleFilter) ([]models.PublishSchedule, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("publish_status = $%d", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.Type != "" {
		where = append(where, fmt.Sprintf("publish_type = $%d", idx))
		args = append(args, filter.Type)
		idx++
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("publish_time >= $%d", idx))
		args = append(args, filter.From.UTC())
		idx++
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("publish_time <= $%d", idx))
		args = append(args, filter.To.UTC())
		idx++
	}
	clause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM publish_schedule WHERE %s`, clause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM publish_schedule WHERE %s
ORDER BY publish_time DESC, id DESC LIMIT $%d OFFSET $%d`, scheduleColumns, clause, idx, idx+1)
	args = append(args, filter.Size, (filter.Page-1)*filter.Size)

	var rows []models.PublishSchedule
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}
	return rows, total, nil
}

// ListUpcoming returns pending rows ordered by publish time, for the export
// report.
func (r *PublishScheduleRepository) ListUpcoming(ctx context.Context, limit int) ([]models.PublishSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM publish_schedule
WHERE publish_status = $1 ORDER BY publish_time ASC, id ASC LIMIT $2`, scheduleColumns)
	var rows []models.PublishSchedule
	if err := r.db.SelectContext(ctx, &rows, query, models.PublishStatusPending, limit); err != nil {
		return nil, fmt.Errorf("list upcoming schedules: %w", err)
	}
	return rows, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/cip-api/internal/models"
)

// ErrStaleStatus signals that a guarded transition write lost a race: the row's
// status no longer matched the status the caller read.
var ErrStaleStatus = errors.New("partnership status changed concurrently")

// ErrExclusivityViolation is returned when a write trips one of the partial
// unique indexes guarding the one-active-partnership rule.
var ErrExclusivityViolation = errors.New("course or project already in an active partnership")

const partnershipColumns = `id, course_id, project_id, requested_by_user_id, requested_to_user_id, status,
start_date, end_date, request_message, response_message,
created_at, approved_at, rejected_at, canceled_at, completed_at, is_complete,
request_year, request_quarter, request_month,
approval_time_in_days, partnership_duration_in_days,
satisfaction, completion_rate, goal_achievement`

// PartnershipRepository handles persistence of partnerships.
type PartnershipRepository struct {
	db *sqlx.DB
}

// NewPartnershipRepository constructs the repository.
func NewPartnershipRepository(db *sqlx.DB) *PartnershipRepository {
	return &PartnershipRepository{db: db}
}

// List returns partnerships filtered by the provided criteria.
func (r *PartnershipRepository) List(ctx context.Context, filter models.PartnershipFilter) ([]models.Partnership, int, error) {
	base := "FROM partnerships p"
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("p.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.ProjectID != "" {
		conditions = append(conditions, fmt.Sprintf("p.project_id = $%d", len(args)+1))
		args = append(args, filter.ProjectID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("(p.requested_by_user_id = $%d OR p.requested_to_user_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.RequestYear > 0 {
		conditions = append(conditions, fmt.Sprintf("p.request_year = $%d", len(args)+1))
		args = append(args, filter.RequestYear)
	}
	if filter.RequestQuarter > 0 {
		conditions = append(conditions, fmt.Sprintf("p.request_quarter = $%d", len(args)+1))
		args = append(args, filter.RequestQuarter)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "p.created_at",
		"approved_at":  "p.approved_at",
		"completed_at": "p.completed_at",
		"status":       "p.status",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "p.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	countQuery := "SELECT COUNT(*) " + base + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count partnerships: %w", err)
	}

	query := fmt.Sprintf("SELECT %s %s%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		prefixColumns("p"), base, clause, orderBy, order, len(args)+1, len(args)+2)
	args = append(args, size, offset)

	var partnerships []models.Partnership
	if err := r.db.SelectContext(ctx, &partnerships, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list partnerships: %w", err)
	}
	return partnerships, total, nil
}

// FindByID returns a single partnership.
func (r *PartnershipRepository) FindByID(ctx context.Context, id string) (*models.Partnership, error) {
	query := fmt.Sprintf("SELECT %s FROM partnerships WHERE id = $1", partnershipColumns)
	var p models.Partnership
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindDetailByID returns a partnership with its conversation log.
func (r *PartnershipRepository) FindDetailByID(ctx context.Context, id string) (*models.PartnershipDetail, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := r.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.PartnershipDetail{Partnership: *p, Messages: messages}, nil
}

// FindActiveByCourseOrProject returns a partnership in an active status that
// references the same course or project, excluding the given id. Returns nil
// when no such record exists.
func (r *PartnershipRepository) FindActiveByCourseOrProject(ctx context.Context, courseID, projectID, excludeID string) (*models.Partnership, error) {
	query := fmt.Sprintf(`SELECT %s FROM partnerships
WHERE (course_id = $1 OR project_id = $2) AND status IN ($3, $4, $5)`, partnershipColumns)
	args := []interface{}{courseID, projectID,
		models.PartnershipStatusApproved, models.PartnershipStatusUpcoming, models.PartnershipStatusOngoing}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"

	var p models.Partnership
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active partnership: %w", err)
	}
	return &p, nil
}

// Create persists a new partnership record.
func (r *PartnershipRepository) Create(ctx context.Context, p *models.Partnership) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = models.PartnershipStatusPending
	}
	const query = `INSERT INTO partnerships (id, course_id, project_id, requested_by_user_id, requested_to_user_id, status,
start_date, end_date, request_message, response_message,
created_at, approved_at, rejected_at, canceled_at, completed_at, is_complete,
request_year, request_quarter, request_month,
approval_time_in_days, partnership_duration_in_days,
satisfaction, completion_rate, goal_achievement)
VALUES (:id, :course_id, :project_id, :requested_by_user_id, :requested_to_user_id, :status,
:start_date, :end_date, :request_message, :response_message,
:created_at, :approved_at, :rejected_at, :canceled_at, :completed_at, :is_complete,
:request_year, :request_quarter, :request_month,
:approval_time_in_days, :partnership_duration_in_days,
:satisfaction, :completion_rate, :goal_achievement)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create partnership: %w", err)
	}
	return nil
}

// UpdateTransition writes the mutable fields of a partnership, guarded by the
// status the caller read. The guard makes the conflict check and the write a
// single atomic unit: a raced transition leaves zero rows affected and the
// caller receives ErrStaleStatus. The schema additionally carries partial
// unique indexes on (course_id) and (project_id) over active statuses, so a
// raced approve that slips past the guard still fails on the index.
func (r *PartnershipRepository) UpdateTransition(ctx context.Context, p *models.Partnership, expected models.PartnershipStatus) error {
	const query = `UPDATE partnerships SET status = :status,
start_date = :start_date, end_date = :end_date, response_message = :response_message,
approved_at = :approved_at, rejected_at = :rejected_at, canceled_at = :canceled_at, completed_at = :completed_at,
is_complete = :is_complete,
approval_time_in_days = :approval_time_in_days, partnership_duration_in_days = :partnership_duration_in_days,
satisfaction = :satisfaction, completion_rate = :completion_rate, goal_achievement = :goal_achievement
WHERE id = :id AND status = :expected_status`
	arg := struct {
		models.Partnership
		ExpectedStatus models.PartnershipStatus `db:"expected_status"`
	}{Partnership: *p, ExpectedStatus: expected}

	res, err := r.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrExclusivityViolation
		}
		return fmt.Errorf("update partnership %s: %w", p.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update partnership %s: %w", p.ID, err)
	}
	if affected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// AppendMessage adds an entry to the conversation log. Entries are never
// updated or deleted.
func (r *PartnershipRepository) AppendMessage(ctx context.Context, msg *models.PartnershipMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	const query = `INSERT INTO partnership_messages (id, partnership_id, user_id, body, sent_at)
VALUES (:id, :partnership_id, :user_id, :body, :sent_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("append partnership message: %w", err)
	}
	return nil
}

// ListMessages returns the conversation log in send order.
func (r *PartnershipRepository) ListMessages(ctx context.Context, partnershipID string) ([]models.PartnershipMessage, error) {
	const query = `SELECT id, partnership_id, user_id, body, sent_at FROM partnership_messages
WHERE partnership_id = $1 ORDER BY sent_at ASC, id ASC`
	var messages []models.PartnershipMessage
	if err := r.db.SelectContext(ctx, &messages, query, partnershipID); err != nil {
		return nil, fmt.Errorf("list partnership messages: %w", err)
	}
	return messages, nil
}

// ListDueForRefresh returns active partnerships with both dates set, the
// candidates for the periodic lifecycle sweep.
func (r *PartnershipRepository) ListDueForRefresh(ctx context.Context) ([]models.Partnership, error) {
	query := fmt.Sprintf(`SELECT %s FROM partnerships
WHERE status IN ($1, $2, $3) AND start_date IS NOT NULL AND end_date IS NOT NULL`, partnershipColumns)
	var partnerships []models.Partnership
	err := r.db.SelectContext(ctx, &partnerships, query,
		models.PartnershipStatusApproved, models.PartnershipStatusUpcoming, models.PartnershipStatusOngoing)
	if err != nil {
		return nil, fmt.Errorf("list refreshable partnerships: %w", err)
	}
	return partnerships, nil
}

func prefixColumns(alias string) string {
	parts := strings.Split(partnershipColumns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

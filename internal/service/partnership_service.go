package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/cip-api/internal/models"
	"github.com/noah-isme/cip-api/internal/repository"
	appErrors "github.com/noah-isme/cip-api/pkg/errors"
)

type partnershipRepository interface {
	List(ctx context.Context, filter models.PartnershipFilter) ([]models.Partnership, int, error)
	FindByID(ctx context.Context, id string) (*models.Partnership, error)
	FindDetailByID(ctx context.Context, id string) (*models.PartnershipDetail, error)
	FindActiveByCourseOrProject(ctx context.Context, courseID, projectID, excludeID string) (*models.Partnership, error)
	Create(ctx context.Context, p *models.Partnership) error
	UpdateTransition(ctx context.Context, p *models.Partnership, expected models.PartnershipStatus) error
	AppendMessage(ctx context.Context, msg *models.PartnershipMessage) error
	ListDueForRefresh(ctx context.Context) ([]models.Partnership, error)
}

// CreatePartnershipRequest describes a partnership request payload.
type CreatePartnershipRequest struct {
	CourseID          string  `json:"course_id" validate:"required"`
	ProjectID         string  `json:"project_id" validate:"required"`
	RequestedByUserID string  `json:"requested_by_user_id" validate:"required,nefield=RequestedToUserID"`
	RequestedToUserID string  `json:"requested_to_user_id" validate:"required"`
	RequestMessage    *string `json:"request_message,omitempty"`
}

// RespondRequest carries the optional responder message for approve/reject.
type RespondRequest struct {
	ResponseMessage *string `json:"response_message,omitempty"`
}

// CompletePartnershipRequest carries optional outcome metrics.
type CompletePartnershipRequest struct {
	Metrics *models.SuccessMetrics `json:"metrics,omitempty"`
}

// SetDatesRequest carries the schedule window.
type SetDatesRequest struct {
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// AppendMessageRequest adds one entry to the conversation log.
type AppendMessageRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Body   string `json:"body" validate:"required"`
}

// PartnershipService is the partnership lifecycle state machine. It owns every
// status transition, the exclusivity rule and the derived analytics fields.
// Transition notifications are best-effort and never fail a transition.
type PartnershipService struct {
	repo      partnershipRepository
	notifier  Notifier
	metrics   *MetricsService
	analytics summaryInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// summaryInvalidator drops cached analytics rollups once a transition has
// changed the aggregates they were computed from.
type summaryInvalidator interface {
	InvalidateSummaries(ctx context.Context)
}

// NewPartnershipService constructs PartnershipService. A nil clock falls back
// to UTC wall time; tests inject a fixed clock.
func NewPartnershipService(repo partnershipRepository, notifier Notifier, metrics *MetricsService, analytics summaryInvalidator, validate *validator.Validate, logger *zap.Logger, now func() time.Time) *PartnershipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &PartnershipService{repo: repo, notifier: notifier, metrics: metrics, analytics: analytics, validator: validate, logger: logger, now: now}
}

// List returns partnerships with pagination metadata.
func (s *PartnershipService) List(ctx context.Context, filter models.PartnershipFilter) ([]models.Partnership, *models.Pagination, error) {
	partnerships, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list partnerships")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return partnerships, pagination, nil
}

// Get returns a partnership with its conversation log.
func (s *PartnershipService) Get(ctx context.Context, id string) (*models.PartnershipDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "partnership not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load partnership")
	}
	return detail, nil
}

// Create registers a partnership request in PENDING. Exclusivity is not
// checked here; only approval enforces it.
func (s *PartnershipService) Create(ctx context.Context, req CreatePartnershipRequest) (*models.PartnershipDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid partnership payload")
	}

	createdAt := s.now()
	dims := models.DeriveTimeDimensions(createdAt)
	partnership := &models.Partnership{
		CourseID:          req.CourseID,
		ProjectID:         req.ProjectID,
		RequestedByUserID: req.RequestedByUserID,
		RequestedToUserID: req.RequestedToUserID,
		RequestMessage:    req.RequestMessage,
		Status:            models.PartnershipStatusPending,
		CreatedAt:         createdAt,
		RequestYear:       dims.Year,
		RequestQuarter:    dims.Quarter,
		RequestMonth:      dims.Month,
	}
	if err := s.repo.Create(ctx, partnership); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create partnership")
	}

	s.notify(ctx, EventPartnershipCreated, partnership)
	return s.detail(ctx, partnership.ID)
}

// Approve moves a PENDING partnership into the active family. The exclusivity
// probe plus the status-guarded write form the atomic unit: when two approvals
// race for the same course or project, exactly one write lands.
func (s *PartnershipService) Approve(ctx context.Context, id string, req RespondRequest) (*models.PartnershipDetail, error) {
	partnership, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if partnership.Status != models.PartnershipStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only pending partnerships can be approved")
	}

	conflict, err := s.repo.FindActiveByCourseOrProject(ctx, partnership.CourseID, partnership.ProjectID, partnership.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active partnerships")
	}
	if conflict != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course/project already in an active partnership")
	}

	now := s.now()
	approvalDays := models.DaysBetween(partnership.CreatedAt, now)
	partnership.Status = models.PartnershipStatusApproved
	partnership.ApprovedAt = &now
	partnership.ApprovalTimeInDays = &approvalDays
	if req.ResponseMessage != nil {
		partnership.ResponseMessage = req.ResponseMessage
	}

	// APPROVED is a transient instant when dates already exist: the stored
	// status is refined straight to the date-derived one.
	if partnership.HasDates() {
		resolved := models.ResolveLifecycle(*partnership.StartDate, *partnership.EndDate, now, false)
		if resolved == models.LifecycleUpcoming || resolved == models.LifecycleOngoing {
			partnership.Status = resolved.PartnershipStatus()
		}
	}

	if err := s.commit(ctx, partnership, models.PartnershipStatusPending); err != nil {
		return nil, err
	}

	s.notify(ctx, EventPartnershipApproved, partnership)
	return s.detail(ctx, partnership.ID)
}

// Reject declines a PENDING partnership. Terminal.
func (s *PartnershipService) Reject(ctx context.Context, id string, req RespondRequest) (*models.PartnershipDetail, error) {
	partnership, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if partnership.Status != models.PartnershipStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only pending partnerships can be rejected")
	}

	now := s.now()
	partnership.Status = models.PartnershipStatusRejected
	partnership.RejectedAt = &now
	if req.ResponseMessage != nil {
		partnership.ResponseMessage = req.ResponseMessage
	}
	if err := s.commit(ctx, partnership, models.PartnershipStatusPending); err != nil {
		return nil, err
	}

	s.notify(ctx, EventPartnershipRejected, partnership)
	return s.detail(ctx, partnership.ID)
}

// Cancel withdraws a PENDING partnership. Canceling an approved partnership is
// not supported. Terminal.
func (s *PartnershipService) Cancel(ctx context.Context, id string) (*models.PartnershipDetail, error) {
	partnership, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if partnership.Status != models.PartnershipStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only pending partnerships can be canceled")
	}

	now := s.now()
	partnership.Status = models.PartnershipStatusCanceled
	partnership.CanceledAt = &now
	if err := s.commit(ctx, partnership, models.PartnershipStatusPending); err != nil {
		return nil, err
	}

	s.notify(ctx, EventPartnershipCanceled, partnership)
	return s.detail(ctx, partnership.ID)
}

// Complete finishes an active partnership, optionally recording success
// metrics. Terminal.
func (s *PartnershipService) Complete(ctx context.Context, id string, req CompletePartnershipRequest) (*models.PartnershipDetail, error) {
	if req.Metrics != nil {
		if err := s.validator.Struct(req.Metrics); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "success metrics out of range")
		}
	}

	partnership, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !partnership.Status.IsActive() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only active partnerships can be completed")
	}

	previous := partnership.Status
	s.applyCompletion(partnership, s.now())
	if req.Metrics != nil {
		partnership.Satisfaction = req.Metrics.Satisfaction
		partnership.CompletionRate = req.Metrics.CompletionRate
		partnership.GoalAchievement = req.Metrics.GoalAchievement
	}
	if err := s.commit(ctx, partnership, previous); err != nil {
		return nil, err
	}

	s.notify(ctx, EventPartnershipCompleted, partnership)
	return s.detail(ctx, partnership.ID)
}

// SetDates sets the schedule window of an active partnership and mirrors the
// resolved lifecycle status into the primary status.
func (s *PartnershipService) SetDates(ctx context.Context, id string, req SetDatesRequest) (*models.PartnershipDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dates payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must be before end date")
	}

	partnership, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !partnership.Status.IsActive() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "dates can only be set on an active partnership")
	}

	previous := partnership.Status
	start := req.StartDate
	end := req.EndDate
	partnership.StartDate = &start
	partnership.EndDate = &end

	completed := s.applyResolution(partnership, s.now())
	if err := s.commit(ctx, partnership, previous); err != nil {
		return nil, err
	}
	if completed {
		s.notify(ctx, EventPartnershipCompleted, partnership)
	}
	return s.detail(ctx, partnership.ID)
}

// RefreshLifecycle recomputes the date-derived status of one partnership
// against the current time. Idempotent; a resolution of COMPLETED acts as an
// automatic completion.
func (s *PartnershipService) RefreshLifecycle(ctx context.Context, id string) (*models.PartnershipDetail, error) {
	partnership, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !partnership.Status.IsActive() || !partnership.HasDates() {
		return s.detail(ctx, partnership.ID)
	}

	previous := partnership.Status
	completed := s.applyResolution(partnership, s.now())
	if partnership.Status == previous {
		return s.detail(ctx, partnership.ID)
	}
	if err := s.commit(ctx, partnership, previous); err != nil {
		return nil, err
	}
	if completed {
		s.notify(ctx, EventPartnershipCompleted, partnership)
	}
	return s.detail(ctx, partnership.ID)
}

// RefreshDueLifecycles sweeps every active partnership with a schedule window
// and refreshes its lifecycle status. Safe to re-run; records that lost a
// concurrent race are skipped. Returns the number of refreshed records.
func (s *PartnershipService) RefreshDueLifecycles(ctx context.Context) (int, error) {
	due, err := s.repo.ListDueForRefresh(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list refreshable partnerships")
	}

	refreshed := 0
	for i := range due {
		partnership := due[i]
		previous := partnership.Status
		completed := s.applyResolution(&partnership, s.now())
		if partnership.Status == previous {
			continue
		}
		if err := s.repo.UpdateTransition(ctx, &partnership, previous); err != nil {
			if errors.Is(err, repository.ErrStaleStatus) || errors.Is(err, repository.ErrExclusivityViolation) {
				continue
			}
			s.logger.Error("lifecycle refresh failed",
				zap.String("partnership_id", partnership.ID), zap.Error(err))
			continue
		}
		refreshed++
		if completed {
			s.notify(ctx, EventPartnershipCompleted, &partnership)
		}
	}
	return refreshed, nil
}

// AppendMessage adds a conversation entry. Messaging is deliberately not gated
// by status, so parties can keep a retrospective log on finished partnerships.
func (s *PartnershipService) AppendMessage(ctx context.Context, id string, req AppendMessageRequest) (*models.PartnershipDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}

	partnership, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	msg := &models.PartnershipMessage{
		PartnershipID: partnership.ID,
		UserID:        req.UserID,
		Body:          req.Body,
		SentAt:        s.now(),
	}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append message")
	}
	return s.detail(ctx, partnership.ID)
}

// applyCompletion performs the COMPLETE transition side effects.
func (s *PartnershipService) applyCompletion(p *models.Partnership, now time.Time) {
	p.Status = models.PartnershipStatusComplete
	p.CompletedAt = &now
	p.IsComplete = true
	if p.ApprovedAt != nil {
		duration := models.DaysBetween(*p.ApprovedAt, now)
		p.PartnershipDurationInDays = &duration
	}
}

// applyResolution mirrors the date-derived lifecycle status into the primary
// status. Returns true when the resolution completed the partnership.
func (s *PartnershipService) applyResolution(p *models.Partnership, now time.Time) bool {
	resolved := models.ResolveLifecycle(*p.StartDate, *p.EndDate, now, p.IsComplete)
	if resolved == models.LifecycleCompleted {
		if !p.IsComplete {
			s.applyCompletion(p, now)
			return true
		}
		p.Status = models.PartnershipStatusComplete
		return false
	}
	p.Status = resolved.PartnershipStatus()
	return false
}

func (s *PartnershipService) load(ctx context.Context, id string) (*models.Partnership, error) {
	partnership, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "partnership not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load partnership")
	}
	return partnership, nil
}

func (s *PartnershipService) detail(ctx context.Context, id string) (*models.PartnershipDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load partnership detail")
	}
	return detail, nil
}

// commit writes the transition guarded by the status the caller read and maps
// the race outcomes onto the conflict error.
func (s *PartnershipService) commit(ctx context.Context, p *models.Partnership, expected models.PartnershipStatus) error {
	if err := s.repo.UpdateTransition(ctx, p, expected); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) || errors.Is(err, repository.ErrExclusivityViolation) {
			return appErrors.Clone(appErrors.ErrConflict, "partnership was modified concurrently")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist transition")
	}
	return nil
}

// notify publishes a transition event. Failures are logged and swallowed: the
// transition is already committed and must not be rolled back or blocked.
func (s *PartnershipService) notify(ctx context.Context, event string, p *models.Partnership) {
	if s.metrics != nil {
		s.metrics.RecordTransition(event)
	}
	if s.analytics != nil {
		s.analytics.InvalidateSummaries(ctx)
	}
	if s.notifier == nil {
		return
	}
	payload := TransitionEvent{
		Event:         event,
		PartnershipID: p.ID,
		CourseID:      p.CourseID,
		ProjectID:     p.ProjectID,
		Status:        p.Status,
		OccurredAt:    s.now(),
	}
	if err := s.notifier.Notify(ctx, payload); err != nil {
		s.logger.Warn("partnership event publish failed",
			zap.String("event", event),
			zap.String("partnership_id", p.ID),
			zap.Error(err))
	}
}

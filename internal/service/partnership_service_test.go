package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/cip-api/internal/models"
	"github.com/noah-isme/cip-api/internal/repository"
)

type mockPartnershipRepo struct {
	mu           sync.Mutex
	partnerships map[string]models.Partnership
	messages     map[string][]models.PartnershipMessage
	nextID       int
}

func newMockPartnershipRepo(seed ...models.Partnership) *mockPartnershipRepo {
	repo := &mockPartnershipRepo{
		partnerships: make(map[string]models.Partnership),
		messages:     make(map[string][]models.PartnershipMessage),
	}
	for _, p := range seed {
		repo.partnerships[p.ID] = p
	}
	return repo
}

func (m *mockPartnershipRepo) List(ctx context.Context, filter models.PartnershipFilter) ([]models.Partnership, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []models.Partnership
	for _, p := range m.partnerships {
		list = append(list, p)
	}
	return list, len(list), nil
}

func (m *mockPartnershipRepo) FindByID(ctx context.Context, id string) (*models.Partnership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.partnerships[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPartnershipRepo) FindDetailByID(ctx context.Context, id string) (*models.PartnershipDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.partnerships[id]; ok {
		return &models.PartnershipDetail{Partnership: p, Messages: m.messages[id]}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPartnershipRepo) FindActiveByCourseOrProject(ctx context.Context, courseID, projectID, excludeID string) (*models.Partnership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.partnerships {
		if p.ID == excludeID || !p.Status.IsActive() {
			continue
		}
		if p.CourseID == courseID || p.ProjectID == projectID {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (m *mockPartnershipRepo) Create(ctx context.Context, p *models.Partnership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		m.nextID++
		p.ID = fmt.Sprintf("p-%d", m.nextID)
	}
	m.partnerships[p.ID] = *p
	return nil
}

// UpdateTransition mirrors the production semantics: the write only lands when
// the stored status still matches, and an approve landing on a course/project
// that already carries an active partnership trips the exclusivity guard.
func (m *mockPartnershipRepo) UpdateTransition(ctx context.Context, p *models.Partnership, expected models.PartnershipStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.partnerships[p.ID]
	if !ok || current.Status != expected {
		return repository.ErrStaleStatus
	}
	if p.Status.IsActive() {
		for _, other := range m.partnerships {
			if other.ID == p.ID || !other.Status.IsActive() {
				continue
			}
			if other.CourseID == p.CourseID || other.ProjectID == p.ProjectID {
				return repository.ErrExclusivityViolation
			}
		}
	}
	m.partnerships[p.ID] = *p
	return nil
}

func (m *mockPartnershipRepo) AppendMessage(ctx context.Context, msg *models.PartnershipMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.partnerships[msg.PartnershipID]; !ok {
		return sql.ErrNoRows
	}
	m.messages[msg.PartnershipID] = append(m.messages[msg.PartnershipID], *msg)
	return nil
}

func (m *mockPartnershipRepo) ListDueForRefresh(ctx context.Context) ([]models.Partnership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []models.Partnership
	for _, p := range m.partnerships {
		if p.Status.IsActive() && p.StartDate != nil && p.EndDate != nil {
			due = append(due, p)
		}
	}
	return due, nil
}

type mockNotifier struct {
	mu     sync.Mutex
	events []TransitionEvent
	err    error
}

func (m *mockNotifier) Notify(ctx context.Context, event TransitionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockNotifier) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []string
	for _, e := range m.events {
		types = append(types, e.Event)
	}
	return types
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(repo *mockPartnershipRepo, notifier *mockNotifier, now time.Time) *PartnershipService {
	return NewPartnershipService(repo, notifier, nil, nil, validator.New(), zap.NewNop(), fixedClock(now))
}

type mockInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (m *mockInvalidator) InvalidateSummaries(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
}

func (m *mockInvalidator) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func pendingPartnership(id, courseID, projectID string, createdAt time.Time) models.Partnership {
	dims := models.DeriveTimeDimensions(createdAt)
	return models.Partnership{
		ID:                id,
		CourseID:          courseID,
		ProjectID:         projectID,
		RequestedByUserID: "u-lecturer",
		RequestedToUserID: "u-industry",
		Status:            models.PartnershipStatusPending,
		CreatedAt:         createdAt,
		RequestYear:       dims.Year,
		RequestQuarter:    dims.Quarter,
		RequestMonth:      dims.Month,
	}
}

func TestPartnershipServiceCreate(t *testing.T) {
	repo := newMockPartnershipRepo()
	notifier := &mockNotifier{}
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, notifier, now)

	detail, err := svc.Create(context.Background(), CreatePartnershipRequest{
		CourseID:          "c1",
		ProjectID:         "p1",
		RequestedByUserID: "u1",
		RequestedToUserID: "u2",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusPending, detail.Status)
	assert.Equal(t, now, detail.CreatedAt)
	assert.Equal(t, 2026, detail.RequestYear)
	assert.Equal(t, 3, detail.RequestQuarter)
	assert.Equal(t, 8, detail.RequestMonth)
	assert.Equal(t, []string{EventPartnershipCreated}, notifier.eventTypes())
}

func TestPartnershipServiceCreateValidation(t *testing.T) {
	svc := newTestService(newMockPartnershipRepo(), nil, time.Now().UTC())

	_, err := svc.Create(context.Background(), CreatePartnershipRequest{CourseID: "c1"})
	require.Error(t, err)

	// requester and requestee must differ
	_, err = svc.Create(context.Background(), CreatePartnershipRequest{
		CourseID:          "c1",
		ProjectID:         "p1",
		RequestedByUserID: "u1",
		RequestedToUserID: "u1",
	})
	require.Error(t, err)
}

func TestPartnershipServiceApprove(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	now := createdAt.AddDate(0, 0, 5)
	repo := newMockPartnershipRepo(pendingPartnership("p1", "c1", "pr1", createdAt))
	notifier := &mockNotifier{}
	svc := newTestService(repo, notifier, now)

	msg := "welcome aboard"
	detail, err := svc.Approve(context.Background(), "p1", RespondRequest{ResponseMessage: &msg})
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusApproved, detail.Status)
	require.NotNil(t, detail.ApprovedAt)
	assert.Equal(t, now, *detail.ApprovedAt)
	require.NotNil(t, detail.ApprovalTimeInDays)
	assert.Equal(t, 5, *detail.ApprovalTimeInDays)
	assert.Equal(t, &msg, detail.ResponseMessage)
	assert.Equal(t, []string{EventPartnershipApproved}, notifier.eventTypes())
}

func TestPartnershipServiceApproveRefinesStatusFromDates(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	now := createdAt.AddDate(0, 0, 2)
	p := pendingPartnership("p1", "c1", "pr1", createdAt)
	start := now.AddDate(0, 0, -1)
	end := now.AddDate(0, 0, 30)
	p.StartDate = &start
	p.EndDate = &end
	repo := newMockPartnershipRepo(p)
	svc := newTestService(repo, &mockNotifier{}, now)

	detail, err := svc.Approve(context.Background(), "p1", RespondRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusOngoing, detail.Status)

	// future window refines to UPCOMING instead
	p2 := pendingPartnership("p2", "c2", "pr2", createdAt)
	futureStart := now.AddDate(0, 1, 0)
	futureEnd := now.AddDate(0, 2, 0)
	p2.StartDate = &futureStart
	p2.EndDate = &futureEnd
	repo2 := newMockPartnershipRepo(p2)
	svc2 := newTestService(repo2, &mockNotifier{}, now)

	detail, err = svc2.Approve(context.Background(), "p2", RespondRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusUpcoming, detail.Status)
}

func TestPartnershipServiceApproveConflict(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	now := createdAt.AddDate(0, 0, 3)
	active := pendingPartnership("p1", "c1", "pr1", createdAt)
	active.Status = models.PartnershipStatusApproved
	// same course, different project
	second := pendingPartnership("p2", "c1", "pr2", createdAt)
	repo := newMockPartnershipRepo(active, second)
	svc := newTestService(repo, &mockNotifier{}, now)

	_, err := svc.Approve(context.Background(), "p2", RespondRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "active partnership")

	got, ferr := repo.FindByID(context.Background(), "p2")
	require.NoError(t, ferr)
	assert.Equal(t, models.PartnershipStatusPending, got.Status)
}

func TestPartnershipServiceApproveConcurrent(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	now := createdAt.AddDate(0, 0, 1)
	first := pendingPartnership("p1", "c1", "pr1", createdAt)
	second := pendingPartnership("p2", "c1", "pr2", createdAt)
	repo := newMockPartnershipRepo(first, second)
	svc := newTestService(repo, &mockNotifier{}, now)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"p1", "p2"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.Approve(context.Background(), id, RespondRequest{})
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one approval for the shared course may land")

	active := 0
	for _, id := range []string{"p1", "p2"} {
		p, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		if p.Status.IsActive() {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestPartnershipServiceReject(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	now := createdAt.AddDate(0, 0, 2)
	repo := newMockPartnershipRepo(pendingPartnership("p1", "c1", "pr1", createdAt))
	notifier := &mockNotifier{}
	svc := newTestService(repo, notifier, now)

	detail, err := svc.Reject(context.Background(), "p1", RespondRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusRejected, detail.Status)
	require.NotNil(t, detail.RejectedAt)
	assert.Equal(t, []string{EventPartnershipRejected}, notifier.eventTypes())

	// a rejected partnership is terminal
	_, err = svc.Approve(context.Background(), "p1", RespondRequest{})
	require.Error(t, err)
	got, ferr := repo.FindByID(context.Background(), "p1")
	require.NoError(t, ferr)
	assert.Equal(t, models.PartnershipStatusRejected, got.Status)
}

func TestPartnershipServiceCancelOnlyFromPending(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	pending := pendingPartnership("p1", "c1", "pr1", createdAt)
	approved := pendingPartnership("p2", "c2", "pr2", createdAt)
	approved.Status = models.PartnershipStatusApproved
	repo := newMockPartnershipRepo(pending, approved)
	svc := newTestService(repo, &mockNotifier{}, createdAt.AddDate(0, 0, 1))

	detail, err := svc.Cancel(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusCanceled, detail.Status)
	require.NotNil(t, detail.CanceledAt)

	_, err = svc.Cancel(context.Background(), "p2")
	require.Error(t, err)
	got, ferr := repo.FindByID(context.Background(), "p2")
	require.NoError(t, ferr)
	assert.Equal(t, models.PartnershipStatusApproved, got.Status)
}

func TestPartnershipServiceComplete(t *testing.T) {
	createdAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	approvedAt := createdAt.AddDate(0, 0, 4)
	now := approvedAt.AddDate(0, 0, 60)
	p := pendingPartnership("p1", "c1", "pr1", createdAt)
	p.Status = models.PartnershipStatusOngoing
	p.ApprovedAt = &approvedAt
	repo := newMockPartnershipRepo(p)
	notifier := &mockNotifier{}
	svc := newTestService(repo, notifier, now)

	sat := 9.0
	rate := 95.0
	goal := 88.0
	detail, err := svc.Complete(context.Background(), "p1", CompletePartnershipRequest{
		Metrics: &models.SuccessMetrics{Satisfaction: &sat, CompletionRate: &rate, GoalAchievement: &goal},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusComplete, detail.Status)
	assert.True(t, detail.IsComplete)
	require.NotNil(t, detail.CompletedAt)
	require.NotNil(t, detail.PartnershipDurationInDays)
	assert.Equal(t, 60, *detail.PartnershipDurationInDays)
	assert.Equal(t, &sat, detail.Satisfaction)
	assert.Equal(t, []string{EventPartnershipCompleted}, notifier.eventTypes())

	// timestamp monotonicity
	assert.True(t, !detail.CreatedAt.After(*detail.ApprovedAt))
	assert.True(t, !detail.ApprovedAt.After(*detail.CompletedAt))
}

func TestPartnershipServiceCompleteMetricsOutOfRange(t *testing.T) {
	createdAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	p := pendingPartnership("p1", "c1", "pr1", createdAt)
	p.Status = models.PartnershipStatusApproved
	repo := newMockPartnershipRepo(p)
	svc := newTestService(repo, nil, createdAt.AddDate(0, 0, 10))

	bad := 11.0
	_, err := svc.Complete(context.Background(), "p1", CompletePartnershipRequest{
		Metrics: &models.SuccessMetrics{Satisfaction: &bad},
	})
	require.Error(t, err)
	got, ferr := repo.FindByID(context.Background(), "p1")
	require.NoError(t, ferr)
	assert.Equal(t, models.PartnershipStatusApproved, got.Status)
}

func TestPartnershipServiceCompleteInvalidState(t *testing.T) {
	createdAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := newMockPartnershipRepo(pendingPartnership("p1", "c1", "pr1", createdAt))
	svc := newTestService(repo, nil, createdAt.AddDate(0, 0, 1))

	_, err := svc.Complete(context.Background(), "p1", CompletePartnershipRequest{})
	require.Error(t, err)
}

func TestPartnershipServiceSetDates(t *testing.T) {
	createdAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	now := createdAt.AddDate(0, 0, 10)
	p := pendingPartnership("p1", "c1", "pr1", createdAt)
	p.Status = models.PartnershipStatusApproved
	repo := newMockPartnershipRepo(p)
	svc := newTestService(repo, &mockNotifier{}, now)

	detail, err := svc.SetDates(context.Background(), "p1", SetDatesRequest{
		StartDate: now.AddDate(0, 0, -1),
		EndDate:   now.AddDate(0, 0, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusOngoing, detail.Status)

	_, err = svc.SetDates(context.Background(), "p1", SetDatesRequest{
		StartDate: now.AddDate(0, 0, 30),
		EndDate:   now.AddDate(0, 0, 10),
	})
	require.Error(t, err)
}

func TestPartnershipServiceRefreshLifecycleOngoing(t *testing.T) {
	createdAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	now := createdAt.AddDate(0, 0, 20)
	p := pendingPartnership("p1", "c1", "pr1", createdAt)
	p.Status = models.PartnershipStatusApproved
	start := now.AddDate(0, 0, -1)
	end := now.AddDate(0, 0, 1)
	p.StartDate = &start
	p.EndDate = &end
	repo := newMockPartnershipRepo(p)
	svc := newTestService(repo, &mockNotifier{}, now)

	detail, err := svc.RefreshLifecycle(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusOngoing, detail.Status)

	// idempotent: a second refresh is a no-op
	detail, err = svc.RefreshLifecycle(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusOngoing, detail.Status)
}

func TestPartnershipServiceRefreshLifecycleAutoComplete(t *testing.T) {
	createdAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	approvedAt := createdAt.AddDate(0, 0, 3)
	now := createdAt.AddDate(0, 6, 0)
	p := pendingPartnership("p1", "c1", "pr1", createdAt)
	p.Status = models.PartnershipStatusOngoing
	p.ApprovedAt = &approvedAt
	start := createdAt.AddDate(0, 0, 5)
	end := createdAt.AddDate(0, 2, 0)
	p.StartDate = &start
	p.EndDate = &end
	repo := newMockPartnershipRepo(p)
	notifier := &mockNotifier{}
	svc := newTestService(repo, notifier, now)

	detail, err := svc.RefreshLifecycle(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusComplete, detail.Status)
	assert.True(t, detail.IsComplete)
	require.NotNil(t, detail.CompletedAt)
	require.NotNil(t, detail.PartnershipDurationInDays)
	assert.Equal(t, []string{EventPartnershipCompleted}, notifier.eventTypes())
}

func TestPartnershipServiceRefreshDueLifecycles(t *testing.T) {
	createdAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	now := createdAt.AddDate(0, 6, 0)

	overdue := pendingPartnership("p1", "c1", "pr1", createdAt)
	overdue.Status = models.PartnershipStatusOngoing
	s1 := createdAt.AddDate(0, 0, 5)
	e1 := createdAt.AddDate(0, 1, 0)
	overdue.StartDate = &s1
	overdue.EndDate = &e1

	current := pendingPartnership("p2", "c2", "pr2", createdAt)
	current.Status = models.PartnershipStatusOngoing
	s2 := now.AddDate(0, 0, -5)
	e2 := now.AddDate(0, 1, 0)
	current.StartDate = &s2
	current.EndDate = &e2

	noDates := pendingPartnership("p3", "c3", "pr3", createdAt)
	noDates.Status = models.PartnershipStatusApproved

	repo := newMockPartnershipRepo(overdue, current, noDates)
	svc := newTestService(repo, &mockNotifier{}, now)

	refreshed, err := svc.RefreshDueLifecycles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)

	got, ferr := repo.FindByID(context.Background(), "p1")
	require.NoError(t, ferr)
	assert.Equal(t, models.PartnershipStatusComplete, got.Status)
	got, ferr = repo.FindByID(context.Background(), "p2")
	require.NoError(t, ferr)
	assert.Equal(t, models.PartnershipStatusOngoing, got.Status)

	// re-entrant: a second sweep finds nothing to do
	refreshed, err = svc.RefreshDueLifecycles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, refreshed)
}

func TestPartnershipServiceAppendMessage(t *testing.T) {
	createdAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	completed := pendingPartnership("p1", "c1", "pr1", createdAt)
	completed.Status = models.PartnershipStatusComplete
	completed.IsComplete = true
	repo := newMockPartnershipRepo(completed)
	svc := newTestService(repo, nil, createdAt.AddDate(0, 3, 0))

	// messaging is permitted even on terminal partnerships
	detail, err := svc.AppendMessage(context.Background(), "p1", AppendMessageRequest{UserID: "u1", Body: "retrospective notes"})
	require.NoError(t, err)
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, "retrospective notes", detail.Messages[0].Body)

	detail, err = svc.AppendMessage(context.Background(), "p1", AppendMessageRequest{UserID: "u2", Body: "thanks"})
	require.NoError(t, err)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "retrospective notes", detail.Messages[0].Body, "log is append-only")

	_, err = svc.AppendMessage(context.Background(), "missing", AppendMessageRequest{UserID: "u1", Body: "x"})
	require.Error(t, err)
}

func TestPartnershipServiceNotifierFailureDoesNotAbort(t *testing.T) {
	createdAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := newMockPartnershipRepo(pendingPartnership("p1", "c1", "pr1", createdAt))
	notifier := &mockNotifier{err: assert.AnError}
	svc := newTestService(repo, notifier, createdAt.AddDate(0, 0, 1))

	detail, err := svc.Approve(context.Background(), "p1", RespondRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipStatusApproved, detail.Status)
}

func TestPartnershipServiceNotFound(t *testing.T) {
	svc := newTestService(newMockPartnershipRepo(), nil, time.Now().UTC())

	_, err := svc.Approve(context.Background(), "missing", RespondRequest{})
	require.Error(t, err)
	_, err = svc.Get(context.Background(), "missing")
	require.Error(t, err)
	_, err = svc.RefreshLifecycle(context.Background(), "missing")
	require.Error(t, err)
}

func TestPartnershipServiceTransitionsInvalidateAnalytics(t *testing.T) {
	createdAt := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := newMockPartnershipRepo(pendingPartnership("p1", "c1", "pr1", createdAt))
	invalidator := &mockInvalidator{}
	svc := NewPartnershipService(repo, nil, nil, invalidator, validator.New(), zap.NewNop(), fixedClock(createdAt.AddDate(0, 0, 1)))

	_, err := svc.Create(context.Background(), CreatePartnershipRequest{
		CourseID:          "c2",
		ProjectID:         "pr2",
		RequestedByUserID: "u1",
		RequestedToUserID: "u2",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, invalidator.count())

	_, err = svc.Approve(context.Background(), "p1", RespondRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, invalidator.count(), "cached rollups must be dropped on every transition")
}

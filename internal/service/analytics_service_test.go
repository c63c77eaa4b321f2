package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/cip-api/internal/models"
	"github.com/noah-isme/cip-api/internal/repository"
)

type mockAnalyticsRepo struct {
	counts  []models.AnalyticsStatusCount
	buckets []models.AnalyticsRequestBucket
	avgs    repository.AnalyticsAverages
	calls   int
}

func (m *mockAnalyticsRepo) StatusCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.AnalyticsStatusCount, error) {
	m.calls++
	return m.counts, nil
}

func (m *mockAnalyticsRepo) RequestBuckets(ctx context.Context, filter models.AnalyticsFilter) ([]models.AnalyticsRequestBucket, error) {
	return m.buckets, nil
}

func (m *mockAnalyticsRepo) Averages(ctx context.Context, filter models.AnalyticsFilter) (*repository.AnalyticsAverages, error) {
	avgs := m.avgs
	return &avgs, nil
}

func float64Ptr(v float64) *float64 { return &v }

func TestAnalyticsServiceSummary(t *testing.T) {
	repo := &mockAnalyticsRepo{
		counts: []models.AnalyticsStatusCount{
			{Status: models.PartnershipStatusPending, Count: 3},
			{Status: models.PartnershipStatusOngoing, Count: 2},
			{Status: models.PartnershipStatusComplete, Count: 5},
		},
		buckets: []models.AnalyticsRequestBucket{
			{Year: 2026, Quarter: 1, Month: 2, Requests: 4},
			{Year: 2026, Quarter: 3, Month: 8, Requests: 6},
		},
		avgs: repository.AnalyticsAverages{
			ApprovalDays:    float64Ptr(4.5),
			DurationDays:    float64Ptr(61),
			Satisfaction:    float64Ptr(8.2),
			CompletionRate:  float64Ptr(91),
			GoalAchievement: float64Ptr(84),
		},
	}
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := NewAnalyticsService(repo, nil, nil, zap.NewNop(), func() time.Time { return now })

	summary, cached, err := svc.Summary(context.Background(), models.AnalyticsFilter{Year: 2026})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 10, summary.TotalRequests)
	assert.Len(t, summary.RequestBuckets, 2)
	assert.InDelta(t, 4.5, summary.AverageApprovalDays, 0.001)
	assert.InDelta(t, 8.2, summary.AverageSatisfaction, 0.001)
	assert.Equal(t, now, summary.GeneratedAt)
}

func TestAnalyticsServiceSummaryEmpty(t *testing.T) {
	svc := NewAnalyticsService(&mockAnalyticsRepo{}, nil, nil, zap.NewNop(), nil)

	summary, _, err := svc.Summary(context.Background(), models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalRequests)
	assert.Zero(t, summary.AverageApprovalDays)
	assert.Zero(t, summary.AverageGoalAchievement)
}

func TestMakeAnalyticsCacheKey(t *testing.T) {
	assert.Equal(t, "analytics:partnerships:2026:3", makeAnalyticsCacheKey("partnerships", "2026", "3", ""))
	assert.Equal(t, "analytics:partnerships", makeAnalyticsCacheKey("partnerships"))
	assert.Equal(t, "analytics:a|b", makeAnalyticsCacheKey("a:b"))
}

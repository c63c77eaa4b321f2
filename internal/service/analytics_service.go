package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cip-api/internal/models"
	"github.com/noah-isme/cip-api/internal/repository"
)

// AnalyticsRepository describes the persistence layer required by AnalyticsService.
type AnalyticsRepository interface {
	StatusCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.AnalyticsStatusCount, error)
	RequestBuckets(ctx context.Context, filter models.AnalyticsFilter) ([]models.AnalyticsRequestBucket, error)
	Averages(ctx context.Context, filter models.AnalyticsFilter) (*repository.AnalyticsAverages, error)
}

// AnalyticsService provides read-optimised access to partnership analytics with
// cache integration. All figures derive from the dimensions the state machine
// writes at transition time.
type AnalyticsService struct {
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, now func() time.Time) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, logger: logger, now: now}
}

// Summary returns the aggregated partnership analytics. The boolean indicates
// whether data originated from cache.
func (s *AnalyticsService) Summary(ctx context.Context, filter models.AnalyticsFilter) (*models.AnalyticsSummary, bool, error) {
	cacheKey := makeAnalyticsCacheKey("partnerships",
		formatInt(filter.Year), formatInt(filter.Quarter), filter.CourseID)
	var cached models.AnalyticsSummary
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get analytics cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	counts, err := s.repo.StatusCounts(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	buckets, err := s.repo.RequestBuckets(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	averages, err := s.repo.Averages(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_partnerships", time.Since(start))
	}

	total := 0
	for _, c := range counts {
		total += c.Count
	}
	summary := &models.AnalyticsSummary{
		TotalRequests:          total,
		StatusCounts:           counts,
		RequestBuckets:         buckets,
		AverageApprovalDays:    deref(averages.ApprovalDays),
		AverageDurationDays:    deref(averages.DurationDays),
		AverageSatisfaction:    deref(averages.Satisfaction),
		AverageCompletionRate:  deref(averages.CompletionRate),
		AverageGoalAchievement: deref(averages.GoalAchievement),
		GeneratedAt:            s.now(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil {
			s.logger.Warn("cache partnership analytics", zap.Error(err))
		}
	}
	return summary, false, nil
}

// SystemMetrics exposes the instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics(ctx context.Context) models.AnalyticsSystemMetrics {
	if s.metrics == nil {
		return models.AnalyticsSystemMetrics{}
	}
	return s.metrics.Snapshot()
}

// InvalidateSummaries drops cached analytics after a lifecycle transition.
func (s *AnalyticsService) InvalidateSummaries(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "analytics:partnerships*"); err != nil {
		s.logger.Warn("invalidate analytics cache", zap.Error(err))
	}
}

func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analytics")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}

func formatInt(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

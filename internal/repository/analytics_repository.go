package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cip-api/internal/models"
)

// AnalyticsRepository exposes read-optimised aggregation queries over the
// partnership table for the analytics endpoints.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func analyticsConditions(filter models.AnalyticsFilter) (string, []interface{}) {
	var builder strings.Builder
	builder.WriteString(" WHERE 1=1")
	var args []interface{}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		builder.WriteString(fmt.Sprintf(" AND request_year = $%d", len(args)))
	}
	if filter.Quarter > 0 {
		args = append(args, filter.Quarter)
		builder.WriteString(fmt.Sprintf(" AND request_quarter = $%d", len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		builder.WriteString(fmt.Sprintf(" AND course_id = $%d", len(args)))
	}
	return builder.String(), args
}

// StatusCounts returns the partnership funnel grouped by status.
func (r *AnalyticsRepository) StatusCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.AnalyticsStatusCount, error) {
	clause, args := analyticsConditions(filter)
	query := "SELECT status, COUNT(*) AS count FROM partnerships" + clause + " GROUP BY status ORDER BY status"
	var counts []models.AnalyticsStatusCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	return counts, nil
}

// RequestBuckets returns request volume grouped by calendar dimensions.
func (r *AnalyticsRepository) RequestBuckets(ctx context.Context, filter models.AnalyticsFilter) ([]models.AnalyticsRequestBucket, error) {
	clause, args := analyticsConditions(filter)
	query := `SELECT request_year, request_quarter, request_month, COUNT(*) AS requests FROM partnerships` +
		clause + ` GROUP BY request_year, request_quarter, request_month ORDER BY request_year, request_month`
	var buckets []models.AnalyticsRequestBucket
	if err := r.db.SelectContext(ctx, &buckets, query, args...); err != nil {
		return nil, fmt.Errorf("query request buckets: %w", err)
	}
	return buckets, nil
}

// AnalyticsAverages carries mean lifecycle and outcome metrics.
type AnalyticsAverages struct {
	ApprovalDays    *float64 `db:"avg_approval_days"`
	DurationDays    *float64 `db:"avg_duration_days"`
	Satisfaction    *float64 `db:"avg_satisfaction"`
	CompletionRate  *float64 `db:"avg_completion_rate"`
	GoalAchievement *float64 `db:"avg_goal_achievement"`
}

// Averages returns mean approval time, duration and success metrics.
func (r *AnalyticsRepository) Averages(ctx context.Context, filter models.AnalyticsFilter) (*AnalyticsAverages, error) {
	clause, args := analyticsConditions(filter)
	query := `SELECT AVG(approval_time_in_days) AS avg_approval_days,
AVG(partnership_duration_in_days) AS avg_duration_days,
AVG(satisfaction) AS avg_satisfaction,
AVG(completion_rate) AS avg_completion_rate,
AVG(goal_achievement) AS avg_goal_achievement
FROM partnerships` + clause
	var row AnalyticsAverages
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("query analytics averages: %w", err)
	}
	return &row, nil
}

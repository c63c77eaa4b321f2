package models

import "time"

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// AnalyticsFilter scopes partnership analytics queries.
type AnalyticsFilter struct {
	Year     int
	Quarter  int
	CourseID string
}

// AnalyticsRequestBucket aggregates request volume per calendar bucket.
type AnalyticsRequestBucket struct {
	Year     int `db:"request_year" json:"year"`
	Quarter  int `db:"request_quarter" json:"quarter"`
	Month    int `db:"request_month" json:"month"`
	Requests int `db:"requests" json:"requests"`
}

// AnalyticsStatusCount counts partnerships per status.
type AnalyticsStatusCount struct {
	Status PartnershipStatus `db:"status" json:"status"`
	Count  int               `db:"count" json:"count"`
}

// AnalyticsSummary aggregates lifecycle and outcome metrics for reporting.
type AnalyticsSummary struct {
	TotalRequests          int                      `json:"total_requests"`
	StatusCounts           []AnalyticsStatusCount   `json:"status_counts"`
	RequestBuckets         []AnalyticsRequestBucket `json:"request_buckets"`
	AverageApprovalDays    float64                  `json:"average_approval_days"`
	AverageDurationDays    float64                  `json:"average_duration_days"`
	AverageSatisfaction    float64                  `json:"average_satisfaction"`
	AverageCompletionRate  float64                  `json:"average_completion_rate"`
	AverageGoalAchievement float64                  `json:"average_goal_achievement"`
	GeneratedAt            time.Time                `json:"generated_at"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

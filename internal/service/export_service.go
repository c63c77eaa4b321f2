package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/cip-api/internal/models"
	"github.com/noah-isme/cip-api/pkg/export"
	appErrors "github.com/noah-isme/cip-api/pkg/errors"
)

// ExportFormat enumerates supported export renderings.
type ExportFormat string

// Supported export formats.
const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type analyticsSource interface {
	Summary(ctx context.Context, filter models.AnalyticsFilter) (*models.AnalyticsSummary, bool, error)
}

// ExportResult carries a rendered export and its content type.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders partnership analytics into downloadable files.
type ExportService struct {
	analytics analyticsSource
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(analytics analyticsSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{analytics: analytics, csv: csv, pdf: pdf, logger: logger}
}

// Generate renders the analytics summary for the filter in the requested format.
func (s *ExportService) Generate(ctx context.Context, filter models.AnalyticsFilter, format ExportFormat) (*ExportResult, error) {
	summary, _, err := s.analytics.Summary(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build analytics dataset")
	}
	dataset := buildSummaryDataset(summary)

	switch format {
	case ExportFormatCSV:
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Filename: exportFilename(filter, "csv"), ContentType: "text/csv", Body: body}, nil
	case ExportFormatPDF:
		body, err := s.pdf.Render(dataset, "Partnership Analytics")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Filename: exportFilename(filter, "pdf"), ContentType: "application/pdf", Body: body}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func buildSummaryDataset(summary *models.AnalyticsSummary) export.Dataset {
	headers := []string{"year", "quarter", "month", "requests"}
	rows := make([]map[string]string, 0, len(summary.RequestBuckets)+len(summary.StatusCounts))
	for _, bucket := range summary.RequestBuckets {
		rows = append(rows, map[string]string{
			"year":     strconv.Itoa(bucket.Year),
			"quarter":  strconv.Itoa(bucket.Quarter),
			"month":    strconv.Itoa(bucket.Month),
			"requests": strconv.Itoa(bucket.Requests),
		})
	}
	return export.Dataset{
		Headers: headers,
		Rows:    rows,
		Summary: map[string]string{
			"total_requests":           strconv.Itoa(summary.TotalRequests),
			"average_approval_days":    formatFloat(summary.AverageApprovalDays),
			"average_duration_days":    formatFloat(summary.AverageDurationDays),
			"average_satisfaction":     formatFloat(summary.AverageSatisfaction),
			"average_completion_rate":  formatFloat(summary.AverageCompletionRate),
			"average_goal_achievement": formatFloat(summary.AverageGoalAchievement),
		},
	}
}

func exportFilename(filter models.AnalyticsFilter, ext string) string {
	parts := []string{"partnership-analytics"}
	if filter.Year > 0 {
		parts = append(parts, strconv.Itoa(filter.Year))
	}
	if filter.Quarter > 0 {
		parts = append(parts, "q"+strconv.Itoa(filter.Quarter))
	}
	return strings.Join(parts, "-") + "." + ext
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

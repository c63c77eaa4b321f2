package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cip-api/internal/models"
	"github.com/noah-isme/cip-api/internal/service"
	appErrors "github.com/noah-isme/cip-api/pkg/errors"
	"github.com/noah-isme/cip-api/pkg/response"
)

// AnalyticsHandler exposes partnership analytics endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	exports   *service.ExportService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, exports *service.ExportService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, exports: exports}
}

func parseAnalyticsFilter(c *gin.Context) models.AnalyticsFilter {
	var filter models.AnalyticsFilter
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	if quarter, err := strconv.Atoi(c.Query("quarter")); err == nil {
		filter.Quarter = quarter
	}
	filter.CourseID = c.Query("courseId")
	return filter
}

// Summary godoc
// @Summary Partnership analytics summary
// @Tags Analytics
// @Produce json
// @Param year query int false "Filter by request year"
// @Param quarter query int false "Filter by request quarter"
// @Param courseId query string false "Filter by course"
// @Success 200 {object} response.Envelope
// @Router /analytics/partnerships [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, cacheHit, err := h.analytics.Summary(c.Request.Context(), parseAnalyticsFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cache_hit": cacheHit})
}

// Export godoc
// @Summary Export partnership analytics
// @Tags Analytics
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "Export format (csv or pdf)"
// @Param year query int false "Filter by request year"
// @Param quarter query int false "Filter by request quarter"
// @Success 200 {file} file
// @Router /analytics/partnerships/export [get]
func (h *AnalyticsHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.exports.Generate(c.Request.Context(), parseAnalyticsFilter(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Body)
}

// System godoc
// @Summary System instrumentation snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.analytics.SystemMetrics(c.Request.Context()), nil)
}

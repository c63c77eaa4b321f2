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

// PartnershipHandler exposes the partnership lifecycle endpoints.
type PartnershipHandler struct {
	partnerships *service.PartnershipService
}

// NewPartnershipHandler constructs PartnershipHandler.
func NewPartnershipHandler(partnerships *service.PartnershipService) *PartnershipHandler {
	return &PartnershipHandler{partnerships: partnerships}
}

// List godoc
// @Summary List partnerships
// @Tags Partnerships
// @Produce json
// @Param courseId query string false "Filter by course"
// @Param projectId query string false "Filter by project"
// @Param userId query string false "Filter by requesting or receiving user"
// @Param status query string false "Filter by status"
// @Param year query int false "Filter by request year"
// @Param quarter query int false "Filter by request quarter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /partnerships [get]
func (h *PartnershipHandler) List(c *gin.Context) {
	var filter models.PartnershipFilter
	filter.CourseID = c.Query("courseId")
	filter.ProjectID = c.Query("projectId")
	filter.UserID = c.Query("userId")
	filter.Status = models.PartnershipStatus(strings.ToUpper(c.Query("status")))
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.RequestYear = year
	}
	if quarter, err := strconv.Atoi(c.Query("quarter")); err == nil {
		filter.RequestQuarter = quarter
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	partnerships, pagination, err := h.partnerships.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partnerships, pagination)
}

// Get godoc
// @Summary Get partnership detail
// @Tags Partnerships
// @Produce json
// @Param id path string true "Partnership ID"
// @Success 200 {object} response.Envelope
// @Router /partnerships/{id} [get]
func (h *PartnershipHandler) Get(c *gin.Context) {
	partnership, err := h.partnerships.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partnership, nil)
}

// Create godoc
// @Summary Request a partnership
// @Tags Partnerships
// @Accept json
// @Produce json
// @Param payload body service.CreatePartnershipRequest true "Partnership request payload"
// @Success 201 {object} response.Envelope
// @Router /partnerships [post]
func (h *PartnershipHandler) Create(c *gin.Context) {
	var req service.CreatePartnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	partnership, err := h.partnerships.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, partnership)
}

// Approve godoc
// @Summary Approve a pending partnership
// @Tags Partnerships
// @Accept json
// @Produce json
// @Param id path string true "Partnership ID"
// @Param payload body service.RespondRequest false "Optional response message"
// @Success 200 {object} response.Envelope
// @Router /partnerships/{id}/approve [put]
func (h *PartnershipHandler) Approve(c *gin.Context) {
	req, err := bindOptionalRespond(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	partnership, err := h.partnerships.Approve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partnership, nil)
}

// Reject godoc
// @Summary Reject a pending partnership
// @Tags Partnerships
// @Accept json
// @Produce json
// @Param id path string true "Partnership ID"
// @Param payload body service.RespondRequest false "Optional response message"
// @Success 200 {object} response.Envelope
// @Router /partnerships/{id}/reject [put]
func (h *PartnershipHandler) Reject(c *gin.Context) {
	req, err := bindOptionalRespond(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	partnership, err := h.partnerships.Reject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partnership, nil)
}

// Cancel godoc
// @Summary Cancel a pending partnership
// @Tags Partnerships
// @Produce json
// @Param id path string true "Partnership ID"
// @Success 200 {object} response.Envelope
// @Router /partnerships/{id}/cancel [put]
func (h *PartnershipHandler) Cancel(c *gin.Context) {
	partnership, err := h.partnerships.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partnership, nil)
}

// Complete godoc
// @Summary Complete an active partnership
// @Tags Partnerships
// @Accept json
// @Produce json
// @Param id path string true "Partnership ID"
// @Param payload body service.CompletePartnershipRequest false "Optional success metrics"
// @Success 200 {object} response.Envelope
// @Router /partnerships/{id}/complete [put]
func (h *PartnershipHandler) Complete(c *gin.Context) {
	var req service.CompletePartnershipRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	partnership, err := h.partnerships.Complete(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partnership, nil)
}

// SetDates godoc
// @Summary Set the schedule window of an active partnership
// @Tags Partnerships
// @Accept json
// @Produce json
// @Param id path string true "Partnership ID"
// @Param payload body service.SetDatesRequest true "Schedule window"
// @Success 200 {object} response.Envelope
// @Router /partnerships/{id}/dates [put]
func (h *PartnershipHandler) SetDates(c *gin.Context) {
	var req service.SetDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	partnership, err := h.partnerships.SetDates(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partnership, nil)
}

// Refresh godoc
// @Summary Recompute the date-derived lifecycle status
// @Tags Partnerships
// @Produce json
// @Param id path string true "Partnership ID"
// @Success 200 {object} response.Envelope
// @Router /partnerships/{id}/refresh [put]
func (h *PartnershipHandler) Refresh(c *gin.Context) {
	partnership, err := h.partnerships.RefreshLifecycle(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partnership, nil)
}

// AppendMessage godoc
// @Summary Append a message to the partnership conversation
// @Tags Partnerships
// @Accept json
// @Produce json
// @Param id path string true "Partnership ID"
// @Param payload body service.AppendMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Router /partnerships/{id}/messages [post]
func (h *PartnershipHandler) AppendMessage(c *gin.Context) {
	var req service.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	partnership, err := h.partnerships.AppendMessage(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, partnership)
}

func bindOptionalRespond(c *gin.Context) (service.RespondRequest, error) {
	var req service.RespondRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
		}
	}
	return req, nil
}

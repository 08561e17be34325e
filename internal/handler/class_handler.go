package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/dto"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/middleware"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/response"
)

type classAssignmentService interface {
	ListByClass(ctx context.Context, classID, year string) ([]models.AssignmentDetail, error)
	Roster(ctx context.Context, classID, year string) (*models.ClassRoster, error)
}

type assignmentAuditor interface {
	ValidateClassYear(ctx context.Context, classID, year string) ([]models.Finding, error)
	Report(ctx context.Context) (*models.AuditReport, bool, error)
}

type attendanceSummarizer interface {
	ClassSummary(ctx context.Context, classID string, query dto.AttendanceSummaryQuery) (*models.AttendanceSummary, error)
}

// ClassHandler serves class-scoped assignment views and integrity reports.
type ClassHandler struct {
	assignments classAssignmentService
	auditor     assignmentAuditor
	summaries   attendanceSummarizer
}

// NewClassHandler constructs a class handler.
func NewClassHandler(assignments classAssignmentService, auditor assignmentAuditor, summaries attendanceSummarizer) *ClassHandler {
	return &ClassHandler{assignments: assignments, auditor: auditor, summaries: summaries}
}

// Assignments godoc
// @Summary List a class's assignments
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param year query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/assignments [get]
func (h *ClassHandler) Assignments(c *gin.Context) {
	items, err := h.assignments.ListByClass(c.Request.Context(), c.Param("id"), c.Query("year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Roster godoc
// @Summary Inspect a class for an academic year
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param year query string false "Academic year, defaults to current"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/roster [get]
func (h *ClassHandler) Roster(c *gin.Context) {
	roster, err := h.assignments.Roster(c.Request.Context(), c.Param("id"), c.Query("year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster)
}

// Findings godoc
// @Summary Validate one class and academic year
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param year query string true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/findings [get]
func (h *ClassHandler) Findings(c *gin.Context) {
	findings, err := h.auditor.ValidateClassYear(c.Request.Context(), c.Param("id"), c.Query("year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, findings, map[string]interface{}{"total": len(findings)})
}

// Audit godoc
// @Summary Validate every class and academic year
// @Tags Audits
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /audits/assignments [get]
func (h *ClassHandler) Audit(c *gin.Context) {
	report, hit, err := h.auditor.Report(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}

// AttendanceSummary godoc
// @Summary Summarize recorded student attendance of a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param year query string false "Academic year, defaults to current"
// @Param from query string false "First session date (YYYY-MM-DD)"
// @Param to query string false "Last session date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/attendance-summary [get]
func (h *ClassHandler) AttendanceSummary(c *gin.Context) {
	var query dto.AttendanceSummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid summary query"))
		return
	}
	summary, err := h.summaries.ClassSummary(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

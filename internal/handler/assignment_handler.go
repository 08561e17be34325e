package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/dto"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/response"
)

type assignmentService interface {
	Upsert(ctx context.Context, req dto.UpsertAssignmentRequest, actor *auth.Claims) (*models.UpsertAssignmentResult, error)
	Remove(ctx context.Context, req dto.RemoveAssignmentRequest, actor *auth.Claims) (*dto.RemoveAssignmentResult, error)
	ListByTeacher(ctx context.Context, teacherID, year string) ([]models.AssignmentDetail, error)
}

// AssignmentHandler exposes the teacher-class assignment store.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// Upsert godoc
// @Summary Create or update a teacher-class assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.UpsertAssignmentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [put]
func (h *AssignmentHandler) Upsert(c *gin.Context) {
	var req dto.UpsertAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	result, err := h.service.Upsert(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Created {
		response.Created(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Remove godoc
// @Summary Remove a teacher-class assignment
// @Tags Assignments
// @Produce json
// @Param teacherId query string true "Teacher ID"
// @Param classId query string true "Class ID"
// @Param academicYear query string true "Academic year"
// @Param ensureAbsent query bool false "Succeed when nothing to remove"
// @Success 200 {object} response.Envelope
// @Router /assignments [delete]
func (h *AssignmentHandler) Remove(c *gin.Context) {
	var req dto.RemoveAssignmentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment query"))
		return
	}
	result, err := h.service.Remove(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ListByTeacher godoc
// @Summary List a teacher's assignments
// @Tags Assignments
// @Produce json
// @Param id path string true "Teacher ID"
// @Param year query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/assignments [get]
func (h *AssignmentHandler) ListByTeacher(c *gin.Context) {
	items, err := h.service.ListByTeacher(c.Request.Context(), c.Param("id"), c.Query("year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

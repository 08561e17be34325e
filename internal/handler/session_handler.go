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

type sessionReader interface {
	Create(ctx context.Context, req dto.CreateSessionRequest, actor *auth.Claims) (*models.ClassSession, error)
	Get(ctx context.Context, id string) (*models.SessionDetail, error)
	Expected(ctx context.Context, id string) (*models.Expectation, error)
	Reconcile(ctx context.Context, id string) (*models.ReconciliationReport, error)
}

type attendanceRecorder interface {
	OpenSession(ctx context.Context, sessionID string, actor *auth.Claims) (*models.ClassSession, error)
	CloseSession(ctx context.Context, sessionID string, actor *auth.Claims) (*models.ClassSession, error)
	RecordTeacherPresence(ctx context.Context, sessionID string, req dto.RecordTeacherPresenceRequest, actor *auth.Claims) (*models.TeacherPresenceResult, error)
	RecordStudentAttendance(ctx context.Context, sessionID, studentID string, req dto.RecordStudentAttendanceRequest, actor *auth.Claims) (*models.StudentAttendanceResult, error)
}

// SessionHandler exposes session registration, lifecycle and attendance.
type SessionHandler struct {
	sessions sessionReader
	recorder attendanceRecorder
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(sessions sessionReader, recorder attendanceRecorder) *SessionHandler {
	return &SessionHandler{sessions: sessions, recorder: recorder}
}

// Create godoc
// @Summary Register a scheduled session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	session, err := h.sessions.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Get a session with records and reconciliation
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	detail, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Expected godoc
// @Summary Resolve who should attend a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /sessions/{id}/expected [get]
func (h *SessionHandler) Expected(c *gin.Context) {
	exp, err := h.sessions.Expected(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exp)
}

// Reconciliation godoc
// @Summary Compare recorded attendance with the expectation
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/reconciliation [get]
func (h *SessionHandler) Reconciliation(c *gin.Context) {
	report, err := h.sessions.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Open godoc
// @Summary Open a session for attendance
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/open [post]
func (h *SessionHandler) Open(c *gin.Context) {
	session, err := h.recorder.OpenSession(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// Close godoc
// @Summary Close a session and store its final reconciliation
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/close [post]
func (h *SessionHandler) Close(c *gin.Context) {
	session, err := h.recorder.CloseSession(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// RecordTeacher godoc
// @Summary Record a teacher's presence
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.RecordTeacherPresenceRequest true "Presence payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/teachers [post]
func (h *SessionHandler) RecordTeacher(c *gin.Context) {
	var req dto.RecordTeacherPresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid presence payload"))
		return
	}
	result, err := h.recorder.RecordTeacherPresence(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// RecordStudent godoc
// @Summary Record a student's attendance status
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.RecordStudentAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/students/{studentId} [put]
func (h *SessionHandler) RecordStudent(c *gin.Context) {
	var req dto.RecordStudentAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	result, err := h.recorder.RecordStudentAttendance(c.Request.Context(), c.Param("id"), c.Param("studentId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

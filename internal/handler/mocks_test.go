package handler

import (
	"context"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/dto"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
)

type assignmentServiceMock struct {
	upsertResp  *models.UpsertAssignmentResult
	upsertErr   error
	removeResp  *dto.RemoveAssignmentResult
	removeErr   error
	listResp    []models.AssignmentDetail
	listErr     error
	rosterResp  *models.ClassRoster
	rosterErr   error
	lastUpsert  dto.UpsertAssignmentRequest
	lastRemove  dto.RemoveAssignmentRequest
	lastActor   *auth.Claims
	lastID      string
	lastYear    string
	upsertCalls int
}

func (m *assignmentServiceMock) Upsert(ctx context.Context, req dto.UpsertAssignmentRequest, actor *auth.Claims) (*models.UpsertAssignmentResult, error) {
	m.upsertCalls++
	m.lastUpsert = req
	m.lastActor = actor
	return m.upsertResp, m.upsertErr
}

func (m *assignmentServiceMock) Remove(ctx context.Context, req dto.RemoveAssignmentRequest, actor *auth.Claims) (*dto.RemoveAssignmentResult, error) {
	m.lastRemove = req
	m.lastActor = actor
	return m.removeResp, m.removeErr
}

func (m *assignmentServiceMock) ListByTeacher(ctx context.Context, teacherID, year string) ([]models.AssignmentDetail, error) {
	m.lastID, m.lastYear = teacherID, year
	return m.listResp, m.listErr
}

func (m *assignmentServiceMock) ListByClass(ctx context.Context, classID, year string) ([]models.AssignmentDetail, error) {
	m.lastID, m.lastYear = classID, year
	return m.listResp, m.listErr
}

func (m *assignmentServiceMock) Roster(ctx context.Context, classID, year string) (*models.ClassRoster, error) {
	m.lastID, m.lastYear = classID, year
	return m.rosterResp, m.rosterErr
}

type auditorMock struct {
	findings  []models.Finding
	findErr   error
	report    *models.AuditReport
	hit       bool
	reportErr error
}

func (m *auditorMock) ValidateClassYear(ctx context.Context, classID, year string) ([]models.Finding, error) {
	return m.findings, m.findErr
}

func (m *auditorMock) Report(ctx context.Context) (*models.AuditReport, bool, error) {
	return m.report, m.hit, m.reportErr
}

type sessionServiceMock struct {
	createResp *models.ClassSession
	createErr  error
	detail     *models.SessionDetail
	getErr     error
	expected   *models.Expectation
	expErr     error
	report     *models.ReconciliationReport
	reportErr  error
	lastCreate dto.CreateSessionRequest
}

func (m *sessionServiceMock) Create(ctx context.Context, req dto.CreateSessionRequest, actor *auth.Claims) (*models.ClassSession, error) {
	m.lastCreate = req
	return m.createResp, m.createErr
}

func (m *sessionServiceMock) Get(ctx context.Context, id string) (*models.SessionDetail, error) {
	return m.detail, m.getErr
}

func (m *sessionServiceMock) Expected(ctx context.Context, id string) (*models.Expectation, error) {
	return m.expected, m.expErr
}

func (m *sessionServiceMock) Reconcile(ctx context.Context, id string) (*models.ReconciliationReport, error) {
	return m.report, m.reportErr
}

type recorderMock struct {
	session       *models.ClassSession
	sessionErr    error
	teacherResult *models.TeacherPresenceResult
	studentResult *models.StudentAttendanceResult
	writeErr      error
	lastSession   string
	lastStudent   string
	lastTeacher   dto.RecordTeacherPresenceRequest
	lastStatus    dto.RecordStudentAttendanceRequest
	lastActor     *auth.Claims
}

func (m *recorderMock) OpenSession(ctx context.Context, sessionID string, actor *auth.Claims) (*models.ClassSession, error) {
	m.lastSession, m.lastActor = sessionID, actor
	return m.session, m.sessionErr
}

func (m *recorderMock) CloseSession(ctx context.Context, sessionID string, actor *auth.Claims) (*models.ClassSession, error) {
	m.lastSession, m.lastActor = sessionID, actor
	return m.session, m.sessionErr
}

func (m *recorderMock) RecordTeacherPresence(ctx context.Context, sessionID string, req dto.RecordTeacherPresenceRequest, actor *auth.Claims) (*models.TeacherPresenceResult, error) {
	m.lastSession, m.lastTeacher, m.lastActor = sessionID, req, actor
	return m.teacherResult, m.writeErr
}

func (m *recorderMock) RecordStudentAttendance(ctx context.Context, sessionID, studentID string, req dto.RecordStudentAttendanceRequest, actor *auth.Claims) (*models.StudentAttendanceResult, error) {
	m.lastSession, m.lastStudent, m.lastStatus, m.lastActor = sessionID, studentID, req, actor
	return m.studentResult, m.writeErr
}

type teacherServiceMock struct {
	teacher    *models.Teacher
	err        error
	lastCreate dto.CreateTeacherRequest
	lastID     string
}

func (m *teacherServiceMock) Get(ctx context.Context, id string) (*models.Teacher, error) {
	m.lastID = id
	return m.teacher, m.err
}

func (m *teacherServiceMock) Create(ctx context.Context, req dto.CreateTeacherRequest, actor *auth.Claims) (*models.Teacher, error) {
	m.lastCreate = req
	return m.teacher, m.err
}

func (m *teacherServiceMock) Deactivate(ctx context.Context, id string, actor *auth.Claims) (*models.Teacher, error) {
	m.lastID = id
	return m.teacher, m.err
}

type summaryMock struct {
	summary   *models.AttendanceSummary
	err       error
	lastClass string
	lastQuery dto.AttendanceSummaryQuery
}

func (m *summaryMock) ClassSummary(ctx context.Context, classID string, query dto.AttendanceSummaryQuery) (*models.AttendanceSummary, error) {
	m.lastClass = classID
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

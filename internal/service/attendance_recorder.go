package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/dto"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/repository"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
)

const sessionResource = "class_session"

type sessionStore interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	WithLock(ctx context.Context, id string, fn func(repository.LockedSession) error) error
	TeacherRecords(ctx context.Context, sessionID string) ([]models.AttendingTeacherRecord, error)
	StudentRecords(ctx context.Context, sessionID string) ([]models.StudentAttendanceRecord, error)
}

// AttendanceRecorderConfig carries the session lifecycle tunables.
type AttendanceRecorderConfig struct {
	// GracePeriod after EndsAt before a session closes on its own. Zero
	// disables automatic close.
	GracePeriod time.Duration
	Clock       func() time.Time
}

// AttendanceRecorder drives the session lifecycle and records attendance.
// Every write runs under the session row lock, and every read it needs while
// holding the lock goes through the same transaction.
type AttendanceRecorder struct {
	sessions  sessionStore
	resolver  *ExpectationResolver
	audit     auditTrail
	metrics   *MetricsService
	validator *validator.Validate
	cfg       AttendanceRecorderConfig
	logger    *zap.Logger
}

// NewAttendanceRecorder constructs the recorder.
func NewAttendanceRecorder(sessions sessionStore, resolver *ExpectationResolver, audit auditWriter, metrics *MetricsService, validate *validator.Validate, cfg AttendanceRecorderConfig, logger *zap.Logger) *AttendanceRecorder {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &AttendanceRecorder{
		sessions:  sessions,
		resolver:  resolver,
		audit:     auditTrail{writer: audit, logger: logger},
		metrics:   metrics,
		validator: validate,
		cfg:       cfg,
		logger:    logger,
	}
}

// OpenSession moves an unopened session to open. Opening an open session is a
// no-op; a closed session cannot be reopened.
func (r *AttendanceRecorder) OpenSession(ctx context.Context, sessionID string, actor *auth.Claims) (*models.ClassSession, error) {
	var (
		session *models.ClassSession
		expired bool
		opened  bool
	)
	err := r.sessions.WithLock(ctx, sessionID, func(locked repository.LockedSession) error {
		now := r.cfg.Clock()
		closed, err := r.closeIfExpired(ctx, locked, now)
		if err != nil || closed {
			expired = closed
			return err
		}
		opened = locked.Session().State == models.SessionUnopened
		if err := locked.Open(ctx, now); err != nil {
			return err
		}
		session = snapshot(locked.Session())
		return nil
	})
	if err := r.finishWrite(ctx, sessionID, err, expired); err != nil {
		return nil, err
	}
	if opened {
		r.metrics.RecordSessionOpen()
		r.audit.record(ctx, actor, models.AuditActionSessionOpen, sessionResource, sessionID, nil, session)
	}
	return session, nil
}

// CloseSession closes a session manually and stores the final reconciliation.
func (r *AttendanceRecorder) CloseSession(ctx context.Context, sessionID string, actor *auth.Claims) (*models.ClassSession, error) {
	var session *models.ClassSession
	err := r.sessions.WithLock(ctx, sessionID, func(locked repository.LockedSession) error {
		if locked.Session().State == models.SessionClosed {
			return repository.ErrSessionClosed
		}
		var closedBy *string
		if actor != nil {
			id := actor.UserID
			closedBy = &id
		}
		if err := r.closeLocked(ctx, locked, r.cfg.Clock(), models.CloseManual, closedBy); err != nil {
			return err
		}
		session = snapshot(locked.Session())
		return nil
	})
	if err != nil {
		return nil, translateSessionErr(err)
	}
	r.metrics.RecordSessionClose(models.CloseManual)
	r.audit.record(ctx, actor, models.AuditActionSessionClose, sessionResource, sessionID, nil, map[string]interface{}{
		"trigger": models.CloseManual,
	})
	return session, nil
}

// AutoClose closes a session whose grace period has elapsed. Sessions that
// are already closed or still within grace are left untouched.
func (r *AttendanceRecorder) AutoClose(ctx context.Context, sessionID string) (bool, error) {
	var closed bool
	err := r.sessions.WithLock(ctx, sessionID, func(locked repository.LockedSession) error {
		var err error
		closed, err = r.closeIfExpired(ctx, locked, r.cfg.Clock())
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, translateSessionErr(err)
	}
	if closed {
		r.afterAutoClose(ctx, sessionID)
	}
	return closed, nil
}

// RecordTeacherPresence upserts a teacher's presence. An unopened session is
// opened implicitly. Teachers outside the expectation are recorded and flagged.
func (r *AttendanceRecorder) RecordTeacherPresence(ctx context.Context, sessionID string, req dto.RecordTeacherPresenceRequest, actor *auth.Claims) (*models.TeacherPresenceResult, error) {
	if err := r.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid presence payload")
	}
	var (
		result  models.TeacherPresenceResult
		expired bool
	)
	err := r.sessions.WithLock(ctx, sessionID, func(locked repository.LockedSession) error {
		now := r.cfg.Clock()
		exp, closed, err := r.prepareWrite(ctx, locked, now)
		if err != nil || closed {
			expired = closed
			return err
		}
		record := &models.AttendingTeacherRecord{SessionID: sessionID, TeacherID: req.TeacherID, EnteredAt: req.EnteredAt}
		if req.Role != nil {
			role := models.TeacherRole(*req.Role)
			record.Role = &role
		}
		if record.EnteredAt == nil {
			entered := now.UTC()
			record.EnteredAt = &entered
		}
		if err := locked.UpsertTeacherPresence(ctx, record); err != nil {
			return err
		}
		result.Record = *record
		result.Unexpected = !expectsTeacher(exp, req.TeacherID)
		return nil
	})
	if err := r.finishWrite(ctx, sessionID, err, expired); err != nil {
		return nil, err
	}
	if result.Unexpected {
		result.Warnings = append(result.Warnings, models.WarningUnexpectedParticipant)
		r.metrics.RecordUnexpectedParticipant("teacher")
		r.logger.Warn("unexpected teacher recorded", zap.String("session_id", sessionID), zap.String("teacher_id", req.TeacherID))
	}
	return &result, nil
}

// RecordStudentAttendance upserts a student's status for a session.
func (r *AttendanceRecorder) RecordStudentAttendance(ctx context.Context, sessionID, studentID string, req dto.RecordStudentAttendanceRequest, actor *auth.Claims) (*models.StudentAttendanceResult, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	if err := r.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	var (
		result  models.StudentAttendanceResult
		expired bool
	)
	err := r.sessions.WithLock(ctx, sessionID, func(locked repository.LockedSession) error {
		exp, closed, err := r.prepareWrite(ctx, locked, r.cfg.Clock())
		if err != nil || closed {
			expired = closed
			return err
		}
		record := &models.StudentAttendanceRecord{
			SessionID: sessionID,
			StudentID: studentID,
			Status:    models.AttendanceStatus(req.Status),
			Notes:     req.Notes,
		}
		if err := locked.UpsertStudentAttendance(ctx, record); err != nil {
			return err
		}
		result.Record = *record
		result.Unexpected = !expectsStudent(exp, studentID)
		return nil
	})
	if err := r.finishWrite(ctx, sessionID, err, expired); err != nil {
		return nil, err
	}
	if result.Unexpected {
		result.Warnings = append(result.Warnings, models.WarningUnexpectedParticipant)
		r.metrics.RecordUnexpectedParticipant("student")
		r.logger.Warn("unexpected student recorded", zap.String("session_id", sessionID), zap.String("student_id", studentID))
	}
	return &result, nil
}

// Reconcile compares the session's records against its expectation. It
// writes nothing.
func (r *AttendanceRecorder) Reconcile(ctx context.Context, sessionID string) (*models.ReconciliationReport, error) {
	session, err := r.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, translateSessionErr(err)
	}
	exp, err := r.resolver.resolveLenient(ctx, session)
	if err != nil {
		return nil, err
	}
	teachers, err := r.sessions.TeacherRecords(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher records")
	}
	students, err := r.sessions.StudentRecords(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student records")
	}
	return buildReconciliation(session, exp, teachers, students, r.cfg.Clock()), nil
}

// prepareWrite enforces the lifecycle ahead of an attendance write and
// returns the expectation the write is checked against.
func (r *AttendanceRecorder) prepareWrite(ctx context.Context, locked repository.LockedSession, now time.Time) (*models.Expectation, bool, error) {
	closed, err := r.closeIfExpired(ctx, locked, now)
	if err != nil || closed {
		return nil, closed, err
	}
	session := locked.Session()
	switch session.State {
	case models.SessionClosed:
		return nil, false, repository.ErrSessionClosed
	case models.SessionUnopened:
		if err := locked.Open(ctx, now); err != nil {
			return nil, false, err
		}
		r.metrics.RecordSessionOpen()
	}
	exp, err := r.resolver.within(locked.Expectations()).resolveLenient(ctx, session)
	if err != nil {
		return nil, false, err
	}
	return exp, false, nil
}

func (r *AttendanceRecorder) closeIfExpired(ctx context.Context, locked repository.LockedSession, now time.Time) (bool, error) {
	if !locked.Session().GraceExpired(now, r.cfg.GracePeriod) {
		return false, nil
	}
	if err := r.closeLocked(ctx, locked, now, models.CloseGracePeriod, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (r *AttendanceRecorder) closeLocked(ctx context.Context, locked repository.LockedSession, now time.Time, trigger models.CloseTrigger, closedBy *string) error {
	session := locked.Session()
	exp, err := r.resolver.within(locked.Expectations()).resolveFinal(ctx, session)
	if err != nil {
		return err
	}
	teachers, err := locked.TeacherRecords(ctx)
	if err != nil {
		return err
	}
	students, err := locked.StudentRecords(ctx)
	if err != nil {
		return err
	}
	final := buildReconciliation(session, exp, teachers, students, now)
	final.State = models.SessionClosed
	raw, err := json.Marshal(final)
	if err != nil {
		return err
	}
	return locked.Close(ctx, now, trigger, closedBy, raw)
}

// finishWrite maps a locked write's outcome. A write that found the grace
// period elapsed commits the close and then reports the session as closed.
func (r *AttendanceRecorder) finishWrite(ctx context.Context, sessionID string, err error, expired bool) error {
	if err != nil {
		return translateSessionErr(err)
	}
	if expired {
		r.afterAutoClose(ctx, sessionID)
		return appErrors.Clone(appErrors.ErrInvalidState, "session grace period elapsed; session is closed")
	}
	return nil
}

func (r *AttendanceRecorder) afterAutoClose(ctx context.Context, sessionID string) {
	r.metrics.RecordSessionClose(models.CloseGracePeriod)
	r.audit.record(ctx, nil, models.AuditActionSessionClose, sessionResource, sessionID, nil, map[string]interface{}{
		"trigger": models.CloseGracePeriod,
	})
	r.logger.Info("session closed after grace period", zap.String("session_id", sessionID))
}

func translateSessionErr(err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "session not found")
	case errors.Is(err, repository.ErrSessionClosed):
		return appErrors.Clone(appErrors.ErrInvalidState, "session is closed")
	case errors.Is(err, repository.ErrTeacherNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	case errors.Is(err, repository.ErrStudentNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	case errors.Is(err, repository.ErrClassNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
}

func expectsTeacher(exp *models.Expectation, teacherID string) bool {
	for _, t := range exp.Teachers.Teachers {
		if t.ID == teacherID {
			return true
		}
	}
	return false
}

func expectsStudent(exp *models.Expectation, studentID string) bool {
	for _, s := range exp.Students.Students {
		if s.ID == studentID {
			return true
		}
	}
	return false
}

func snapshot(s *models.ClassSession) *models.ClassSession {
	cp := *s
	return &cp
}

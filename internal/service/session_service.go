package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/dto"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/repository"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/academicyear"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
)

type sessionCatalog interface {
	Create(ctx context.Context, session *models.ClassSession) error
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	TeacherRecords(ctx context.Context, sessionID string) ([]models.AttendingTeacherRecord, error)
	StudentRecords(ctx context.Context, sessionID string) ([]models.StudentAttendanceRecord, error)
}

type classYearHook interface {
	Enqueue(classID, year string)
}

// SessionService registers sessions and serves their read models.
type SessionService struct {
	sessions  sessionCatalog
	resolver  *ExpectationResolver
	recorder  *AttendanceRecorder
	hook      classYearHook
	cache     *CacheService
	rule      academicyear.Rule
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs the service.
func NewSessionService(sessions sessionCatalog, resolver *ExpectationResolver, recorder *AttendanceRecorder, hook classYearHook, cache *CacheService, rule academicyear.Rule, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:  sessions,
		resolver:  resolver,
		recorder:  recorder,
		hook:      hook,
		cache:     cache,
		rule:      rule,
		validator: validate,
		logger:    logger,
	}
}

// Create registers an externally scheduled session. The academic year is
// derived from StartsAt.
func (s *SessionService) Create(ctx context.Context, req dto.CreateSessionRequest, actor *auth.Claims) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	session := &models.ClassSession{
		ClassID:      req.ClassID,
		StartsAt:     req.StartsAt.UTC(),
		EndsAt:       req.EndsAt.UTC(),
		AcademicYear: s.rule.Label(req.StartsAt),
		State:        models.SessionUnopened,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	s.logger.Info("session registered",
		zap.String("session_id", session.ID),
		zap.String("class_id", session.ClassID),
		zap.String("academic_year", session.AcademicYear),
	)
	// A session makes its (class, year) subject to validation.
	s.cache.InvalidateAudit(ctx)
	if s.hook != nil {
		s.hook.Enqueue(session.ClassID, session.AcademicYear)
	}
	return session, nil
}

// Get returns a session with its records and a freshly computed
// reconciliation. Closed sessions also carry their stored final report.
func (s *SessionService) Get(ctx context.Context, id string) (*models.SessionDetail, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, translateSessionErr(err)
	}
	teachers, err := s.sessions.TeacherRecords(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher records")
	}
	students, err := s.sessions.StudentRecords(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student records")
	}
	exp, err := s.resolver.resolveLenient(ctx, session)
	if err != nil {
		return nil, err
	}
	if teachers == nil {
		teachers = []models.AttendingTeacherRecord{}
	}
	if students == nil {
		students = []models.StudentAttendanceRecord{}
	}
	return &models.SessionDetail{
		Session:           *session,
		AttendingTeachers: teachers,
		StudentAttendance: students,
		Reconciliation:    buildReconciliation(session, exp, teachers, students, s.resolver.cfg.Clock()),
	}, nil
}

// Expected resolves who should attend a session. In strict mode a class
// without active assigned teachers fails with ErrNoAssignment.
func (s *SessionService) Expected(ctx context.Context, id string) (*models.Expectation, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, translateSessionErr(err)
	}
	return s.resolver.Resolve(ctx, session)
}

// Reconcile delegates to the recorder.
func (s *SessionService) Reconcile(ctx context.Context, id string) (*models.ReconciliationReport, error) {
	return s.recorder.Reconcile(ctx, id)
}

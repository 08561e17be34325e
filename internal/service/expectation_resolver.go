package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/repository"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/config"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
)

type classAssignmentReader interface {
	ListByClass(ctx context.Context, classID, year string) ([]models.AssignmentDetail, error)
}

type teacherBatchReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
}

type rosterReader interface {
	ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error)
	ListByClassAsOf(ctx context.Context, classID string, at time.Time) ([]models.Student, error)
}

// ExpectationResolverConfig controls strictness and the roster snapshot anchor.
type ExpectationResolverConfig struct {
	Strict         bool
	SnapshotAnchor string
	Clock          func() time.Time
}

// ExpectationResolver derives who should attend a session from the
// assignment store and the class roster.
type ExpectationResolver struct {
	assignments classAssignmentReader
	teachers    teacherBatchReader
	students    rosterReader
	cfg         ExpectationResolverConfig
	logger      *zap.Logger
}

// NewExpectationResolver constructs a resolver.
func NewExpectationResolver(assignments classAssignmentReader, teachers teacherBatchReader, students rosterReader, cfg ExpectationResolverConfig, logger *zap.Logger) *ExpectationResolver {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.SnapshotAnchor == "" {
		cfg.SnapshotAnchor = config.AnchorCreatedAt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpectationResolver{assignments: assignments, teachers: teachers, students: students, cfg: cfg, logger: logger}
}

// ResolveExpectedTeachers returns the active teachers assigned to the
// session's class for its academic year. An empty result fails with
// ErrNoAssignment in strict mode and carries a warning otherwise.
func (r *ExpectationResolver) ResolveExpectedTeachers(ctx context.Context, session *models.ClassSession) (*models.ExpectedTeachers, error) {
	return r.resolveTeachers(ctx, session, r.cfg.Strict)
}

func (r *ExpectationResolver) resolveTeachers(ctx context.Context, session *models.ClassSession, strict bool) (*models.ExpectedTeachers, error) {
	assignments, err := r.assignments.ListByClass(ctx, session.ClassID, session.AcademicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}

	result := &models.ExpectedTeachers{Teachers: []models.Teacher{}}
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if a.TeacherName != nil {
			ids = append(ids, a.TeacherID)
		}
	}
	if len(ids) > 0 {
		teachers, err := r.teachers.FindByIDs(ctx, ids)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
		}
		for _, t := range teachers {
			if t.Active() {
				result.Teachers = append(result.Teachers, t)
			}
		}
	}

	if len(result.Teachers) == 0 {
		if strict {
			return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrNoAssignment, "no active teacher assigned to class"), map[string]interface{}{
				"classId":      session.ClassID,
				"academicYear": session.AcademicYear,
			})
		}
		result.Warnings = append(result.Warnings, models.WarningNoAssignment)
		return result, nil
	}

	lead, leads := authoritativeLead(assignments)
	switch {
	case leads == 0:
		result.Warnings = append(result.Warnings, models.WarningNoLeadTeacher)
	case leads > 1:
		result.Warnings = append(result.Warnings, models.WarningMultipleLeads)
	}
	if lead != nil {
		active := false
		for _, t := range result.Teachers {
			if t.ID == lead.TeacherID {
				active = true
				break
			}
		}
		if active {
			result.LeadID = lead.TeacherID
		} else {
			result.Warnings = append(result.Warnings, models.WarningInactiveLead)
		}
	}
	return result, nil
}

// within returns a copy of the resolver reading through src, typically the
// transaction holding a session lock.
func (r *ExpectationResolver) within(src repository.ExpectationReader) *ExpectationResolver {
	cp := *r
	cp.assignments = src
	cp.teachers = src
	cp.students = src
	return &cp
}

// ResolveExpectedStudents returns the live active roster for current
// sessions and the membership snapshot at the anchor for historical ones.
func (r *ExpectationResolver) ResolveExpectedStudents(ctx context.Context, session *models.ClassSession) (*models.ExpectedStudents, error) {
	return r.resolveStudents(ctx, session, r.historical(session))
}

func (r *ExpectationResolver) resolveStudents(ctx context.Context, session *models.ClassSession, historical bool) (*models.ExpectedStudents, error) {
	if !historical {
		students, err := r.students.ListActiveByClass(ctx, session.ClassID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
		}
		return &models.ExpectedStudents{Students: nonNilStudents(students)}, nil
	}

	anchor := session.CreatedAt
	if r.cfg.SnapshotAnchor == config.AnchorStartsAt {
		anchor = session.StartsAt
	}
	students, err := r.students.ListByClassAsOf(ctx, session.ClassID, anchor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster snapshot")
	}
	return &models.ExpectedStudents{Students: nonNilStudents(students), AsOf: &anchor}, nil
}

// Resolve returns both expectations for a session.
func (r *ExpectationResolver) Resolve(ctx context.Context, session *models.ClassSession) (*models.Expectation, error) {
	return r.resolve(ctx, session, r.cfg.Strict, r.historical(session))
}

// resolveLenient never fails on a missing assignment; attendance writes and
// reconciliation use it.
func (r *ExpectationResolver) resolveLenient(ctx context.Context, session *models.ClassSession) (*models.Expectation, error) {
	return r.resolve(ctx, session, false, r.historical(session))
}

// resolveFinal resolves a session that is being closed. It uses the roster
// snapshot a closed session is reconciled against afterwards.
func (r *ExpectationResolver) resolveFinal(ctx context.Context, session *models.ClassSession) (*models.Expectation, error) {
	return r.resolve(ctx, session, false, true)
}

func (r *ExpectationResolver) resolve(ctx context.Context, session *models.ClassSession, strict, historical bool) (*models.Expectation, error) {
	teachers, err := r.resolveTeachers(ctx, session, strict)
	if err != nil {
		return nil, err
	}
	students, err := r.resolveStudents(ctx, session, historical)
	if err != nil {
		return nil, err
	}
	if len(teachers.Warnings) > 0 {
		r.logger.Debug("session expectation warnings", zap.String("session_id", session.ID), zap.Strings("warnings", teachers.Warnings))
	}
	return &models.Expectation{
		SessionID:    session.ID,
		ClassID:      session.ClassID,
		AcademicYear: session.AcademicYear,
		Teachers:     *teachers,
		Students:     *students,
	}, nil
}

func (r *ExpectationResolver) historical(session *models.ClassSession) bool {
	return session.State == models.SessionClosed || r.cfg.Clock().After(session.EndsAt)
}

func nonNilStudents(students []models.Student) []models.Student {
	if students == nil {
		return []models.Student{}
	}
	return students
}

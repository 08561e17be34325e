package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/dto"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/repository"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/academicyear"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
)

const assignmentResource = "teacher_class_assignment"

type assignmentStore interface {
	ListByClass(ctx context.Context, classID, year string) ([]models.AssignmentDetail, error)
	ListByTeacher(ctx context.Context, teacherID, year string) ([]models.AssignmentDetail, error)
	Upsert(ctx context.Context, params models.UpsertAssignmentParams) (*models.UpsertAssignmentResult, error)
	Delete(ctx context.Context, key models.AssignmentKey) (*models.TeacherAssignment, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type activeRosterReader interface {
	ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type classYearValidator interface {
	ValidateClassYear(ctx context.Context, classID, year string) ([]models.Finding, error)
	Enqueue(classID, year string)
}

// TeacherAssignmentService manages the teacher-class assignment store.
type TeacherAssignmentService struct {
	store     assignmentStore
	classes   classReader
	teachers  teacherReader
	students  activeRosterReader
	checker   classYearValidator
	cache     *CacheService
	audit     auditTrail
	metrics   *MetricsService
	rule      academicyear.Rule
	clock     func() time.Time
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherAssignmentService creates a service instance.
func NewTeacherAssignmentService(
	store assignmentStore,
	classes classReader,
	teachers teacherReader,
	students activeRosterReader,
	checker classYearValidator,
	cache *CacheService,
	audit auditWriter,
	metrics *MetricsService,
	rule academicyear.Rule,
	validate *validator.Validate,
	logger *zap.Logger,
) *TeacherAssignmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAssignmentService{
		store:     store,
		classes:   classes,
		teachers:  teachers,
		students:  students,
		checker:   checker,
		cache:     cache,
		audit:     auditTrail{writer: audit, logger: logger},
		metrics:   metrics,
		rule:      rule,
		clock:     time.Now,
		validator: validate,
		logger:    logger,
	}
}

// Upsert creates or updates an assignment. Setting a lead while another lead
// exists fails with a conflict unless DemoteExistingLead is set, in which
// case the other lead is demoted in the same transaction.
func (s *TeacherAssignmentService) Upsert(ctx context.Context, req dto.UpsertAssignmentRequest, actor *auth.Claims) (*models.UpsertAssignmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	params := models.UpsertAssignmentParams{
		AssignmentKey:      models.AssignmentKey{TeacherID: req.TeacherID, ClassID: req.ClassID, AcademicYear: req.AcademicYear},
		IsLead:             req.IsLead,
		DemoteExistingLead: req.DemoteExistingLead,
	}
	result, err := s.store.Upsert(ctx, params)
	s.metrics.RecordAssignmentMutation("upsert", err)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLeadTeacherExists):
			return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "class already has a lead teacher for the academic year"), map[string]interface{}{
				"classId":      req.ClassID,
				"academicYear": req.AcademicYear,
				"hint":         "set demoteExistingLead to replace the current lead",
			})
		case errors.Is(err, repository.ErrTeacherNotFound):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		case errors.Is(err, repository.ErrClassNotFound):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save assignment")
		}
	}

	if !assignmentChanged(result) {
		return result, nil
	}
	var before interface{}
	if result.Previous != nil {
		before = result.Previous
	}
	after := map[string]interface{}{"assignment": result.Assignment}
	if result.DemotedLead != nil {
		after["demotedLead"] = result.DemotedLead
	}
	s.audit.record(ctx, actor, models.AuditActionAssignmentUpsert, assignmentResource, result.Assignment.ID, before, after)
	s.afterMutation(ctx, req.ClassID, req.AcademicYear)
	return result, nil
}

// Remove deletes an assignment. With EnsureAbsent a missing assignment is a
// successful no-op instead of not found.
func (s *TeacherAssignmentService) Remove(ctx context.Context, req dto.RemoveAssignmentRequest, actor *auth.Claims) (*dto.RemoveAssignmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	removed, err := s.store.Delete(ctx, models.AssignmentKey{TeacherID: req.TeacherID, ClassID: req.ClassID, AcademicYear: req.AcademicYear})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordAssignmentMutation("remove", nil)
			if req.EnsureAbsent {
				return &dto.RemoveAssignmentResult{Removed: false}, nil
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		s.metrics.RecordAssignmentMutation("remove", err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove assignment")
	}
	s.metrics.RecordAssignmentMutation("remove", nil)
	s.audit.record(ctx, actor, models.AuditActionAssignmentRemove, assignmentResource, removed.ID, removed, nil)
	s.afterMutation(ctx, req.ClassID, req.AcademicYear)
	return &dto.RemoveAssignmentResult{Removed: true}, nil
}

// ListByClass returns a class's assignments, leads first. An empty year
// lists every year.
func (s *TeacherAssignmentService) ListByClass(ctx context.Context, classID, year string) ([]models.AssignmentDetail, error) {
	if err := validateYearFilter(year); err != nil {
		return nil, err
	}
	if err := s.ensureClass(ctx, classID); err != nil {
		return nil, err
	}
	items, err := s.store.ListByClass(ctx, classID, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return nonNilDetails(items), nil
}

// ListByTeacher returns a teacher's assignments, newest year first.
func (s *TeacherAssignmentService) ListByTeacher(ctx context.Context, teacherID, year string) ([]models.AssignmentDetail, error) {
	if err := validateYearFilter(year); err != nil {
		return nil, err
	}
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	items, err := s.store.ListByTeacher(ctx, teacherID, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return nonNilDetails(items), nil
}

// Roster returns a class's assignments, active students and integrity
// findings for one academic year, defaulting to the current year.
func (s *TeacherAssignmentService) Roster(ctx context.Context, classID, year string) (*models.ClassRoster, error) {
	if err := validateYearFilter(year); err != nil {
		return nil, err
	}
	if year == "" {
		year = s.rule.Label(s.clock())
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	assignments, err := s.store.ListByClass(ctx, classID, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	students, err := s.students.ListActiveByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}
	findings, err := s.checker.ValidateClassYear(ctx, classID, year)
	if err != nil {
		return nil, err
	}
	return &models.ClassRoster{
		Class:        *class,
		AcademicYear: year,
		Assignments:  nonNilDetails(assignments),
		Students:     nonNilStudents(students),
		Findings:     findings,
	}, nil
}

func (s *TeacherAssignmentService) afterMutation(ctx context.Context, classID, year string) {
	s.cache.InvalidateAudit(ctx)
	if s.checker != nil {
		s.checker.Enqueue(classID, year)
	}
}

func (s *TeacherAssignmentService) ensureClass(ctx context.Context, classID string) error {
	if classID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "classId is required")
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}

func assignmentChanged(result *models.UpsertAssignmentResult) bool {
	if result.Created || result.DemotedLead != nil {
		return true
	}
	return result.Previous == nil || result.Previous.IsLead != result.Assignment.IsLead
}

func validateYearFilter(year string) error {
	if year != "" && !academicyear.ValidLabel(year) {
		return appErrors.Clone(appErrors.ErrValidation, "academicYear must be a four digit year")
	}
	return nil
}

func nonNilDetails(items []models.AssignmentDetail) []models.AssignmentDetail {
	if items == nil {
		return []models.AssignmentDetail{}
	}
	return items
}

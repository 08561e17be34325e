package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/dto"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/repository"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
)

const teacherResource = "teacher"

type teacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Deactivate(ctx context.Context, id string) (*models.Teacher, error)
}

type teacherAssignmentLister interface {
	ListByTeacher(ctx context.Context, teacherID, year string) ([]models.AssignmentDetail, error)
}

// TeacherService orchestrates teacher operations.
type TeacherService struct {
	repo        teacherRepository
	assignments teacherAssignmentLister
	checker     classYearHook
	cache       *CacheService
	audit       auditTrail
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, assignments teacherAssignmentLister, checker classYearHook, cache *CacheService, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{
		repo:        repo,
		assignments: assignments,
		checker:     checker,
		cache:       cache,
		audit:       auditTrail{writer: audit, logger: logger},
		validator:   validate,
		logger:      logger,
	}
}

// Get returns teacher by ID.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a teacher. Type defaults to formal and status to active.
func (s *TeacherService) Create(ctx context.Context, req dto.CreateTeacherRequest, actor *auth.Claims) (*models.Teacher, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = trimOptional(req.Phone)
	req.Email = trimOptional(req.Email)
	req.Notes = trimOptional(req.Notes)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher := &models.Teacher{
		FullName: req.FullName,
		Type:     models.TeacherTypeFormal,
		Status:   models.TeacherStatusActive,
		Phone:    req.Phone,
		Notes:    req.Notes,
	}
	if req.TeacherType != "" {
		teacher.Type = models.TeacherType(req.TeacherType)
	}
	if req.Status != "" {
		teacher.Status = models.TeacherStatus(req.Status)
	}
	if req.Email != nil {
		lower := strings.ToLower(*req.Email)
		teacher.Email = &lower
	}

	if err := s.repo.Create(ctx, teacher); err != nil {
		if errors.Is(err, repository.ErrTeacherEmailTaken) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.audit.record(ctx, actor, models.AuditActionTeacherCreate, teacherResource, teacher.ID, nil, teacher)
	return teacher, nil
}

// Deactivate marks the teacher inactive. Assignments are kept and the
// affected (class, year) pairs are revalidated.
func (s *TeacherService) Deactivate(ctx context.Context, id string, actor *auth.Claims) (*models.Teacher, error) {
	teacher, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate teacher")
	}
	s.audit.record(ctx, actor, models.AuditActionTeacherDeactivate, teacherResource, id, nil, map[string]interface{}{"status": teacher.Status})
	s.cache.InvalidateAudit(ctx)

	if s.assignments != nil && s.checker != nil {
		assignments, err := s.assignments.ListByTeacher(ctx, id, "")
		if err != nil {
			s.logger.Warn("failed to list assignments for revalidation", zap.String("teacher_id", id), zap.Error(err))
			return teacher, nil
		}
		for _, a := range assignments {
			s.checker.Enqueue(a.ClassID, a.AcademicYear)
		}
	}
	return teacher, nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

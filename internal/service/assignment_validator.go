package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/academicyear"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/jobs"
)

// JobValidateClassYear is the job type handled by AssignmentValidator.HandleJob.
const JobValidateClassYear = "validate_class_year"

type assignmentLister interface {
	ListByClass(ctx context.Context, classID, year string) ([]models.AssignmentDetail, error)
	ListClassYears(ctx context.Context) ([]models.ClassYear, error)
}

type classCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListIDs(ctx context.Context) ([]string, error)
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

// AssignmentValidatorConfig carries the validator's tunables.
type AssignmentValidatorConfig struct {
	Rule       academicyear.Rule
	OnMutation bool
	CacheTTL   time.Duration
	Clock      func() time.Time
}

// AssignmentValidator reports integrity findings over teacher-class assignments.
type AssignmentValidator struct {
	assignments assignmentLister
	classes     classCatalog
	cache       *CacheService
	metrics     *MetricsService
	queue       jobEnqueuer
	cfg         AssignmentValidatorConfig
	logger      *zap.Logger
}

// NewAssignmentValidator constructs the validator. queue may be nil, in which
// case mutation-triggered validation is skipped.
func NewAssignmentValidator(assignments assignmentLister, classes classCatalog, cache *CacheService, metrics *MetricsService, queue jobEnqueuer, cfg AssignmentValidatorConfig, logger *zap.Logger) *AssignmentValidator {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentValidator{
		assignments: assignments,
		classes:     classes,
		cache:       cache,
		metrics:     metrics,
		queue:       queue,
		cfg:         cfg,
		logger:      logger,
	}
}

// ValidateClassYear evaluates a single (class, academic year) pair.
func (v *AssignmentValidator) ValidateClassYear(ctx context.Context, classID, year string) ([]models.Finding, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classId is required")
	}
	if !academicyear.ValidLabel(year) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academicYear must be a four digit year")
	}
	start := time.Now()
	defer func() { v.metrics.ObserveValidation("class_year", time.Since(start)) }()

	classExists := true
	if _, err := v.classes.FindByID(ctx, classID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
		classExists = false
	}

	assignments, err := v.assignments.ListByClass(ctx, classID, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	if !classExists && len(assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return evaluateClassYear(models.ClassYear{ClassID: classID, AcademicYear: year}, classExists, assignments), nil
}

// ValidateAll sweeps every (class, year) pair that has assignments or
// sessions, plus every class for the current academic year.
func (v *AssignmentValidator) ValidateAll(ctx context.Context) (*models.AuditReport, error) {
	report, _, err := v.Report(ctx)
	return report, err
}

// Report is ValidateAll that also reports whether the result came from cache.
func (v *AssignmentValidator) Report(ctx context.Context) (*models.AuditReport, bool, error) {
	var cached models.AuditReport
	if v.cache.Get(ctx, auditAllCacheKey, &cached) {
		return &cached, true, nil
	}
	report, err := v.sweep(ctx)
	if err != nil {
		return nil, false, err
	}
	v.metrics.SetFindingTotals(report.Totals)
	v.cache.Set(ctx, auditAllCacheKey, report, v.cfg.CacheTTL)
	return report, false, nil
}

func (v *AssignmentValidator) sweep(ctx context.Context) (*models.AuditReport, error) {
	start := time.Now()
	defer func() { v.metrics.ObserveValidation("all", time.Since(start)) }()

	currentYear := v.cfg.Rule.Label(v.cfg.Clock())
	classIDs, err := v.classes.ListIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	pairs, err := v.assignments.ListClassYears(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class years")
	}

	known := make(map[string]struct{}, len(classIDs))
	for _, id := range classIDs {
		known[id] = struct{}{}
	}
	seen := make(map[models.ClassYear]struct{}, len(pairs)+len(classIDs))
	var all []models.ClassYear
	for _, p := range pairs {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}
	for _, id := range classIDs {
		p := models.ClassYear{ClassID: id, AcademicYear: currentYear}
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].ClassID != all[j].ClassID {
			return all[i].ClassID < all[j].ClassID
		}
		return all[i].AcademicYear < all[j].AcademicYear
	})

	report := &models.AuditReport{
		GeneratedAt: v.cfg.Clock().UTC().Format(time.RFC3339),
		CurrentYear: currentYear,
		Findings:    make(map[string][]models.Finding, len(all)),
		Totals:      make(map[models.FindingType]int, len(models.FindingTypes)),
	}
	for _, t := range models.FindingTypes {
		report.Totals[t] = 0
	}

	for _, pair := range all {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		assignments, err := v.assignments.ListByClass(ctx, pair.ClassID, pair.AcademicYear)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
		}
		_, exists := known[pair.ClassID]
		findings := evaluateClassYear(pair, exists, assignments)
		report.PairsChecked++
		report.Findings[pair.String()] = findings
		for _, f := range findings {
			report.Totals[f.Type]++
		}
	}
	return report, nil
}

// Enqueue schedules an asynchronous validation of one pair after a mutation.
// Jobs for the same pair coalesce while queued.
func (v *AssignmentValidator) Enqueue(classID, year string) {
	if v == nil || v.queue == nil || !v.cfg.OnMutation {
		return
	}
	pair := models.ClassYear{ClassID: classID, AcademicYear: year}
	err := v.queue.TryEnqueue(jobs.Job{
		Type:    JobValidateClassYear,
		Key:     JobValidateClassYear + ":" + pair.String(),
		Payload: pair,
	})
	if err != nil {
		v.logger.Warn("validation not scheduled", zap.String("class_id", classID), zap.String("academic_year", year), zap.Error(err))
	}
}

// HandleJob runs a queued validation and logs what it found.
func (v *AssignmentValidator) HandleJob(ctx context.Context, job jobs.Job) error {
	pair, ok := job.Payload.(models.ClassYear)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	findings, err := v.ValidateClassYear(ctx, pair.ClassID, pair.AcademicYear)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
			return nil
		}
		return err
	}
	for _, f := range findings {
		v.logger.Warn("assignment finding",
			zap.String("type", string(f.Type)),
			zap.String("class_id", f.ClassID),
			zap.String("academic_year", f.AcademicYear),
			zap.Strings("teacher_ids", f.TeacherIDs),
		)
	}
	return nil
}

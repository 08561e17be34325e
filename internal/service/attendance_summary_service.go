package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/dto"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/academicyear"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
)

type attendanceSummaryStore interface {
	Summarize(ctx context.Context, filter models.AttendanceSummaryFilter) (*models.AttendanceSummary, error)
}

// AttendanceSummaryService reports recorded attendance per class.
type AttendanceSummaryService struct {
	store   attendanceSummaryStore
	classes classReader
	rule    academicyear.Rule
	clock   func() time.Time
	logger  *zap.Logger
}

// NewAttendanceSummaryService constructs the service.
func NewAttendanceSummaryService(store attendanceSummaryStore, classes classReader, rule academicyear.Rule, logger *zap.Logger) *AttendanceSummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceSummaryService{store: store, classes: classes, rule: rule, clock: time.Now, logger: logger}
}

// ClassSummary aggregates student attendance of a class for one academic
// year, optionally narrowed to sessions starting within [From, To].
func (s *AttendanceSummaryService) ClassSummary(ctx context.Context, classID string, query dto.AttendanceSummaryQuery) (*models.AttendanceSummary, error) {
	if err := validateYearFilter(query.Year); err != nil {
		return nil, err
	}
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	year := query.Year
	if year == "" {
		year = s.rule.Label(s.clock())
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	filter := models.AttendanceSummaryFilter{ClassID: classID, AcademicYear: year, From: query.From}
	if query.To != nil {
		end := query.To.AddDate(0, 0, 1)
		filter.To = &end
	}
	summary, err := s.store.Summarize(ctx, filter)
	if err != nil {
		s.logger.Error("attendance summary failed", zap.String("class_id", classID), zap.String("academic_year", year), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize attendance")
	}
	return summary, nil
}

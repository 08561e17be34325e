package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
)

// AttendanceSummaryRepository aggregates recorded student attendance.
type AttendanceSummaryRepository struct {
	db *sqlx.DB
}

// NewAttendanceSummaryRepository builds the repository.
func NewAttendanceSummaryRepository(db *sqlx.DB) *AttendanceSummaryRepository {
	return &AttendanceSummaryRepository{db: db}
}

// Summarize returns class-wide totals and per-student counts for the sessions
// matching filter. Sessions without any record still count towards Sessions.
func (r *AttendanceSummaryRepository) Summarize(ctx context.Context, filter models.AttendanceSummaryFilter) (*models.AttendanceSummary, error) {
	if filter.ClassID == "" || filter.AcademicYear == "" {
		return nil, fmt.Errorf("class id and academic year are required")
	}
	where, args := summaryConditions(filter)
	whereClause := strings.Join(where, " AND ")

	totalsSQL := fmt.Sprintf(`SELECT
    COUNT(DISTINCT cs.id) AS sessions,
    COUNT(sa.id) FILTER (WHERE sa.status = 'present') AS present,
    COUNT(sa.id) FILTER (WHERE sa.status = 'late') AS late,
    COUNT(sa.id) FILTER (WHERE sa.status = 'excused') AS excused,
    COUNT(sa.id) FILTER (WHERE sa.status = 'absent') AS absent
FROM class_sessions cs
LEFT JOIN student_attendance_records sa ON sa.session_id = cs.id
WHERE %s`, whereClause)
	totals := struct {
		Sessions int `db:"sessions"`
		Present  int `db:"present"`
		Late     int `db:"late"`
		Excused  int `db:"excused"`
		Absent   int `db:"absent"`
	}{}
	if err := r.db.GetContext(ctx, &totals, totalsSQL, args...); err != nil {
		return nil, fmt.Errorf("attendance summary totals: %w", err)
	}

	studentsSQL := fmt.Sprintf(`SELECT
    sa.student_id,
    s.full_name AS student_name,
    COUNT(*) FILTER (WHERE sa.status = 'present') AS present,
    COUNT(*) FILTER (WHERE sa.status = 'late') AS late,
    COUNT(*) FILTER (WHERE sa.status = 'excused') AS excused,
    COUNT(*) FILTER (WHERE sa.status = 'absent') AS absent,
    COUNT(*) AS recorded,
    ROUND(COUNT(*) FILTER (WHERE sa.status IN ('present', 'late'))::NUMERIC * 100 / COUNT(*), 2)::FLOAT8 AS rate
FROM class_sessions cs
JOIN student_attendance_records sa ON sa.session_id = cs.id
JOIN students s ON s.id = sa.student_id
WHERE %s
GROUP BY sa.student_id, s.full_name
ORDER BY s.full_name ASC, sa.student_id ASC`, whereClause)
	var students []models.StudentAttendanceSummary
	if err := r.db.SelectContext(ctx, &students, studentsSQL, args...); err != nil {
		return nil, fmt.Errorf("attendance summary per student: %w", err)
	}
	if students == nil {
		students = []models.StudentAttendanceSummary{}
	}

	return &models.AttendanceSummary{
		ClassID:      filter.ClassID,
		AcademicYear: filter.AcademicYear,
		Sessions:     totals.Sessions,
		Present:      totals.Present,
		Late:         totals.Late,
		Excused:      totals.Excused,
		Absent:       totals.Absent,
		Students:     students,
	}, nil
}

func summaryConditions(filter models.AttendanceSummaryFilter) ([]string, []interface{}) {
	args := []interface{}{filter.ClassID, filter.AcademicYear}
	conditions := []string{"cs.class_id = $1", "cs.academic_year = $2"}

	if filter.From != nil {
		args = append(args, filter.From.UTC())
		conditions = append(conditions, fmt.Sprintf("cs.starts_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, filter.To.UTC())
		conditions = append(conditions, fmt.Sprintf("cs.starts_at < $%d", len(args)))
	}
	return conditions, args
}

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5"
)

// queryer is the subset of *pgxpool.Pool used by the inspector.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type inspector struct {
	db  queryer
	out io.Writer
	now func() time.Time
}

var countedTables = []string{
	"teachers",
	"classes",
	"students",
	"teacher_class_assignments",
	"class_sessions",
	"attending_teacher_records",
	"student_attendance_records",
}

func (q *inspector) counts(ctx context.Context, year string) error {
	w := tabwriter.NewWriter(q.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS")
	for _, table := range countedTables {
		var n int64
		// table names come from the fixed list above
		if err := q.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return fmt.Errorf("count %s: %w", table, err)
		}
		fmt.Fprintf(w, "%s\t%d\n", table, n)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	const coverage = `
SELECT
    COUNT(*) FILTER (WHERE a.class_id IS NULL)               AS unassigned,
    COUNT(*) FILTER (WHERE a.class_id IS NOT NULL AND a.leads = 0) AS leadless
FROM classes c
LEFT JOIN (
    SELECT class_id, COUNT(*) FILTER (WHERE is_lead) AS leads
    FROM teacher_class_assignments
    WHERE academic_year = $1
    GROUP BY class_id
) a ON a.class_id = c.id`
	var unassigned, leadless int64
	if err := q.db.QueryRow(ctx, coverage, year).Scan(&unassigned, &leadless); err != nil {
		return fmt.Errorf("lead coverage: %w", err)
	}
	fmt.Fprintf(q.out, "\nacademic year %s: %d classes without assignments, %d without a lead\n", year, unassigned, leadless)
	return nil
}

func (q *inspector) assignments(ctx context.Context, classID, year string) error {
	const query = `
SELECT a.teacher_id::text, COALESCE(t.full_name, '<missing>'), COALESCE(t.status, '-'), a.is_lead, a.updated_at
FROM teacher_class_assignments a
LEFT JOIN teachers t ON t.id = a.teacher_id
WHERE a.class_id = $1::text::uuid AND a.academic_year = $2
ORDER BY a.is_lead DESC, a.updated_at DESC`
	rows, err := q.db.Query(ctx, query, classID, year)
	if err != nil {
		return fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(q.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TEACHER\tNAME\tSTATUS\tLEAD\tUPDATED")
	n := 0
	for rows.Next() {
		var (
			teacherID, name, status string
			lead                    bool
			updated                 time.Time
		)
		if err := rows.Scan(&teacherID, &name, &status, &lead, &updated); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", teacherID, name, status, lead, updated.UTC().Format(time.RFC3339))
		n++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(q.out, "%d assignment(s) for class %s in %s\n", n, classID, year)
	return nil
}

func (q *inspector) roster(ctx context.Context, classID string, at time.Time) error {
	const query = `
SELECT s.id::text, s.full_name, s.status, m.valid_from
FROM student_class_memberships m
JOIN students s ON s.id = m.student_id
WHERE m.class_id = $1::text::uuid AND m.valid_from <= $2 AND (m.valid_to IS NULL OR m.valid_to > $2)
ORDER BY s.full_name, s.id`
	rows, err := q.db.Query(ctx, query, classID, at)
	if err != nil {
		return fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(q.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT\tNAME\tSTATUS\tSINCE")
	for rows.Next() {
		var (
			id, name, status string
			since            time.Time
		)
		if err := rows.Scan(&id, &name, &status, &since); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, name, status, since.UTC().Format(time.RFC3339))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return w.Flush()
}

func (q *inspector) overdue(ctx context.Context, cutoff time.Time) error {
	const query = `
SELECT id::text, class_id::text, state, ends_at
FROM class_sessions
WHERE state <> 'closed' AND ends_at < $1
ORDER BY ends_at`
	rows, err := q.db.Query(ctx, query, cutoff)
	if err != nil {
		return fmt.Errorf("list overdue sessions: %w", err)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(q.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tCLASS\tSTATE\tENDS")
	for rows.Next() {
		var (
			id, classID, state string
			ends               time.Time
		)
		if err := rows.Scan(&id, &classID, &state, &ends); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, classID, state, ends.UTC().Format(time.RFC3339))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return w.Flush()
}

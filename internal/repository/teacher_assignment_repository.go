package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/database"
)

const (
	assignmentColumns    = `id, teacher_id, class_id, academic_year, is_lead, created_at, updated_at`
	leadIndexConstraint  = "teacher_class_assignments_lead_key"
	teacherFKConstraint  = "teacher_class_assignments_teacher_id_fkey"
	classFKConstraint    = "teacher_class_assignments_class_id_fkey"
	assignmentLockPrefix = "teacher_class_assignments:"
)

// TeacherAssignmentRepository persists per-year teacher-class assignments.
// Writes for one (class, year) are serialised with a transaction-scoped
// advisory lock; the partial unique index on leads backs it up.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// ListByClass returns assignments for the class, leads first then by teacher
// name. An empty year lists every year. Teacher and class fields are nil when
// the reference no longer resolves.
func (r *TeacherAssignmentRepository) ListByClass(ctx context.Context, classID, year string) ([]models.AssignmentDetail, error) {
	return listAssignmentDetails(ctx, r.db, "a.class_id", classID, year)
}

// ListByTeacher returns assignments held by the teacher.
func (r *TeacherAssignmentRepository) ListByTeacher(ctx context.Context, teacherID, year string) ([]models.AssignmentDetail, error) {
	return listAssignmentDetails(ctx, r.db, "a.teacher_id", teacherID, year)
}

func listAssignmentDetails(ctx context.Context, q sqlx.QueryerContext, column, id, year string) ([]models.AssignmentDetail, error) {
	query := strings.Builder{}
	query.WriteString(`
SELECT a.id, a.teacher_id, a.class_id, a.academic_year, a.is_lead, a.created_at, a.updated_at,
	t.full_name AS teacher_name, t.status AS teacher_status, c.name AS class_name
FROM teacher_class_assignments a
LEFT JOIN teachers t ON t.id = a.teacher_id
LEFT JOIN classes c ON c.id = a.class_id
WHERE `)
	query.WriteString(column)
	query.WriteString(" = $1")

	args := []interface{}{id}
	if year != "" {
		args = append(args, year)
		fmt.Fprintf(&query, " AND a.academic_year = $%d", len(args))
	}
	query.WriteString("\nORDER BY a.is_lead DESC, t.full_name ASC NULLS LAST, a.academic_year DESC, a.teacher_id ASC")

	var items []models.AssignmentDetail
	if err := sqlx.SelectContext(ctx, q, &items, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list teacher class assignments: %w", err)
	}
	return items, nil
}

// ListClassYears returns every (class, year) pair that has assignments or sessions.
func (r *TeacherAssignmentRepository) ListClassYears(ctx context.Context) ([]models.ClassYear, error) {
	const query = `
SELECT class_id, academic_year FROM teacher_class_assignments
UNION
SELECT class_id, academic_year FROM class_sessions
ORDER BY class_id, academic_year`
	var pairs []models.ClassYear
	if err := r.db.SelectContext(ctx, &pairs, query); err != nil {
		return nil, fmt.Errorf("list class years: %w", err)
	}
	return pairs, nil
}

// Upsert inserts or updates the (teacher, class, year) tuple. Promoting a lead
// when another lead exists fails with ErrLeadTeacherExists unless
// DemoteExistingLead is set, in which case the previous lead is demoted in the
// same transaction.
func (r *TeacherAssignmentRepository) Upsert(ctx context.Context, params models.UpsertAssignmentParams) (*models.UpsertAssignmentResult, error) {
	result := &models.UpsertAssignmentResult{}
	err := database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		if err := lockClassYear(ctx, tx, params.ClassID, params.AcademicYear); err != nil {
			return err
		}
		if err := ensureExists(ctx, tx, "teachers", params.TeacherID, ErrTeacherNotFound); err != nil {
			return err
		}
		if err := ensureExists(ctx, tx, "classes", params.ClassID, ErrClassNotFound); err != nil {
			return err
		}

		existing, err := findAssignment(ctx, tx, params.AssignmentKey)
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		if params.IsLead {
			var leads []models.TeacherAssignment
			const leadQuery = `SELECT ` + assignmentColumns + ` FROM teacher_class_assignments
WHERE class_id = $1 AND academic_year = $2 AND is_lead AND teacher_id <> $3
ORDER BY updated_at DESC`
			if err := tx.SelectContext(ctx, &leads, leadQuery, params.ClassID, params.AcademicYear, params.TeacherID); err != nil {
				return fmt.Errorf("load current lead: %w", err)
			}
			if len(leads) > 0 {
				if !params.DemoteExistingLead {
					return ErrLeadTeacherExists
				}
				const demote = `UPDATE teacher_class_assignments SET is_lead = FALSE, updated_at = $3
WHERE class_id = $1 AND academic_year = $2 AND is_lead AND teacher_id <> $4`
				if _, err := tx.ExecContext(ctx, demote, params.ClassID, params.AcademicYear, now, params.TeacherID); err != nil {
					return fmt.Errorf("demote current lead: %w", err)
				}
				demoted := leads[0]
				demoted.IsLead = false
				demoted.UpdatedAt = now
				result.DemotedLead = &demoted
			}
		}

		if existing != nil {
			previous := *existing
			result.Previous = &previous
			if existing.IsLead == params.IsLead {
				result.Assignment = *existing
				return nil
			}
			const update = `UPDATE teacher_class_assignments SET is_lead = $2, updated_at = $3 WHERE id = $1 RETURNING ` + assignmentColumns
			if err := tx.GetContext(ctx, &result.Assignment, update, existing.ID, params.IsLead, now); err != nil {
				return translateAssignmentErr("update teacher class assignment", err)
			}
			return nil
		}

		const insert = `INSERT INTO teacher_class_assignments (id, teacher_id, class_id, academic_year, is_lead, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING ` + assignmentColumns
		if err := tx.GetContext(ctx, &result.Assignment, insert, uuid.NewString(), params.TeacherID, params.ClassID, params.AcademicYear, params.IsLead, now); err != nil {
			return translateAssignmentErr("insert teacher class assignment", err)
		}
		result.Created = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the tuple and returns the removed row, or sql.ErrNoRows.
func (r *TeacherAssignmentRepository) Delete(ctx context.Context, key models.AssignmentKey) (*models.TeacherAssignment, error) {
	var removed models.TeacherAssignment
	err := database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		if err := lockClassYear(ctx, tx, key.ClassID, key.AcademicYear); err != nil {
			return err
		}
		const query = `DELETE FROM teacher_class_assignments WHERE teacher_id = $1 AND class_id = $2 AND academic_year = $3 RETURNING ` + assignmentColumns
		if err := tx.GetContext(ctx, &removed, query, key.TeacherID, key.ClassID, key.AcademicYear); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sql.ErrNoRows
			}
			return fmt.Errorf("delete teacher class assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

func lockClassYear(ctx context.Context, tx *sqlx.Tx, classID, year string) error {
	key := assignmentLockPrefix + classID + ":" + year
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock class year: %w", err)
	}
	return nil
}

func ensureExists(ctx context.Context, tx *sqlx.Tx, table, id string, missing error) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE id = $1)`
	if err := tx.GetContext(ctx, &exists, query, id); err != nil {
		return fmt.Errorf("check %s reference: %w", table, err)
	}
	if !exists {
		return missing
	}
	return nil
}

func findAssignment(ctx context.Context, tx *sqlx.Tx, key models.AssignmentKey) (*models.TeacherAssignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM teacher_class_assignments WHERE teacher_id = $1 AND class_id = $2 AND academic_year = $3`
	var assignment models.TeacherAssignment
	if err := tx.GetContext(ctx, &assignment, query, key.TeacherID, key.ClassID, key.AcademicYear); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load teacher class assignment: %w", err)
	}
	return &assignment, nil
}

func translateAssignmentErr(op string, err error) error {
	switch {
	case database.IsUniqueViolation(err, leadIndexConstraint):
		return ErrLeadTeacherExists
	case database.IsForeignKeyViolation(err, teacherFKConstraint):
		return ErrTeacherNotFound
	case database.IsForeignKeyViolation(err, classFKConstraint):
		return ErrClassNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/database"
)

const teacherColumns = `id, full_name, teacher_type, status, phone, email, notes, created_at, updated_at`

// ErrTeacherEmailTaken is returned when another teacher already uses the email.
var ErrTeacherEmailTaken = errors.New("teacher email already registered")

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByIDs fetches the teachers that exist among ids. Missing ids are skipped.
func (r *TeacherRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	return findTeachersByIDs(ctx, r.db, ids)
}

func findTeachersByIDs(ctx context.Context, q sqlx.QueryerContext, ids []string) ([]models.Teacher, error) {
	if len(ids) == 0 {
		return []models.Teacher{}, nil
	}
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE id = ANY($1) ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := sqlx.SelectContext(ctx, q, &teachers, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find teachers: %w", err)
	}
	return teachers, nil
}

// Create inserts a new teacher record.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (id, full_name, teacher_type, status, phone, email, notes, created_at, updated_at)
		VALUES (:id, :full_name, :teacher_type, :status, :phone, :email, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		if database.IsUniqueViolation(err, "teachers_email_key") {
			return ErrTeacherEmailTaken
		}
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Deactivate flips the teacher to inactive. Assignments are kept so the
// validator can report them.
func (r *TeacherRepository) Deactivate(ctx context.Context, id string) (*models.Teacher, error) {
	query := `UPDATE teachers SET status = 'inactive', updated_at = $2 WHERE id = $1 RETURNING ` + teacherColumns
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("deactivate teacher: %w", err)
	}
	return &teacher, nil
}

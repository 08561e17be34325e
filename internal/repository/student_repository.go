package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
)

// StudentRepository reads rosters, current and historical.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListActiveByClass returns students currently in the class with active status.
func (r *StudentRepository) ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return listActiveStudents(ctx, r.db, classID)
}

// ListByClassAsOf returns the active students whose membership interval
// covered the class at the given instant. Later transfers do not change the
// result; status is the current one since status history is not kept.
func (r *StudentRepository) ListByClassAsOf(ctx context.Context, classID string, at time.Time) ([]models.Student, error) {
	return listStudentsAsOf(ctx, r.db, classID, at)
}

func listActiveStudents(ctx context.Context, q sqlx.QueryerContext, classID string) ([]models.Student, error) {
	const query = `
SELECT s.id, s.full_name, s.class_id, s.status, s.created_at, s.updated_at
FROM students s
WHERE s.class_id = $1 AND s.status = 'active'
ORDER BY s.full_name ASC, s.id ASC`
	var students []models.Student
	if err := sqlx.SelectContext(ctx, q, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

func listStudentsAsOf(ctx context.Context, q sqlx.QueryerContext, classID string, at time.Time) ([]models.Student, error) {
	const query = `
SELECT s.id, s.full_name, m.class_id, s.status, s.created_at, s.updated_at
FROM student_class_memberships m
JOIN students s ON s.id = m.student_id
WHERE m.class_id = $1
	AND m.valid_from <= $2
	AND (m.valid_to IS NULL OR m.valid_to > $2)
	AND s.status = 'active'
ORDER BY s.full_name ASC, s.id ASC`
	var students []models.Student
	if err := sqlx.SelectContext(ctx, q, &students, query, classID, at.UTC()); err != nil {
		return nil, fmt.Errorf("list class membership snapshot: %w", err)
	}
	return students, nil
}

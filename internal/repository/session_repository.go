package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/database"
)

const sessionColumns = `id, class_id, starts_at, ends_at, academic_year, state, opened_at, closed_at, closed_by, close_trigger, final_report, created_at, updated_at`

const (
	teacherRecordColumns = `id, session_id, teacher_id, role, entered_at, created_at, updated_at`
	studentRecordColumns = `id, session_id, student_id, status, notes, created_at, updated_at`
	attendanceStudentFK  = "student_attendance_records_student_id_fkey"
	attendanceTeacherFK  = "attending_teacher_records_teacher_id_fkey"
)

// LockedSession is a session row held under SELECT ... FOR UPDATE for the
// lifetime of one transaction. Every attendance write goes through it.
type LockedSession interface {
	Session() *models.ClassSession
	Open(ctx context.Context, at time.Time) error
	Close(ctx context.Context, at time.Time, trigger models.CloseTrigger, closedBy *string, report []byte) error
	UpsertTeacherPresence(ctx context.Context, record *models.AttendingTeacherRecord) error
	UpsertStudentAttendance(ctx context.Context, record *models.StudentAttendanceRecord) error
	TeacherRecords(ctx context.Context) ([]models.AttendingTeacherRecord, error)
	StudentRecords(ctx context.Context) ([]models.StudentAttendanceRecord, error)
	// Expectations reads assignments, teachers and rosters on the locking
	// transaction, so a locked write never needs a second connection.
	Expectations() ExpectationReader
}

// ExpectationReader is the read side needed to resolve who should attend a
// session.
type ExpectationReader interface {
	ListByClass(ctx context.Context, classID, year string) ([]models.AssignmentDetail, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
	ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error)
	ListByClassAsOf(ctx context.Context, classID string, at time.Time) ([]models.Student, error)
}

type txExpectationReader struct {
	q sqlx.QueryerContext
}

func (r txExpectationReader) ListByClass(ctx context.Context, classID, year string) ([]models.AssignmentDetail, error) {
	return listAssignmentDetails(ctx, r.q, "a.class_id", classID, year)
}

func (r txExpectationReader) FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	return findTeachersByIDs(ctx, r.q, ids)
}

func (r txExpectationReader) ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return listActiveStudents(ctx, r.q, classID)
}

func (r txExpectationReader) ListByClassAsOf(ctx context.Context, classID string, at time.Time) ([]models.Student, error) {
	return listStudentsAsOf(ctx, r.q, classID, at)
}

// SessionRepository persists class sessions and their attendance records.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create registers an externally scheduled session.
func (r *SessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.State == "" {
		session.State = models.SessionUnopened
	}

	const query = `INSERT INTO class_sessions (id, class_id, starts_at, ends_at, academic_year, state, created_at, updated_at)
		VALUES (:id, :class_id, :starts_at, :ends_at, :academic_year, :state, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		if database.IsForeignKeyViolation(err, "class_sessions_class_id_fkey") {
			return ErrClassNotFound
		}
		return fmt.Errorf("create class session: %w", err)
	}
	return nil
}

// FindByID fetches a session without locking it.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM class_sessions WHERE id = $1`
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListOverdue returns sessions not yet closed whose end time is before cutoff.
func (r *SessionRepository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]models.ClassSession, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + sessionColumns + ` FROM class_sessions WHERE state <> 'closed' AND ends_at < $1 ORDER BY ends_at ASC LIMIT $2`
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, cutoff.UTC(), limit); err != nil {
		return nil, fmt.Errorf("list overdue sessions: %w", err)
	}
	return sessions, nil
}

// TeacherRecords lists recorded teacher presence for a session.
func (r *SessionRepository) TeacherRecords(ctx context.Context, sessionID string) ([]models.AttendingTeacherRecord, error) {
	return listTeacherRecords(ctx, r.db, sessionID)
}

// StudentRecords lists recorded student attendance for a session.
func (r *SessionRepository) StudentRecords(ctx context.Context, sessionID string) ([]models.StudentAttendanceRecord, error) {
	return listStudentRecords(ctx, r.db, sessionID)
}

// WithLock locks the session row and runs fn in the same transaction. An error
// from fn rolls everything back. Returns sql.ErrNoRows for unknown sessions.
func (r *SessionRepository) WithLock(ctx context.Context, id string, fn func(LockedSession) error) error {
	return database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		query := `SELECT ` + sessionColumns + ` FROM class_sessions WHERE id = $1 FOR UPDATE`
		var session models.ClassSession
		if err := tx.GetContext(ctx, &session, query, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sql.ErrNoRows
			}
			return fmt.Errorf("lock class session: %w", err)
		}
		return fn(&lockedSession{tx: tx, session: &session})
	})
}

type lockedSession struct {
	tx      *sqlx.Tx
	session *models.ClassSession
}

func (l *lockedSession) Session() *models.ClassSession {
	return l.session
}

func (l *lockedSession) Open(ctx context.Context, at time.Time) error {
	if l.session.State == models.SessionClosed {
		return ErrSessionClosed
	}
	if l.session.State == models.SessionOpen {
		return nil
	}
	at = at.UTC()
	const query = `UPDATE class_sessions SET state = 'open', opened_at = $2, updated_at = $2 WHERE id = $1`
	if _, err := l.tx.ExecContext(ctx, query, l.session.ID, at); err != nil {
		return fmt.Errorf("open class session: %w", err)
	}
	l.session.State = models.SessionOpen
	l.session.OpenedAt = &at
	l.session.UpdatedAt = at
	return nil
}

func (l *lockedSession) Close(ctx context.Context, at time.Time, trigger models.CloseTrigger, closedBy *string, report []byte) error {
	if l.session.State == models.SessionClosed {
		return ErrSessionClosed
	}
	at = at.UTC()
	const query = `UPDATE class_sessions
SET state = 'closed', closed_at = $2, closed_by = $3, close_trigger = $4, final_report = $5, updated_at = $2
WHERE id = $1`
	if _, err := l.tx.ExecContext(ctx, query, l.session.ID, at, closedBy, string(trigger), report); err != nil {
		return fmt.Errorf("close class session: %w", err)
	}
	l.session.State = models.SessionClosed
	l.session.ClosedAt = &at
	l.session.ClosedBy = closedBy
	l.session.CloseTrigger = &trigger
	raw := json.RawMessage(report)
	l.session.FinalReport = &raw
	l.session.UpdatedAt = at
	return nil
}

func (l *lockedSession) UpsertTeacherPresence(ctx context.Context, record *models.AttendingTeacherRecord) error {
	if l.session.State != models.SessionOpen {
		return ErrSessionClosed
	}
	now := time.Now().UTC()
	record.SessionID = l.session.ID
	const query = `INSERT INTO attending_teacher_records (id, session_id, teacher_id, role, entered_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (session_id, teacher_id) DO UPDATE SET role = EXCLUDED.role, entered_at = EXCLUDED.entered_at, updated_at = EXCLUDED.updated_at
RETURNING ` + teacherRecordColumns
	if err := l.tx.GetContext(ctx, record, query, uuid.NewString(), record.SessionID, record.TeacherID, record.Role, record.EnteredAt, now); err != nil {
		if database.IsForeignKeyViolation(err, attendanceTeacherFK) {
			return ErrTeacherNotFound
		}
		return fmt.Errorf("upsert teacher presence: %w", err)
	}
	return nil
}

func (l *lockedSession) UpsertStudentAttendance(ctx context.Context, record *models.StudentAttendanceRecord) error {
	if l.session.State != models.SessionOpen {
		return ErrSessionClosed
	}
	now := time.Now().UTC()
	record.SessionID = l.session.ID
	const query = `INSERT INTO student_attendance_records (id, session_id, student_id, status, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (session_id, student_id) DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
RETURNING ` + studentRecordColumns
	if err := l.tx.GetContext(ctx, record, query, uuid.NewString(), record.SessionID, record.StudentID, string(record.Status), record.Notes, now); err != nil {
		if database.IsForeignKeyViolation(err, attendanceStudentFK) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("upsert student attendance: %w", err)
	}
	return nil
}

func (l *lockedSession) TeacherRecords(ctx context.Context) ([]models.AttendingTeacherRecord, error) {
	return listTeacherRecords(ctx, l.tx, l.session.ID)
}

func (l *lockedSession) StudentRecords(ctx context.Context) ([]models.StudentAttendanceRecord, error) {
	return listStudentRecords(ctx, l.tx, l.session.ID)
}

func (l *lockedSession) Expectations() ExpectationReader {
	return txExpectationReader{q: l.tx}
}

func listTeacherRecords(ctx context.Context, q sqlx.QueryerContext, sessionID string) ([]models.AttendingTeacherRecord, error) {
	query := `SELECT ` + teacherRecordColumns + ` FROM attending_teacher_records WHERE session_id = $1 ORDER BY created_at ASC, teacher_id ASC`
	var records []models.AttendingTeacherRecord
	if err := sqlx.SelectContext(ctx, q, &records, query, sessionID); err != nil {
		return nil, fmt.Errorf("list teacher presence: %w", err)
	}
	return records, nil
}

func listStudentRecords(ctx context.Context, q sqlx.QueryerContext, sessionID string) ([]models.StudentAttendanceRecord, error) {
	query := `SELECT ` + studentRecordColumns + ` FROM student_attendance_records WHERE session_id = $1 ORDER BY created_at ASC, student_id ASC`
	var records []models.StudentAttendanceRecord
	if err := sqlx.SelectContext(ctx, q, &records, query, sessionID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return records, nil
}

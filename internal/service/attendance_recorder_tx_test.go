package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/dto"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/repository"
)

var (
	txSessionColumns = []string{"id", "class_id", "starts_at", "ends_at", "academic_year", "state", "opened_at", "closed_at", "closed_by", "close_trigger", "final_report", "created_at", "updated_at"}
	txAssignmentCols = []string{"id", "teacher_id", "class_id", "academic_year", "is_lead", "created_at", "updated_at", "teacher_name", "teacher_status", "class_name"}
	txTeacherColumns = []string{"id", "full_name", "teacher_type", "status", "phone", "email", "notes", "created_at", "updated_at"}
	txStudentColumns = []string{"id", "full_name", "class_id", "status", "created_at", "updated_at"}
)

// newSingleConnRecorder wires the recorder to real repositories over a pool
// of one connection. Any read outside the locking transaction would block
// until the context deadline.
func newSingleConnRecorder(t *testing.T, now time.Time) (*AttendanceRecorder, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	raw.SetMaxOpenConns(1)
	db := sqlx.NewDb(raw, "sqlmock")

	clock := func() time.Time { return now }
	resolver := NewExpectationResolver(
		repository.NewTeacherAssignmentRepository(db),
		repository.NewTeacherRepository(db),
		repository.NewStudentRepository(db),
		ExpectationResolverConfig{Clock: clock},
		nil,
	)
	recorder := NewAttendanceRecorder(repository.NewSessionRepository(db), resolver, nil, NewMetricsService(), nil, AttendanceRecorderConfig{Clock: clock}, nil)
	return recorder, mock
}

func expectLockedSession(mock sqlmock.Sqlmock, startsAt time.Time, state models.SessionState) {
	created := startsAt.Add(-time.Hour)
	opened := startsAt
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM class_sessions WHERE id = \$1 FOR UPDATE`).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows(txSessionColumns).
			AddRow("sess-1", "c-1", startsAt, startsAt.Add(time.Hour), "2024", string(state), opened, nil, nil, nil, nil, created, created))
}

func expectTeacherReads(mock sqlmock.Sqlmock, at time.Time) {
	mock.ExpectQuery(`FROM teacher_class_assignments a`).
		WithArgs("c-1", "2024").
		WillReturnRows(sqlmock.NewRows(txAssignmentCols).
			AddRow("a-1", "t-1", "c-1", "2024", true, at, at, "Ana Lima", "active", "Class 1A"))
	mock.ExpectQuery(`FROM teachers WHERE id = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows(txTeacherColumns).
			AddRow("t-1", "Ana Lima", "formal", "active", nil, nil, nil, at, at))
}

func TestRecordStudentAttendanceOnSingleConnection(t *testing.T) {
	startsAt := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	now := startsAt.Add(20 * time.Minute)
	recorder, mock := newSingleConnRecorder(t, now)

	expectLockedSession(mock, startsAt, models.SessionOpen)
	expectTeacherReads(mock, startsAt)
	mock.ExpectQuery(`s\.class_id = \$1 AND s\.status = 'active'`).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(txStudentColumns).AddRow("st-1", "Bruno", "c-1", "active", startsAt, startsAt))
	mock.ExpectQuery(`INSERT INTO student_attendance_records`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "student_id", "status", "notes", "created_at", "updated_at"}).
			AddRow("r-1", "sess-1", "st-1", "present", nil, now, now))
	mock.ExpectCommit()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := recorder.RecordStudentAttendance(ctx, "sess-1", "st-1", dto.RecordStudentAttendanceRequest{Status: "present"}, testAdmin)
	require.NoError(t, err)
	assert.False(t, res.Unexpected)
	assert.Equal(t, "r-1", res.Record.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseSessionOnSingleConnectionUsesSnapshot(t *testing.T) {
	startsAt := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	created := startsAt.Add(-time.Hour)
	now := startsAt.Add(30 * time.Minute)
	recorder, mock := newSingleConnRecorder(t, now)

	expectLockedSession(mock, startsAt, models.SessionOpen)
	expectTeacherReads(mock, startsAt)
	mock.ExpectQuery(`FROM student_class_memberships m`).
		WithArgs("c-1", created).
		WillReturnRows(sqlmock.NewRows(txStudentColumns).AddRow("st-1", "Bruno", "c-1", "active", startsAt, startsAt))
	mock.ExpectQuery(`FROM attending_teacher_records WHERE session_id = \$1`).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "teacher_id", "role", "entered_at", "created_at", "updated_at"}))
	mock.ExpectQuery(`FROM student_attendance_records WHERE session_id = \$1`).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "student_id", "status", "notes", "created_at", "updated_at"}).
			AddRow("r-1", "sess-1", "st-1", "present", nil, startsAt, startsAt).
			AddRow("r-2", "sess-1", "st-late", "present", nil, now, now))
	mock.ExpectExec(`UPDATE class_sessions\s+SET state = 'closed'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	closed, err := recorder.CloseSession(ctx, "sess-1", testAdmin)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.NotNil(t, closed.FinalReport)
	var final models.ReconciliationReport
	require.NoError(t, json.Unmarshal(*closed.FinalReport, &final))
	assert.Equal(t, []string{"st-1"}, final.PresentStudents[models.AttendancePresent])
	assert.Equal(t, []string{"st-late"}, final.UnexpectedStudents)
}

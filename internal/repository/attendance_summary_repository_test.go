package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
)

func TestAttendanceSummaryRepositorySummarize(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceSummaryRepository(db)

	from := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT cs.id) AS sessions")).
		WithArgs("c-1", "2024", from).
		WillReturnRows(sqlmock.NewRows([]string{"sessions", "present", "late", "excused", "absent"}).AddRow(3, 4, 1, 0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY sa.student_id, s.full_name")).
		WithArgs("c-1", "2024", from).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "student_name", "present", "late", "excused", "absent", "recorded", "rate"}).
			AddRow("st-1", "Ana", 3, 0, 0, 0, 3, 100.0).
			AddRow("st-2", "Bruno", 1, 1, 0, 1, 3, 66.67))

	summary, err := repo.Summarize(context.Background(), models.AttendanceSummaryFilter{ClassID: "c-1", AcademicYear: "2024", From: &from})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Sessions)
	assert.Equal(t, 4, summary.Present)
	assert.Equal(t, 1, summary.Absent)
	require.Len(t, summary.Students, 2)
	assert.Equal(t, "Bruno", summary.Students[1].StudentName)
	assert.InDelta(t, 66.67, summary.Students[1].Rate, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSummaryRepositoryEmptyClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceSummaryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT cs.id) AS sessions")).
		WithArgs("c-1", "2024").
		WillReturnRows(sqlmock.NewRows([]string{"sessions", "present", "late", "excused", "absent"}).AddRow(0, 0, 0, 0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY sa.student_id, s.full_name")).
		WithArgs("c-1", "2024").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "student_name", "present", "late", "excused", "absent", "recorded", "rate"}))

	summary, err := repo.Summarize(context.Background(), models.AttendanceSummaryFilter{ClassID: "c-1", AcademicYear: "2024"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sessions)
	assert.NotNil(t, summary.Students)
	assert.Empty(t, summary.Students)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSummaryRepositoryRequiresScope(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	_, err := NewAttendanceSummaryRepository(db).Summarize(context.Background(), models.AttendanceSummaryFilter{ClassID: "c-1"})
	assert.Error(t, err)
}

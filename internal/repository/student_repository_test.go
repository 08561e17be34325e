package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var studentRowColumns = []string{"id", "full_name", "class_id", "status", "created_at", "updated_at"}

func TestStudentRepositoryListActiveByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.class_id = $1 AND s.status = 'active'")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(studentRowColumns).
			AddRow("s1", "Student One", "c1", "active", now, now).
			AddRow("s2", "Student Two", "c1", "active", now, now))

	students, err := repo.ListActiveByClass(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListByClassAsOf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	at := time.Date(2024, 9, 10, 8, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	now := time.Now()
	mock.ExpectQuery(`m\.valid_to > \$2\)\s+AND s\.status = 'active'`).
		WithArgs("c1", at.UTC()).
		WillReturnRows(sqlmock.NewRows(studentRowColumns).AddRow("s1", "Student One", "c1", "active", now, now))

	students, err := repo.ListByClassAsOf(context.Background(), "c1", at)
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.NotNil(t, students[0].ClassID)
	assert.Equal(t, "c1", *students[0].ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

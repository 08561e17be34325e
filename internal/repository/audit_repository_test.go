package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
)

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	user := "admin-1"
	resource := "a1"
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(sqlmock.AnyArg(), &user, models.AuditActionAssignmentUpsert, "teacher_class_assignment", &resource, sqlmock.AnyArg(), []byte(`{"isLead":true}`), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.AuditLog{
		UserID:     &user,
		Action:     models.AuditActionAssignmentUpsert,
		Resource:   "teacher_class_assignment",
		ResourceID: &resource,
		NewValues:  []byte(`{"isLead":true}`),
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), log))
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

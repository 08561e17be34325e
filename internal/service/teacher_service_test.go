package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/dto"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
)

func strPtr(v string) *string { return &v }

func TestTeacherServiceCreate(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()

	teacher, err := h.teachers.Create(ctx, dto.CreateTeacherRequest{FullName: "  Siti Aminah ", Email: strPtr(" Siti@School.id "), Phone: strPtr("  ")}, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, "Siti Aminah", teacher.FullName)
	assert.Equal(t, models.TeacherTypeFormal, teacher.Type)
	assert.Equal(t, models.TeacherStatusActive, teacher.Status)
	require.NotNil(t, teacher.Email)
	assert.Equal(t, "siti@school.id", *teacher.Email)
	assert.Nil(t, teacher.Phone)

	_, err = h.teachers.Create(ctx, dto.CreateTeacherRequest{FullName: "Other", Email: strPtr("siti@school.id")}, testAdmin)
	requireCode(t, err, appErrors.ErrConflict)

	sub, err := h.teachers.Create(ctx, dto.CreateTeacherRequest{FullName: "Budi", TeacherType: "substitute"}, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.TeacherTypeSubstitute, sub.Type)

	_, err = h.teachers.Create(ctx, dto.CreateTeacherRequest{FullName: "X", TeacherType: "volunteer"}, testAdmin)
	requireCode(t, err, appErrors.ErrValidation)

	got, err := h.teachers.Get(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, got.ID)
	assert.Equal(t, []string{models.AuditActionTeacherCreate, models.AuditActionTeacherCreate}, h.w.auditActions())
}

func TestTeacherServiceDeactivateRevalidates(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.w.addClass("c1")
	h.w.addTeacher("t1", models.TeacherStatusActive)
	ctx := context.Background()
	_, err := h.assignments.Upsert(ctx, dto.UpsertAssignmentRequest{TeacherID: "t1", ClassID: "c1", AcademicYear: "2023", IsLead: true}, testAdmin)
	require.NoError(t, err)
	h.queue.jobs = nil

	teacher, err := h.teachers.Deactivate(ctx, "t1", testAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.TeacherStatusInactive, teacher.Status)
	assert.Equal(t, []string{JobValidateClassYear + ":c1/2023"}, h.queue.keys())

	findings, err := h.validator.ValidateClassYear(ctx, "c1", "2023")
	require.NoError(t, err)
	assert.Equal(t, []models.FindingType{models.FindingInactiveTeacherAssigned}, findingTypes(findings))

	_, err = h.teachers.Deactivate(ctx, "ghost", testAdmin)
	requireCode(t, err, appErrors.ErrNotFound)
	_, err = h.teachers.Get(ctx, "ghost")
	requireCode(t, err, appErrors.ErrNotFound)
}

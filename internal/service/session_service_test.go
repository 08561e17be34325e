package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/dto"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
)

func TestCreateSessionDerivesAcademicYear(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.w.addClass("c1")
	ctx := context.Background()

	starts := time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)
	session, err := h.sessions.Create(ctx, dto.CreateSessionRequest{ClassID: "c1", StartsAt: starts, EndsAt: starts.Add(time.Hour)}, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, "2024", session.AcademicYear)
	assert.Equal(t, models.SessionUnopened, session.State)
	assert.Contains(t, h.queue.keys(), JobValidateClassYear+":c1/2024")

	_, err = h.sessions.Create(ctx, dto.CreateSessionRequest{ClassID: "c1", StartsAt: starts, EndsAt: starts.Add(-time.Hour)}, testAdmin)
	requireCode(t, err, appErrors.ErrValidation)

	_, err = h.sessions.Create(ctx, dto.CreateSessionRequest{ClassID: "nope", StartsAt: starts, EndsAt: starts.Add(time.Hour)}, testAdmin)
	requireCode(t, err, appErrors.ErrNotFound)
}

func TestSessionDetailAndExpected(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	seedClass(t, h)
	h.w.addSession("sess", "c1", "2024", testNow, testNow.Add(time.Hour))
	ctx := context.Background()

	_, err := h.recorder.RecordStudentAttendance(ctx, "sess", "s2", dto.RecordStudentAttendanceRequest{Status: "excused"}, testAdmin)
	require.NoError(t, err)

	detail, err := h.sessions.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, models.SessionOpen, detail.Session.State)
	assert.Empty(t, detail.AttendingTeachers)
	require.Len(t, detail.StudentAttendance, 1)
	require.NotNil(t, detail.Reconciliation)
	assert.Equal(t, []string{"s1"}, detail.Reconciliation.MissingStudents)
	assert.Equal(t, []string{"s2"}, detail.Reconciliation.PresentStudents[models.AttendanceExcused])

	exp, err := h.sessions.Expected(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, "t1", exp.Teachers.LeadID)
	assert.Len(t, exp.Teachers.Teachers, 2)
	assert.Len(t, exp.Students.Students, 2)

	report, err := h.sessions.Reconcile(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, detail.Reconciliation, report)

	_, err = h.sessions.Get(ctx, "missing")
	requireCode(t, err, appErrors.ErrNotFound)
}

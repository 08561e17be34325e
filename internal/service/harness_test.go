package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/academicyear"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
	appErrors "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/errors"
)

var (
	testNow   = time.Date(2024, time.September, 2, 8, 0, 0, 0, time.UTC)
	testRule  = academicyear.MustRule(time.August, 1, time.UTC)
	testAdmin = &auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}
)

type harnessOptions struct {
	strict bool
	grace  time.Duration
	anchor string
}

type harness struct {
	w           *fakeWorld
	queue       *recordingQueue
	validator   *AssignmentValidator
	resolver    *ExpectationResolver
	recorder    *AttendanceRecorder
	assignments *TeacherAssignmentService
	sessions    *SessionService
	teachers    *TeacherService
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	w := newFakeWorld(testNow)
	queue := &recordingQueue{}
	logger := zap.NewNop()
	metrics := NewMetricsService()

	validator := NewAssignmentValidator(fakeAssignments{w}, fakeClasses{w}, nil, metrics, queue, AssignmentValidatorConfig{
		Rule:       testRule,
		OnMutation: true,
		Clock:      w.now,
	}, logger)
	resolver := NewExpectationResolver(fakeAssignments{w}, fakeTeachers{w}, fakeStudents{w}, ExpectationResolverConfig{
		Strict:         opts.strict,
		SnapshotAnchor: opts.anchor,
		Clock:          w.now,
	}, logger)
	recorder := NewAttendanceRecorder(fakeSessions{w}, resolver, fakeAudit{w}, metrics, nil, AttendanceRecorderConfig{
		GracePeriod: opts.grace,
		Clock:       w.now,
	}, logger)
	assignments := NewTeacherAssignmentService(fakeAssignments{w}, fakeClasses{w}, fakeTeachers{w}, fakeStudents{w}, validator, nil, fakeAudit{w}, metrics, testRule, nil, logger)
	assignments.clock = w.now

	return &harness{
		w:           w,
		queue:       queue,
		validator:   validator,
		resolver:    resolver,
		recorder:    recorder,
		assignments: assignments,
		sessions:    NewSessionService(fakeSessions{w}, resolver, recorder, validator, nil, testRule, nil, logger),
		teachers:    NewTeacherService(fakeTeachers{w}, fakeAssignments{w}, validator, nil, fakeAudit{w}, nil, logger),
	}
}

func requireCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, want.Code, appErr.Code, appErr.Message)
	require.Equal(t, want.Status, appErr.Status)
}

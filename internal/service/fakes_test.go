package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/repository"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/jobs"
)

// fakeWorld is an in-memory stand-in for the repositories. It follows the
// same lead and lifecycle rules as the SQL stores.
type fakeWorld struct {
	mu          sync.Mutex
	seq         int
	clock       time.Time
	teachers    map[string]*models.Teacher
	classes     map[string]*models.Class
	students    map[string]*models.Student
	memberships []models.ClassMembership
	assignments []*models.TeacherAssignment
	sessions    map[string]*models.ClassSession
	teacherRecs map[string][]models.AttendingTeacherRecord
	studentRecs map[string][]models.StudentAttendanceRecord
	audits      []*models.AuditLog
}

func newFakeWorld(now time.Time) *fakeWorld {
	return &fakeWorld{
		clock:       now,
		teachers:    map[string]*models.Teacher{},
		classes:     map[string]*models.Class{},
		students:    map[string]*models.Student{},
		sessions:    map[string]*models.ClassSession{},
		teacherRecs: map[string][]models.AttendingTeacherRecord{},
		studentRecs: map[string][]models.StudentAttendanceRecord{},
	}
}

func (w *fakeWorld) now() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clock
}

func (w *fakeWorld) advance(d time.Duration) {
	w.mu.Lock()
	w.clock = w.clock.Add(d)
	w.mu.Unlock()
}

func (w *fakeWorld) nextID(prefix string) string {
	w.seq++
	return fmt.Sprintf("%s-%d", prefix, w.seq)
}

func (w *fakeWorld) addTeacher(id string, status models.TeacherStatus) {
	w.teachers[id] = &models.Teacher{ID: id, FullName: "Teacher " + id, Type: models.TeacherTypeFormal, Status: status}
}

func (w *fakeWorld) addClass(id string) {
	w.classes[id] = &models.Class{ID: id, Name: "Class " + id}
}

// enrol places a student in a class from the given instant.
func (w *fakeWorld) enrol(studentID, classID string, from time.Time) {
	cls := classID
	if s, ok := w.students[studentID]; ok {
		s.ClassID = &cls
	} else {
		w.students[studentID] = &models.Student{ID: studentID, FullName: "Student " + studentID, ClassID: &cls, Status: models.StudentStatusActive}
	}
	for i := range w.memberships {
		if w.memberships[i].StudentID == studentID && w.memberships[i].ValidTo == nil {
			end := from
			w.memberships[i].ValidTo = &end
		}
	}
	w.memberships = append(w.memberships, models.ClassMembership{ID: w.nextID("m"), StudentID: studentID, ClassID: classID, ValidFrom: from})
}

func (w *fakeWorld) addSession(id, classID, year string, startsAt, endsAt time.Time) *models.ClassSession {
	s := &models.ClassSession{
		ID: id, ClassID: classID, AcademicYear: year, StartsAt: startsAt, EndsAt: endsAt,
		State: models.SessionUnopened, CreatedAt: startsAt.Add(-time.Hour), UpdatedAt: startsAt.Add(-time.Hour),
	}
	w.sessions[id] = s
	return s
}

func (w *fakeWorld) leads(classID, year string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, a := range w.assignments {
		if a.ClassID == classID && a.AcademicYear == year && a.IsLead {
			n++
		}
	}
	return n
}

// assignment store

type fakeAssignments struct{ w *fakeWorld }

func (f fakeAssignments) detail(a *models.TeacherAssignment) models.AssignmentDetail {
	d := models.AssignmentDetail{TeacherAssignment: *a}
	if t, ok := f.w.teachers[a.TeacherID]; ok {
		name, status := t.FullName, t.Status
		d.TeacherName, d.TeacherStatus = &name, &status
	}
	if c, ok := f.w.classes[a.ClassID]; ok {
		name := c.Name
		d.ClassName = &name
	}
	return d
}

func (f fakeAssignments) list(match func(*models.TeacherAssignment) bool) []models.AssignmentDetail {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.AssignmentDetail
	for _, a := range f.w.assignments {
		if match(a) {
			out = append(out, f.detail(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsLead != out[j].IsLead {
			return out[i].IsLead
		}
		return out[i].TeacherID < out[j].TeacherID
	})
	return out
}

func (f fakeAssignments) ListByClass(ctx context.Context, classID, year string) ([]models.AssignmentDetail, error) {
	return f.list(func(a *models.TeacherAssignment) bool {
		return a.ClassID == classID && (year == "" || a.AcademicYear == year)
	}), nil
}

func (f fakeAssignments) ListByTeacher(ctx context.Context, teacherID, year string) ([]models.AssignmentDetail, error) {
	return f.list(func(a *models.TeacherAssignment) bool {
		return a.TeacherID == teacherID && (year == "" || a.AcademicYear == year)
	}), nil
}

func (f fakeAssignments) ListClassYears(ctx context.Context) ([]models.ClassYear, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	seen := map[models.ClassYear]bool{}
	var out []models.ClassYear
	add := func(p models.ClassYear) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, a := range f.w.assignments {
		add(models.ClassYear{ClassID: a.ClassID, AcademicYear: a.AcademicYear})
	}
	for _, s := range f.w.sessions {
		add(models.ClassYear{ClassID: s.ClassID, AcademicYear: s.AcademicYear})
	}
	return out, nil
}

func (f fakeAssignments) Upsert(ctx context.Context, params models.UpsertAssignmentParams) (*models.UpsertAssignmentResult, error) {
	w := f.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.teachers[params.TeacherID]; !ok {
		return nil, repository.ErrTeacherNotFound
	}
	if _, ok := w.classes[params.ClassID]; !ok {
		return nil, repository.ErrClassNotFound
	}
	now := w.clock
	result := &models.UpsertAssignmentResult{}
	var existing *models.TeacherAssignment
	var others []*models.TeacherAssignment
	for _, a := range w.assignments {
		if a.ClassID != params.ClassID || a.AcademicYear != params.AcademicYear {
			continue
		}
		if a.TeacherID == params.TeacherID {
			existing = a
		} else if a.IsLead {
			others = append(others, a)
		}
	}
	if params.IsLead && len(others) > 0 {
		if !params.DemoteExistingLead {
			return nil, repository.ErrLeadTeacherExists
		}
		for _, o := range others {
			o.IsLead = false
			o.UpdatedAt = now
		}
		demoted := *others[0]
		result.DemotedLead = &demoted
	}
	if existing != nil {
		prev := *existing
		result.Previous = &prev
		if existing.IsLead != params.IsLead {
			existing.IsLead = params.IsLead
			existing.UpdatedAt = now
		}
		result.Assignment = *existing
		return result, nil
	}
	a := &models.TeacherAssignment{
		ID: w.nextID("a"), TeacherID: params.TeacherID, ClassID: params.ClassID,
		AcademicYear: params.AcademicYear, IsLead: params.IsLead, CreatedAt: now, UpdatedAt: now,
	}
	w.assignments = append(w.assignments, a)
	result.Assignment = *a
	result.Created = true
	return result, nil
}

func (f fakeAssignments) Delete(ctx context.Context, key models.AssignmentKey) (*models.TeacherAssignment, error) {
	w := f.w
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, a := range w.assignments {
		if a.TeacherID == key.TeacherID && a.ClassID == key.ClassID && a.AcademicYear == key.AcademicYear {
			w.assignments = append(w.assignments[:i], w.assignments[i+1:]...)
			removed := *a
			return &removed, nil
		}
	}
	return nil, sql.ErrNoRows
}

// classes, teachers, students

type fakeClasses struct{ w *fakeWorld }

func (f fakeClasses) FindByID(ctx context.Context, id string) (*models.Class, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if c, ok := f.w.classes[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeClasses) ListIDs(ctx context.Context) ([]string, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	ids := make([]string, 0, len(f.w.classes))
	for id := range f.w.classes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeTeachers struct{ w *fakeWorld }

func (f fakeTeachers) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if t, ok := f.w.teachers[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeTeachers) FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Teacher
	for _, id := range ids {
		if t, ok := f.w.teachers[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f fakeTeachers) Create(ctx context.Context, teacher *models.Teacher) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, t := range f.w.teachers {
		if t.Email != nil && teacher.Email != nil && *t.Email == *teacher.Email {
			return repository.ErrTeacherEmailTaken
		}
	}
	teacher.ID = f.w.nextID("t")
	teacher.CreatedAt = f.w.clock
	teacher.UpdatedAt = f.w.clock
	cp := *teacher
	f.w.teachers[teacher.ID] = &cp
	return nil
}

func (f fakeTeachers) Deactivate(ctx context.Context, id string) (*models.Teacher, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	t, ok := f.w.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	t.Status = models.TeacherStatusInactive
	cp := *t
	return &cp, nil
}

type fakeStudents struct{ w *fakeWorld }

func (f fakeStudents) ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Student
	for _, s := range f.w.students {
		if s.ClassID != nil && *s.ClassID == classID && s.Status == models.StudentStatusActive {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeStudents) ListByClassAsOf(ctx context.Context, classID string, at time.Time) ([]models.Student, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Student
	for _, m := range f.w.memberships {
		if m.ClassID != classID || m.ValidFrom.After(at) {
			continue
		}
		if m.ValidTo != nil && !m.ValidTo.After(at) {
			continue
		}
		s := *f.w.students[m.StudentID]
		if s.Status != models.StudentStatusActive {
			continue
		}
		cls := classID
		s.ClassID = &cls
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// sessions

type fakeSessions struct{ w *fakeWorld }

func (f fakeSessions) Create(ctx context.Context, session *models.ClassSession) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.classes[session.ClassID]; !ok {
		return repository.ErrClassNotFound
	}
	session.ID = f.w.nextID("s")
	session.CreatedAt = f.w.clock
	session.UpdatedAt = f.w.clock
	cp := *session
	f.w.sessions[session.ID] = &cp
	return nil
}

func (f fakeSessions) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if s, ok := f.w.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeSessions) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]models.ClassSession, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.ClassSession
	for _, s := range f.w.sessions {
		if s.State != models.SessionClosed && s.EndsAt.Before(cutoff) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeSessions) TeacherRecords(ctx context.Context, sessionID string) ([]models.AttendingTeacherRecord, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	return append([]models.AttendingTeacherRecord(nil), f.w.teacherRecs[sessionID]...), nil
}

func (f fakeSessions) StudentRecords(ctx context.Context, sessionID string) ([]models.StudentAttendanceRecord, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	return append([]models.StudentAttendanceRecord(nil), f.w.studentRecs[sessionID]...), nil
}

// WithLock works on a copy and commits it only when fn succeeds, like the
// SQL transaction. The world mutex is not held while fn runs so fn may call
// other fakes.
func (f fakeSessions) WithLock(ctx context.Context, id string, fn func(repository.LockedSession) error) error {
	f.w.mu.Lock()
	s, ok := f.w.sessions[id]
	if !ok {
		f.w.mu.Unlock()
		return sql.ErrNoRows
	}
	locked := &fakeLocked{
		w:        f.w,
		session:  *s,
		teachers: append([]models.AttendingTeacherRecord(nil), f.w.teacherRecs[id]...),
		students: append([]models.StudentAttendanceRecord(nil), f.w.studentRecs[id]...),
	}
	f.w.mu.Unlock()

	if err := fn(locked); err != nil {
		return err
	}
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	committed := locked.session
	f.w.sessions[id] = &committed
	f.w.teacherRecs[id] = locked.teachers
	f.w.studentRecs[id] = locked.students
	return nil
}

type fakeLocked struct {
	w        *fakeWorld
	session  models.ClassSession
	teachers []models.AttendingTeacherRecord
	students []models.StudentAttendanceRecord
}

func (l *fakeLocked) Session() *models.ClassSession { return &l.session }

func (l *fakeLocked) Open(ctx context.Context, at time.Time) error {
	switch l.session.State {
	case models.SessionClosed:
		return repository.ErrSessionClosed
	case models.SessionOpen:
		return nil
	}
	l.session.State = models.SessionOpen
	l.session.OpenedAt = &at
	return nil
}

func (l *fakeLocked) Close(ctx context.Context, at time.Time, trigger models.CloseTrigger, closedBy *string, report []byte) error {
	if l.session.State == models.SessionClosed {
		return repository.ErrSessionClosed
	}
	l.session.State = models.SessionClosed
	l.session.ClosedAt = &at
	l.session.ClosedBy = closedBy
	l.session.CloseTrigger = &trigger
	raw := append([]byte(nil), report...)
	msg := json.RawMessage(raw)
	l.session.FinalReport = &msg
	return nil
}

func (l *fakeLocked) UpsertTeacherPresence(ctx context.Context, record *models.AttendingTeacherRecord) error {
	if l.session.State != models.SessionOpen {
		return repository.ErrSessionClosed
	}
	l.w.mu.Lock()
	_, known := l.w.teachers[record.TeacherID]
	l.w.mu.Unlock()
	if !known {
		return repository.ErrTeacherNotFound
	}
	for i := range l.teachers {
		if l.teachers[i].TeacherID == record.TeacherID {
			record.ID = l.teachers[i].ID
			l.teachers[i] = *record
			return nil
		}
	}
	l.w.mu.Lock()
	record.ID = l.w.nextID("tr")
	l.w.mu.Unlock()
	l.teachers = append(l.teachers, *record)
	return nil
}

func (l *fakeLocked) UpsertStudentAttendance(ctx context.Context, record *models.StudentAttendanceRecord) error {
	if l.session.State != models.SessionOpen {
		return repository.ErrSessionClosed
	}
	l.w.mu.Lock()
	_, known := l.w.students[record.StudentID]
	l.w.mu.Unlock()
	if !known {
		return repository.ErrStudentNotFound
	}
	for i := range l.students {
		if l.students[i].StudentID == record.StudentID {
			record.ID = l.students[i].ID
			l.students[i] = *record
			return nil
		}
	}
	l.w.mu.Lock()
	record.ID = l.w.nextID("sr")
	l.w.mu.Unlock()
	l.students = append(l.students, *record)
	return nil
}

func (l *fakeLocked) TeacherRecords(ctx context.Context) ([]models.AttendingTeacherRecord, error) {
	return append([]models.AttendingTeacherRecord(nil), l.teachers...), nil
}

func (l *fakeLocked) StudentRecords(ctx context.Context) ([]models.StudentAttendanceRecord, error) {
	return append([]models.StudentAttendanceRecord(nil), l.students...), nil
}

func (l *fakeLocked) Expectations() repository.ExpectationReader {
	return fakeExpectationReader{w: l.w}
}

type fakeExpectationReader struct{ w *fakeWorld }

func (f fakeExpectationReader) ListByClass(ctx context.Context, classID, year string) ([]models.AssignmentDetail, error) {
	return fakeAssignments{f.w}.ListByClass(ctx, classID, year)
}

func (f fakeExpectationReader) FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	return fakeTeachers{f.w}.FindByIDs(ctx, ids)
}

func (f fakeExpectationReader) ListActiveByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return fakeStudents{f.w}.ListActiveByClass(ctx, classID)
}

func (f fakeExpectationReader) ListByClassAsOf(ctx context.Context, classID string, at time.Time) ([]models.Student, error) {
	return fakeStudents{f.w}.ListByClassAsOf(ctx, classID, at)
}

// audit and jobs

type fakeAudit struct{ w *fakeWorld }

func (f fakeAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	f.w.audits = append(f.w.audits, log)
	return nil
}

func (w *fakeWorld) auditActions() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.audits))
	for _, a := range w.audits {
		out = append(out, a.Action)
	}
	return out
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) TryEnqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) keys() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j.Key)
	}
	return out
}

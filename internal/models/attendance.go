package models

import "time"

// AttendanceStatus is a student's recorded status for a session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceExcused AttendanceStatus = "excused"
	AttendanceLate    AttendanceStatus = "late"
)

// AttendanceStatuses lists statuses in report order.
var AttendanceStatuses = []AttendanceStatus{AttendancePresent, AttendanceLate, AttendanceExcused, AttendanceAbsent}

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceExcused, AttendanceLate:
		return true
	default:
		return false
	}
}

// TeacherRole is the role a teacher played at a session.
type TeacherRole string

const (
	RoleLead       TeacherRole = "lead"
	RoleAssistant  TeacherRole = "assistant"
	RoleSubstitute TeacherRole = "substitute"
)

// AttendingTeacherRecord marks actual teacher presence at a session.
type AttendingTeacherRecord struct {
	ID        string       `db:"id" json:"id"`
	SessionID string       `db:"session_id" json:"sessionId"`
	TeacherID string       `db:"teacher_id" json:"teacherId"`
	Role      *TeacherRole `db:"role" json:"role,omitempty"`
	EnteredAt *time.Time   `db:"entered_at" json:"enteredAt,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}

// StudentAttendanceRecord marks a student's status at a session.
type StudentAttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	SessionID string           `db:"session_id" json:"sessionId"`
	StudentID string           `db:"student_id" json:"studentId"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Notes     *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `db:"updated_at" json:"updatedAt"`
}

// TeacherPresenceResult is the outcome of recording a teacher's presence.
// Unexpected is a soft signal: the record is still written.
type TeacherPresenceResult struct {
	Record     AttendingTeacherRecord `json:"record"`
	Unexpected bool                   `json:"unexpected"`
	Warnings   []string               `json:"warnings,omitempty"`
}

// StudentAttendanceResult is the outcome of recording a student's status.
type StudentAttendanceResult struct {
	Record     StudentAttendanceRecord `json:"record"`
	Unexpected bool                    `json:"unexpected"`
	Warnings   []string                `json:"warnings,omitempty"`
}

// AttendanceSummaryFilter scopes an attendance aggregate to one class and year.
type AttendanceSummaryFilter struct {
	ClassID      string
	AcademicYear string
	From         *time.Time
	To           *time.Time
}

// StudentAttendanceSummary counts one student's recorded statuses.
type StudentAttendanceSummary struct {
	StudentID   string  `db:"student_id" json:"studentId"`
	StudentName string  `db:"student_name" json:"studentName"`
	Present     int     `db:"present" json:"present"`
	Late        int     `db:"late" json:"late"`
	Excused     int     `db:"excused" json:"excused"`
	Absent      int     `db:"absent" json:"absent"`
	Recorded    int     `db:"recorded" json:"recorded"`
	Rate        float64 `db:"rate" json:"rate"`
}

// AttendanceSummary aggregates student attendance across a class's sessions.
// Rate is the share of recorded entries marked present or late, in percent.
type AttendanceSummary struct {
	ClassID      string                     `json:"classId"`
	AcademicYear string                     `json:"academicYear"`
	Sessions     int                        `json:"sessions"`
	Present      int                        `json:"present"`
	Late         int                        `json:"late"`
	Excused      int                        `json:"excused"`
	Absent       int                        `json:"absent"`
	Students     []StudentAttendanceSummary `json:"students"`
}

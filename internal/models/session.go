package models

import (
	"encoding/json"
	"time"
)

// SessionState is the attendance lifecycle of a class session.
type SessionState string

const (
	SessionUnopened SessionState = "unopened"
	SessionOpen     SessionState = "open"
	SessionClosed   SessionState = "closed"
)

// CloseTrigger records why a session was closed.
type CloseTrigger string

const (
	CloseManual      CloseTrigger = "manual"
	CloseGracePeriod CloseTrigger = "grace_period"
)

// ClassSession is a scheduled meeting of a class.
type ClassSession struct {
	ID           string           `db:"id" json:"id"`
	ClassID      string           `db:"class_id" json:"classId"`
	StartsAt     time.Time        `db:"starts_at" json:"startsAt"`
	EndsAt       time.Time        `db:"ends_at" json:"endsAt"`
	AcademicYear string           `db:"academic_year" json:"academicYear"`
	State        SessionState     `db:"state" json:"state"`
	OpenedAt     *time.Time       `db:"opened_at" json:"openedAt,omitempty"`
	ClosedAt     *time.Time       `db:"closed_at" json:"closedAt,omitempty"`
	ClosedBy     *string          `db:"closed_by" json:"closedBy,omitempty"`
	CloseTrigger *CloseTrigger    `db:"close_trigger" json:"closeTrigger,omitempty"`
	FinalReport  *json.RawMessage `db:"final_report" json:"finalReport,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}

// GraceExpired reports whether the session is still writable by state but its
// grace window after EndsAt has elapsed at now.
func (s ClassSession) GraceExpired(now time.Time, grace time.Duration) bool {
	if s.State == SessionClosed || grace <= 0 {
		return false
	}
	return now.After(s.EndsAt.Add(grace))
}

// SessionDetail is the full read model of a session.
type SessionDetail struct {
	Session           ClassSession              `json:"session"`
	AttendingTeachers []AttendingTeacherRecord  `json:"attendingTeachers"`
	StudentAttendance []StudentAttendanceRecord `json:"studentAttendance"`
	Reconciliation    *ReconciliationReport     `json:"reconciliation"`
}

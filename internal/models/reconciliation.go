package models

import "time"

// Resolver warnings.
const (
	WarningNoAssignment  = "NO_ASSIGNMENT"
	WarningNoLeadTeacher = "NO_LEAD_TEACHER"
	WarningMultipleLeads = "MULTIPLE_LEAD_TEACHERS"
	WarningInactiveLead  = "LEAD_TEACHER_INACTIVE"

	// WarningUnexpectedParticipant marks a record for someone outside the
	// session's expectation. The record is still written.
	WarningUnexpectedParticipant = "UNEXPECTED_PARTICIPANT"
)

// ExpectedTeachers is the resolver's teacher expectation for a session.
type ExpectedTeachers struct {
	Teachers []Teacher `json:"teachers"`
	LeadID   string    `json:"leadTeacherId,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
}

// ExpectedStudents is the resolver's roster expectation for a session.
type ExpectedStudents struct {
	Students []Student `json:"students"`
	// AsOf is set when the roster is a historical snapshot.
	AsOf *time.Time `json:"asOf,omitempty"`
}

// Expectation is the combined resolver output.
type Expectation struct {
	SessionID    string           `json:"sessionId"`
	ClassID      string           `json:"classId"`
	AcademicYear string           `json:"academicYear"`
	Teachers     ExpectedTeachers `json:"teachers"`
	Students     ExpectedStudents `json:"students"`
}

// ReconciliationReport compares recorded attendance against the expectation.
type ReconciliationReport struct {
	SessionID          string                        `json:"sessionId"`
	State              SessionState                  `json:"state"`
	LeadTeacherID      string                        `json:"leadTeacherId,omitempty"`
	MissingTeachers    []string                      `json:"missingTeachers"`
	ExtraTeachers      []string                      `json:"extraTeachers"`
	MissingStudents    []string                      `json:"missingStudents"`
	PresentStudents    map[AttendanceStatus][]string `json:"presentStudents"`
	UnexpectedStudents []string                      `json:"unexpectedStudents"`
	Warnings           []string                      `json:"warnings"`
	GeneratedAt        time.Time                     `json:"generatedAt"`
}

package models

// FindingType names an assignment integrity problem.
type FindingType string

const (
	FindingNoAssignment            FindingType = "NO_ASSIGNMENT"
	FindingNoLeadTeacher           FindingType = "NO_LEAD_TEACHER"
	FindingMultipleLeadTeachers    FindingType = "MULTIPLE_LEAD_TEACHERS"
	FindingInactiveTeacherAssigned FindingType = "INACTIVE_TEACHER_ASSIGNED"
	FindingOrphanedAssignment      FindingType = "ORPHANED_ASSIGNMENT"
)

// FindingTypes lists every finding type.
var FindingTypes = []FindingType{
	FindingNoAssignment,
	FindingNoLeadTeacher,
	FindingMultipleLeadTeachers,
	FindingInactiveTeacherAssigned,
	FindingOrphanedAssignment,
}

// Finding is a reportable inconsistency. Findings are data, never errors.
type Finding struct {
	Type          FindingType `json:"type"`
	ClassID       string      `json:"classId"`
	AcademicYear  string      `json:"academicYear"`
	TeacherIDs    []string    `json:"teacherIds,omitempty"`
	AssignmentIDs []string    `json:"assignmentIds,omitempty"`
	// AuthoritativeLeadID is set for MULTIPLE_LEAD_TEACHERS.
	AuthoritativeLeadID string `json:"authoritativeLeadId,omitempty"`
	Message             string `json:"message"`
}

// AuditReport is the result of a full validation sweep.
type AuditReport struct {
	GeneratedAt  string               `json:"generatedAt"`
	CurrentYear  string               `json:"currentYear"`
	PairsChecked int                  `json:"pairsChecked"`
	Findings     map[string][]Finding `json:"findings"`
	Totals       map[FindingType]int  `json:"totals"`
}

package models

import "time"

// TeacherAssignment links a teacher to a class for one academic year.
type TeacherAssignment struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacherId"`
	ClassID      string    `db:"class_id" json:"classId"`
	AcademicYear string    `db:"academic_year" json:"academicYear"`
	IsLead       bool      `db:"is_lead" json:"isLead"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// AssignmentDetail enriches an assignment with the referenced teacher and class.
// The pointer fields are nil when the reference no longer resolves.
type AssignmentDetail struct {
	TeacherAssignment
	TeacherName   *string        `db:"teacher_name" json:"teacherName,omitempty"`
	TeacherStatus *TeacherStatus `db:"teacher_status" json:"teacherStatus,omitempty"`
	ClassName     *string        `db:"class_name" json:"className,omitempty"`
}

// AssignmentKey addresses a single assignment tuple.
type AssignmentKey struct {
	TeacherID    string
	ClassID      string
	AcademicYear string
}

// UpsertAssignmentParams carries a store write.
type UpsertAssignmentParams struct {
	AssignmentKey
	IsLead             bool
	DemoteExistingLead bool
}

// UpsertAssignmentResult reports what a store write changed.
type UpsertAssignmentResult struct {
	Assignment  TeacherAssignment  `json:"assignment"`
	Previous    *TeacherAssignment `json:"previous,omitempty"`
	DemotedLead *TeacherAssignment `json:"demotedLead,omitempty"`
	Created     bool               `json:"created"`
}

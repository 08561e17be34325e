package models

import "time"

// StudentStatus tracks enrolment state.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusInactive  StudentStatus = "inactive"
	StudentStatusWithdrawn StudentStatus = "withdrawn"
)

// Student represents a learner. ClassID is the current class.
type Student struct {
	ID        string        `db:"id" json:"id"`
	FullName  string        `db:"full_name" json:"fullName"`
	ClassID   *string       `db:"class_id" json:"classId,omitempty"`
	Status    StudentStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
}

// ClassMembership is one interval of a student's membership history.
type ClassMembership struct {
	ID        string     `db:"id" json:"id"`
	StudentID string     `db:"student_id" json:"studentId"`
	ClassID   string     `db:"class_id" json:"classId"`
	ValidFrom time.Time  `db:"valid_from" json:"validFrom"`
	ValidTo   *time.Time `db:"valid_to" json:"validTo,omitempty"`
}

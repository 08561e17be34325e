package models

import "time"

// Class represents a class or section that owns assignments and sessions.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Grade     string    `db:"grade" json:"grade"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ClassYear identifies a (class, academic year) pair.
type ClassYear struct {
	ClassID      string `db:"class_id" json:"classId"`
	AcademicYear string `db:"academic_year" json:"academicYear"`
}

// String renders the pair as class/year, used as a map and cache key.
func (k ClassYear) String() string {
	return k.ClassID + "/" + k.AcademicYear
}

// ClassRoster is the inspection view of a class for one academic year.
type ClassRoster struct {
	Class        Class              `json:"class"`
	AcademicYear string             `json:"academicYear"`
	Assignments  []AssignmentDetail `json:"assignments"`
	Students     []Student          `json:"students"`
	Findings     []Finding          `json:"findings"`
}

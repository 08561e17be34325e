package dto

// UpsertAssignmentRequest creates or updates a (teacher, class, year) assignment.
type UpsertAssignmentRequest struct {
	TeacherID          string `json:"teacherId" validate:"required,max=64"`
	ClassID            string `json:"classId" validate:"required,max=64"`
	AcademicYear       string `json:"academicYear" validate:"required,academic_year"`
	IsLead             bool   `json:"isLead"`
	DemoteExistingLead bool   `json:"demoteExistingLead"`
}

// RemoveAssignmentRequest deletes an assignment. EnsureAbsent turns a missing
// assignment into a successful no-op.
type RemoveAssignmentRequest struct {
	TeacherID    string `form:"teacherId" json:"teacherId" validate:"required,max=64"`
	ClassID      string `form:"classId" json:"classId" validate:"required,max=64"`
	AcademicYear string `form:"academicYear" json:"academicYear" validate:"required,academic_year"`
	EnsureAbsent bool   `form:"ensureAbsent" json:"ensureAbsent"`
}

// RemoveAssignmentResult reports whether a row was deleted.
type RemoveAssignmentResult struct {
	Removed bool `json:"removed"`
}

package models

import "time"

// TeacherType distinguishes employment categories.
type TeacherType string

const (
	TeacherTypeFormal     TeacherType = "formal"
	TeacherTypeSubstitute TeacherType = "substitute"
	TeacherTypeIntern     TeacherType = "intern"
)

// TeacherStatus marks whether a teacher can be expected at sessions.
type TeacherStatus string

const (
	TeacherStatusActive   TeacherStatus = "active"
	TeacherStatusInactive TeacherStatus = "inactive"
)

// Teacher represents an instructor record.
type Teacher struct {
	ID        string        `db:"id" json:"id"`
	FullName  string        `db:"full_name" json:"fullName"`
	Type      TeacherType   `db:"teacher_type" json:"teacherType"`
	Status    TeacherStatus `db:"status" json:"status"`
	Phone     *string       `db:"phone" json:"phone,omitempty"`
	Email     *string       `db:"email" json:"email,omitempty"`
	Notes     *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
}

// Active reports whether the teacher is in active status.
func (t Teacher) Active() bool {
	return t.Status == TeacherStatusActive
}

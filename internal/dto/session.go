package dto

import "time"

// CreateSessionRequest registers an externally scheduled session.
type CreateSessionRequest struct {
	ClassID  string    `json:"classId" validate:"required,max=64"`
	StartsAt time.Time `json:"startsAt" validate:"required"`
	EndsAt   time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
}

// RecordTeacherPresenceRequest marks a teacher present at a session.
type RecordTeacherPresenceRequest struct {
	TeacherID string     `json:"teacherId" validate:"required,max=64"`
	Role      *string    `json:"role" validate:"omitempty,teacher_role"`
	EnteredAt *time.Time `json:"enteredAt"`
}

// RecordStudentAttendanceRequest sets a student's status for a session.
type RecordStudentAttendanceRequest struct {
	Status string  `json:"status" validate:"required,attendance_status"`
	Notes  *string `json:"notes" validate:"omitempty,max=500"`
}

// AttendanceSummaryQuery scopes a class attendance summary. From and To are
// inclusive calendar dates in UTC.
type AttendanceSummaryQuery struct {
	Year string     `form:"year"`
	From *time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To   *time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
}

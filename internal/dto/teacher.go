package dto

// CreateTeacherRequest is the administrative teacher creation payload.
type CreateTeacherRequest struct {
	FullName    string  `json:"fullName" validate:"required,min=2,max=200"`
	TeacherType string  `json:"teacherType" validate:"omitempty,teacher_type"`
	Status      string  `json:"status" validate:"omitempty,teacher_status"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Notes       *string `json:"notes" validate:"omitempty,max=1000"`
}

package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/academicyear"
)

// NewValidator returns a validator with the domain tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerDomainValidations(v)
	return v
}

func registerDomainValidations(v *validator.Validate) {
	_ = v.RegisterValidation("teacher_type", func(fl validator.FieldLevel) bool {
		switch models.TeacherType(fl.Field().String()) {
		case models.TeacherTypeFormal, models.TeacherTypeSubstitute, models.TeacherTypeIntern:
			return true
		default:
			return false
		}
	})
	_ = v.RegisterValidation("teacher_status", func(fl validator.FieldLevel) bool {
		switch models.TeacherStatus(fl.Field().String()) {
		case models.TeacherStatusActive, models.TeacherStatusInactive:
			return true
		default:
			return false
		}
	})
	_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("teacher_role", func(fl validator.FieldLevel) bool {
		switch models.TeacherRole(fl.Field().String()) {
		case models.RoleLead, models.RoleAssistant, models.RoleSubstitute:
			return true
		default:
			return false
		}
	})
	_ = v.RegisterValidation("academic_year", func(fl validator.FieldLevel) bool {
		return academicyear.ValidLabel(fl.Field().String())
	})
}

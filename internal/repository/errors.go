package repository

import "errors"

// Sentinel errors returned by the store. Services translate them into API errors.
var (
	ErrLeadTeacherExists = errors.New("class already has a lead teacher for the academic year")
	ErrSessionClosed     = errors.New("session is closed")
	ErrTeacherNotFound   = errors.New("teacher not found")
	ErrClassNotFound     = errors.New("class not found")
	ErrStudentNotFound   = errors.New("student not found")
)

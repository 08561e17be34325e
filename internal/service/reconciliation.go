package service

import (
	"time"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
)

// buildReconciliation compares records against an expectation. It is a pure
// function of its inputs so repeated calls over the same data agree.
func buildReconciliation(session *models.ClassSession, exp *models.Expectation, teachers []models.AttendingTeacherRecord, students []models.StudentAttendanceRecord, now time.Time) *models.ReconciliationReport {
	report := &models.ReconciliationReport{
		SessionID:          session.ID,
		State:              session.State,
		LeadTeacherID:      exp.Teachers.LeadID,
		MissingTeachers:    []string{},
		ExtraTeachers:      []string{},
		MissingStudents:    []string{},
		PresentStudents:    make(map[models.AttendanceStatus][]string, len(models.AttendanceStatuses)),
		UnexpectedStudents: []string{},
		Warnings:           append([]string{}, exp.Teachers.Warnings...),
		GeneratedAt:        now.UTC(),
	}
	for _, status := range models.AttendanceStatuses {
		report.PresentStudents[status] = []string{}
	}

	expectedTeachers := make(map[string]struct{}, len(exp.Teachers.Teachers))
	for _, t := range exp.Teachers.Teachers {
		expectedTeachers[t.ID] = struct{}{}
	}
	recordedTeachers := make(map[string]struct{}, len(teachers))
	for _, rec := range teachers {
		recordedTeachers[rec.TeacherID] = struct{}{}
		if _, ok := expectedTeachers[rec.TeacherID]; !ok {
			report.ExtraTeachers = append(report.ExtraTeachers, rec.TeacherID)
		}
	}
	for _, t := range exp.Teachers.Teachers {
		if _, ok := recordedTeachers[t.ID]; !ok {
			report.MissingTeachers = append(report.MissingTeachers, t.ID)
		}
	}

	expectedStudents := make(map[string]struct{}, len(exp.Students.Students))
	for _, s := range exp.Students.Students {
		expectedStudents[s.ID] = struct{}{}
	}
	statusByStudent := make(map[string]models.AttendanceStatus, len(students))
	for _, rec := range students {
		statusByStudent[rec.StudentID] = rec.Status
		if _, ok := expectedStudents[rec.StudentID]; !ok {
			report.UnexpectedStudents = append(report.UnexpectedStudents, rec.StudentID)
		}
	}
	for _, s := range exp.Students.Students {
		status, ok := statusByStudent[s.ID]
		if !ok {
			report.MissingStudents = append(report.MissingStudents, s.ID)
			continue
		}
		report.PresentStudents[status] = append(report.PresentStudents[status], s.ID)
	}
	return report
}

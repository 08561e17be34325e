package service

import (
	"fmt"
	"sort"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
)

// authoritativeLead picks the lead used for resolution when several are
// flagged: the most recently updated one. Orphaned rows are ignored.
func authoritativeLead(assignments []models.AssignmentDetail) (*models.AssignmentDetail, int) {
	var leads []models.AssignmentDetail
	for _, a := range assignments {
		if a.IsLead && a.TeacherName != nil {
			leads = append(leads, a)
		}
	}
	if len(leads) == 0 {
		return nil, 0
	}
	sort.SliceStable(leads, func(i, j int) bool {
		if !leads[i].UpdatedAt.Equal(leads[j].UpdatedAt) {
			return leads[i].UpdatedAt.After(leads[j].UpdatedAt)
		}
		if !leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].CreatedAt.After(leads[j].CreatedAt)
		}
		return leads[i].ID > leads[j].ID
	})
	lead := leads[0]
	return &lead, len(leads)
}

// evaluateClassYear applies the integrity rules to one (class, year). It never
// fails: problems are returned as findings.
func evaluateClassYear(pair models.ClassYear, classExists bool, assignments []models.AssignmentDetail) []models.Finding {
	findings := []models.Finding{}
	newFinding := func(t models.FindingType, msg string) models.Finding {
		return models.Finding{Type: t, ClassID: pair.ClassID, AcademicYear: pair.AcademicYear, Message: msg}
	}

	if !classExists {
		if len(assignments) == 0 {
			return findings
		}
		f := newFinding(models.FindingOrphanedAssignment, "assignments reference a class that no longer exists")
		for _, a := range assignments {
			f.AssignmentIDs = append(f.AssignmentIDs, a.ID)
			f.TeacherIDs = append(f.TeacherIDs, a.TeacherID)
		}
		return append(findings, f)
	}

	var valid []models.AssignmentDetail
	var orphaned []models.AssignmentDetail
	for _, a := range assignments {
		if a.TeacherName == nil {
			orphaned = append(orphaned, a)
			continue
		}
		valid = append(valid, a)
	}

	if len(orphaned) > 0 {
		f := newFinding(models.FindingOrphanedAssignment, "assignments reference teachers that no longer exist")
		for _, a := range orphaned {
			f.AssignmentIDs = append(f.AssignmentIDs, a.ID)
			f.TeacherIDs = append(f.TeacherIDs, a.TeacherID)
		}
		findings = append(findings, f)
	}

	if len(valid) == 0 {
		return append(findings, newFinding(models.FindingNoAssignment, "class has no teacher assigned for the academic year"))
	}

	lead, leadCount := authoritativeLead(valid)
	switch {
	case leadCount == 0:
		findings = append(findings, newFinding(models.FindingNoLeadTeacher, "class has no lead teacher for the academic year"))
	case leadCount > 1:
		f := newFinding(models.FindingMultipleLeadTeachers, fmt.Sprintf("class has %d lead teachers; the most recently updated one is used", leadCount))
		for _, a := range valid {
			if a.IsLead {
				f.AssignmentIDs = append(f.AssignmentIDs, a.ID)
				f.TeacherIDs = append(f.TeacherIDs, a.TeacherID)
			}
		}
		f.AuthoritativeLeadID = lead.TeacherID
		findings = append(findings, f)
	}

	var inactive models.Finding
	for _, a := range valid {
		if a.TeacherStatus != nil && *a.TeacherStatus != models.TeacherStatusActive {
			if inactive.Type == "" {
				inactive = newFinding(models.FindingInactiveTeacherAssigned, "inactive teachers are still assigned")
			}
			inactive.AssignmentIDs = append(inactive.AssignmentIDs, a.ID)
			inactive.TeacherIDs = append(inactive.TeacherIDs, a.TeacherID)
		}
	}
	if inactive.Type != "" {
		findings = append(findings, inactive)
	}
	return findings
}

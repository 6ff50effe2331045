package models

import "time"

// DashboardStats aggregates the headline counters shown on the admin portal.
type DashboardStats struct {
	TotalFaculty      int       `json:"total_faculty"`
	ActiveFaculty     int       `json:"active_faculty"`
	InactiveFaculty   int       `json:"inactive_faculty"`
	HodCount          int       `json:"hod_count"`
	TotalDepartments  int       `json:"total_departments"`
	ActiveDepartments int       `json:"active_departments"`
	TotalSubjects     int       `json:"total_subjects"`
	TotalClasses      int       `json:"total_classes"`
	GeneratedAt       time.Time `json:"generated_at"`
}

package models

import "time"

// Faculty represents a faculty member record.
//
// IsActive must be false whenever Department is empty, and IsHOD is true iff
// exactly one department's HodID references the row. Both rules are owned by
// the services and the HOD coordinator; RowVersion backs their conditional
// updates.
type Faculty struct {
	ID            int64     `db:"id" json:"id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Department    *string   `db:"department" json:"department,omitempty"`
	Email         string    `db:"email" json:"email"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	Gender        *string   `db:"gender" json:"gender,omitempty"`
	Qualification *string   `db:"qualification" json:"qualification,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	IsHOD         bool      `db:"is_hod" json:"is_hod"`
	AdminEmail    string    `db:"admin_email" json:"admin_email"`
	RowVersion    int64     `db:"row_version" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name.
func (f *Faculty) FullName() string {
	return f.FirstName + " " + f.LastName
}

// HasDepartment reports whether the faculty has a department assignment.
func (f *Faculty) HasDepartment() bool {
	return f.Department != nil && *f.Department != ""
}

// FacultyFilter captures filtering options for listing faculty.
type FacultyFilter struct {
	Search     string
	Active     *bool
	HOD        *bool
	AdminEmail string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

package models

import "time"

// Class represents a student class/batch. CoordinatorID is a soft reference
// to faculty, but a faculty member may coordinate at most one class.
type Class struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	BatchYear     *int      `db:"batch_year" json:"batch_year,omitempty"`
	CoordinatorID *int64    `db:"coordinator_id" json:"coordinator_id,omitempty"`
	DepartmentID  *int64    `db:"department_id" json:"department_id,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	AdminEmail    string    `db:"admin_email" json:"admin_email"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFilter captures filtering options for listing classes.
type ClassFilter struct {
	Search     string
	Active     *bool
	AdminEmail string
	Page       int
	PageSize   int
}

package models

import "time"

// Subject represents a taught subject. DepartmentID is a soft reference:
// deleting the department leaves it dangling and the UI renders "Unknown".
type Subject struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         *string   `db:"code" json:"code,omitempty"`
	DepartmentID *int64    `db:"department_id" json:"department_id,omitempty"`
	AdminEmail   string    `db:"admin_email" json:"admin_email"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures filtering options for listing subjects.
type SubjectFilter struct {
	Search       string
	DepartmentID *int64
	AdminEmail   string
	Page         int
	PageSize     int
}

package models

import "time"

// Department represents an academic department.
//
// IsActive true requires HodID non-null: a department cannot stay active
// without a chair. HodID, when set, references a faculty whose IsHOD flag is
// true and who chairs no other department.
type Department struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	EstablishYear *int      `db:"establish_year" json:"establish_year,omitempty"`
	HodID         *int64    `db:"hod_id" json:"hod_id,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	AdminEmail    string    `db:"admin_email" json:"admin_email"`
	RowVersion    int64     `db:"row_version" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HasHod reports whether a chair is assigned.
func (d *Department) HasHod() bool {
	return d.HodID != nil
}

// DepartmentFilter captures filtering options for listing departments.
type DepartmentFilter struct {
	Search     string
	Active     *bool
	AdminEmail string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

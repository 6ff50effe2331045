package models

import "time"

// AdminRole represents the available roles for the portals.
type AdminRole string

const (
	RoleAdmin      AdminRole = "ADMIN"
	RoleSuperAdmin AdminRole = "SUPERADMIN"
)

// Admin represents an administrator account.
type Admin struct {
	ID                  int64      `db:"id" json:"id"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	FirstName           string     `db:"first_name" json:"first_name"`
	MiddleName          *string    `db:"middle_name" json:"middle_name,omitempty"`
	LastName            string     `db:"last_name" json:"last_name"`
	Phone               *string    `db:"phone" json:"phone,omitempty"`
	Gender              *string    `db:"gender" json:"gender,omitempty"`
	CollegeName         *string    `db:"college_name" json:"college_name,omitempty"`
	CollegeAddress      *string    `db:"college_address" json:"college_address,omitempty"`
	Role                AdminRole  `db:"role" json:"role"`
	IsActive            bool       `db:"is_active" json:"is_active"`
	IsLocked            bool       `db:"is_locked" json:"is_locked"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"failed_login_attempts"`
	PasswordChangedAt   *time.Time `db:"password_changed_at" json:"password_changed_at,omitempty"`
	LastLogin           *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// AdminFilter captures filtering criteria for listing admins.
type AdminFilter struct {
	Role      *AdminRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionAdminCreate    = "ADMIN_CREATE"
	AuditActionAdminUpdate    = "ADMIN_UPDATE"
	AuditActionAdminDelete    = "ADMIN_DELETE"
	AuditActionAdminUnlock    = "ADMIN_UNLOCK"
	AuditActionPasswordReset  = "PASSWORD_RESET"
	AuditActionHodAssign      = "HOD_ASSIGN"
	AuditActionHodReassign    = "HOD_REASSIGN"
	AuditActionHodRelease     = "HOD_RELEASE"
	AuditActionFacultyDelete  = "FACULTY_DELETE"
	AuditActionDepartmentDrop = "DEPARTMENT_DELETE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorEmail *string   `db:"actor_email" json:"actor_email,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Security and administration events recorded in the audit log.
const (
	AuditLoginSuccess      = "LOGIN_SUCCESS"
	AuditLoginFailed       = "LOGIN_FAILED"
	AuditAccountLocked     = "ACCOUNT_LOCKED"
	AuditPasswordChanged   = "PASSWORD_CHANGED"
	AuditUserCreated       = "CREATE_USER"
	AuditUserUpdated       = "UPDATE_USER"
	AuditUserDeleted       = "DELETE_USER"
	AuditRoleCreated       = "CREATE_ROLE"
	AuditRoleUpdated       = "UPDATE_ROLE"
	AuditRoleDeleted       = "DELETE_ROLE"
	AuditPermissionCreated = "CREATE_PERMISSION"
	AuditPermissionUpdated = "UPDATE_PERMISSION"
	AuditPermissionDeleted = "DELETE_PERMISSION"
)

// AuditLog tracks Who, What, and When for authentication and administration
// changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for anonymous events (failed logins)
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/email)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:text" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Permission categories form a closed enumeration; anything else is rejected
// at validation time.
const (
	CategoryUserManagement        = "user_management"
	CategoryRoleManagement        = "role_management"
	CategoryPermissionManagement  = "permission_management"
	CategoryProductManagement     = "product_management"
	CategoryTransactionManagement = "transaction_management"
	CategoryExpenseManagement     = "expense_management"
	CategoryReportManagement      = "report_management"
	CategorySystemSettings        = "system_settings"
	CategoryAuditLogs             = "audit_logs"
)

// Permission actions.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionManage = "manage"
	ActionView   = "view"
)

// ValidCategories lists every allowed permission category.
var ValidCategories = []string{
	CategoryUserManagement,
	CategoryRoleManagement,
	CategoryPermissionManagement,
	CategoryProductManagement,
	CategoryTransactionManagement,
	CategoryExpenseManagement,
	CategoryReportManagement,
	CategorySystemSettings,
	CategoryAuditLogs,
}

// ValidActions lists every allowed permission action.
var ValidActions = []string{
	ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage, ActionView,
}

// Permission represents one atomic capability, keyed by an (action, resource)
// pair. Name is always derived as "<action>_<resource>" and is unique.
type Permission struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"` // e.g. "read_user"
	DisplayName string    `gorm:"type:varchar(255);not null" json:"display_name"`
	Category    string    `gorm:"type:varchar(50);not null;index" json:"category"`
	Action      string    `gorm:"type:varchar(20);not null" json:"action"`
	Resource    string    `gorm:"type:varchar(50);not null" json:"resource"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	IsSystem    bool      `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in permissions
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeriveName recomputes the unique permission name from action and resource.
func DeriveName(action, resource string) string {
	return action + "_" + resource
}

// ValidCategory reports whether the category belongs to the closed set.
func ValidCategory(category string) bool {
	for _, c := range ValidCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ValidAction reports whether the action belongs to the closed set.
func ValidAction(action string) bool {
	for _, a := range ValidActions {
		if a == action {
			return true
		}
	}
	return false
}

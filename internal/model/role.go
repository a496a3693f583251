package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents a named bundle of permissions with a priority ranking.
// Higher priority means more authority; priority orders the hierarchy listing.
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"` // normalized: lowercase, hyphenated
	DisplayName string       `gorm:"type:varchar(255);not null" json:"display_name"`
	Description string       `gorm:"type:text" json:"description"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	Priority    int          `gorm:"default:0;index" json:"priority"`
	Color       string       `gorm:"type:varchar(20)" json:"color"` // presentation only
	IsActive    bool         `gorm:"default:true" json:"is_active"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // Prevent deletion and permission mutation of built-in roles
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NormalizeRoleName lowercases and hyphenates a role name for the unique key.
func NormalizeRoleName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
}

// HasPermission reports whether any bound permission matches by name or by id.
func (r *Role) HasPermission(nameOrID string) bool {
	for _, p := range r.Permissions {
		if p.Name == nameOrID || p.ID.String() == nameOrID {
			return true
		}
	}
	return false
}

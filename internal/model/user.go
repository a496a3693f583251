package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an authenticated principal. A user holds exactly one role;
// authorization decisions walk User -> Role -> Permission set.
type User struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	Email      string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	EmployeeID *string    `gorm:"type:varchar(50);uniqueIndex" json:"employee_id,omitempty"`
	Password   string     `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, never serialized
	RoleID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"role_id"`
	Role       *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`

	// Lockout state. Read-modify-write without an optimistic-concurrency
	// token: a lost increment under a race weakens the lockout slightly and
	// is accepted (last writer wins).
	LoginAttempts int        `gorm:"default:0" json:"-"`
	LockUntil     *time.Time `json:"-"`

	LastLogin *time.Time     `json:"last_login,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Locked reports whether the account is inside an active lock window.
func (u *User) Locked(now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}

// RoleRef distinguishes a bare role identifier from a fully loaded role.
// The store can hand back a user whose role association was never expanded;
// tagging the distinction keeps the resolver from treating a raw pointer as
// evidence about the permission set.
type RoleRef struct {
	ID   uuid.UUID
	Role *Role
}

// RoleRef returns the user's role reference, resolved when the association
// was loaded together with its permissions.
func (u *User) RoleRef() RoleRef {
	if u.Role != nil && u.Role.Permissions != nil {
		return RoleRef{ID: u.RoleID, Role: u.Role}
	}
	return RoleRef{ID: u.RoleID}
}

// Resolved reports whether the reference carries a permission-bearing role.
func (r RoleRef) Resolved() bool {
	return r.Role != nil && r.Role.Permissions != nil
}

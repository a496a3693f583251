package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/config"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/password"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Seeder creates the default permission catalog, the system roles and the
// initial super admin account. Every step is idempotent so it can run on
// each boot.
type Seeder struct {
	users repository.UserRepository
	roles repository.RoleRepository
	perms repository.PermissionRepository
	cfg   config.Config
}

func NewSeeder(users repository.UserRepository, roles repository.RoleRepository, perms repository.PermissionRepository, cfg config.Config) *Seeder {
	return &Seeder{users: users, roles: roles, perms: perms, cfg: cfg}
}

type seedPermission struct {
	action      string
	resource    string
	displayName string
	category    string
}

var defaultPermissions = []seedPermission{
	{model.ActionCreate, "user", "Create Users", model.CategoryUserManagement},
	{model.ActionRead, "user", "View Users", model.CategoryUserManagement},
	{model.ActionUpdate, "user", "Update Users", model.CategoryUserManagement},
	{model.ActionDelete, "user", "Delete Users", model.CategoryUserManagement},

	{model.ActionCreate, "role", "Create Roles", model.CategoryRoleManagement},
	{model.ActionRead, "role", "View Roles", model.CategoryRoleManagement},
	{model.ActionUpdate, "role", "Update Roles", model.CategoryRoleManagement},
	{model.ActionDelete, "role", "Delete Roles", model.CategoryRoleManagement},

	{model.ActionCreate, "permission", "Create Permissions", model.CategoryPermissionManagement},
	{model.ActionRead, "permission", "View Permissions", model.CategoryPermissionManagement},
	{model.ActionUpdate, "permission", "Update Permissions", model.CategoryPermissionManagement},
	{model.ActionDelete, "permission", "Delete Permissions", model.CategoryPermissionManagement},

	{model.ActionCreate, "product", "Create Products", model.CategoryProductManagement},
	{model.ActionRead, "product", "View Products", model.CategoryProductManagement},
	{model.ActionUpdate, "product", "Update Products", model.CategoryProductManagement},
	{model.ActionDelete, "product", "Delete Products", model.CategoryProductManagement},

	{model.ActionCreate, "transaction", "Create Transactions", model.CategoryTransactionManagement},
	{model.ActionRead, "transaction", "View Transactions", model.CategoryTransactionManagement},
	{model.ActionUpdate, "transaction", "Update Transactions", model.CategoryTransactionManagement},
	{model.ActionDelete, "transaction", "Delete Transactions", model.CategoryTransactionManagement},

	{model.ActionCreate, "expense", "Create Expenses", model.CategoryExpenseManagement},
	{model.ActionRead, "expense", "View Expenses", model.CategoryExpenseManagement},
	{model.ActionUpdate, "expense", "Update Expenses", model.CategoryExpenseManagement},
	{model.ActionDelete, "expense", "Delete Expenses", model.CategoryExpenseManagement},

	{model.ActionView, "report", "View Reports", model.CategoryReportManagement},
	{model.ActionManage, "settings", "Manage System Settings", model.CategorySystemSettings},
	{model.ActionView, "audit", "View Audit Logs", model.CategoryAuditLogs},
}

type seedRole struct {
	name        string
	displayName string
	description string
	priority    int
	color       string
	permissions []string // permission names; empty = all
}

var defaultRoles = []seedRole{
	{
		name:        "super-admin",
		displayName: "Super Administrator",
		description: "Full access to every part of the system",
		priority:    100,
		color:       "#d32f2f",
	},
	{
		name:        "admin",
		displayName: "Administrator",
		description: "Full operational access without catalog administration",
		priority:    90,
		color:       "#f57c00",
		permissions: []string{
			"create_user", "read_user", "update_user", "delete_user",
			"create_role", "read_role", "update_role", "delete_role",
			"read_permission",
			"create_product", "read_product", "update_product", "delete_product",
			"create_transaction", "read_transaction", "update_transaction", "delete_transaction",
			"create_expense", "read_expense", "update_expense", "delete_expense",
			"view_report", "view_audit",
		},
	},
	{
		name:        "manager",
		displayName: "Manager",
		description: "Day-to-day factory operations and reporting",
		priority:    50,
		color:       "#1976d2",
		permissions: []string{
			"read_user",
			"create_product", "read_product", "update_product",
			"create_transaction", "read_transaction", "update_transaction",
			"create_expense", "read_expense", "update_expense",
			"view_report",
		},
	},
	{
		name:        "staff",
		displayName: "Staff",
		description: "Basic floor operations",
		priority:    10,
		color:       "#388e3c",
		permissions: []string{
			"read_product",
			"create_transaction", "read_transaction",
			"create_expense", "read_expense",
		},
	},
}

// Run seeds permissions, roles and the initial admin user.
func (s *Seeder) Run(ctx context.Context) error {
	permByName := make(map[string]model.Permission, len(defaultPermissions))

	for _, def := range defaultPermissions {
		perm := &model.Permission{
			Name:        model.DeriveName(def.action, def.resource),
			DisplayName: def.displayName,
			Category:    def.category,
			Action:      def.action,
			Resource:    def.resource,
			IsActive:    true,
			IsSystem:    true,
		}
		if err := s.perms.FirstOrCreate(ctx, perm); err != nil {
			return fmt.Errorf("failed to seed permission '%s': %w", perm.Name, err)
		}
		permByName[perm.Name] = *perm
	}

	for _, def := range defaultRoles {
		role, err := s.roles.FindByName(ctx, def.name)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up role '%s': %w", def.name, err)
			}
			role = &model.Role{
				Name:        def.name,
				DisplayName: def.displayName,
				Description: def.description,
				Priority:    def.priority,
				Color:       def.color,
				IsActive:    true,
				IsSystem:    true,
			}
			if err := s.roles.Create(ctx, role); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", def.name, err)
			}
		}

		var perms []model.Permission
		if len(def.permissions) == 0 {
			for _, p := range permByName {
				perms = append(perms, p)
			}
		} else {
			for _, name := range def.permissions {
				if p, ok := permByName[name]; ok {
					perms = append(perms, p)
				}
			}
		}
		if err := s.roles.ReplacePermissions(ctx, role, perms); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", def.name, err)
		}
	}

	return s.seedAdminUser(ctx)
}

func (s *Seeder) seedAdminUser(ctx context.Context) error {
	if _, err := s.users.FindByEmail(ctx, s.cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	superAdmin, err := s.roles.FindByName(ctx, "super-admin")
	if err != nil {
		return fmt.Errorf("failed to look up super-admin role: %w", err)
	}

	hashed, err := password.Hash(s.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &model.User{
		Name:     "System Administrator",
		Email:    s.cfg.AdminEmail,
		Password: hashed,
		RoleID:   superAdmin.ID,
		IsActive: true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	logrus.WithField("email", s.cfg.AdminEmail).Info("seeded initial admin user")
	return nil
}

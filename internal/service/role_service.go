package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // Permission UUIDs
	Priority    int      `json:"priority"`
	Color       string   `json:"color"`
}

type UpdateRoleRequest struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	Permissions *[]string `json:"permissions"` // nil = untouched, empty = clear
	Priority    *int      `json:"priority"`
	Color       string    `json:"color"`
	IsActive    *bool     `json:"is_active"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name"`
	Description string               `json:"description"`
	Permissions []PermissionResponse `json:"permissions"`
	Priority    int                  `json:"priority"`
	Color       string               `json:"color"`
	IsActive    bool                 `json:"is_active"`
	IsSystem    bool                 `json:"is_system"`
	CreatedAt   string               `json:"created_at"`
}

// HierarchyEntry is the slim listing used by the role hierarchy view.
type HierarchyEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Priority    int    `json:"priority"`
	IsActive    bool   `json:"is_active"`
}

// --- Interface ---

// RoleService is the role registry: creation with whole-set permission
// validation, guarded updates and deletes for system roles, and the
// priority-ordered hierarchy.
type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, actorID *uuid.UUID, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, actorID *uuid.UUID, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, actorID *uuid.UUID, id string) error
	Hierarchy(ctx context.Context) ([]HierarchyEntry, error)
	HasPermission(ctx context.Context, roleID uuid.UUID, nameOrID string) (bool, error)
}

type roleService struct {
	roles repository.RoleRepository
	perms repository.PermissionRepository
	users repository.UserRepository
	tx    repository.TransactionManager
	audit AuditService
}

func NewRoleService(roles repository.RoleRepository, perms repository.PermissionRepository, users repository.UserRepository, tx repository.TransactionManager, audit AuditService) RoleService {
	return &roleService{roles: roles, perms: perms, users: users, tx: tx, audit: audit}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roles.ListByPriority(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to fetch roles", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(&r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	role, err := s.findRole(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, actorID *uuid.UUID, req CreateRoleRequest) (*RoleResponse, error) {
	name := model.NormalizeRoleName(req.Name)
	if name == "" {
		return nil, apperr.New(apperr.KindValidation, "role name is required")
	}
	if _, err := s.roles.FindByName(ctx, name); err == nil {
		return nil, apperr.New(apperr.KindDuplicate, fmt.Sprintf("role '%s' already exists", name))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindStore, "failed to check role name", err)
	}

	perms, err := s.resolvePermissionSet(ctx, req.Permissions)
	if err != nil {
		return nil, err
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Name
	}

	role := model.Role{
		Name:        name,
		DisplayName: displayName,
		Description: req.Description,
		Priority:    req.Priority,
		Color:       req.Color,
		IsActive:    true,
		IsSystem:    false,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.Create(txCtx, &role); err != nil {
			return apperr.Wrap(apperr.KindStore, "failed to create role", err)
		}
		if len(perms) > 0 {
			if err := s.roles.ReplacePermissions(txCtx, &role, perms); err != nil {
				return apperr.Wrap(apperr.KindStore, "failed to assign permissions", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actorID, model.AuditRoleCreated, role.ID.String(), role.Name, "")

	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, actorID *uuid.UUID, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	role, err := s.findRole(ctx, id)
	if err != nil {
		return nil, err
	}

	// System roles keep their permission set and active flag; everything
	// else on them stays editable.
	if role.IsSystem {
		if req.Permissions != nil {
			return nil, apperr.New(apperr.KindForbidden, fmt.Sprintf("permissions of system role '%s' cannot be modified", role.Name))
		}
		if req.IsActive != nil && !*req.IsActive {
			return nil, apperr.New(apperr.KindForbidden, fmt.Sprintf("system role '%s' cannot be deactivated", role.Name))
		}
	}

	if req.Name != "" {
		name := model.NormalizeRoleName(req.Name)
		if name != role.Name {
			if _, err := s.roles.FindByName(ctx, name); err == nil {
				return nil, apperr.New(apperr.KindDuplicate, fmt.Sprintf("role '%s' already exists", name))
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Wrap(apperr.KindStore, "failed to check role name", err)
			}
			role.Name = name
		}
	}
	if req.DisplayName != "" {
		role.DisplayName = req.DisplayName
	}
	if req.Description != "" {
		role.Description = req.Description
	}
	if req.Priority != nil {
		role.Priority = *req.Priority
	}
	if req.Color != "" {
		role.Color = req.Color
	}
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}

	var perms []model.Permission
	if req.Permissions != nil {
		perms, err = s.resolvePermissionSet(ctx, *req.Permissions)
		if err != nil {
			return nil, err
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.Save(txCtx, role); err != nil {
			return apperr.Wrap(apperr.KindStore, "failed to update role", err)
		}
		if req.Permissions != nil {
			if err := s.roles.ReplacePermissions(txCtx, role, perms); err != nil {
				return apperr.Wrap(apperr.KindStore, "failed to update permissions", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actorID, model.AuditRoleUpdated, role.ID.String(), role.Name, "")

	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, actorID *uuid.UUID, id string) error {
	role, err := s.findRole(ctx, id)
	if err != nil {
		return err
	}

	if role.IsSystem {
		return apperr.New(apperr.KindForbidden, fmt.Sprintf("system role '%s' cannot be deleted", role.Name))
	}

	userCount, err := s.users.CountByRole(ctx, role.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindStore, "failed to count role users", err)
	}
	if userCount > 0 {
		return apperr.New(apperr.KindConflict, fmt.Sprintf("cannot delete role '%s': %d user(s) are assigned to it", role.Name, userCount))
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.ClearPermissions(txCtx, role); err != nil {
			return apperr.Wrap(apperr.KindStore, "failed to clear permissions", err)
		}
		if err := s.roles.Delete(txCtx, role.ID); err != nil {
			return apperr.Wrap(apperr.KindStore, "failed to delete role", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, actorID, model.AuditRoleDeleted, role.ID.String(), role.Name, "")
	return nil
}

func (s *roleService) Hierarchy(ctx context.Context) ([]HierarchyEntry, error) {
	roles, err := s.roles.ListByPriority(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to fetch roles", err)
	}

	res := make([]HierarchyEntry, 0, len(roles))
	for _, r := range roles {
		res = append(res, HierarchyEntry{
			ID:          r.ID.String(),
			Name:        r.Name,
			DisplayName: r.DisplayName,
			Priority:    r.Priority,
			IsActive:    r.IsActive,
		})
	}
	return res, nil
}

func (s *roleService) HasPermission(ctx context.Context, roleID uuid.UUID, nameOrID string) (bool, error) {
	role, err := s.roles.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperr.New(apperr.KindRoleNotFound, "role not found")
		}
		return false, apperr.Wrap(apperr.KindStore, "failed to fetch role", err)
	}
	return role.HasPermission(nameOrID), nil
}

// --- Helpers ---

func (s *roleService) findRole(ctx context.Context, id string) (*model.Role, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid role id")
	}
	role, err := s.roles.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "role not found")
		}
		return nil, apperr.Wrap(apperr.KindStore, "failed to fetch role", err)
	}
	return role, nil
}

// resolvePermissionSet validates the requested ids as a whole set: every id
// must parse and resolve to an active permission, otherwise the operation is
// rejected without partial application.
func (s *roleService) resolvePermissionSet(ctx context.Context, ids []string) ([]model.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	permIDs := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, pid := range ids {
		parsed, err := uuid.Parse(pid)
		if err != nil {
			return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("invalid permission id '%s'", pid))
		}
		if !seen[parsed] {
			seen[parsed] = true
			permIDs = append(permIDs, parsed)
		}
	}

	perms, err := s.perms.FindActiveByIDs(ctx, permIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to fetch permissions", err)
	}
	if len(perms) != len(permIDs) {
		return nil, apperr.New(apperr.KindValidation, "one or more permissions do not exist or are inactive")
	}
	return perms, nil
}

func toRoleResponse(r *model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(&p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Description: r.Description,
		Permissions: perms,
		Priority:    r.Priority,
		Color:       r.Color,
		IsActive:    r.IsActive,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

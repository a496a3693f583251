package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreatePermissionRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Action      string `json:"action" binding:"required"`
	Resource    string `json:"resource" binding:"required"`
}

type UpdatePermissionRequest struct {
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	IsActive    *bool  `json:"is_active"`
}

type PermissionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	IsActive    bool   `json:"is_active"`
	IsSystem    bool   `json:"is_system"`
}

// --- Interface ---

// PermissionService is the permission catalog: a finite registry of
// (action, resource) capabilities with derived unique names.
type PermissionService interface {
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	FindByCategory(ctx context.Context, category string) ([]PermissionResponse, error)
	Exists(ctx context.Context, action, resource string) (*PermissionResponse, error)
	FindOrCreate(ctx context.Context, actorID *uuid.UUID, req CreatePermissionRequest) (*PermissionResponse, error)
	CreatePermission(ctx context.Context, actorID *uuid.UUID, req CreatePermissionRequest) (*PermissionResponse, error)
	UpdatePermission(ctx context.Context, actorID *uuid.UUID, id string, req UpdatePermissionRequest) (*PermissionResponse, error)
	DeletePermission(ctx context.Context, actorID *uuid.UUID, id string) error
}

type permissionService struct {
	perms repository.PermissionRepository
	roles repository.RoleRepository
	audit AuditService
}

func NewPermissionService(perms repository.PermissionRepository, roles repository.RoleRepository, audit AuditService) PermissionService {
	return &permissionService{perms: perms, roles: roles, audit: audit}
}

// --- Implementation ---

func (s *permissionService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.perms.ListAll(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to fetch permissions", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(&p))
	}
	return res, nil
}

func (s *permissionService) FindByCategory(ctx context.Context, category string) ([]PermissionResponse, error) {
	if !model.ValidCategory(category) {
		return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("unknown permission category '%s'", category))
	}

	perms, err := s.perms.ListActiveByCategory(ctx, category)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to fetch permissions", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(&p))
	}
	return res, nil
}

func (s *permissionService) Exists(ctx context.Context, action, resource string) (*PermissionResponse, error) {
	name := model.DeriveName(normalizeToken(action), normalizeToken(resource))
	perm, err := s.perms.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindStore, "failed to look up permission", err)
	}
	resp := toPermissionResponse(perm)
	return &resp, nil
}

// FindOrCreate is idempotent: an existing permission with the derived name is
// returned unchanged.
func (s *permissionService) FindOrCreate(ctx context.Context, actorID *uuid.UUID, req CreatePermissionRequest) (*PermissionResponse, error) {
	existing, err := s.Exists(ctx, req.Action, req.Resource)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.CreatePermission(ctx, actorID, req)
}

func (s *permissionService) CreatePermission(ctx context.Context, actorID *uuid.UUID, req CreatePermissionRequest) (*PermissionResponse, error) {
	perm, err := buildPermission(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.perms.FindByName(ctx, perm.Name); err == nil {
		return nil, apperr.New(apperr.KindDuplicate, fmt.Sprintf("permission '%s' already exists", perm.Name))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindStore, "failed to check permission name", err)
	}

	if err := s.perms.Create(ctx, perm); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to create permission", err)
	}

	s.audit.Record(ctx, actorID, model.AuditPermissionCreated, perm.ID.String(), perm.Name, "")

	resp := toPermissionResponse(perm)
	return &resp, nil
}

func (s *permissionService) UpdatePermission(ctx context.Context, actorID *uuid.UUID, id string, req UpdatePermissionRequest) (*PermissionResponse, error) {
	perm, err := s.findPermission(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Action != "" {
		action := normalizeToken(req.Action)
		if !model.ValidAction(action) {
			return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("unknown permission action '%s'", req.Action))
		}
		perm.Action = action
	}
	if req.Resource != "" {
		perm.Resource = normalizeToken(req.Resource)
	}
	if req.Category != "" {
		if !model.ValidCategory(req.Category) {
			return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("unknown permission category '%s'", req.Category))
		}
		perm.Category = req.Category
	}
	if req.DisplayName != "" {
		perm.DisplayName = req.DisplayName
	}
	if req.IsActive != nil {
		perm.IsActive = *req.IsActive
	}

	// Name always follows action and resource.
	newName := model.DeriveName(perm.Action, perm.Resource)
	if newName != perm.Name {
		if _, err := s.perms.FindByName(ctx, newName); err == nil {
			return nil, apperr.New(apperr.KindDuplicate, fmt.Sprintf("permission '%s' already exists", newName))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.KindStore, "failed to check permission name", err)
		}
		perm.Name = newName
	}

	if err := s.perms.Save(ctx, perm); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to update permission", err)
	}

	s.audit.Record(ctx, actorID, model.AuditPermissionUpdated, perm.ID.String(), perm.Name, "")

	resp := toPermissionResponse(perm)
	return &resp, nil
}

// DeletePermission runs its preconditions explicitly at the call site:
// system permissions and permissions still referenced by a role stay.
func (s *permissionService) DeletePermission(ctx context.Context, actorID *uuid.UUID, id string) error {
	perm, err := s.findPermission(ctx, id)
	if err != nil {
		return err
	}

	if perm.IsSystem {
		return apperr.New(apperr.KindConflict, fmt.Sprintf("system permission '%s' cannot be deleted", perm.Name))
	}

	roleCount, err := s.roles.CountRolesWithPermission(ctx, perm.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindStore, "failed to count referencing roles", err)
	}
	if roleCount > 0 {
		return apperr.New(apperr.KindConflict, fmt.Sprintf("cannot delete permission '%s': %d role(s) reference it", perm.Name, roleCount))
	}

	if err := s.perms.Delete(ctx, perm.ID); err != nil {
		return apperr.Wrap(apperr.KindStore, "failed to delete permission", err)
	}

	s.audit.Record(ctx, actorID, model.AuditPermissionDeleted, perm.ID.String(), perm.Name, "")
	return nil
}

// --- Helpers ---

func (s *permissionService) findPermission(ctx context.Context, id string) (*model.Permission, error) {
	permID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid permission id")
	}
	perm, err := s.perms.FindByID(ctx, permID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "permission not found")
		}
		return nil, apperr.Wrap(apperr.KindStore, "failed to fetch permission", err)
	}
	return perm, nil
}

func buildPermission(req CreatePermissionRequest) (*model.Permission, error) {
	action := normalizeToken(req.Action)
	resource := normalizeToken(req.Resource)

	if !model.ValidAction(action) {
		return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("unknown permission action '%s'", req.Action))
	}
	if resource == "" {
		return nil, apperr.New(apperr.KindValidation, "permission resource is required")
	}
	if !model.ValidCategory(req.Category) {
		return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("unknown permission category '%s'", req.Category))
	}

	return &model.Permission{
		Name:        model.DeriveName(action, resource),
		DisplayName: req.DisplayName,
		Category:    req.Category,
		Action:      action,
		Resource:    resource,
		IsActive:    true,
		IsSystem:    false,
	}, nil
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toPermissionResponse(p *model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Category:    p.Category,
		Action:      p.Action,
		Resource:    p.Resource,
		IsActive:    p.IsActive,
		IsSystem:    p.IsSystem,
	}
}

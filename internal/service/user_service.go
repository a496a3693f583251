package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"
	"backend/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateUserRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password" binding:"required,min=6"`
	RoleID     string `json:"role_id" binding:"required"`
}

type UpdateUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email" binding:"omitempty,email"`
	EmployeeID string `json:"employee_id"`
	RoleID     string `json:"role_id"`
	IsActive   *bool  `json:"is_active"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	EmployeeID string        `json:"employee_id,omitempty"`
	Role       *RoleResponse `json:"role,omitempty"`
	RoleID     string        `json:"role_id"`
	IsActive   bool          `json:"is_active"`
	LastLogin  string        `json:"last_login,omitempty"`
	CreatedAt  string        `json:"created_at"`
}

// --- Interface ---

// UserService covers administrative user management. There is no
// self-registration: accounts are created by an authenticated administrator.
type UserService interface {
	CreateUser(ctx context.Context, actorID *uuid.UUID, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actorID *uuid.UUID, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actorID *uuid.UUID, id string) error
}

type userService struct {
	users repository.UserRepository
	roles repository.RoleRepository
	audit AuditService
}

// NewUserService returns a new instance of UserService
func NewUserService(users repository.UserRepository, roles repository.RoleRepository, audit AuditService) UserService {
	return &userService{users: users, roles: roles, audit: audit}
}

// --- Implementation ---

func (s *userService) CreateUser(ctx context.Context, actorID *uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperr.New(apperr.KindDuplicate, "email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindStore, "failed to check email", err)
	}

	var employeeID *string
	if req.EmployeeID != "" {
		if _, err := s.users.FindByEmployeeID(ctx, req.EmployeeID); err == nil {
			return nil, apperr.New(apperr.KindDuplicate, "employee id already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.KindStore, "failed to check employee id", err)
		}
		employeeID = &req.EmployeeID
	}

	role, err := s.resolveRoleReference(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to hash password", err)
	}

	user := &model.User{
		Name:       req.Name,
		Email:      req.Email,
		EmployeeID: employeeID,
		Password:   hashed,
		RoleID:     role.ID,
		IsActive:   true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to create user", err)
	}
	user.Role = role

	s.audit.Record(ctx, actorID, model.AuditUserCreated, user.ID.String(), user.Email, "")

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindStore, "failed to fetch users", err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID *uuid.UUID, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	// Administrators cannot turn off their own account.
	if req.IsActive != nil && !*req.IsActive && actorID != nil && *actorID == user.ID {
		return nil, apperr.New(apperr.KindForbidden, "you cannot deactivate your own account")
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
			return nil, apperr.New(apperr.KindDuplicate, "email already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.KindStore, "failed to check email", err)
		}
		user.Email = req.Email
	}
	if req.EmployeeID != "" && (user.EmployeeID == nil || req.EmployeeID != *user.EmployeeID) {
		if _, err := s.users.FindByEmployeeID(ctx, req.EmployeeID); err == nil {
			return nil, apperr.New(apperr.KindDuplicate, "employee id already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.KindStore, "failed to check employee id", err)
		}
		user.EmployeeID = &req.EmployeeID
	}
	if req.RoleID != "" {
		role, err := s.resolveRoleReference(ctx, req.RoleID)
		if err != nil {
			return nil, err
		}
		user.RoleID = role.ID
		user.Role = role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to update user", err)
	}

	s.audit.Record(ctx, actorID, model.AuditUserUpdated, user.ID.String(), user.Email, "")

	return s.GetUserByID(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, actorID *uuid.UUID, id string) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}

	if actorID != nil && *actorID == user.ID {
		return apperr.New(apperr.KindForbidden, "you cannot delete your own account")
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return apperr.Wrap(apperr.KindStore, "failed to delete user", err)
	}

	s.audit.Record(ctx, actorID, model.AuditUserDeleted, user.ID.String(), user.Email, "")
	return nil
}

// --- Helpers ---

func (s *userService) findUser(ctx context.Context, id string) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid user id")
	}
	user, err := s.users.FindByIDWithRole(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, apperr.Wrap(apperr.KindStore, "failed to fetch user", err)
	}
	return user, nil
}

// resolveRoleReference validates that the supplied role id points at an
// existing active role.
func (s *userService) resolveRoleReference(ctx context.Context, id string) (*model.Role, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid role reference")
	}
	role, err := s.roles.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindValidation, "invalid role reference")
		}
		return nil, apperr.Wrap(apperr.KindStore, "failed to fetch role", err)
	}
	if !role.IsActive {
		return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("role '%s' is inactive", role.Name))
	}
	return role, nil
}

func toUserResponse(u *model.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		RoleID:    u.RoleID.String(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if u.EmployeeID != nil {
		resp.EmployeeID = *u.EmployeeID
	}
	if u.LastLogin != nil {
		resp.LastLogin = u.LastLogin.Format("2006-01-02T15:04:05Z07:00")
	}
	if u.Role != nil {
		role := toRoleResponse(u.Role)
		resp.Role = &role
	}
	return resp
}

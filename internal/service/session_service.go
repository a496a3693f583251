package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Session is the resolved runtime pairing of a user with its role and that
// role's permission set, valid for the duration of one request.
type Session struct {
	User        *model.User
	Role        *model.Role
	Permissions []model.Permission
}

// RoleName returns the normalized name of the session's role.
func (s *Session) RoleName() string {
	return s.Role.Name
}

// HasPermission reports whether the session's permission set contains a
// permission matching by name or by identity.
func (s *Session) HasPermission(nameOrID string) bool {
	for _, p := range s.Permissions {
		if p.Name == nameOrID || p.ID.String() == nameOrID {
			return true
		}
	}
	return false
}

// SessionService resolves a verified user identifier into a full session.
type SessionService interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*Session, error)
}

type sessionService struct {
	users repository.UserRepository
	roles repository.RoleRepository
	now   func() time.Time
}

func NewSessionService(users repository.UserRepository, roles repository.RoleRepository) SessionService {
	return &sessionService{users: users, roles: roles, now: time.Now}
}

// Resolve loads the user and forces the role reference to a permission-bearing
// role before any authorization check can run. A role reference that arrives
// unexpanded is re-fetched by id; a reference pointing at no stored role fails
// the session rather than proceeding unauthorized.
func (s *sessionService) Resolve(ctx context.Context, userID uuid.UUID) (*Session, error) {
	user, err := s.users.FindByIDWithRole(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindSessionInvalid, "session is no longer valid")
		}
		return nil, apperr.Wrap(apperr.KindStore, "failed to load session user", err)
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.KindSessionInvalid, "session is no longer valid")
	}

	ref := user.RoleRef()
	if ref.ID == uuid.Nil {
		return nil, apperr.New(apperr.KindRoleMissing, "user has no role assigned")
	}
	if !ref.Resolved() {
		role, err := s.roles.FindByIDWithPermissions(ctx, ref.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.KindRoleNotFound, "user role could not be resolved")
			}
			return nil, apperr.Wrap(apperr.KindStore, "failed to resolve user role", err)
		}
		ref = model.RoleRef{ID: ref.ID, Role: role}
		user.Role = role
	}

	// Best-effort: a failed last-login write never fails the request.
	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to update last login")
	}

	return &Session{
		User:        user,
		Role:        ref.Role,
		Permissions: ref.Role.Permissions,
	}, nil
}

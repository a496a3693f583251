package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"
	"backend/pkg/password"
	"backend/pkg/token"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- DTOs ---

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// AuthService validates credentials, manages failed-attempt lockout and
// issues tokens.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) (*TokenResponse, error)
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error
}

type authService struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	tokens *token.Service
	audit  AuditService

	maxAttempts     int
	lockoutDuration time.Duration
	now             func() time.Time
}

func NewAuthService(users repository.UserRepository, roles repository.RoleRepository, tokens *token.Service, audit AuditService, maxAttempts int, lockoutDuration time.Duration) AuthService {
	return &authService{
		users:           users,
		roles:           roles,
		tokens:          tokens,
		audit:           audit,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
		now:             time.Now,
	}
}

// Login runs the per-attempt state machine: uniform credential errors, the
// deactivation and lock-window checks, attempt counting with a time-boxed
// lock at the threshold, and counter reset on success.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Uniform message: never reveal whether the email exists.
			return nil, apperr.New(apperr.KindInvalidCredentials, "invalid email or password")
		}
		return nil, apperr.Wrap(apperr.KindStore, "failed to look up user", err)
	}

	if !user.IsActive {
		// A deactivated account does not accumulate attempts.
		return nil, apperr.New(apperr.KindAccountDeactivated, "account has been deactivated")
	}

	now := s.now()
	if user.Locked(now) {
		return nil, apperr.New(apperr.KindAccountLocked, "account is temporarily locked due to too many failed login attempts")
	}

	if !password.Matches(req.Password, user.Password) {
		attempts := user.LoginAttempts + 1
		lockUntil := user.LockUntil
		if attempts >= s.maxAttempts {
			t := now.Add(s.lockoutDuration)
			lockUntil = &t
			s.audit.Record(ctx, &user.ID, model.AuditAccountLocked, user.ID.String(), user.Email, "failed login threshold reached")
		}
		// Last writer wins on this counter; a lost increment only weakens
		// the lockout slightly.
		if err := s.users.UpdateLoginState(ctx, user.ID, attempts, lockUntil); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to persist login attempts")
		}
		s.audit.Record(ctx, &user.ID, model.AuditLoginFailed, user.ID.String(), user.Email, "")
		return nil, apperr.New(apperr.KindInvalidCredentials, "invalid email or password")
	}

	if user.LoginAttempts > 0 || user.LockUntil != nil {
		if err := s.users.UpdateLoginState(ctx, user.ID, 0, nil); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to reset login attempts")
		}
	}

	tokenString, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to issue token", err)
	}

	// Populate the role for the session payload; the login response carries
	// the user with its permission set so the client can gate its UI.
	if role, err := s.roles.FindByIDWithPermissions(ctx, user.RoleID); err == nil {
		user.Role = role
	} else {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to populate role on login response")
	}

	s.audit.Record(ctx, &user.ID, model.AuditLoginSuccess, user.ID.String(), user.Email, "")

	return &AuthResponse{
		Token: tokenString,
		User:  toUserResponse(user),
	}, nil
}

// ChangePassword verifies the current password, enforces the length policy
// and rotates the hash. A fresh token is issued; previously issued tokens
// remain valid until expiry since there is no revocation list.
func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) (*TokenResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindSessionInvalid, "session is no longer valid")
		}
		return nil, apperr.Wrap(apperr.KindStore, "failed to look up user", err)
	}

	if !password.Matches(req.CurrentPassword, user.Password) {
		return nil, apperr.New(apperr.KindInvalidCredentials, "current password is incorrect")
	}
	if len(req.NewPassword) < password.MinLength {
		return nil, apperr.New(apperr.KindValidation, "new password must be at least 6 characters")
	}

	hashed, err := password.Hash(req.NewPassword)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to update password", err)
	}

	tokenString, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "failed to issue token", err)
	}

	s.audit.Record(ctx, &user.ID, model.AuditPasswordChanged, user.ID.String(), user.Email, "")

	return &TokenResponse{Token: tokenString}, nil
}

// ForgotPassword acknowledges the request without issuing a token or sending
// mail. Delivery is intentionally not implemented; the endpoint answers
// uniformly so it cannot be used to probe for registered emails.
func (s *authService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	if _, err := s.users.FindByEmail(ctx, req.Email); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.KindStore, "failed to look up user", err)
	}
	return nil
}

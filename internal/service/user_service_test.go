package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperr"
	"backend/pkg/password"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc   UserService
	users *fakeUserRepo
	roles *fakeRoleRepo
	audit *fakeAuditRepo
	role  *model.Role
	admin *model.User
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	role := &model.Role{
		ID: uuid.New(), Name: "staff", IsActive: true,
		Permissions: []model.Permission{},
	}
	empID := "EMP-001"
	admin := &model.User{
		ID: uuid.New(), Name: "Admin", Email: "admin@example.com",
		EmployeeID: &empID, Password: mustHash(t, "admin-pass"),
		RoleID: role.ID, IsActive: true,
	}

	users := newFakeUserRepo(admin)
	roles := newFakeRoleRepo(role)
	audit := &fakeAuditRepo{}

	return &userFixture{
		svc:   NewUserService(users, roles, NewAuditService(audit)),
		users: users,
		roles: roles,
		audit: audit,
		role:  role,
		admin: admin,
	}
}

func TestCreateUser(t *testing.T) {
	fx := newUserFixture(t)

	res, err := fx.svc.CreateUser(context.Background(), &fx.admin.ID, CreateUserRequest{
		Name:       "New Hire",
		Email:      "hire@example.com",
		EmployeeID: "EMP-002",
		Password:   "initial-pass",
		RoleID:     fx.role.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, "hire@example.com", res.Email)
	assert.True(t, res.IsActive)
	require.NotNil(t, res.Role)
	assert.Equal(t, "staff", res.Role.Name)

	stored, err := fx.users.FindByEmail(context.Background(), "hire@example.com")
	require.NoError(t, err)
	assert.True(t, password.Matches("initial-pass", stored.Password), "password is stored hashed")
	assert.True(t, fx.audit.has(model.AuditUserCreated))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	fx := newUserFixture(t)

	_, err := fx.svc.CreateUser(context.Background(), &fx.admin.ID, CreateUserRequest{
		Name: "x", Email: "admin@example.com", Password: "initial-pass", RoleID: fx.role.ID.String(),
	})
	assert.Equal(t, apperr.KindDuplicate, apperr.KindOf(err))
}

func TestCreateUserDuplicateEmployeeID(t *testing.T) {
	fx := newUserFixture(t)

	_, err := fx.svc.CreateUser(context.Background(), &fx.admin.ID, CreateUserRequest{
		Name: "x", Email: "other@example.com", EmployeeID: "EMP-001",
		Password: "initial-pass", RoleID: fx.role.ID.String(),
	})
	assert.Equal(t, apperr.KindDuplicate, apperr.KindOf(err))
}

func TestCreateUserInvalidRoleReference(t *testing.T) {
	fx := newUserFixture(t)

	for _, roleID := range []string{"not-a-uuid", uuid.NewString()} {
		_, err := fx.svc.CreateUser(context.Background(), &fx.admin.ID, CreateUserRequest{
			Name: "x", Email: "other@example.com", Password: "initial-pass", RoleID: roleID,
		})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "role id %q", roleID)
	}
}

func TestCreateUserInactiveRole(t *testing.T) {
	fx := newUserFixture(t)
	fx.roles.roles[fx.role.ID].IsActive = false

	_, err := fx.svc.CreateUser(context.Background(), &fx.admin.ID, CreateUserRequest{
		Name: "x", Email: "other@example.com", Password: "initial-pass", RoleID: fx.role.ID.String(),
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateUserSelfDeactivationForbidden(t *testing.T) {
	fx := newUserFixture(t)

	inactive := false
	_, err := fx.svc.UpdateUser(context.Background(), &fx.admin.ID, fx.admin.ID.String(), UpdateUserRequest{
		IsActive: &inactive,
	})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.True(t, fx.users.users[fx.admin.ID].IsActive)
}

func TestUpdateUserDeactivateOther(t *testing.T) {
	fx := newUserFixture(t)
	other := &model.User{
		Name: "Other", Email: "other@example.com", RoleID: fx.role.ID, IsActive: true,
	}
	require.NoError(t, fx.users.Create(context.Background(), other))

	inactive := false
	res, err := fx.svc.UpdateUser(context.Background(), &fx.admin.ID, other.ID.String(), UpdateUserRequest{
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, res.IsActive)
	assert.True(t, fx.audit.has(model.AuditUserUpdated))
}

func TestUpdateUserDuplicateEmail(t *testing.T) {
	fx := newUserFixture(t)
	other := &model.User{Name: "Other", Email: "other@example.com", RoleID: fx.role.ID, IsActive: true}
	require.NoError(t, fx.users.Create(context.Background(), other))

	_, err := fx.svc.UpdateUser(context.Background(), &fx.admin.ID, other.ID.String(), UpdateUserRequest{
		Email: "admin@example.com",
	})
	assert.Equal(t, apperr.KindDuplicate, apperr.KindOf(err))
}

func TestDeleteUserSelfForbidden(t *testing.T) {
	fx := newUserFixture(t)

	err := fx.svc.DeleteUser(context.Background(), &fx.admin.ID, fx.admin.ID.String())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = fx.users.FindByID(context.Background(), fx.admin.ID)
	assert.NoError(t, err, "the account is untouched")
}

func TestDeleteUser(t *testing.T) {
	fx := newUserFixture(t)
	other := &model.User{Name: "Other", Email: "other@example.com", RoleID: fx.role.ID, IsActive: true}
	require.NoError(t, fx.users.Create(context.Background(), other))

	require.NoError(t, fx.svc.DeleteUser(context.Background(), &fx.admin.ID, other.ID.String()))

	_, err := fx.users.FindByID(context.Background(), other.ID)
	assert.Error(t, err)
	assert.True(t, fx.audit.has(model.AuditUserDeleted))
}

func TestGetUserByID(t *testing.T) {
	fx := newUserFixture(t)

	res, err := fx.svc.GetUserByID(context.Background(), fx.admin.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", res.Email)

	_, err = fx.svc.GetUserByID(context.Background(), uuid.NewString())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = fx.svc.GetUserByID(context.Background(), "bad-id")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestListUsers(t *testing.T) {
	fx := newUserFixture(t)
	require.NoError(t, fx.users.Create(context.Background(), &model.User{
		Name: "Other", Email: "other@example.com", RoleID: fx.role.ID, IsActive: true,
	}))

	res, total, err := fx.svc.ListUsers(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, res, 2)
}

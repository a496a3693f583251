package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionFixture() (*fakeUserRepo, *fakeRoleRepo, *model.User, *model.Role) {
	role := &model.Role{
		ID:       uuid.New(),
		Name:     "manager",
		IsActive: true,
		Permissions: []model.Permission{
			{ID: uuid.New(), Name: "read_user", IsActive: true},
		},
	}
	user := &model.User{
		ID:       uuid.New(),
		Name:     "Test User",
		Email:    "user@example.com",
		RoleID:   role.ID,
		IsActive: true,
	}
	return newFakeUserRepo(user), newFakeRoleRepo(role), user, role
}

func TestResolveWithPreloadedRole(t *testing.T) {
	users, roles, user, role := sessionFixture()
	users.users[user.ID].Role = role

	svc := NewSessionService(users, roles)
	sess, err := svc.Resolve(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, "manager", sess.RoleName())
	assert.True(t, sess.HasPermission("read_user"))
	assert.False(t, sess.HasPermission("delete_user"))
}

func TestResolveRepairsBareRoleID(t *testing.T) {
	users, roles, user, _ := sessionFixture()
	// The role association never arrived expanded; only the id is present.
	users.users[user.ID].Role = nil

	svc := NewSessionService(users, roles)
	sess, err := svc.Resolve(context.Background(), user.ID)
	require.NoError(t, err)

	require.NotNil(t, sess.Role)
	assert.Equal(t, "manager", sess.Role.Name)
	assert.True(t, sess.HasPermission("read_user"))
}

func TestResolveRepairsRoleWithoutPermissions(t *testing.T) {
	users, roles, user, role := sessionFixture()
	// A role pointer without its permission set is not trusted as resolved.
	users.users[user.ID].Role = &model.Role{ID: role.ID, Name: role.Name}

	svc := NewSessionService(users, roles)
	sess, err := svc.Resolve(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, sess.HasPermission("read_user"))
}

func TestResolveMatchesPermissionByID(t *testing.T) {
	users, roles, user, role := sessionFixture()
	users.users[user.ID].Role = role

	svc := NewSessionService(users, roles)
	sess, err := svc.Resolve(context.Background(), user.ID)
	require.NoError(t, err)

	assert.True(t, sess.HasPermission(role.Permissions[0].ID.String()))
}

func TestResolveUnknownUser(t *testing.T) {
	users, roles, _, _ := sessionFixture()

	svc := NewSessionService(users, roles)
	_, err := svc.Resolve(context.Background(), uuid.New())
	assert.Equal(t, apperr.KindSessionInvalid, apperr.KindOf(err))
}

func TestResolveDeactivatedUser(t *testing.T) {
	users, roles, user, _ := sessionFixture()
	users.users[user.ID].IsActive = false

	svc := NewSessionService(users, roles)
	_, err := svc.Resolve(context.Background(), user.ID)
	assert.Equal(t, apperr.KindSessionInvalid, apperr.KindOf(err))
}

func TestResolveMissingRoleReference(t *testing.T) {
	users, roles, user, _ := sessionFixture()
	users.users[user.ID].RoleID = uuid.Nil
	users.users[user.ID].Role = nil

	svc := NewSessionService(users, roles)
	_, err := svc.Resolve(context.Background(), user.ID)
	assert.Equal(t, apperr.KindRoleMissing, apperr.KindOf(err))
}

func TestResolveDanglingRoleReference(t *testing.T) {
	users, roles, user, role := sessionFixture()
	users.users[user.ID].Role = nil
	delete(roles.roles, role.ID)

	svc := NewSessionService(users, roles)
	_, err := svc.Resolve(context.Background(), user.ID)
	assert.Equal(t, apperr.KindRoleNotFound, apperr.KindOf(err))
}

func TestResolveTouchesLastLoginBestEffort(t *testing.T) {
	users, roles, user, role := sessionFixture()
	users.users[user.ID].Role = role
	users.touchErr = assert.AnError

	svc := NewSessionService(users, roles)
	_, err := svc.Resolve(context.Background(), user.ID)
	require.NoError(t, err, "a failed last-login write never fails the request")
	assert.Equal(t, 1, users.touchCalls)
}

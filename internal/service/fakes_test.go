package service

import (
	"context"
	"sort"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the store's observable behavior
// closely enough for service tests: not-found surfaces as
// gorm.ErrRecordNotFound, narrow updates mutate stored state, and Find*
// methods hand out copies so callers cannot mutate the store by accident.

// --- users ---

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User

	loginStateErr error
	touchErr      error
	touchCalls    int
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	m := make(map[uuid.UUID]*model.User, len(users))
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (f *fakeUserRepo) get(id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return f.get(id)
}

func (f *fakeUserRepo) FindByIDWithRole(_ context.Context, id uuid.UUID) (*model.User, error) {
	return f.get(id)
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByEmployeeID(_ context.Context, employeeID string) (*model.User, error) {
	for _, u := range f.users {
		if u.EmployeeID != nil && *u.EmployeeID == employeeID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(_ context.Context, page, limit int) ([]model.User, int64, error) {
	all := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	total := int64(len(all))
	offset := (page - 1) * limit
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeUserRepo) Save(_ context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) CountByRole(_ context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	for _, u := range f.users {
		if u.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

func (f *fakeUserRepo) UpdateLoginState(_ context.Context, id uuid.UUID, attempts int, lockUntil *time.Time) error {
	if f.loginStateErr != nil {
		return f.loginStateErr
	}
	if u, ok := f.users[id]; ok {
		u.LoginAttempts = attempts
		u.LockUntil = lockUntil
	}
	return nil
}

func (f *fakeUserRepo) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.touchCalls++
	if f.touchErr != nil {
		return f.touchErr
	}
	if u, ok := f.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hashed string) error {
	if u, ok := f.users[id]; ok {
		u.Password = hashed
	}
	return nil
}

// --- roles ---

type fakeRoleRepo struct {
	roles map[uuid.UUID]*model.Role
}

func newFakeRoleRepo(roles ...*model.Role) *fakeRoleRepo {
	m := make(map[uuid.UUID]*model.Role, len(roles))
	for _, r := range roles {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		m[r.ID] = r
	}
	return &fakeRoleRepo{roles: m}
}

func (f *fakeRoleRepo) Create(_ context.Context, role *model.Role) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	cp := *role
	cp.Permissions = nil
	f.roles[role.ID] = &cp
	return nil
}

func (f *fakeRoleRepo) Save(_ context.Context, role *model.Role) error {
	stored, ok := f.roles[role.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *role
	cp.Permissions = stored.Permissions
	f.roles[role.ID] = &cp
	return nil
}

func (f *fakeRoleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.roles, id)
	return nil
}

func (f *fakeRoleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	cp.Permissions = nil
	return &cp, nil
}

func (f *fakeRoleRepo) FindByIDWithPermissions(_ context.Context, id uuid.UUID) (*model.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	if cp.Permissions == nil {
		cp.Permissions = []model.Permission{}
	}
	return &cp, nil
}

func (f *fakeRoleRepo) FindByName(_ context.Context, name string) (*model.Role, error) {
	for _, r := range f.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoleRepo) ListByPriority(_ context.Context) ([]model.Role, error) {
	all := make([]model.Role, 0, len(f.roles))
	for _, r := range f.roles {
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Priority != all[j].Priority {
			return all[i].Priority > all[j].Priority
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all, nil
}

func (f *fakeRoleRepo) ReplacePermissions(_ context.Context, role *model.Role, perms []model.Permission) error {
	stored, ok := f.roles[role.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Permissions = perms
	role.Permissions = perms
	return nil
}

func (f *fakeRoleRepo) ClearPermissions(_ context.Context, role *model.Role) error {
	if stored, ok := f.roles[role.ID]; ok {
		stored.Permissions = nil
	}
	role.Permissions = nil
	return nil
}

func (f *fakeRoleRepo) CountRolesWithPermission(_ context.Context, permissionID uuid.UUID) (int64, error) {
	var count int64
	for _, r := range f.roles {
		for _, p := range r.Permissions {
			if p.ID == permissionID {
				count++
				break
			}
		}
	}
	return count, nil
}

// --- permissions ---

type fakePermRepo struct {
	perms map[uuid.UUID]*model.Permission
}

func newFakePermRepo(perms ...*model.Permission) *fakePermRepo {
	m := make(map[uuid.UUID]*model.Permission, len(perms))
	for _, p := range perms {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		m[p.ID] = p
	}
	return &fakePermRepo{perms: m}
}

func (f *fakePermRepo) Create(_ context.Context, perm *model.Permission) error {
	if perm.ID == uuid.Nil {
		perm.ID = uuid.New()
	}
	cp := *perm
	f.perms[perm.ID] = &cp
	return nil
}

func (f *fakePermRepo) Save(_ context.Context, perm *model.Permission) error {
	if _, ok := f.perms[perm.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *perm
	f.perms[perm.ID] = &cp
	return nil
}

func (f *fakePermRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.perms, id)
	return nil
}

func (f *fakePermRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Permission, error) {
	p, ok := f.perms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePermRepo) FindByName(_ context.Context, name string) (*model.Permission, error) {
	for _, p := range f.perms {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePermRepo) ListAll(_ context.Context) ([]model.Permission, error) {
	all := make([]model.Permission, 0, len(f.perms))
	for _, p := range f.perms {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Category != all[j].Category {
			return all[i].Category < all[j].Category
		}
		return all[i].Name < all[j].Name
	})
	return all, nil
}

func (f *fakePermRepo) ListActiveByCategory(_ context.Context, category string) ([]model.Permission, error) {
	var out []model.Permission
	for _, p := range f.perms {
		if p.Category == category && p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (f *fakePermRepo) FindActiveByIDs(_ context.Context, ids []uuid.UUID) ([]model.Permission, error) {
	var out []model.Permission
	for _, id := range ids {
		if p, ok := f.perms[id]; ok && p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePermRepo) FirstOrCreate(ctx context.Context, perm *model.Permission) error {
	if existing, err := f.FindByName(ctx, perm.Name); err == nil {
		*perm = *existing
		return nil
	}
	return f.Create(ctx, perm)
}

// --- audit ---

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	total := int64(len(f.entries))
	offset := (page - 1) * limit
	if offset >= len(f.entries) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(f.entries) {
		end = len(f.entries)
	}
	return f.entries[offset:end], total, nil
}

func (f *fakeAuditRepo) has(action string) bool {
	for _, e := range f.entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

// --- transactions ---

// fakeTxManager runs the function directly; the services under test only
// depend on the callback contract, not on real transaction semantics.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

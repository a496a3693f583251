package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PermissionRepository interface {
	Create(ctx context.Context, perm *model.Permission) error
	Save(ctx context.Context, perm *model.Permission) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Permission, error)
	FindByName(ctx context.Context, name string) (*model.Permission, error)
	ListAll(ctx context.Context) ([]model.Permission, error)
	ListActiveByCategory(ctx context.Context, category string) ([]model.Permission, error)
	// FindActiveByIDs returns only the active permissions among the given
	// ids; callers compare counts to detect unresolved references.
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Permission, error)
	FirstOrCreate(ctx context.Context, perm *model.Permission) error
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Create(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Create(perm).Error
}

func (r *permissionRepository) Save(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Save(perm).Error
}

func (r *permissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Permission{}).Error
}

func (r *permissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).First(&perm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *permissionRepository) FindByName(ctx context.Context, name string) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *permissionRepository) ListAll(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("category asc, name asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *permissionRepository) ListActiveByCategory(ctx context.Context, category string) ([]model.Permission, error) {
	var perms []model.Permission
	err := GetDB(ctx, r.db).
		Where("category = ? AND is_active = ?", category, true).
		Order("display_name asc").Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *permissionRepository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Permission, error) {
	var perms []model.Permission
	err := GetDB(ctx, r.db).
		Where("id IN ? AND is_active = ?", ids, true).Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *permissionRepository) FirstOrCreate(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Where("name = ?", perm.Name).FirstOrCreate(perm).Error
}

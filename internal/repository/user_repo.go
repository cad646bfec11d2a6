package repository

import (
	"context"
	"errors"

	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository persists user accounts and their role labels.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindAll returns all users with roles.
func (r *UserRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	var items []entity.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// FindByID loads one user with roles.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail loads one user with roles by unique email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Where("email = ?", email).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create stores a user and its role labels in one transaction.
func (r *UserRepository) Create(ctx context.Context, u *entity.User, roles []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return replaceRoles(tx, u.ID, roles)
	})
}

// Update persists account mutations and replaces role labels.
func (r *UserRepository) Update(ctx context.Context, u *entity.User, roles []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(u).Error; err != nil {
			return err
		}
		if roles == nil {
			return nil
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&entity.UserRole{}).Error; err != nil {
			return err
		}
		return replaceRoles(tx, u.ID, roles)
	})
}

// Delete removes a user, its roles and permissions.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&entity.UserRole{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&entity.Permission{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.User{}).Error
	})
}

func replaceRoles(tx *gorm.DB, userID uint, roles []string) error {
	if len(roles) == 0 {
		return nil
	}
	records := make([]entity.UserRole, 0, len(roles))
	for _, role := range roles {
		records = append(records, entity.UserRole{UserID: userID, Role: role})
	}
	return tx.Create(&records).Error
}

// PermissionRepository persists per-user module capabilities.
type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Find loads the permission row for one (user, module) pair.
func (r *PermissionRepository) Find(ctx context.Context, userID uint, module string) (*entity.Permission, error) {
	var p entity.Permission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND module_name = ?", userID, module).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByUser returns all permission rows for one user.
func (r *PermissionRepository) FindByUser(ctx context.Context, userID uint) ([]entity.Permission, error) {
	var items []entity.Permission
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("module_name ASC").
		Find(&items).Error
	return items, err
}

// Upsert writes the given permission rows, updating capability flags on the
// (user_id, module_name) conflict.
func (r *PermissionRepository) Upsert(ctx context.Context, perms []entity.Permission) error {
	if len(perms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"can_create", "can_read", "can_update", "can_delete"}),
		}).
		Create(&perms).Error
}

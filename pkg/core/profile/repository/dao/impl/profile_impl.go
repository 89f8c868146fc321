package dao

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperr "library-portal/pkg/common/errors"
	"library-portal/pkg/core/profile/model"
	"library-portal/pkg/core/profile/repository/dao"
)

var credentialColumns = []string{"id", "role", "status", "password_hash", "session_version"}

type GormProfileRepository struct {
	db *gorm.DB
}

var _ dao.ProfileRepository = (*GormProfileRepository)(nil)

func NewProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) QueryByID(ctx context.Context, id string) (model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).
		Omit("password_hash").
		Where("id = ?", id).
		Take(&profile).Error
	if err != nil {
		return model.Profile{}, apperr.WrapGormError(err)
	}
	return profile, nil
}

func (r *GormProfileRepository) queryCredential(ctx context.Context, column, value string) (model.Credential, error) {
	var cred model.Credential
	err := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Select(credentialColumns).
		Where(column+" = ?", value).
		Take(&cred).Error
	if err != nil {
		return model.Credential{}, apperr.WrapGormError(err)
	}
	return cred, nil
}

func (r *GormProfileRepository) QueryCredentialByID(ctx context.Context, id string) (model.Credential, error) {
	return r.queryCredential(ctx, "id", id)
}

func (r *GormProfileRepository) QueryCredentialByEmail(ctx context.Context, email string) (model.Credential, error) {
	return r.queryCredential(ctx, "email", email)
}

// UpdateContact 只修改姓名、电话、地址；email 与角色不可在此修改
func (r *GormProfileRepository) UpdateContact(ctx context.Context, id, name string, phone, address *string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":       name,
			"phone":      phone,
			"address":    address,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("profile update failed: %w", apperr.WrapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return apperr.ErrRecordNotFound
	}
	return nil
}

// UpdatePassword 行锁 + 版本号条件更新，保证旧令牌一定失效
func (r *GormProfileRepository) UpdatePassword(ctx context.Context, id, newPwdHash string) (int, error) {
	var newVersion int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Profile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "session_version").
			Where("id = ?", id).
			Take(&current).Error; err != nil {
			return apperr.WrapGormError(err)
		}

		result := tx.Model(&model.Profile{}).
			Where("id = ? AND session_version = ?", id, current.SessionVersion).
			Updates(map[string]interface{}{
				"password_hash":   newPwdHash,
				"session_version": current.SessionVersion + 1,
				"updated_at":      time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("password update failed: %w", apperr.WrapGormError(result.Error))
		}
		if result.RowsAffected == 0 {
			return apperr.ErrRecordNotFound
		}

		newVersion = current.SessionVersion + 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

func (r *GormProfileRepository) SessionVersion(ctx context.Context, id string) (int, error) {
	var version int
	err := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Select("session_version").
		Where("id = ?", id).
		Take(&version).Error
	if err != nil {
		return 0, apperr.WrapGormError(err)
	}
	return version, nil
}

func (r *GormProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return apperr.WrapGormError(err)
	}
	return nil
}

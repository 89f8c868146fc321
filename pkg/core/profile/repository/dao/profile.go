package dao

import (
	"context"

	"library-portal/pkg/core/profile/model"
)

type ProfileRepository interface {
	QueryByID(ctx context.Context, id string) (model.Profile, error)
	QueryCredentialByID(ctx context.Context, id string) (model.Credential, error)
	QueryCredentialByEmail(ctx context.Context, email string) (model.Credential, error)
	UpdateContact(ctx context.Context, id, name string, phone, address *string) error
	// UpdatePassword 写入新哈希并递增会话版本，返回新版本号
	UpdatePassword(ctx context.Context, id, newPwdHash string) (int, error)
	SessionVersion(ctx context.Context, id string) (int, error)
	Create(ctx context.Context, profile *model.Profile) error
}

package session

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperr "library-portal/pkg/common/errors"
)

const (
	msgSessionExpired = "Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại"
	msgSessionCheck   = "Đã xảy ra lỗi khi xác thực phiên đăng nhập"
)

// VersionStore 会话版本的权威来源（数据库）
type VersionStore interface {
	SessionVersion(ctx context.Context, profileID string) (int, error)
}

// VersionCache 会话版本缓存，可不可用都不影响正确性
type VersionCache interface {
	GetInt(ctx context.Context, key string) (int, bool, error)
	SetInt(ctx context.Context, key string, value int) error
	SetIntIfAbsent(ctx context.Context, key string, value int) (bool, error)
}

// Guard 检查令牌携带的会话版本是否仍然有效
type Guard struct {
	store VersionStore
	cache VersionCache
}

func NewGuard(store VersionStore, cache VersionCache) *Guard {
	return &Guard{store: store, cache: cache}
}

func versionKey(profileID string) string {
	return fmt.Sprintf("session:version:%s", profileID)
}

// Check 版本不一致或用户已不存在时返回 unauthorized
func (g *Guard) Check(ctx context.Context, caller Identity) error {
	if caller.Anonymous() {
		return apperr.NewUnauthorized(msgSessionExpired)
	}

	current, err := g.current(ctx, caller.ProfileID)
	if err != nil {
		if apperr.IsNotFoundError(err) {
			return apperr.NewUnauthorized(msgSessionExpired).WithCause(err)
		}
		return apperr.NewInternal(msgSessionCheck, err)
	}

	if current != caller.Version {
		hlog.CtxInfof(ctx, "stale session rejected profile=%s token_version=%d current=%d",
			caller.ProfileID, caller.Version, current)
		return apperr.NewUnauthorized(msgSessionExpired)
	}
	return nil
}

// Revoke 在新版本提交后覆盖缓存。回源写缓存使用 SETNX，
// 与修改密码并发的旧值不会覆盖这里写入的新版本
func (g *Guard) Revoke(ctx context.Context, profileID string, version int) {
	if g.cache == nil {
		return
	}
	if err := g.cache.SetInt(ctx, versionKey(profileID), version); err != nil {
		hlog.CtxWarnf(ctx, "failed to refresh session version profile=%s: %v", profileID, err)
	}
}

func (g *Guard) current(ctx context.Context, profileID string) (int, error) {
	key := versionKey(profileID)
	if g.cache != nil {
		if v, ok, err := g.cache.GetInt(ctx, key); err == nil && ok {
			return v, nil
		}
	}

	v, err := g.store.SessionVersion(ctx, profileID)
	if err != nil {
		return 0, err
	}

	if g.cache != nil {
		if _, err := g.cache.SetIntIfAbsent(ctx, key, v); err != nil {
			hlog.CtxDebugf(ctx, "session version not cached profile=%s: %v", profileID, err)
		}
	}
	return v, nil
}

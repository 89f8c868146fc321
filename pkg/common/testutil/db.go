// Package testutil provides the throwaway stores used by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"library-portal/pkg/common/cache"
	"library-portal/pkg/common/config"
	"library-portal/pkg/core/schema"
)

// NewDB 在临时目录创建开启外键的 SQLite 库并完成建表
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "library.db")
	cfg.Database.LogLevel = "silent"
	// 单连接避免 SQLite 写锁竞争
	cfg.Database.MinPoolSize = 1
	cfg.Database.MaxPoolSize = 1

	db, err := cfg.InitDB()
	require.NoError(t, err)
	require.NoError(t, schema.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewRedis 基于 miniredis 的缓存，返回 server 以便测试模拟宕机
func NewRedis(t testing.TB) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedisWithClient(client, 0), srv
}

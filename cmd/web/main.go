package main

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	"library-portal/pkg/common/cache"
	"library-portal/pkg/common/config"
	"library-portal/pkg/core/schema"
	"library-portal/pkg/web/router"
)

func main() {
	// 初始化配置
	cfg := config.Load()
	hlog.SetLevel(cfg.HlogLevel())

	// 初始化数据库连接
	db, err := cfg.InitDB()
	if err != nil {
		hlog.Fatalf("Failed to initialize database: %v", err)
	}
	if err := schema.AutoMigrate(db); err != nil {
		hlog.Fatalf("Failed to migrate schema: %v", err)
	}

	// Redis 不可用时会话校验直接回源数据库
	redisCache := cache.NewRedis(cfg.Redis)
	defer redisCache.Close()

	// 创建Hertz实例
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(int(cfg.Middleware.Security.MaxBodySize)),
	)

	// 注册路由
	if err := router.RegisterAPIs(h, cfg, router.NewDependencies(cfg, db, redisCache)); err != nil {
		hlog.Fatalf("Failed to register routes: %v", err)
	}

	// 启动服务
	h.Spin()
}

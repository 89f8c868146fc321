package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app/server"
	"gorm.io/gorm"

	"library-portal/pkg/common/cache"
	"library-portal/pkg/common/config"
	categorydao "library-portal/pkg/core/category/repository/dao/impl"
	categorysvc "library-portal/pkg/core/category/service"
	profiledao "library-portal/pkg/core/profile/repository/dao/impl"
	profilesvc "library-portal/pkg/core/profile/service"
	"library-portal/pkg/core/session"
	"library-portal/pkg/core/validation"
	"library-portal/pkg/web/handler"
	"library-portal/pkg/web/middleware"
)

// Dependencies 路由所需的服务实例
type Dependencies struct {
	Categories *categorysvc.CategoryService
	Profiles   *profilesvc.ProfileService
	Guard      *session.Guard
	Health     *handler.HealthCheckHandler
}

// NewDependencies 组装 DAO → 服务
func NewDependencies(cfg *config.Config, db *gorm.DB, redisCache *cache.Redis) Dependencies {
	v := validation.New()

	profileRepo := profiledao.NewProfileRepository(db)
	guard := session.NewGuard(profileRepo, redisCache)

	health := handler.NewHealthCheckHandler().
		WithComponent("database", true, handler.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})).
		WithComponent("redis", false, redisCache)

	return Dependencies{
		Categories: categorysvc.NewCategoryService(categorydao.NewCategoryRepository(db), v),
		Profiles:   profilesvc.NewProfileService(profileRepo, v, guard, cfg.Middleware.Security.BcryptCost),
		Guard:      guard,
		Health:     health,
	}
}

// RegisterAPIs 注册所有API路由
func RegisterAPIs(h *server.Hertz, cfg *config.Config, deps Dependencies) error {
	authMiddleware, err := middleware.NewJWTAuth(cfg.Middleware.JWT, deps.Profiles)
	if err != nil {
		return fmt.Errorf("jwt middleware init failed: %w", err)
	}

	categoryHandler := handler.NewCategoryHandler(deps.Categories)
	profileHandler := handler.NewProfileHandler(deps.Profiles, cfg.Middleware.JWT)

	// 注册全局中间件（按执行顺序）
	h.Use(
		middleware.RecoveryMiddleware(cfg),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Middleware.CORS),
		middleware.SecurityCheckMiddleware(cfg.Middleware.Security),
		middleware.RateLimitMiddleware(
			cfg.Middleware.RateLimit.Rate,
			cfg.Middleware.RateLimit.Interval,
		),
		middleware.TimeoutMiddleware(cfg.Middleware.Timeout.RequestTimeout),
	)

	// 基础接口组
	h.GET("/health", deps.Health.AdvancedHealthCheck)

	apiGroup := h.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/login", authMiddleware.LoginHandler)
			authGroup.POST("/logout", authMiddleware.LogoutHandler)
		}

		// 以下接口需要有效令牌且会话未失效
		authenticated := apiGroup.Group("",
			authMiddleware.MiddlewareFunc(),
			middleware.SessionGuard(deps.Guard),
		)

		categoryGroup := authenticated.Group("/categories")
		{
			categoryGroup.GET("", categoryHandler.List)
			categoryGroup.POST("", categoryHandler.Create)
			categoryGroup.PATCH("/:id", categoryHandler.Update)
			categoryGroup.DELETE("/:id", categoryHandler.Delete)
		}

		profileGroup := authenticated.Group("/profile")
		{
			profileGroup.GET("", profileHandler.Get)
			profileGroup.PUT("", profileHandler.Update)
			profileGroup.PUT("/password", profileHandler.ChangePassword)
		}
	}

	return nil
}

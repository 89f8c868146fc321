package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	hzerrors "github.com/cloudwego/hertz/pkg/common/errors"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/google/uuid"
	"github.com/hertz-contrib/cors"
	"golang.org/x/time/rate"

	"library-portal/pkg/common/config"
	"library-portal/pkg/web/response"
)

const (
	HeaderRequestID = "X-Request-ID"
	requestIDKey    = "request_id"
)

// LoggerMiddleware 结构化的请求日志记录
func LoggerMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()

		requestID := string(ctx.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Set(requestIDKey, requestID)
		ctx.Header(HeaderRequestID, requestID)

		ctx.Next(c) // 放行到后续处理器
		latency := time.Since(start)

		line := fmt.Sprintf("| %3d | %13v | %15s | %-7s | %s | rid=%s",
			ctx.Response.StatusCode(),
			latency,
			ctx.ClientIP(),
			ctx.Method(),
			ctx.Path(),
			requestID,
		)
		if private := ctx.Errors.ByType(hzerrors.ErrorTypePrivate); len(private) > 0 {
			hlog.CtxErrorf(c, "%s | %s", line, strings.Join(private.Errors(), "; "))
			return
		}
		hlog.CtxInfof(c, "%s", line)
	}
}

// RecoveryMiddleware 异常捕获；生产环境不返回堆栈
func RecoveryMiddleware(cfg *config.Config) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())
				hlog.CtxErrorf(c, "[PANIC RECOVERED] %v\n%s", err, stack)

				if cfg.IsProd() {
					ctx.AbortWithStatusJSON(http.StatusInternalServerError, response.Envelope{
						Success: false,
						Message: "Đã xảy ra lỗi hệ thống",
					})
					return
				}
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, utils.H{
					"success": false,
					"message": "Đã xảy ra lỗi hệ thống",
					"error":   fmt.Sprintf("%v", err),
					"stack":   strings.Split(stack, "\n"),
				})
			}
		}()
		ctx.Next(c)
	}
}

// CORSMiddleware 前端携带 Cookie 跨域访问
func CORSMiddleware(corsConfig config.CORSConfig) app.HandlerFunc {
	return cors.New(
		cors.Config{
			AllowOrigins:     corsConfig.AllowOrigins,
			AllowMethods:     corsConfig.AllowMethods,
			AllowHeaders:     corsConfig.AllowHeaders,
			ExposeHeaders:    corsConfig.ExposeHeaders,
			AllowCredentials: corsConfig.AllowCredentials,
			MaxAge:           corsConfig.MaxAge,
			// 动态校验来源
			AllowOriginFunc: func(origin string) bool {
				for _, domain := range corsConfig.TrustedDomains {
					if domain != "" && strings.HasSuffix(origin, domain) {
						return true
					}
				}
				return false
			},
		},
	)
}

// TimeoutMiddleware 只约束下游使用的 context，处理器仍在当前协程执行
func TimeoutMiddleware(seconds int) app.HandlerFunc {
	if seconds <= 0 {
		return func(c context.Context, ctx *app.RequestContext) { ctx.Next(c) }
	}
	return func(c context.Context, ctx *app.RequestContext) {
		timeoutCtx, cancel := context.WithTimeout(c, time.Duration(seconds)*time.Second)
		defer cancel()

		ctx.Next(timeoutCtx)

		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			hlog.CtxWarnf(c, "request exceeded %ds path=%s", seconds, ctx.Path())
		}
	}
}

// RateLimitMiddleware 令牌桶限流：每 interval 补充一个令牌，桶容量 burst
func RateLimitMiddleware(burst int, interval time.Duration) app.HandlerFunc {
	if burst <= 0 || interval <= 0 {
		return func(c context.Context, ctx *app.RequestContext) { ctx.Next(c) }
	}
	limiter := rate.NewLimiter(rate.Every(interval), burst)

	return func(c context.Context, ctx *app.RequestContext) {
		if !limiter.Allow() {
			hlog.CtxInfof(c, "[RATE LIMIT] path=%s", ctx.Path())
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, response.Envelope{
				Success: false,
				Message: "Quá nhiều yêu cầu, vui lòng thử lại sau",
			})
			return
		}
		ctx.Next(c)
	}
}

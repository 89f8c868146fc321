package middleware

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	"library-portal/pkg/common/config"
	"library-portal/pkg/web/response"
)

// 预编译恶意字符正则
var xssRegex = regexp.MustCompile(`(?i)<script.*?>|</script>|javascript:|alert\(|onerror=`)

// SecurityCheckMiddleware 全局安全校验中间件
func SecurityCheckMiddleware(cfg config.SecurityConfig) app.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.AllowedMethods))
	for _, m := range cfg.AllowedMethods {
		allowed[strings.ToUpper(m)] = true
	}

	hosts := make(map[string]bool, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		hosts[strings.ToLower(h)] = true
	}

	return func(c context.Context, ctx *app.RequestContext) {
		// 防护机制0：Host 白名单，未配置时不限制
		if len(hosts) > 0 && !hosts[hostOnly(string(ctx.Host()))] {
			securityResponse(c, ctx, http.StatusBadRequest, "Tên miền không được phép")
			return
		}

		// 防护机制1：检查HTTP方法
		if len(allowed) > 0 && !allowed[string(ctx.Method())] {
			securityResponse(c, ctx, http.StatusMethodNotAllowed, "Phương thức không được hỗ trợ")
			return
		}

		// 防护机制2：请求体大小限制
		if cfg.MaxBodySize > 0 && int64(ctx.Request.Header.ContentLength()) > cfg.MaxBodySize {
			securityResponse(c, ctx, http.StatusRequestEntityTooLarge, "Dữ liệu gửi lên quá lớn")
			return
		}

		// 防护机制3：查询参数恶意字符检查
		if hasMaliciousQuery(ctx) {
			securityResponse(c, ctx, http.StatusBadRequest, "Yêu cầu chứa ký tự không hợp lệ")
			return
		}

		ctx.Next(c)
	}
}

// hostOnly 去掉端口并转小写
func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}

func hasMaliciousQuery(ctx *app.RequestContext) bool {
	found := false
	ctx.QueryArgs().VisitAll(func(key, value []byte) {
		if found {
			return
		}
		found = xssRegex.Match(key) || xssRegex.Match(value)
	})
	return found
}

// 安全响应统一处理
func securityResponse(c context.Context, ctx *app.RequestContext, status int, msg string) {
	hlog.CtxWarnf(c, "SecurityAlert[status=%d] %s %s: %s", status, ctx.Method(), ctx.Path(), msg)
	ctx.AbortWithStatusJSON(status, response.Envelope{Success: false, Message: msg})
}

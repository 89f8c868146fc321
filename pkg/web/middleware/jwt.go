package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/hertz-contrib/jwt"

	"library-portal/pkg/common/config"
	apperr "library-portal/pkg/common/errors"
	"library-portal/pkg/core/session"
	"library-portal/pkg/core/validation"
	"library-portal/pkg/web/response"
)

const (
	IdentityKey = "id"
	claimRole   = "role"
	claimVer    = "sv"

	authErrorKey = "auth_error"

	msgLoginRequired = "Vui lòng đăng nhập để tiếp tục"
	msgLoginOK       = "Đăng nhập thành công"
	msgLogoutOK      = "Đăng xuất thành công"
)

// Authenticator 登录凭据校验（由 profile 服务实现）
type Authenticator interface {
	Authenticate(ctx context.Context, in validation.LoginInput) (session.Identity, error)
}

// NewJWTAuth 签发/校验令牌；令牌同时通过 Authorization 头和 Cookie 传递
func NewJWTAuth(cfg config.JWTAuthConfig, auth Authenticator) (*jwt.HertzJWTMiddleware, error) {
	return jwt.New(&jwt.HertzJWTMiddleware{
		Realm:            cfg.Realm,
		SigningAlgorithm: cfg.SigningMethod,
		Key:              []byte(cfg.Secret),
		Timeout:          cfg.ExpireDuration,
		IdentityKey:      IdentityKey,
		TokenLookup:      "header: Authorization, cookie: " + cfg.CookieName,
		TokenHeadName:    "Bearer",
		TimeFunc:         time.Now,

		SendCookie:     true,
		CookieName:     cfg.CookieName,
		CookieMaxAge:   cfg.ExpireDuration,
		SecureCookie:   cfg.SecureCookie,
		CookieHTTPOnly: true,
		CookieSameSite: protocol.CookieSameSiteLaxMode,

		Authenticator: func(ctx context.Context, c *app.RequestContext) (interface{}, error) {
			var in validation.LoginInput
			if err := c.BindJSON(&in); err != nil {
				appErr := apperr.NewValidation(validation.MsgInvalidPayload).WithCause(err)
				c.Set(authErrorKey, appErr)
				return nil, appErr
			}
			identity, err := auth.Authenticate(ctx, in)
			if err != nil {
				c.Set(authErrorKey, err)
				return nil, err
			}
			hlog.CtxInfof(ctx, "login profile=%s role=%s", identity.ProfileID, identity.Role)
			return identity, nil
		},

		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if identity, ok := data.(session.Identity); ok {
				return jwt.MapClaims{
					IdentityKey: identity.ProfileID,
					claimRole:   string(identity.Role),
					claimVer:    identity.Version,
					"iss":       cfg.Issuer,
				}
			}
			return jwt.MapClaims{}
		},

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			return identityFromClaims(jwt.ExtractClaims(ctx, c))
		},

		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			identity, ok := data.(session.Identity)
			return ok && !identity.Anonymous() && identity.Role.Valid()
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			// 登录失败保留业务错误分类（400/403），其余一律 401
			if v, ok := c.Get(authErrorKey); ok {
				if err, ok := v.(error); ok {
					response.Fail(ctx, c, err)
					return
				}
			}
			hlog.CtxDebugf(ctx, "jwt rejected code=%d path=%s: %s", code, c.Path(), message)
			response.Fail(ctx, c, apperr.NewUnauthorized(msgLoginRequired))
		},

		LoginResponse: func(ctx context.Context, c *app.RequestContext, code int, token string, expire time.Time) {
			response.OK(c, msgLoginOK, map[string]interface{}{
				"token":  token,
				"expire": expire.Format(time.RFC3339),
			})
		},

		LogoutResponse: func(ctx context.Context, c *app.RequestContext, code int) {
			response.OK(c, msgLogoutOK, nil)
		},
	})
}

func identityFromClaims(claims jwt.MapClaims) session.Identity {
	id, _ := claims[IdentityKey].(string)
	role, _ := claims[claimRole].(string)

	// JSON 数字解码为 float64
	version := 0
	switch v := claims[claimVer].(type) {
	case float64:
		version = int(v)
	case int:
		version = v
	}

	return session.Identity{ProfileID: id, Role: session.Role(role), Version: version}
}

// Caller 取出当前请求的调用者身份
func Caller(c *app.RequestContext) session.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if identity, ok := v.(session.Identity); ok {
			return identity
		}
	}
	return session.Identity{}
}

// SessionGuard 拒绝修改密码前签发的令牌
func SessionGuard(guard *session.Guard) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if err := guard.Check(ctx, Caller(c)); err != nil {
			response.Fail(ctx, c, err)
			return
		}
		c.Next(ctx)
	}
}

// ClearTokenCookie 让浏览器丢弃令牌 Cookie
func ClearTokenCookie(c *app.RequestContext, cfg config.JWTAuthConfig) {
	c.SetCookie(cfg.CookieName, "", -1, "/", "", protocol.CookieSameSiteLaxMode, cfg.SecureCookie, true)
}

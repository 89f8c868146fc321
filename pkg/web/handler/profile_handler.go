package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"library-portal/pkg/common/config"
	"library-portal/pkg/core/profile/service"
	"library-portal/pkg/web/middleware"
	"library-portal/pkg/web/model"
	"library-portal/pkg/web/response"
)

type ProfileHandler struct {
	svc *service.ProfileService
	jwt config.JWTAuthConfig
}

func NewProfileHandler(svc *service.ProfileService, jwtCfg config.JWTAuthConfig) *ProfileHandler {
	return &ProfileHandler{svc: svc, jwt: jwtCfg}
}

// Get GET /api/profile
func (h *ProfileHandler) Get(ctx context.Context, c *app.RequestContext) {
	view, err := h.svc.Get(ctx, middleware.Caller(c))
	if err != nil {
		response.Fail(ctx, c, err)
		return
	}
	response.OK(c, "", utils.H{"profile": model.NewProfileRes(view)})
}

// Update PUT /api/profile
func (h *ProfileHandler) Update(ctx context.Context, c *app.RequestContext) {
	var req model.ProfileReq
	if err := c.BindJSON(&req); err != nil {
		response.Fail(ctx, c, invalidBody(err))
		return
	}

	view, err := h.svc.Update(ctx, middleware.Caller(c), req.Input())
	if err != nil {
		response.Fail(ctx, c, err)
		return
	}
	response.OK(c, service.MsgUpdated, utils.H{"profile": model.NewProfileRes(view)})
}

// ChangePassword PUT /api/profile/password；成功后清除令牌 Cookie，要求重新登录
func (h *ProfileHandler) ChangePassword(ctx context.Context, c *app.RequestContext) {
	var req model.ChangePwdReq
	if err := c.BindJSON(&req); err != nil {
		response.Fail(ctx, c, invalidBody(err))
		return
	}

	if err := h.svc.ChangePassword(ctx, middleware.Caller(c), req.Input()); err != nil {
		response.Fail(ctx, c, err)
		return
	}

	middleware.ClearTokenCookie(c, h.jwt)
	response.OK(c, service.MsgPasswordChanged, nil)
}

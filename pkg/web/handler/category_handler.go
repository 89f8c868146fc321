package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	apperr "library-portal/pkg/common/errors"
	"library-portal/pkg/core/category/service"
	"library-portal/pkg/core/validation"
	"library-portal/pkg/web/middleware"
	"library-portal/pkg/web/model"
	"library-portal/pkg/web/response"
)

type CategoryHandler struct {
	svc *service.CategoryService
}

func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// invalidBody 请求体无法解析
func invalidBody(err error) error {
	return apperr.NewValidation(validation.MsgInvalidPayload).WithCause(err)
}

// List GET /api/categories
func (h *CategoryHandler) List(ctx context.Context, c *app.RequestContext) {
	var req model.CategoryListReq
	if err := c.BindQuery(&req); err != nil {
		response.Fail(ctx, c, invalidBody(err))
		return
	}

	categories, err := h.svc.List(ctx, service.ListQuery{
		Search:    req.Search,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		response.Fail(ctx, c, err)
		return
	}
	response.OK(c, "", utils.H{"categories": model.NewCategoryList(categories)})
}

// Create POST /api/categories
func (h *CategoryHandler) Create(ctx context.Context, c *app.RequestContext) {
	var req model.CategoryReq
	if err := c.BindJSON(&req); err != nil {
		response.Fail(ctx, c, invalidBody(err))
		return
	}

	created, err := h.svc.Create(ctx, middleware.Caller(c), req.Input())
	if err != nil {
		response.Fail(ctx, c, err)
		return
	}
	response.Created(c, service.MsgCreated, utils.H{"category": model.NewCategoryRes(created)})
}

// Update PATCH /api/categories/:id
func (h *CategoryHandler) Update(ctx context.Context, c *app.RequestContext) {
	var req model.CategoryReq
	if err := c.BindJSON(&req); err != nil {
		response.Fail(ctx, c, invalidBody(err))
		return
	}

	updated, err := h.svc.Update(ctx, middleware.Caller(c), c.Param("id"), req.Input())
	if err != nil {
		response.Fail(ctx, c, err)
		return
	}
	response.OK(c, service.MsgUpdated, utils.H{"category": model.NewCategoryRes(updated)})
}

// Delete DELETE /api/categories/:id
func (h *CategoryHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if err := h.svc.Delete(ctx, middleware.Caller(c), c.Param("id")); err != nil {
		response.Fail(ctx, c, err)
		return
	}
	response.OK(c, service.MsgDeleted, nil)
}

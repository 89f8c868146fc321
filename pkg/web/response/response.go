// Package response writes the JSON envelope shared by every endpoint:
// {success, message?, data?, errors?}.
package response

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperr "library-portal/pkg/common/errors"
)

const msgInternal = "Đã xảy ra lỗi hệ thống"

type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func OK(c *app.RequestContext, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(c *app.RequestContext, message string, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// StatusOf 错误分类到HTTP状态码
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict, apperr.KindInvalidCredential:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Fail 写出错误响应并中止后续处理；内部错误只返回通用消息，原因挂到请求错误链上由访问日志输出
func Fail(ctx context.Context, c *app.RequestContext, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.NewInternal(msgInternal, err)
	}

	status := StatusOf(appErr.Kind)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		hlog.CtxErrorf(ctx, "%s %s failed: %v", c.Method(), c.Path(), err)
	}

	message := appErr.Message
	if message == "" {
		message = msgInternal
	}

	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Message: message,
		Errors:  appErr.Fields,
	})
}

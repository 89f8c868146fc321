// pkg/common/errors/errors.go

/*
  - 使用实例
    // 服务层返回:
    return errors.NewConflict("Thể loại đã tồn tại", errors.FieldError{Field: "name", Message: "..."})

    // 调用方判断:
    var appErr *errors.Error
    if stderrors.As(err, &appErr) && appErr.Kind == errors.KindConflict {
    // ...
    }
*/
package errors

import (
	"errors"
	"strings"
)

// Kind 业务错误分类，决定对外的HTTP状态码
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindInvalidCredential
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// FieldError 字段级错误，前端按 field 定位表单项
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 统一的业务错误
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// WithCause 附加底层错误（只用于日志，不对外暴露）
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

func New(kind Kind, message string, fields ...FieldError) *Error {
	return &Error{Kind: kind, Message: message, Fields: fields}
}

func NewValidation(message string, fields ...FieldError) *Error {
	return New(KindValidation, message, fields...)
}

func NewConflict(message string, fields ...FieldError) *Error {
	return New(KindConflict, message, fields...)
}

func NewNotFound(message string) *Error {
	return New(KindNotFound, message)
}

func NewInvalidCredential(message string) *Error {
	return New(KindInvalidCredential, message)
}

func NewUnauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func NewForbidden(message string) *Error {
	return New(KindForbidden, message)
}

// NewInternal 包装未识别的底层错误
func NewInternal(message string, cause error) *Error {
	return New(KindInternal, message).WithCause(cause)
}

// KindOf 提取错误分类，非业务错误一律视为 internal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As 安全地取出 *Error
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

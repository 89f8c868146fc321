package session

import (
	apperr "library-portal/pkg/common/errors"
)

type Role string

const (
	RoleReader    Role = "reader"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

// Elevated 可以维护分类的角色
var Elevated = []Role{RoleLibrarian, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleReader, RoleLibrarian, RoleAdmin:
		return true
	}
	return false
}

// ParseRole 解析角色字符串，非法值返回 false
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

const msgForbidden = "Bạn không có quyền thực hiện thao tác này"

// Authorize 能力校验：调用方角色必须在允许集合内
func Authorize(caller Identity, allowed ...Role) error {
	for _, r := range allowed {
		if caller.Role == r {
			return nil
		}
	}
	return apperr.NewForbidden(msgForbidden)
}

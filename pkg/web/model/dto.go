package model

import (
	"time"

	category "library-portal/pkg/core/category/model"
	profile "library-portal/pkg/core/profile/model"
	"library-portal/pkg/core/validation"
)

// 请求数据结构
type (
	CategoryReq struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}

	ProfileReq struct {
		Name    string  `json:"name"`
		Phone   *string `json:"phone"`
		Address string  `json:"address"`
	}

	ChangePwdReq struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}

	CategoryListReq struct {
		Search    string `query:"search"`
		SortBy    string `query:"sortBy"`
		SortOrder string `query:"sortOrder"`
	}
)

func (r CategoryReq) Input() validation.CategoryInput {
	in := validation.CategoryInput{Name: r.Name}
	if r.Description != nil {
		in.Description = *r.Description
	}
	return in
}

func (r ProfileReq) Input() validation.ProfileInput {
	in := validation.ProfileInput{Name: r.Name, Address: r.Address}
	if r.Phone != nil {
		in.Phone = *r.Phone
	}
	return in
}

func (r ChangePwdReq) Input() validation.PasswordChangeInput {
	return validation.PasswordChangeInput{
		CurrentPassword: r.CurrentPassword,
		NewPassword:     r.NewPassword,
		ConfirmPassword: r.ConfirmPassword,
	}
}

// 响应数据结构
type (
	CategoryRes struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
		BooksCount  int64     `json:"books_count"`
	}

	ProfileRes struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		Phone        string    `json:"phone"`
		Address      string    `json:"address"`
		Role         string    `json:"role"`
		Status       string    `json:"status"`
		JoinedDate   time.Time `json:"joined_date"`
		TotalBorrows int       `json:"total_borrows"`
		TotalFines   float64   `json:"total_fines"`
	}
)

func NewCategoryRes(c category.WithCount) CategoryRes {
	return CategoryRes{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		BooksCount:  c.BooksCount,
	}
}

func NewCategoryList(list []category.WithCount) []CategoryRes {
	out := make([]CategoryRes, 0, len(list))
	for _, c := range list {
		out = append(out, NewCategoryRes(c))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NewProfileRes 空电话/地址输出为空字符串，罚款输出为数字
func NewProfileRes(v profile.View) ProfileRes {
	return ProfileRes{
		ID:           v.ID,
		Name:         v.Name,
		Email:        v.Email,
		Phone:        deref(v.Phone),
		Address:      deref(v.Address),
		Role:         v.Role,
		Status:       string(v.Status),
		JoinedDate:   v.CreatedAt,
		TotalBorrows: v.BorrowCount,
		TotalFines:   v.TotalFines.InexactFloat64(),
	}
}

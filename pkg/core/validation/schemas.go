package validation

import "strings"

// CategoryInput 新建/修改分类共用
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description"`
}

func (in *CategoryInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

// DescriptionOrNil 空描述按缺省处理（存 NULL）
func (in CategoryInput) DescriptionOrNil() *string {
	if in.Description == "" {
		return nil
	}
	d := in.Description
	return &d
}

// ProfileInput 个人资料修改；email 不在此处
type ProfileInput struct {
	Name    string `json:"name" validate:"required,max=50"`
	Phone   string `json:"phone" validate:"omitempty,vnphone"`
	Address string `json:"address" validate:"required,max=255"`
}

func (in *ProfileInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
}

func (in ProfileInput) PhoneOrNil() *string {
	if in.Phone == "" {
		return nil
	}
	p := in.Phone
	return &p
}

// PasswordChangeInput 密码不做 trim，按原样比较
type PasswordChangeInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=16"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func (in *PasswordChangeInput) Normalize() {}

type LoginInput struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

func (in *LoginInput) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

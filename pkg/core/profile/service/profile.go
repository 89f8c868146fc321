package service

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"golang.org/x/crypto/bcrypt"

	apperr "library-portal/pkg/common/errors"
	"library-portal/pkg/core/profile/model"
	"library-portal/pkg/core/profile/repository/dao"
	"library-portal/pkg/core/session"
	"library-portal/pkg/core/validation"
)

const (
	MsgUpdated         = "Cập nhật thông tin thành công"
	MsgPasswordChanged = "Đổi mật khẩu thành công. Vui lòng đăng nhập lại"

	msgNotFound         = "Không tìm thấy thông tin người dùng"
	msgWrongPassword    = "Mật khẩu hiện tại không đúng"
	msgSamePassword     = "Mật khẩu mới phải khác mật khẩu cũ"
	msgBadLogin         = "Email hoặc mật khẩu không đúng"
	msgAccountLocked    = "Tài khoản đã bị khóa"
	msgEmailTaken       = "Email đã được sử dụng"
	msgGetFailed        = "Đã xảy ra lỗi khi lấy thông tin hồ sơ"
	msgUpdateFailed     = "Đã xảy ra lỗi khi cập nhật thông tin"
	msgChangeFailed     = "Đã xảy ra lỗi khi đổi mật khẩu"
	msgLoginFailed      = "Đã xảy ra lỗi khi đăng nhập"
	msgCreateFailed     = "Đã xảy ra lỗi khi tạo tài khoản"
	msgInvalidRole      = "Vai trò không hợp lệ"
	msgPasswordTooShort = "Mật khẩu phải từ 8-16 ký tự"
	msgEmailRequired    = "Email không được để trống"
	msgNameRequired     = "Tên không được để trống"
	msgInvalidPhone     = "Số điện thoại không đúng định dạng"
)

// SessionRevoker 改密后刷新会话版本缓存
type SessionRevoker interface {
	Revoke(ctx context.Context, profileID string, version int)
}

type ProfileService struct {
	repo       dao.ProfileRepository
	validator  *validation.Validator
	revoker    SessionRevoker
	bcryptCost int
}

func NewProfileService(repo dao.ProfileRepository, v *validation.Validator, revoker SessionRevoker, bcryptCost int) *ProfileService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &ProfileService{repo: repo, validator: v, revoker: revoker, bcryptCost: bcryptCost}
}

// Get 只能读取调用者本人的资料
func (s *ProfileService) Get(ctx context.Context, caller session.Identity) (model.View, error) {
	profile, err := s.repo.QueryByID(ctx, caller.ProfileID)
	if err != nil {
		if apperr.IsNotFoundError(err) {
			return model.View{}, apperr.NewNotFound(msgNotFound)
		}
		return model.View{}, apperr.NewInternal(msgGetFailed, err)
	}
	return profile.View(), nil
}

func (s *ProfileService) Update(ctx context.Context, caller session.Identity, in validation.ProfileInput) (model.View, error) {
	if err := s.validator.Validate(&in); err != nil {
		return model.View{}, err
	}

	address := in.Address
	if err := s.repo.UpdateContact(ctx, caller.ProfileID, in.Name, in.PhoneOrNil(), &address); err != nil {
		if apperr.IsNotFoundError(err) {
			return model.View{}, apperr.NewNotFound(msgNotFound)
		}
		return model.View{}, apperr.NewInternal(msgUpdateFailed, err)
	}

	profile, err := s.repo.QueryByID(ctx, caller.ProfileID)
	if err != nil {
		if apperr.IsNotFoundError(err) {
			return model.View{}, apperr.NewNotFound(msgNotFound)
		}
		return model.View{}, apperr.NewInternal(msgUpdateFailed, err)
	}
	return profile.View(), nil
}

// ChangePassword 校验旧密码 → 新旧不同 → 写入新哈希并使旧会话失效
func (s *ProfileService) ChangePassword(ctx context.Context, caller session.Identity, in validation.PasswordChangeInput) error {
	if err := s.validator.Validate(&in); err != nil {
		return err
	}

	cred, err := s.repo.QueryCredentialByID(ctx, caller.ProfileID)
	if err != nil {
		if apperr.IsNotFoundError(err) {
			return apperr.NewNotFound(msgNotFound)
		}
		return apperr.NewInternal(msgChangeFailed, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperr.NewInvalidCredential(msgWrongPassword)
		}
		return apperr.NewInternal(msgChangeFailed, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(in.NewPassword)) == nil {
		return apperr.NewValidation(msgSamePassword, apperr.FieldError{Field: "newPassword", Message: msgSamePassword})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.bcryptCost)
	if err != nil {
		return apperr.NewInternal(msgChangeFailed, err)
	}

	version, err := s.repo.UpdatePassword(ctx, caller.ProfileID, string(hash))
	if err != nil {
		if apperr.IsNotFoundError(err) {
			return apperr.NewNotFound(msgNotFound)
		}
		return apperr.NewInternal(msgChangeFailed, err)
	}

	if s.revoker != nil {
		s.revoker.Revoke(ctx, caller.ProfileID, version)
	}
	hlog.CtxInfof(ctx, "password changed profile=%s session_version=%d", caller.ProfileID, version)
	return nil
}

// Authenticate 登录校验，返回令牌所需的身份信息
func (s *ProfileService) Authenticate(ctx context.Context, in validation.LoginInput) (session.Identity, error) {
	if err := s.validator.Validate(&in); err != nil {
		return session.Identity{}, err
	}

	cred, err := s.repo.QueryCredentialByEmail(ctx, in.Email)
	if err != nil {
		if apperr.IsNotFoundError(err) {
			return session.Identity{}, apperr.NewInvalidCredential(msgBadLogin)
		}
		return session.Identity{}, apperr.NewInternal(msgLoginFailed, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(in.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return session.Identity{}, apperr.NewInvalidCredential(msgBadLogin)
		}
		return session.Identity{}, apperr.NewInternal(msgLoginFailed, err)
	}

	if cred.Status != model.StatusActive {
		return session.Identity{}, apperr.NewForbidden(msgAccountLocked)
	}
	role, ok := session.ParseRole(cred.Role)
	if !ok {
		hlog.CtxWarnf(ctx, "profile %s has unknown role %q", cred.ID, cred.Role)
		return session.Identity{}, apperr.NewForbidden(msgInvalidRole)
	}

	return session.Identity{ProfileID: cred.ID, Role: role, Version: cred.SessionVersion}, nil
}

// NewProfile 运维入口创建账号的参数
type NewProfile struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
	Role     session.Role
}

// Create 供命令行创建馆员/读者账号
func (s *ProfileService) Create(ctx context.Context, in NewProfile) (model.View, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var fields []apperr.FieldError
	if name == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: msgNameRequired})
	}
	if email == "" {
		fields = append(fields, apperr.FieldError{Field: "email", Message: msgEmailRequired})
	}
	if n := len([]rune(in.Password)); n < 8 || n > 16 {
		fields = append(fields, apperr.FieldError{Field: "password", Message: msgPasswordTooShort})
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" && !validation.ValidPhone(phone) {
		fields = append(fields, apperr.FieldError{Field: "phone", Message: msgInvalidPhone})
	}
	if !in.Role.Valid() {
		fields = append(fields, apperr.FieldError{Field: "role", Message: msgInvalidRole})
	}
	if len(fields) > 0 {
		return model.View{}, apperr.NewValidation(validation.MsgInvalidPayload, fields...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return model.View{}, apperr.NewInternal(msgCreateFailed, err)
	}

	profile := model.Profile{
		Name:         name,
		Email:        email,
		Role:         string(in.Role),
		PasswordHash: string(hash),
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		profile.Phone = &phone
	}
	if address := strings.TrimSpace(in.Address); address != "" {
		profile.Address = &address
	}

	if err := s.repo.Create(ctx, &profile); err != nil {
		if apperr.IsDuplicateError(err) {
			return model.View{}, apperr.NewConflict(msgEmailTaken, apperr.FieldError{Field: "email", Message: msgEmailTaken})
		}
		return model.View{}, apperr.NewInternal(msgCreateFailed, err)
	}
	return profile.View(), nil
}

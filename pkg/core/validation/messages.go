package validation

// 消息目录：键为 "结构体.字段.规则"，前端直接展示
const MsgInvalidPayload = "Dữ liệu không hợp lệ"

var messages = map[string]string{
	"CategoryInput.name.required": "Tên thể loại không được để trống",
	"CategoryInput.name.max":      "Tên thể loại không được vượt quá 50 ký tự",

	"ProfileInput.name.required":    "Tên không được để trống",
	"ProfileInput.name.max":         "Tên không được vượt quá 50 ký tự",
	"ProfileInput.phone.vnphone":    "Số điện thoại không đúng định dạng",
	"ProfileInput.address.required": "Địa chỉ không được để trống",
	"ProfileInput.address.max":      "Địa chỉ không được vượt quá 255 ký tự",

	"PasswordChangeInput.currentPassword.required": "Mật khẩu hiện tại không được để trống",
	"PasswordChangeInput.newPassword.required":     "Mật khẩu mới không được để trống",
	"PasswordChangeInput.newPassword.min":          "Mật khẩu phải từ 8-16 ký tự",
	"PasswordChangeInput.newPassword.max":          "Mật khẩu phải từ 8-16 ký tự",
	"PasswordChangeInput.confirmPassword.required": "Mật khẩu xác nhận không được để trống",
	"PasswordChangeInput.confirmPassword.eqfield":  "Mật khẩu xác nhận không khớp",

	"LoginInput.email.required":    "Email không được để trống",
	"LoginInput.email.max":         "Email không được vượt quá 255 ký tự",
	"LoginInput.password.required": "Mật khẩu không được để trống",
}

func messageFor(namespace, tag string) string {
	if msg, ok := messages[namespace+"."+tag]; ok {
		return msg
	}
	return MsgInvalidPayload
}

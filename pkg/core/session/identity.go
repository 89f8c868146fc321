package session

// Identity 由已验证的令牌得出，显式传入服务层
type Identity struct {
	ProfileID string
	Role      Role
	// Version 签发令牌时的会话版本，修改密码后旧版本失效
	Version int
}

func (i Identity) Anonymous() bool {
	return i.ProfileID == ""
}

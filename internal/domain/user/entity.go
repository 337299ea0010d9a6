package user

import (
	"time"
)

// User 用户实体（聚合根）
// DDD设计说明：
// 1. 用户名是登录凭证，全局唯一
// 2. 密码已加密存储（bcrypt），不应该有GetPassword()等方法暴露明文
// 3. 领域实体不依赖GORM tag（infrastructure层的Repository实现时会处理映射）
type User struct {
	ID          uint
	Username    string
	Password    string // bcrypt哈希值
	DisplayName string
	Active      bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewUser 创建新用户（工厂方法）
// hashedPassword必须是bcrypt加密后的密码，displayName为空时使用用户名
func NewUser(username, hashedPassword, displayName string) *User {
	if displayName == "" {
		displayName = username
	}
	now := time.Now()
	return &User{
		Username:    username,
		Password:    hashedPassword,
		DisplayName: displayName,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkLogin 记录最近登录时间
func (u *User) MarkLogin(at time.Time) {
	u.LastLoginAt = &at
	u.UpdatedAt = at
}

// Deactivate 停用账号，停用后不能登录
func (u *User) Deactivate() {
	u.Active = false
	u.UpdatedAt = time.Now()
}

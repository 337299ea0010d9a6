package user

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/observe"
	"github.com/xiebiao/labinventory/internal/domain/user"
)

// RegisterUseCase 注册实验室账号
// 设计说明：
// 1. 账号只用于标识使用记录的登记人，没有角色和权限区分
// 2. 用户名唯一性、密码强度由领域服务校验
type RegisterUseCase struct {
	userService user.Service
	log         *zap.Logger
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(userService user.Service, log *zap.Logger) *RegisterUseCase {
	return &RegisterUseCase{userService: userService, log: log}
}

// Execute 执行注册
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (resp *UserInfo, err error) {
	ctx, done := observe.Start(ctx, "register")
	defer func() { done(err) }()

	u, err := uc.userService.Register(ctx, req.Username, req.Password, req.DisplayName)
	if err != nil {
		return nil, err
	}

	uc.log.Info("user registered", zap.Uint("user_id", u.ID), zap.String("username", u.Username))
	return newUserInfo(u), nil
}

// =========================================
// 应用层DTO
// =========================================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username    string
	Password    string
	DisplayName string // 为空时使用用户名
}

// UserInfo 用户信息，不含密码
type UserInfo struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

func newUserInfo(u *user.User) *UserInfo {
	return &UserInfo{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}

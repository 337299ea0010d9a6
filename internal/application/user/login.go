package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/observe"
	"github.com/xiebiao/labinventory/internal/domain/user"
	"github.com/xiebiao/labinventory/pkg/jwt"
)

// SessionStore 会话存储（redis.SessionStore实现）
type SessionStore interface {
	SaveSession(ctx context.Context, userID uint, data map[string]interface{}, ttl time.Duration) error
	DeleteSession(ctx context.Context, userID uint) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// LoginUseCase 登录
// 设计说明：
// 1. 验证用户名密码
// 2. 生成JWT Token对
// 3. 保存会话到Redis，有效期与Refresh Token一致
type LoginUseCase struct {
	userService  user.Service
	jwtManager   *jwt.Manager
	sessionStore SessionStore
	log          *zap.Logger
	now          func() time.Time
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(userService user.Service, jwtManager *jwt.Manager, sessionStore SessionStore, log *zap.Logger) *LoginUseCase {
	return &LoginUseCase{
		userService:  userService,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		log:          log,
		now:          time.Now,
	}
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (resp *LoginResponse, err error) {
	ctx, done := observe.Start(ctx, "login")
	defer func() { done(err) }()

	// 1. 验证用户名密码
	u, err := uc.userService.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	// 2. 生成Token对
	pair, err := uc.jwtManager.GenerateToken(u.ID, u.Username, u.DisplayName)
	if err != nil {
		return nil, err
	}

	// 3. 保存会话，失败不影响登录
	session := map[string]interface{}{
		"user_id":      u.ID,
		"username":     u.Username,
		"display_name": u.DisplayName,
		"login_at":     uc.now().Unix(),
		"ip":           req.ClientIP,
	}
	if err := uc.sessionStore.SaveSession(ctx, u.ID, session, uc.jwtManager.RefreshTokenTTL()); err != nil {
		uc.log.Warn("save session failed", zap.Uint("user_id", u.ID), zap.Error(err))
	}

	uc.log.Info("user logged in", zap.Uint("user_id", u.ID), zap.String("ip", req.ClientIP))
	return &LoginResponse{
		User:         *newUserInfo(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// LogoutUseCase 登出
type LogoutUseCase struct {
	jwtManager   *jwt.Manager
	sessionStore SessionStore
	log          *zap.Logger
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(jwtManager *jwt.Manager, sessionStore SessionStore, log *zap.Logger) *LogoutUseCase {
	return &LogoutUseCase{jwtManager: jwtManager, sessionStore: sessionStore, log: log}
}

// Execute 执行登出
// Access Token加入黑名单，过期时间取Access Token有效期
func (uc *LogoutUseCase) Execute(ctx context.Context, userID uint, accessToken string) (err error) {
	ctx, done := observe.Start(ctx, "logout")
	defer func() { done(err) }()

	if err := uc.sessionStore.DeleteSession(ctx, userID); err != nil {
		return err
	}
	if err := uc.sessionStore.AddToBlacklist(ctx, accessToken, uc.jwtManager.AccessTokenTTL()); err != nil {
		return err
	}

	uc.log.Info("user logged out", zap.Uint("user_id", userID))
	return nil
}

// RefreshTokenUseCase 用Refresh Token换新的Access Token
type RefreshTokenUseCase struct {
	jwtManager *jwt.Manager
}

// NewRefreshTokenUseCase 创建用例
func NewRefreshTokenUseCase(jwtManager *jwt.Manager) *RefreshTokenUseCase {
	return &RefreshTokenUseCase{jwtManager: jwtManager}
}

// Execute 执行
func (uc *RefreshTokenUseCase) Execute(ctx context.Context, refreshToken string) (resp *RefreshResponse, err error) {
	_, done := observe.Start(ctx, "refresh_token")
	defer func() { done(err) }()

	token, err := uc.jwtManager.RefreshAccessToken(refreshToken)
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{
		AccessToken: token,
		ExpiresIn:   int64(uc.jwtManager.AccessTokenTTL().Seconds()),
	}, nil
}

// =========================================
// 应用层DTO
// =========================================

// LoginRequest 登录请求
type LoginRequest struct {
	Username string
	Password string
	ClientIP string
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // Access Token过期时间（秒）
}

// RefreshResponse 刷新Token响应
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
	"github.com/xiebiao/labinventory/pkg/jwt"
	"github.com/xiebiao/labinventory/pkg/response"
)

// Context中的用户信息key
const (
	ctxUserID      = "user_id"
	ctxUsername    = "username"
	ctxDisplayName = "display_name"
	ctxToken       = "access_token"
)

// Blacklist Token黑名单（redis.SessionStore实现）
type Blacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// 设计说明：
// 1. 从Header提取Bearer Token
// 2. 检查黑名单（已登出的Token）
// 3. 验证Token，把用户信息注入Context
// 写操作需要登录，使用记录的登记账号取自这里
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  Blacklist
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist Blacklist) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, blacklist: blacklist}
}

// RequireAuth 要求登录
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 提取Token，格式：Authorization: Bearer <token>
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		// 2. 黑名单
		blacklisted, err := m.blacklist.IsInBlacklist(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if blacklisted {
			response.ErrorWithCode(c, apperrors.ErrCodeTokenExpired, "Token已失效，请重新登录")
			c.Abort()
			return
		}

		// 3. 验证Token
		claims, err := m.jwtManager.ParseToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)
		c.Set(ctxDisplayName, claims.DisplayName)
		c.Set(ctxToken, token)
		c.Next()
	}
}

// bearerToken 解析Authorization头
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// =========================================
// Context辅助函数
// =========================================

// GetUserID 当前登录用户ID，未登录返回0
func GetUserID(c *gin.Context) uint {
	if v, ok := c.Get(ctxUserID); ok {
		if uid, ok := v.(uint); ok {
			return uid
		}
	}
	return 0
}

// GetUsername 当前登录用户名
func GetUsername(c *gin.Context) string {
	return c.GetString(ctxUsername)
}

// GetToken 当前请求的Access Token（登出时加入黑名单）
func GetToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

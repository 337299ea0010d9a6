package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

// Issuer 签发方
const Issuer = "labinventory"

// Token类型，Refresh Token不能当Access Token使用
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Manager JWT管理器
// 设计说明：
// 1. 双Token：Access Token（短期，默认2小时）用于API鉴权，Refresh Token（长期，默认7天）用于续期
// 2. 登出通过Redis会话实现，Token本身无状态
type Manager struct {
	secret             []byte
	accessTokenExpire  time.Duration
	refreshTokenExpire time.Duration
	now                func() time.Time
}

// NewManager 创建JWT管理器
func NewManager(secret string, accessTokenExpire, refreshTokenExpire time.Duration) *Manager {
	return &Manager{
		secret:             []byte(secret),
		accessTokenExpire:  accessTokenExpire,
		refreshTokenExpire: refreshTokenExpire,
		now:                time.Now,
	}
}

// AccessTokenTTL Access Token有效期，登出时用作黑名单的过期时间
func (m *Manager) AccessTokenTTL() time.Duration {
	return m.accessTokenExpire
}

// RefreshTokenTTL Refresh Token有效期，也是会话的有效期
func (m *Manager) RefreshTokenTTL() time.Duration {
	return m.refreshTokenExpire
}

// Claims 自定义Claims
// 使用记录的UserID取自Claims，Username/DisplayName用于日志和前端展示
type Claims struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	TokenType   string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair Token对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access Token有效期（秒）
}

// GenerateToken 生成Token对
func (m *Manager) GenerateToken(userID uint, username, displayName string) (*TokenPair, error) {
	access, err := m.sign(Claims{
		UserID:      userID,
		Username:    username,
		DisplayName: displayName,
		TokenType:   TokenTypeAccess,
	}, m.accessTokenExpire)
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Access Token失败")
	}

	// Refresh Token只带UserID和Username
	refresh, err := m.sign(Claims{
		UserID:    userID,
		Username:  username,
		TokenType: TokenTypeRefresh,
	}, m.refreshTokenExpire)
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Refresh Token失败")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTokenExpire.Seconds()),
	}, nil
}

// ParseToken 解析并验证Access Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, TokenTypeAccess)
}

// RefreshAccessToken 用Refresh Token换新的Access Token
func (m *Manager) RefreshAccessToken(refreshToken string) (string, error) {
	claims, err := m.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	token, err := m.sign(Claims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		TokenType: TokenTypeAccess,
	}, m.accessTokenExpire)
	if err != nil {
		return "", apperrors.Wrap(err, "刷新Token失败")
	}
	return token, nil
}

func (m *Manager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    Issuer,
		Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// parse 校验签名算法、签发方、过期时间和Token类型
func (m *Manager) parse(tokenString, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	if !token.Valid || claims.TokenType != tokenType {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

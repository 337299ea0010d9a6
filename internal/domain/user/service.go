package user

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

// DefaultBcryptCost 默认bcrypt cost
const DefaultBcryptCost = 12

// ErrAccountDisabled 账号已停用
var ErrAccountDisabled = apperrors.New(apperrors.ErrCodeForbidden, "账号已停用")

// Service 用户领域服务
// 设计说明：
// 1. Service包含不属于单个实体的业务逻辑（如密码加密、验证）
// 2. Service依赖Repository接口，不依赖具体实现（依赖倒置）
// 3. Service不处理HTTP请求，只处理业务逻辑
type Service interface {
	// Register 用户注册
	Register(ctx context.Context, username, password, displayName string) (*User, error)

	// Login 用户登录，成功后记录登录时间
	Login(ctx context.Context, username, password string) (*User, error)

	// ValidatePassword 验证密码
	ValidatePassword(hashedPassword, plainPassword string) error
}

type service struct {
	repo Repository
	cost int
}

// NewService 创建用户服务
func NewService(repo Repository) Service {
	return NewServiceWithCost(repo, DefaultBcryptCost)
}

// NewServiceWithCost 指定bcrypt cost创建用户服务（测试使用bcrypt.MinCost）
func NewServiceWithCost(repo Repository, cost int) Service {
	return &service{repo: repo, cost: cost}
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

// Register 用户注册
// 业务规则：
// 1. 用户名3-32位，字母、数字、下划线、点、横线
// 2. 密码强度校验（8-20位，包含字母和数字）
// 3. 密码bcrypt加密
// 4. 用户名唯一性由数据库UNIQUE索引保证
func (s *service) Register(ctx context.Context, username, password, displayName string) (*User, error) {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)

	// 1. 用户名格式
	if !usernamePattern.MatchString(username) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "用户名应为3-32位字母、数字、下划线、点或横线")
	}

	// 2. 密码强度
	if err := validatePasswordStrength(password); err != nil {
		return nil, err
	}

	// 3. 显示名称（可选）
	if utf8.RuneCountInString(displayName) > 50 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "显示名称不能超过50个字符")
	}

	// 4. 密码加密
	// bcrypt自动加盐，每次加密结果都不同（即使密码相同）
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperrors.Wrap(err, "密码加密失败")
	}

	// 5. 持久化
	user := NewUser(username, string(hashedPassword), displayName)
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err // Repository已转换为业务错误
	}

	return user, nil
}

// Login 用户登录
// 用户不存在和密码错误返回同一个错误，避免暴露用户名是否已注册
func (s *service) Login(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, err
	}

	if err := s.ValidatePassword(user.Password, password); err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, ErrAccountDisabled
	}

	user.MarkLogin(time.Now())
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ValidatePassword 验证密码
func (s *service) ValidatePassword(hashedPassword, plainPassword string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperrors.ErrInvalidPassword
		}
		return apperrors.Wrap(err, "密码验证失败")
	}
	return nil
}

// validatePasswordStrength 密码强度校验
// 规则：8-20位，必须包含字母和数字
func validatePasswordStrength(password string) error {
	if len(password) < 8 || len(password) > 20 {
		return apperrors.ErrWeakPassword
	}

	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasDigit := regexp.MustCompile(`[0-9]`).MatchString(password)
	if !hasLetter || !hasDigit {
		return apperrors.ErrWeakPassword
	}

	return nil
}

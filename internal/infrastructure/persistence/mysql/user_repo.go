package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/labinventory/internal/domain/user"
	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

// userRepository 用户仓储实现
// 设计说明：
// 1. 实现domain/user/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误（如用户名重复），转换为业务错误
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
// 注意：返回的是domain层的接口类型，不是具体类型（依赖倒置）
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

// Create 创建用户
// 学习要点：
// 1. 用户名唯一性由数据库UNIQUE索引保证（而非应用层SELECT再INSERT）
// 2. 捕获唯一索引冲突，转换为业务错误ErrUsernameDuplicate
func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	model := toUserModel(u)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.ErrUsernameDuplicate
		}
		return apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "创建用户失败")
	}

	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找用户
func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var model UserModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询用户失败")
	}
	return toUserEntity(&model), nil
}

// FindByUsername 根据用户名查找用户
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	var model UserModel
	if err := getDB(ctx, r.db).Where("username = ?", username).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询用户失败")
	}
	return toUserEntity(&model), nil
}

// Update 更新用户信息
func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	model := toUserModel(u)
	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "更新用户失败")
	}
	u.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 删除用户（软删除）
// 学习要点：GORM的软删除会把DELETE变成UPDATE deleted_at，后续查询自动过滤
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&UserModel{}, id)
	if result.Error != nil {
		return apperrors.WithCode(apperrors.ErrCodeDatabaseError, result.Error, "删除用户失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// =========================================
// 辅助函数：模型转换
// =========================================

func toUserModel(u *user.User) *UserModel {
	return &UserModel{
		ID:          u.ID,
		Username:    u.Username,
		Password:    u.Password,
		DisplayName: u.DisplayName,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toUserEntity(model *UserModel) *user.User {
	return &user.User{
		ID:          model.ID,
		Username:    model.Username,
		Password:    model.Password,
		DisplayName: model.DisplayName,
		Active:      model.Active,
		LastLoginAt: model.LastLoginAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

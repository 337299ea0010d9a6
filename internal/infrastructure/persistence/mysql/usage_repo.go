package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/labinventory/internal/domain/storage"
	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

// usageRepository 使用记录仓储实现
type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository 创建使用记录仓储
func NewUsageRepository(db *gorm.DB) storage.UsageRepository {
	return &usageRepository{db: db}
}

// Create 创建使用记录
func (r *usageRepository) Create(ctx context.Context, record *storage.UsageRecord) error {
	model := toUsageModel(record)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "创建使用记录失败")
	}
	record.ID = model.ID
	record.CreatedAt = model.CreatedAt
	record.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找
func (r *usageRepository) FindByID(ctx context.Context, id uint) (*storage.UsageRecord, error) {
	var model UsageRecordModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if isNotFound(err) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询使用记录失败")
	}
	return toUsageEntity(&model), nil
}

// Update 保存记录全部字段
func (r *usageRepository) Update(ctx context.Context, record *storage.UsageRecord) error {
	record.UpdatedAt = time.Now()
	model := toUsageModel(record)
	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		return apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "更新使用记录失败")
	}
	record.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 删除记录
func (r *usageRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&UsageRecordModel{}, id)
	if result.Error != nil {
		return apperrors.WithCode(apperrors.ErrCodeDatabaseError, result.Error, "删除使用记录失败")
	}
	if result.RowsAffected == 0 {
		return storage.ErrRecordNotFound
	}
	return nil
}

// FindByStorageID 查询物品的全部使用记录
func (r *usageRepository) FindByStorageID(ctx context.Context, storageID uint) ([]*storage.UsageRecord, error) {
	var models []UsageRecordModel
	err := getDB(ctx, r.db).Where("storage_id = ?", storageID).Order("id ASC").Find(&models).Error
	if err != nil {
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询使用记录失败")
	}
	return toUsageEntities(models), nil
}

// DeleteByStorageID 删除物品的全部使用记录
func (r *usageRepository) DeleteByStorageID(ctx context.Context, storageID uint) (int64, error) {
	result := getDB(ctx, r.db).Where("storage_id = ?", storageID).Delete(&UsageRecordModel{})
	if result.Error != nil {
		return 0, apperrors.WithCode(apperrors.ErrCodeDatabaseError, result.Error, "删除使用记录失败")
	}
	return result.RowsAffected, nil
}

// ListByStorageID 分页查询物品的使用记录(使用日期倒序)
func (r *usageRepository) ListByStorageID(ctx context.Context, storageID uint, page, pageSize int) ([]*storage.UsageRecord, int64, error) {
	var (
		models []UsageRecordModel
		total  int64
	)

	query := getDB(ctx, r.db).Model(&UsageRecordModel{}).Where("storage_id = ?", storageID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询使用记录总数失败")
	}

	page, pageSize = normalizePage(page, pageSize)
	err := query.Order("usage_date DESC").Order("id DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询使用记录失败")
	}
	return toUsageEntities(models), total, nil
}

// CountSince 统计使用日期不早于since的记录数
func (r *usageRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&UsageRecordModel{}).Where("usage_date >= ?", since).Count(&count).Error
	if err != nil {
		return 0, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "统计使用记录失败")
	}
	return count, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toUsageModel(r *storage.UsageRecord) *UsageRecordModel {
	return &UsageRecordModel{
		ID:                 r.ID,
		StorageID:          r.StorageID,
		UserID:             r.UserID,
		Category:           r.Category,
		ProductName:        r.ProductName,
		QuantityDescriptor: r.QuantityDescriptor,
		Location:           r.Location,
		CASNumber:          r.CASNumber,
		Person:             r.Person,
		UsageDate:          r.UsageDate,
		Amount:             r.Amount,
		Remaining:          r.Remaining,
		Unit:               r.Unit,
		Notes:              r.Notes,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func toUsageEntity(m *UsageRecordModel) *storage.UsageRecord {
	return &storage.UsageRecord{
		ID:                 m.ID,
		StorageID:          m.StorageID,
		UserID:             m.UserID,
		Category:           m.Category,
		ProductName:        m.ProductName,
		QuantityDescriptor: m.QuantityDescriptor,
		Location:           m.Location,
		CASNumber:          m.CASNumber,
		Person:             m.Person,
		UsageDate:          m.UsageDate.UTC(),
		Amount:             m.Amount,
		Remaining:          m.Remaining,
		Unit:               m.Unit,
		Notes:              m.Notes,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toUsageEntities(models []UsageRecordModel) []*storage.UsageRecord {
	records := make([]*storage.UsageRecord, len(models))
	for i := range models {
		records[i] = toUsageEntity(&models[i])
	}
	return records
}

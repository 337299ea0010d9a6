package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/labinventory/internal/domain/storage"
	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

// itemRepository 库存物品仓储实现
// 设计说明:
// 1. 实现domain/storage/repository.go定义的ItemRepository接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 产品名唯一索引冲突转换为storage.ErrProductNameDuplicate
type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository 创建库存物品仓储
func NewItemRepository(db *gorm.DB) storage.ItemRepository {
	return &itemRepository{db: db}
}

// Create 创建物品
func (r *itemRepository) Create(ctx context.Context, item *storage.Item) error {
	model := toItemModel(item)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return storage.ErrProductNameDuplicate
		}
		return apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "创建库存物品失败")
	}

	// 回填自增ID
	item.ID = model.ID
	item.CreatedAt = model.CreatedAt
	item.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找
func (r *itemRepository) FindByID(ctx context.Context, id uint) (*storage.Item, error) {
	var model StorageItemModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if isNotFound(err) {
			return nil, storage.ErrItemNotFound
		}
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询库存物品失败")
	}
	return toItemEntity(&model), nil
}

// FindByProductName 根据产品名查找
func (r *itemRepository) FindByProductName(ctx context.Context, name string) (*storage.Item, error) {
	var model StorageItemModel
	if err := getDB(ctx, r.db).Where("product_name = ?", name).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, storage.ErrItemNotFound
		}
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询库存物品失败")
	}
	return toItemEntity(&model), nil
}

// FindOne 按条件精确匹配，空字段不参与匹配
func (r *itemRepository) FindOne(ctx context.Context, keys storage.MatchKeys) (*storage.Item, error) {
	query := getDB(ctx, r.db).Model(&StorageItemModel{})
	if keys.ProductName != "" {
		query = query.Where("product_name = ?", keys.ProductName)
	}
	if keys.Location != "" {
		query = query.Where("location = ?", keys.Location)
	}
	if keys.Category != "" {
		query = query.Where("category = ?", keys.Category)
	}
	if keys.CASNumber != "" {
		query = query.Where("cas_number = ?", keys.CASNumber)
	}

	var model StorageItemModel
	if err := query.Order("id ASC").First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, storage.ErrItemNotFound
		}
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询库存物品失败")
	}
	return toItemEntity(&model), nil
}

// LockByID 悲观锁查询(SELECT ... FOR UPDATE)
// 教学要点: 必须在TxManager.Transaction中调用,否则锁在语句结束时就释放了
// SQLite方言会忽略FOR UPDATE,它本身只允许一个写事务
func (r *itemRepository) LockByID(ctx context.Context, id uint) (*storage.Item, error) {
	var model StorageItemModel
	err := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrItemNotFound
		}
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "锁定库存物品失败")
	}
	return toItemEntity(&model), nil
}

// Update 保存物品全部字段
func (r *itemRepository) Update(ctx context.Context, item *storage.Item) error {
	model := toItemModel(item)
	if err := getDB(ctx, r.db).Save(model).Error; err != nil {
		if isDuplicateError(err) {
			return storage.ErrProductNameDuplicate
		}
		return apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "更新库存物品失败")
	}
	item.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 物理删除物品
func (r *itemRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&StorageItemModel{}, id)
	if result.Error != nil {
		return apperrors.WithCode(apperrors.ErrCodeDatabaseError, result.Error, "删除库存物品失败")
	}
	if result.RowsAffected == 0 {
		return storage.ErrItemNotFound
	}
	return nil
}

// List 分页查询
func (r *itemRepository) List(ctx context.Context, params storage.ListParams) ([]*storage.Item, int64, error) {
	var (
		models []StorageItemModel
		total  int64
	)

	query := getDB(ctx, r.db).Model(&StorageItemModel{})

	// 关键词搜索(产品名、CAS号、存放地)
	if params.Keyword != "" {
		keyword := "%" + params.Keyword + "%"
		query = query.Where("product_name LIKE ? OR cas_number LIKE ? OR location LIKE ?", keyword, keyword, keyword)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Location != "" {
		query = query.Where("location = ?", params.Location)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询库存物品总数失败")
	}

	switch params.SortBy {
	case "name_asc":
		query = query.Order("product_name ASC")
	case "stock_asc":
		query = query.Order("current_stock ASC").Order("id ASC")
	case "stock_desc":
		query = query.Order("current_stock DESC").Order("id ASC")
	default:
		query = query.Order("created_at DESC").Order("id DESC")
	}

	page, pageSize := normalizePage(params.Page, params.PageSize)
	if err := query.Limit(pageSize).Offset((page - 1) * pageSize).Find(&models).Error; err != nil {
		return nil, 0, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询库存物品列表失败")
	}

	return toItemEntities(models), total, nil
}

// FindAll 查询全部物品
func (r *itemRepository) FindAll(ctx context.Context) ([]*storage.Item, error) {
	var models []StorageItemModel
	if err := getDB(ctx, r.db).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "查询库存物品失败")
	}
	return toItemEntities(models), nil
}

// Stats 库存统计
func (r *itemRepository) Stats(ctx context.Context) (*storage.Stats, error) {
	db := getDB(ctx, r.db)
	stats := &storage.Stats{}

	if err := db.Model(&StorageItemModel{}).Count(&stats.TotalItems).Error; err != nil {
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "统计物品总数失败")
	}

	if err := db.Model(&StorageItemModel{}).Distinct("location").Count(&stats.LocationCount).Error; err != nil {
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "统计存放地失败")
	}

	var rows []struct {
		Category string
		Count    int64
	}
	err := db.Model(&StorageItemModel{}).
		Select("category, COUNT(id) AS count").
		Group("category").
		Order("category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.WithCode(apperrors.ErrCodeDatabaseError, err, "统计类型分布失败")
	}

	stats.CategoryCounts = make([]storage.CategoryCount, len(rows))
	for i, row := range rows {
		stats.CategoryCounts[i] = storage.CategoryCount{Category: row.Category, Count: row.Count}
	}
	return stats, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toItemModel(item *storage.Item) *StorageItemModel {
	return &StorageItemModel{
		ID:                 item.ID,
		Category:           item.Category,
		ProductName:        item.ProductName,
		QuantityDescriptor: item.QuantityDescriptor,
		Location:           item.Location,
		CASNumber:          item.CASNumber,
		CurrentStock:       item.CurrentStock,
		Unit:               item.Unit,
		CreatedAt:          item.CreatedAt,
		UpdatedAt:          item.UpdatedAt,
	}
}

func toItemEntity(model *StorageItemModel) *storage.Item {
	return &storage.Item{
		ID:                 model.ID,
		Category:           model.Category,
		ProductName:        model.ProductName,
		QuantityDescriptor: model.QuantityDescriptor,
		Location:           model.Location,
		CASNumber:          model.CASNumber,
		CurrentStock:       model.CurrentStock,
		Unit:               model.Unit,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

func toItemEntities(models []StorageItemModel) []*storage.Item {
	items := make([]*storage.Item, len(models))
	for i := range models {
		items[i] = toItemEntity(&models[i])
	}
	return items
}

package storage

import (
	"context"
	"time"
)

// ItemRepository 库存物品仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 所有方法都必须参与ctx中携带的事务(见Transactor)
type ItemRepository interface {
	// Create 创建库存物品
	// 产品名重复时返回ErrProductNameDuplicate
	Create(ctx context.Context, item *Item) error

	// FindByID 根据ID查找,不存在返回ErrItemNotFound
	FindByID(ctx context.Context, id uint) (*Item, error)

	// FindByProductName 根据产品名查找,不存在返回ErrItemNotFound
	FindByProductName(ctx context.Context, name string) (*Item, error)

	// FindOne 按条件精确匹配第一条记录(空字段不参与匹配)
	FindOne(ctx context.Context, keys MatchKeys) (*Item, error)

	// LockByID 悲观锁查询(SELECT ... FOR UPDATE)
	// 用于库存的"读-校验-写",必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Item, error)

	// Update 保存物品全部字段
	Update(ctx context.Context, item *Item) error

	// Delete 删除物品(物理删除,产品名可以重新使用)
	Delete(ctx context.Context, id uint) error

	// List 分页查询
	List(ctx context.Context, params ListParams) ([]*Item, int64, error)

	// FindAll 查询全部物品(低库存分析使用)
	FindAll(ctx context.Context) ([]*Item, error)

	// Stats 库存统计(仪表盘使用)
	Stats(ctx context.Context) (*Stats, error)
}

// UsageRepository 使用记录仓储接口
type UsageRepository interface {
	// Create 创建使用记录
	Create(ctx context.Context, record *UsageRecord) error

	// FindByID 根据ID查找,不存在返回ErrRecordNotFound
	FindByID(ctx context.Context, id uint) (*UsageRecord, error)

	// Update 保存记录全部字段
	Update(ctx context.Context, record *UsageRecord) error

	// Delete 删除记录
	Delete(ctx context.Context, id uint) error

	// FindByStorageID 查询物品的全部使用记录(按ID升序)
	FindByStorageID(ctx context.Context, storageID uint) ([]*UsageRecord, error)

	// DeleteByStorageID 删除物品的全部使用记录,返回删除条数
	DeleteByStorageID(ctx context.Context, storageID uint) (int64, error)

	// ListByStorageID 分页查询物品的使用记录(使用日期倒序)
	ListByStorageID(ctx context.Context, storageID uint, page, pageSize int) ([]*UsageRecord, int64, error)

	// CountSince 统计使用日期不早于since的记录数
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// Transactor 事务执行器
// fn内通过ctx调用的所有仓储方法处于同一事务;fn返回error时整体回滚
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 关键词(产品名、CAS号、存放地)
	Category string // 类型筛选
	Location string // 存放地筛选
	SortBy   string // 排序(name_asc, created_at_desc, stock_asc, stock_desc)
}

// Stats 库存统计
type Stats struct {
	TotalItems     int64
	LocationCount  int64
	CategoryCounts []CategoryCount
}

// CategoryCount 按类型统计的物品数
type CategoryCount struct {
	Category string
	Count    int64
}

package storage

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/labinventory/internal/domain/quantity"
	"github.com/xiebiao/labinventory/pkg/precision"
)

// Item 库存物品(聚合根)
// DDD设计说明:
// 1. 一个Item对应一瓶/一盒试剂，ProductName全局唯一
// 2. QuantityDescriptor是原始规格描述("100g")，CurrentStock是当前剩余量
// 3. Unit在创建时由规格解析得到，之后所有使用量都必须使用同一单位
// 4. 不变量: CurrentStock >= 0
type Item struct {
	ID                 uint
	Category           string          // 类型
	ProductName        string          // 产品名
	QuantityDescriptor string          // 数量及数量单位
	Location           string          // 存放地
	CASNumber          string          // CAS号(可为空)
	CurrentStock       decimal.Decimal // 当前库存量
	Unit               string          // 单位
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewItem 创建库存物品(工厂方法)
// 初始库存等于规格解析出的数量
func NewItem(category, productName, descriptor, location, casNumber string, q quantity.Quantity) *Item {
	now := time.Now()
	return &Item{
		Category:           category,
		ProductName:        productName,
		QuantityDescriptor: descriptor,
		Location:           location,
		CASNumber:          casNumber,
		CurrentStock:       q.Amount,
		Unit:               q.Unit,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// CheckUnit 校验单位是否与物品一致
func (i *Item) CheckUnit(unit string) error {
	if unit != i.Unit {
		return unitMismatch(i, unit)
	}
	return nil
}

// Consume 扣减库存(用于登记使用)
// 业务规则: 扣减后库存不能为负数
func (i *Item) Consume(amount decimal.Decimal) error {
	if !precision.IsPositive(amount) {
		return ErrInvalidAmount
	}
	if i.CurrentStock.LessThan(amount) {
		return insufficientStock(i, amount)
	}
	i.CurrentStock = precision.Sub(i.CurrentStock, amount)
	i.UpdatedAt = time.Now()
	return nil
}

// Replenish 增加库存(用于删除使用记录、补货)
func (i *Item) Replenish(amount decimal.Decimal) error {
	if !precision.IsPositive(amount) {
		return ErrInvalidAmount
	}
	i.CurrentStock = precision.Add(i.CurrentStock, amount)
	i.UpdatedAt = time.Now()
	return nil
}

// SetStock 直接设置库存(管理员校正)
func (i *Item) SetStock(stock decimal.Decimal) error {
	if !precision.IsNonNegative(stock) {
		return ErrNegativeStock
	}
	i.CurrentStock = precision.Round(stock)
	i.UpdatedAt = time.Now()
	return nil
}

// Rebaseline 更换规格后重置库存基线
// 规格变了说明换了一瓶新试剂，库存和单位都以新规格为准
func (i *Item) Rebaseline(descriptor string, q quantity.Quantity) {
	i.QuantityDescriptor = descriptor
	i.CurrentStock = q.Amount
	i.Unit = q.Unit
	i.UpdatedAt = time.Now()
}

// Summary 物品摘要(删除结果、删除影响分析使用)
func (i *Item) Summary() ItemSummary {
	return ItemSummary{
		ID:          i.ID,
		ProductName: i.ProductName,
		Category:    i.Category,
		Location:    i.Location,
	}
}

// ItemSummary 物品摘要
type ItemSummary struct {
	ID          uint
	ProductName string
	Category    string
	Location    string
}

// UsageRecord 使用记录
// 设计说明:
// 1. StorageID为nil表示历史遗留记录(未关联库存物品)，一致性服务拒绝修改这类记录
// 2. 类型/产品名/规格/存放地/CAS号是登记时的值拷贝(快照)，之后物品信息变化不影响历史记录
// 3. Remaining是本次使用之后的库存余量
type UsageRecord struct {
	ID                 uint
	StorageID          *uint
	UserID             *uint // 操作账号(可为空)
	Category           string
	ProductName        string
	QuantityDescriptor string
	Location           string
	CASNumber          string
	Person             string          // 使用人
	UsageDate          time.Time       // 使用日期(日期精度)
	Amount             decimal.Decimal // 使用量
	Remaining          decimal.Decimal // 余量
	Unit               string
	Notes              string // 备注
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewUsageRecord 创建使用记录，并从物品拷贝快照字段
// 注意: 必须在item.Consume之后调用，Remaining取扣减后的库存
func NewUsageRecord(item *Item, person string, date time.Time, amount decimal.Decimal, unit, notes string, userID *uint) *UsageRecord {
	storageID := item.ID
	now := time.Now()
	return &UsageRecord{
		StorageID:          &storageID,
		UserID:             userID,
		Category:           item.Category,
		ProductName:        item.ProductName,
		QuantityDescriptor: item.QuantityDescriptor,
		Location:           item.Location,
		CASNumber:          item.CASNumber,
		Person:             person,
		UsageDate:          date,
		Amount:             amount,
		Remaining:          item.CurrentStock,
		Unit:               unit,
		Notes:              notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// IsLinked 是否关联了库存物品
func (r *UsageRecord) IsLinked() bool {
	return r.StorageID != nil && *r.StorageID != 0
}

// =========================================
// 输入参数
// =========================================

// CreateItemInput 创建库存物品参数
type CreateItemInput struct {
	Category           string
	ProductName        string
	QuantityDescriptor string
	Location           string
	CASNumber          string
}

// normalize 去除首尾空白
func (in CreateItemInput) normalize() CreateItemInput {
	return CreateItemInput{
		Category:           strings.TrimSpace(in.Category),
		ProductName:        strings.TrimSpace(in.ProductName),
		QuantityDescriptor: strings.TrimSpace(in.QuantityDescriptor),
		Location:           strings.TrimSpace(in.Location),
		CASNumber:          strings.TrimSpace(in.CASNumber),
	}
}

// ItemPatch 部分更新参数，nil表示不修改
type ItemPatch struct {
	Category           *string
	ProductName        *string
	QuantityDescriptor *string
	Location           *string
	CASNumber          *string
	CurrentStock       *decimal.Decimal
	Unit               *string
}

// IsEmpty 是否没有任何需要更新的字段
func (p ItemPatch) IsEmpty() bool {
	return p.Category == nil && p.ProductName == nil && p.QuantityDescriptor == nil &&
		p.Location == nil && p.CASNumber == nil && p.CurrentStock == nil && p.Unit == nil
}

// UsageInput 登记使用参数
// Date是原始日期字符串，由服务统一解析
type UsageInput struct {
	Person string
	Date   string
	Amount decimal.Decimal
	Unit   string
	Notes  string
	UserID *uint
}

// UsagePatch 使用记录部分更新参数，nil表示不修改
type UsagePatch struct {
	Person *string
	Date   *string
	Amount *decimal.Decimal
	Unit   *string
	Notes  *string
}

// IsEmpty 是否没有任何需要更新的字段
func (p UsagePatch) IsEmpty() bool {
	return p.Person == nil && p.Date == nil && p.Amount == nil && p.Unit == nil && p.Notes == nil
}

// StockUpdate 批量校正库存的单项
// Stock保留原始输入，由服务严格解析并逐项报告错误
type StockUpdate struct {
	ID    uint
	Stock string
}

// MatchKeys 查找已有物品的匹配条件
type MatchKeys struct {
	ProductName string
	Location    string
	Category    string
	CASNumber   string
}

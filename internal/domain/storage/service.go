package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/labinventory/internal/domain/quantity"
	"github.com/xiebiao/labinventory/pkg/dateparse"
	apperrors "github.com/xiebiao/labinventory/pkg/errors"
	"github.com/xiebiao/labinventory/pkg/precision"
)

// Service 库存一致性领域服务
// 设计说明:
// 1. 所有会改变库存的操作都在一个事务内完成"读-校验-写"，失败时库存和记录都不变
// 2. 物品行使用悲观锁(LockByID)，并发登记使用不会互相覆盖
// 3. Service只依赖仓储接口和Transactor，不关心底层是MySQL还是SQLite
type Service interface {
	// CreateItem 创建库存物品
	// 业务规则:
	// - 类型、产品名、规格、存放地必填
	// - 规格必须能解析且数量>0，初始库存=规格数量，单位=规格单位
	// - 产品名不能重复
	CreateItem(ctx context.Context, in CreateItemInput) (*Item, error)

	// UpdateItem 部分更新库存物品
	// 业务规则:
	// - 修改规格且未同时指定库存时，库存和单位按新规格重置
	// - 显式指定的库存不能为负数
	UpdateItem(ctx context.Context, id uint, patch ItemPatch) (*Item, error)

	// GetItem 查询单个物品
	GetItem(ctx context.Context, id uint) (*Item, error)

	// ListItems 分页查询物品
	ListItems(ctx context.Context, params ListParams) ([]*Item, int64, error)

	// RecordUsage 登记一次使用，扣减库存并生成使用记录
	RecordUsage(ctx context.Context, storageID uint, in UsageInput) (*UsageRecord, *Item, error)

	// UpdateUsageRecord 修改使用记录，按新旧使用量的差值调整库存
	UpdateUsageRecord(ctx context.Context, recordID uint, patch UsagePatch) (*UsageRecord, *Item, error)

	// DeleteUsageRecord 删除使用记录并归还库存
	DeleteUsageRecord(ctx context.Context, recordID uint) (*Item, error)

	// DeleteItem 删除物品
	// 存在使用记录且cascade=false时拒绝删除，返回的结果中带有阻塞记录的摘要
	DeleteItem(ctx context.Context, id uint, cascade bool) (*DeletionResult, error)

	// DeletionInfo 删除前的影响分析(只读)
	DeletionInfo(ctx context.Context, id uint) (*DeletionInfo, error)

	// FindExisting 按优先级查找已有物品
	// CAS号+存放地 > 产品名+存放地 > 产品名，类型非空时参与前两级匹配
	FindExisting(ctx context.Context, keys MatchKeys) (*Item, error)

	// Restock 补货，单位必须一致
	Restock(ctx context.Context, id uint, amount decimal.Decimal, unit string) (*Item, error)

	// Intake 入库: 已有物品则补货，否则新建
	Intake(ctx context.Context, in CreateItemInput) (*IntakeResult, error)

	// BulkUpdateStock 批量校正库存
	// 单项失败不影响其他项，错误逐项返回
	BulkUpdateStock(ctx context.Context, updates []StockUpdate) (*BulkUpdateResult, error)

	// UsageHistory 分页查询物品的使用记录
	UsageHistory(ctx context.Context, storageID uint, page, pageSize int) ([]*UsageRecord, int64, error)
}

// IntakeResult 入库结果
type IntakeResult struct {
	Item    *Item
	Created bool // true表示新建，false表示合并到已有物品
}

// BulkUpdateResult 批量校正结果
type BulkUpdateResult struct {
	Success      bool
	UpdatedCount int
	Errors       []BulkUpdateError
}

// BulkUpdateError 批量校正的单项错误
type BulkUpdateError struct {
	Index   int
	ID      uint
	Message string
}

type service struct {
	items  ItemRepository
	usages UsageRepository
	tx     Transactor
}

// NewService 创建库存一致性服务
func NewService(items ItemRepository, usages UsageRepository, tx Transactor) Service {
	return &service{items: items, usages: usages, tx: tx}
}

// CreateItem 创建库存物品
func (s *service) CreateItem(ctx context.Context, in CreateItemInput) (*Item, error) {
	var item *Item
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.createItem(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// createItem 在当前事务中创建物品
func (s *service) createItem(ctx context.Context, in CreateItemInput) (*Item, error) {
	// 1. 必填校验
	in = in.normalize()
	if err := requireFields(in); err != nil {
		return nil, err
	}

	// 2. 解析规格
	q, err := quantity.Parse(in.QuantityDescriptor)
	if err != nil {
		return nil, err
	}
	if !precision.IsPositive(q.Amount) {
		return nil, ErrInvalidQuantity
	}

	// 3. 产品名唯一
	if err := s.ensureNameAvailable(ctx, in.ProductName, 0); err != nil {
		return nil, err
	}

	// 4. 持久化
	item := NewItem(in.Category, in.ProductName, in.QuantityDescriptor, in.Location, in.CASNumber, q)
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem 部分更新库存物品
// 字段按 类型→产品名→规格→存放地→CAS号→库存→单位 的顺序应用，
// 后面的显式库存/单位会覆盖规格重置的结果
func (s *service) UpdateItem(ctx context.Context, id uint, patch ItemPatch) (*Item, error) {
	if patch.IsEmpty() {
		return nil, ErrNoValidFields
	}

	var item *Item
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		if item, err = s.items.LockByID(ctx, id); err != nil {
			return err
		}

		if patch.Category != nil {
			v, err := nonBlank(*patch.Category, "类型")
			if err != nil {
				return err
			}
			item.Category = v
		}

		if patch.ProductName != nil {
			v, err := nonBlank(*patch.ProductName, "产品名")
			if err != nil {
				return err
			}
			if v != item.ProductName {
				if err := s.ensureNameAvailable(ctx, v, item.ID); err != nil {
					return err
				}
			}
			item.ProductName = v
		}

		if patch.QuantityDescriptor != nil {
			descriptor := strings.TrimSpace(*patch.QuantityDescriptor)
			q, err := quantity.Parse(descriptor)
			if err != nil {
				return err
			}
			if !precision.IsPositive(q.Amount) {
				return ErrInvalidQuantity
			}
			if patch.CurrentStock == nil {
				item.Rebaseline(descriptor, q)
			} else {
				item.QuantityDescriptor = descriptor
			}
		}

		if patch.Location != nil {
			v, err := nonBlank(*patch.Location, "存放地")
			if err != nil {
				return err
			}
			item.Location = v
		}

		if patch.CASNumber != nil {
			item.CASNumber = strings.TrimSpace(*patch.CASNumber)
		}

		if patch.CurrentStock != nil {
			if err := item.SetStock(*patch.CurrentStock); err != nil {
				return err
			}
		}

		if patch.Unit != nil {
			v, err := nonBlank(*patch.Unit, "单位")
			if err != nil {
				return err
			}
			item.Unit = v
		}

		return s.items.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem 查询单个物品
func (s *service) GetItem(ctx context.Context, id uint) (*Item, error) {
	return s.items.FindByID(ctx, id)
}

// ListItems 分页查询物品
func (s *service) ListItems(ctx context.Context, params ListParams) ([]*Item, int64, error) {
	return s.items.List(ctx, params)
}

// RecordUsage 登记使用
// 流程:
// 1. 校验输入(使用人、日期、单位、使用量>0)
// 2. 事务内锁定物品行
// 3. 单位必须与物品一致，库存必须足够
// 4. 扣减库存，生成带快照的使用记录
func (s *service) RecordUsage(ctx context.Context, storageID uint, in UsageInput) (*UsageRecord, *Item, error) {
	person := strings.TrimSpace(in.Person)
	if person == "" {
		return nil, nil, requiredField("使用人")
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		return nil, nil, requiredField("单位")
	}
	if !precision.IsPositive(in.Amount) {
		return nil, nil, ErrInvalidAmount
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, nil, err
	}
	amount := precision.Round(in.Amount)

	var (
		record *UsageRecord
		item   *Item
	)
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		if item, err = s.items.LockByID(ctx, storageID); err != nil {
			return err
		}
		if err := item.CheckUnit(unit); err != nil {
			return err
		}
		if err := item.Consume(amount); err != nil {
			return err
		}
		if err := s.items.Update(ctx, item); err != nil {
			return err
		}

		record = NewUsageRecord(item, person, date, amount, item.Unit, strings.TrimSpace(in.Notes), in.UserID)
		return s.usages.Create(ctx, record)
	})
	if err != nil {
		return nil, nil, err
	}
	return record, item, nil
}

// UpdateUsageRecord 修改使用记录
// 库存调整量 = 新使用量 - 旧使用量:
// - 差值>0 需要额外扣减，库存不足时拒绝
// - 差值<0 归还库存
// 余量总是取调整后的库存
func (s *service) UpdateUsageRecord(ctx context.Context, recordID uint, patch UsagePatch) (*UsageRecord, *Item, error) {
	if patch.IsEmpty() {
		return nil, nil, ErrNoValidFields
	}

	// 1. 输入校验(不依赖数据库的部分先做)
	var person, unit string
	if patch.Person != nil {
		v, err := nonBlank(*patch.Person, "使用人")
		if err != nil {
			return nil, nil, err
		}
		person = v
	}
	if patch.Unit != nil {
		v, err := nonBlank(*patch.Unit, "单位")
		if err != nil {
			return nil, nil, err
		}
		unit = v
	}
	if patch.Amount != nil && !precision.IsPositive(*patch.Amount) {
		return nil, nil, ErrInvalidAmount
	}
	var date time.Time
	if patch.Date != nil {
		d, err := parseDate(*patch.Date)
		if err != nil {
			return nil, nil, err
		}
		date = d
	}

	var (
		record *UsageRecord
		item   *Item
	)
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		// 2. 查询记录和所属物品
		if record, err = s.usages.FindByID(ctx, recordID); err != nil {
			return err
		}
		if !record.IsLinked() {
			return ErrUnlinkedRecord
		}
		if item, err = s.items.LockByID(ctx, *record.StorageID); err != nil {
			return err
		}

		// 3. 单位一致性
		if patch.Unit != nil {
			if err := item.CheckUnit(unit); err != nil {
				return err
			}
		}

		// 4. 按差值调整库存
		if patch.Amount != nil {
			newAmount := precision.Round(*patch.Amount)
			delta := precision.Sub(newAmount, record.Amount)
			switch {
			case delta.IsPositive():
				if err := item.Consume(delta); err != nil {
					return err
				}
			case delta.IsNegative():
				if err := item.Replenish(delta.Neg()); err != nil {
					return err
				}
			}
			record.Amount = newAmount
		}

		// 5. 其他字段
		if patch.Person != nil {
			record.Person = person
		}
		if patch.Date != nil {
			record.UsageDate = date
		}
		if patch.Unit != nil {
			record.Unit = unit
		}
		if patch.Notes != nil {
			record.Notes = strings.TrimSpace(*patch.Notes)
		}
		record.Remaining = item.CurrentStock

		if err := s.items.Update(ctx, item); err != nil {
			return err
		}
		return s.usages.Update(ctx, record)
	})
	if err != nil {
		return nil, nil, err
	}
	return record, item, nil
}

// DeleteUsageRecord 删除使用记录并归还库存
func (s *service) DeleteUsageRecord(ctx context.Context, recordID uint) (*Item, error) {
	var item *Item
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		record, err := s.usages.FindByID(ctx, recordID)
		if err != nil {
			return err
		}
		if !record.IsLinked() {
			return ErrUnlinkedRecord
		}
		if item, err = s.items.LockByID(ctx, *record.StorageID); err != nil {
			return err
		}

		// Replenish拒绝<=0的使用量(脏数据)
		if err := item.Replenish(record.Amount); err != nil {
			return err
		}
		if err := s.items.Update(ctx, item); err != nil {
			return err
		}
		return s.usages.Delete(ctx, record.ID)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem 删除物品
func (s *service) DeleteItem(ctx context.Context, id uint, cascade bool) (*DeletionResult, error) {
	var result *DeletionResult
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		item, err := s.items.LockByID(ctx, id)
		if err != nil {
			return err
		}
		records, err := s.usages.FindByStorageID(ctx, id)
		if err != nil {
			return err
		}

		// 1. 存在使用记录且未要求级联: 拒绝
		if len(records) > 0 && !cascade {
			summary := summarize(records, blockingSampleSize)
			blocked := hasDependencies(len(records))
			result = &DeletionResult{
				Item:        item.Summary(),
				RecordCount: len(records),
				Blocking:    &summary,
				Message:     blocked.Message,
			}
			return blocked
		}

		// 2. 级联删除记录
		ids := make([]uint, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		if len(records) > 0 {
			if _, err := s.usages.DeleteByStorageID(ctx, id); err != nil {
				return err
			}
		}

		// 3. 删除物品
		if err := s.items.Delete(ctx, id); err != nil {
			return err
		}

		result = &DeletionResult{
			Item:             item.Summary(),
			Deleted:          true,
			Cascade:          cascade && len(records) > 0,
			RecordCount:      len(records),
			DeletedRecordIDs: ids,
			Message:          deletedMessage(item, len(records)),
		}
		return nil
	})
	if err != nil {
		// 被阻塞时同时返回摘要，调用方可以展示给用户
		if apperrors.IsCode(err, apperrors.ErrCodeHasDependencies) {
			return result, err
		}
		return nil, err
	}
	return result, nil
}

// DeletionInfo 删除影响分析
func (s *service) DeletionInfo(ctx context.Context, id uint) (*DeletionInfo, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	records, err := s.usages.FindByStorageID(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildDeletionInfo(item, records), nil
}

// FindExisting 按优先级查找已有物品，找不到返回ErrItemNotFound
func (s *service) FindExisting(ctx context.Context, keys MatchKeys) (*Item, error) {
	keys = MatchKeys{
		ProductName: strings.TrimSpace(keys.ProductName),
		Location:    strings.TrimSpace(keys.Location),
		Category:    strings.TrimSpace(keys.Category),
		CASNumber:   strings.TrimSpace(keys.CASNumber),
	}

	var candidates []MatchKeys
	if keys.CASNumber != "" && keys.Location != "" {
		candidates = append(candidates, MatchKeys{CASNumber: keys.CASNumber, Location: keys.Location, Category: keys.Category})
	}
	if keys.ProductName != "" && keys.Location != "" {
		candidates = append(candidates, MatchKeys{ProductName: keys.ProductName, Location: keys.Location, Category: keys.Category})
	}
	if keys.ProductName != "" {
		candidates = append(candidates, MatchKeys{ProductName: keys.ProductName})
	}

	for _, c := range candidates {
		item, err := s.items.FindOne(ctx, c)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, ErrItemNotFound) {
			return nil, err
		}
	}
	return nil, ErrItemNotFound
}

// Restock 补货
func (s *service) Restock(ctx context.Context, id uint, amount decimal.Decimal, unit string) (*Item, error) {
	var item *Item
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		if item, err = s.items.LockByID(ctx, id); err != nil {
			return err
		}
		return s.restock(ctx, item, amount, unit)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// restock 在当前事务中给已锁定的物品补货
func (s *service) restock(ctx context.Context, item *Item, amount decimal.Decimal, unit string) error {
	if err := item.CheckUnit(strings.TrimSpace(unit)); err != nil {
		return err
	}
	if err := item.Replenish(precision.Round(amount)); err != nil {
		return err
	}
	return s.items.Update(ctx, item)
}

// Intake 入库
// 匹配到已有物品时按规格数量补货，否则新建物品
func (s *service) Intake(ctx context.Context, in CreateItemInput) (*IntakeResult, error) {
	in = in.normalize()
	if err := requireFields(in); err != nil {
		return nil, err
	}
	q, err := quantity.Parse(in.QuantityDescriptor)
	if err != nil {
		return nil, err
	}
	if !precision.IsPositive(q.Amount) {
		return nil, ErrInvalidQuantity
	}

	var result *IntakeResult
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		existing, err := s.FindExisting(ctx, MatchKeys{
			ProductName: in.ProductName,
			Location:    in.Location,
			Category:    in.Category,
			CASNumber:   in.CASNumber,
		})
		switch {
		case err == nil:
			item, err := s.items.LockByID(ctx, existing.ID)
			if err != nil {
				return err
			}
			if err := s.restock(ctx, item, q.Amount, q.Unit); err != nil {
				return err
			}
			result = &IntakeResult{Item: item}
			return nil
		case errors.Is(err, ErrItemNotFound):
			item, err := s.createItem(ctx, in)
			if err != nil {
				return err
			}
			result = &IntakeResult{Item: item, Created: true}
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BulkUpdateStock 批量校正库存
func (s *service) BulkUpdateStock(ctx context.Context, updates []StockUpdate) (*BulkUpdateResult, error) {
	result := &BulkUpdateResult{Errors: []BulkUpdateError{}}

	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		for i, u := range updates {
			fail := func(msg string) {
				result.Errors = append(result.Errors, BulkUpdateError{Index: i, ID: u.ID, Message: msg})
			}

			if u.ID == 0 {
				fail("缺少物品ID")
				continue
			}
			stock, err := precision.ParseStrict(u.Stock)
			if err != nil {
				fail("库存量格式错误: " + u.Stock)
				continue
			}

			item, err := s.items.LockByID(ctx, u.ID)
			if errors.Is(err, ErrItemNotFound) {
				fail(ErrItemNotFound.Message)
				continue
			}
			if err != nil {
				return err
			}
			if err := item.SetStock(stock); err != nil {
				fail(apperrors.GetAppError(err).Message)
				continue
			}
			if err := s.items.Update(ctx, item); err != nil {
				return err
			}
			result.UpdatedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Success = len(result.Errors) == 0
	return result, nil
}

// UsageHistory 分页查询使用记录
func (s *service) UsageHistory(ctx context.Context, storageID uint, page, pageSize int) ([]*UsageRecord, int64, error) {
	if _, err := s.items.FindByID(ctx, storageID); err != nil {
		return nil, 0, err
	}
	return s.usages.ListByStorageID(ctx, storageID, page, pageSize)
}

// =========================================
// 辅助函数
// =========================================

// ensureNameAvailable 产品名唯一性校验，selfID为当前物品ID(创建时为0)
func (s *service) ensureNameAvailable(ctx context.Context, name string, selfID uint) error {
	existing, err := s.items.FindByProductName(ctx, name)
	if errors.Is(err, ErrItemNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return ErrProductNameDuplicate
	}
	return nil
}

func requireFields(in CreateItemInput) error {
	switch {
	case in.Category == "":
		return requiredField("类型")
	case in.ProductName == "":
		return requiredField("产品名")
	case in.QuantityDescriptor == "":
		return requiredField("数量及数量单位")
	case in.Location == "":
		return requiredField("存放地")
	}
	return nil
}

func nonBlank(v, label string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", requiredField(label)
	}
	return v, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, requiredField("使用日期")
	}
	d, ok := dateparse.Parse(raw)
	if !ok {
		return time.Time{}, invalidDate(raw)
	}
	return d, nil
}

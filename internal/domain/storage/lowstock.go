package storage

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/labinventory/internal/domain/quantity"
	"github.com/xiebiao/labinventory/pkg/precision"
)

// DefaultLowStockThreshold 默认低库存阈值(百分比)
var DefaultLowStockThreshold = decimal.NewFromInt(10)

// LowStockItem 低库存物品
type LowStockItem struct {
	Item           *Item
	OriginalAmount decimal.Decimal // 规格数量
	Percent        decimal.Decimal // 剩余百分比
}

// LowStockAnalyzer 低库存分析
// 剩余百分比 = 当前库存 / 规格数量 * 100
// 以下物品不参与判断:
// - 规格无法解析
// - 规格单位与物品单位不一致(比例没有意义)
// - 规格数量<=0
type LowStockAnalyzer struct {
	items ItemRepository
}

// NewLowStockAnalyzer 创建低库存分析器
func NewLowStockAnalyzer(items ItemRepository) *LowStockAnalyzer {
	return &LowStockAnalyzer{items: items}
}

// LowStockItems 返回剩余百分比<=threshold的物品，按百分比升序
func (a *LowStockAnalyzer) LowStockItems(ctx context.Context, threshold decimal.Decimal) ([]LowStockItem, error) {
	if threshold.IsNegative() {
		return nil, ErrInvalidThreshold
	}

	items, err := a.items.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]LowStockItem, 0)
	for _, item := range items {
		if low, ok := Evaluate(item, threshold); ok {
			result = append(result, low)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Percent.LessThan(result[j].Percent)
	})
	return result, nil
}

// Evaluate 判断单个物品是否低库存
func Evaluate(item *Item, threshold decimal.Decimal) (LowStockItem, bool) {
	q, err := quantity.Parse(item.QuantityDescriptor)
	if err != nil {
		return LowStockItem{}, false
	}
	if !q.SameUnit(item.Unit) || !precision.IsPositive(q.Amount) {
		return LowStockItem{}, false
	}

	percent := precision.Percent(item.CurrentStock, q.Amount)
	if percent.GreaterThan(threshold) {
		return LowStockItem{}, false
	}
	return LowStockItem{Item: item, OriginalAmount: q.Amount, Percent: percent}, true
}

package dto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/labinventory/internal/domain/storage"
	apperrors "github.com/xiebiao/labinventory/pkg/errors"
	"github.com/xiebiao/labinventory/pkg/precision"
)

// StorageItemRequest 创建/更新库存物品的请求体
// 字段名经过ResolveAliases归一，nil表示请求中没有该字段
type StorageItemRequest struct {
	Category           *string `mapstructure:"category"`
	ProductName        *string `mapstructure:"product_name"`
	QuantityDescriptor *string `mapstructure:"quantity_descriptor"`
	Location           *string `mapstructure:"location"`
	CASNumber          *string `mapstructure:"cas_number"`
	CurrentStock       *string `mapstructure:"current_stock"`
	Unit               *string `mapstructure:"unit"`
}

// CreateInput 创建参数，缺失字段按空字符串处理(必填校验在领域服务)
func (r StorageItemRequest) CreateInput() storage.CreateItemInput {
	return storage.CreateItemInput{
		Category:           deref(r.Category),
		ProductName:        deref(r.ProductName),
		QuantityDescriptor: deref(r.QuantityDescriptor),
		Location:           deref(r.Location),
		CASNumber:          deref(r.CASNumber),
	}
}

// Patch 部分更新参数
func (r StorageItemRequest) Patch() (storage.ItemPatch, error) {
	patch := storage.ItemPatch{
		Category:           r.Category,
		ProductName:        r.ProductName,
		QuantityDescriptor: r.QuantityDescriptor,
		Location:           r.Location,
		CASNumber:          r.CASNumber,
		Unit:               r.Unit,
	}
	if r.CurrentStock != nil {
		stock, err := parseDecimal(*r.CurrentStock, "当前库存量")
		if err != nil {
			return storage.ItemPatch{}, err
		}
		patch.CurrentStock = &stock
	}
	return patch, nil
}

// UsageRequest 登记/修改使用记录的请求体
type UsageRequest struct {
	Person    *string `mapstructure:"person"`
	UsageDate *string `mapstructure:"usage_date"`
	Amount    *string `mapstructure:"amount"`
	Unit      *string `mapstructure:"unit"`
	Notes     *string `mapstructure:"notes"`
}

// Input 登记使用参数
func (r UsageRequest) Input() (storage.UsageInput, error) {
	if r.Amount == nil || strings.TrimSpace(*r.Amount) == "" {
		return storage.UsageInput{}, apperrors.New(apperrors.ErrCodeInvalidParams, "使用量不能为空")
	}
	amount, err := parseDecimal(*r.Amount, "使用量")
	if err != nil {
		return storage.UsageInput{}, err
	}
	return storage.UsageInput{
		Person: deref(r.Person),
		Date:   deref(r.UsageDate),
		Amount: amount,
		Unit:   deref(r.Unit),
		Notes:  deref(r.Notes),
	}, nil
}

// Patch 使用记录部分更新参数
func (r UsageRequest) Patch() (storage.UsagePatch, error) {
	patch := storage.UsagePatch{
		Person: r.Person,
		Date:   r.UsageDate,
		Unit:   r.Unit,
		Notes:  r.Notes,
	}
	if r.Amount != nil {
		amount, err := parseDecimal(*r.Amount, "使用量")
		if err != nil {
			return storage.UsagePatch{}, err
		}
		patch.Amount = &amount
	}
	return patch, nil
}

// RestockRequest 补货请求，amount可以是数字或字符串
type RestockRequest struct {
	Amount interface{} `json:"amount" binding:"required" swaggertype:"string" example:"500"`
	Unit   string      `json:"unit" binding:"required" example:"mL"`
}

// Decimal 补货数量
func (r RestockRequest) Decimal() (decimal.Decimal, error) {
	return parseDecimal(stockText(r.Amount), "补货数量")
}

// BulkUpdateRequest 批量校正库存
// current_stock保留原始JSON值(数字或字符串)，由领域服务逐项严格解析
type BulkUpdateRequest struct {
	Updates []BulkUpdateItem `json:"updates" binding:"required"`
}

// BulkUpdateItem 批量校正的单项
type BulkUpdateItem struct {
	ID           uint        `json:"id"`
	CurrentStock interface{} `json:"current_stock" swaggertype:"string"`
}

// StockUpdates 转换为领域参数
func (r BulkUpdateRequest) StockUpdates() []storage.StockUpdate {
	updates := make([]storage.StockUpdate, 0, len(r.Updates))
	for _, u := range r.Updates {
		updates = append(updates, storage.StockUpdate{ID: u.ID, Stock: stockText(u.CurrentStock)})
	}
	return updates
}

// stockText JSON值 → 原始文本
func stockText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func parseDecimal(s, label string) (decimal.Decimal, error) {
	d, err := precision.ParseStrict(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, apperrors.Newf(apperrors.ErrCodeInvalidParams, "%s格式错误: %s", label, s)
	}
	return d, nil
}

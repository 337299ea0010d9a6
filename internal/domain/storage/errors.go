package storage

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
	"github.com/xiebiao/labinventory/pkg/precision"
)

// 库存领域错误定义
var (
	// ErrItemNotFound 库存物品不存在
	ErrItemNotFound = apperrors.New(apperrors.ErrCodeStorageNotFound, "库存物品不存在")

	// ErrRecordNotFound 使用记录不存在
	ErrRecordNotFound = apperrors.New(apperrors.ErrCodeRecordNotFound, "使用记录不存在")

	// ErrProductNameDuplicate 产品名已存在
	ErrProductNameDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "产品名已存在")

	// ErrNoValidFields 没有可更新的字段
	ErrNoValidFields = apperrors.New(apperrors.ErrCodeInvalidParams, "没有可更新的字段")

	// ErrInvalidAmount 使用量必须大于0
	ErrInvalidAmount = apperrors.New(apperrors.ErrCodeInvalidParams, "使用量必须大于0")

	// ErrInvalidQuantity 规格数量必须大于0
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "规格数量必须大于0")

	// ErrNegativeStock 库存不能为负数
	ErrNegativeStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存量不能为负数")

	// ErrUnlinkedRecord 使用记录未关联库存物品(历史遗留数据)
	ErrUnlinkedRecord = apperrors.New(apperrors.ErrCodeInvalidParams, "使用记录未关联库存物品，无法调整库存")

	// ErrInvalidThreshold 低库存阈值非法
	ErrInvalidThreshold = apperrors.New(apperrors.ErrCodeInvalidParams, "低库存阈值不能为负数")
)

// requiredField 必填字段缺失
func requiredField(label string) error {
	return apperrors.Newf(apperrors.ErrCodeInvalidParams, "%s不能为空", label)
}

// unitMismatch 单位不一致
func unitMismatch(item *Item, unit string) error {
	return apperrors.Newf(apperrors.ErrCodeUnitMismatch,
		"单位不一致: 物品单位为%s, 提交的单位为%s", item.Unit, unit)
}

// insufficientStock 库存不足
func insufficientStock(item *Item, need decimal.Decimal) error {
	return apperrors.Newf(apperrors.ErrCodeInsufficientStock,
		"库存不足: 当前库存%s%s, 需要%s%s",
		precision.Format(item.CurrentStock, precision.DefaultPlaces), item.Unit,
		precision.Format(need, precision.DefaultPlaces), item.Unit)
}

// invalidDate 日期无法解析
func invalidDate(raw string) error {
	return apperrors.Newf(apperrors.ErrCodeDateParseError, "无法识别的日期格式: %s", raw)
}

// hasDependencies 存在关联的使用记录
func hasDependencies(count int) *apperrors.AppError {
	return apperrors.Newf(apperrors.ErrCodeHasDependencies,
		"该物品存在%d条使用记录, 请先删除使用记录或使用级联删除", count)
}

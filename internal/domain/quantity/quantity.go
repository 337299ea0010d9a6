package quantity

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
	"github.com/xiebiao/labinventory/pkg/precision"
)

// Quantity 数量值对象：数值 + 单位
// 设计说明:
// 1. 单位原样保留，不做换算（"ml"与"mL"视为不同单位）
// 2. 数值使用decimal，避免浮点漂移
type Quantity struct {
	Amount decimal.Decimal
	Unit   string
}

// 数值部分允许数字和小数点，单位部分允许英文字母、μ/µ和汉字
// 只锚定开头：录入时常见"100g(开封)"，后缀会被忽略
var descriptorPattern = regexp.MustCompile(`^([0-9.]+)\s*([a-zA-Zμµ\p{Han}]+)`)

// ErrEmpty 数量描述为空
var ErrEmpty = apperrors.New(apperrors.ErrCodeParseError, "数量不能为空")

// Parse 解析数量描述，如"100g"、"6.5μl"、"500 ml"、"2瓶"
func Parse(descriptor string) (Quantity, error) {
	s := strings.TrimSpace(descriptor)
	if s == "" {
		return Quantity{}, ErrEmpty
	}

	m := descriptorPattern.FindStringSubmatch(s)
	if m == nil {
		return Quantity{}, apperrors.Newf(apperrors.ErrCodeParseError, "无法解析数量格式: %s", descriptor)
	}

	// "1.2.3"、"." 这类数值部分同样是格式错误
	amount, err := decimal.NewFromString(m[1])
	if err != nil {
		return Quantity{}, apperrors.Newf(apperrors.ErrCodeParseError, "无法解析数量数值: %s", descriptor)
	}

	return Quantity{
		Amount: precision.Round(amount),
		Unit:   m[2],
	}, nil
}

// String 格式化为描述字符串，如"100g"
func (q Quantity) String() string {
	return precision.Format(q.Amount, precision.DefaultPlaces) + q.Unit
}

// SameUnit 单位是否一致（大小写敏感）
func (q Quantity) SameUnit(unit string) bool {
	return q.Unit == unit
}

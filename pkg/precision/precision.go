// Package precision 提供库存数量的定点小数运算
//
// 所有库存量、使用量、余量都以decimal.Decimal表示，每次运算后统一舍入到6位小数。
// 二进制浮点数会让 100 - 30 - 0.1 这样的连续扣减产生 69.89999999 之类的漂移，
// 库存对账要求减法和加法可以精确抵消，所以这里不使用float64。
//
// 两类解析函数：
//   - Parse: 宽松解析，nil或非法输入返回0，用于展示、统计等可容错场景
//   - ParseStrict: 严格解析，非法输入返回错误，用于写入库存的路径
package precision

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPlaces 库存数量保留的小数位数
const DefaultPlaces int32 = 6

// DisplayPlaces 展示时保留的小数位数
const DisplayPlaces int32 = 3

var hundred = decimal.NewFromInt(100)

// Round 舍入到DefaultPlaces位小数
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(DefaultPlaces)
}

// Add a + b
func Add(a, b decimal.Decimal) decimal.Decimal {
	return Round(a.Add(b))
}

// Sub a - b
func Sub(a, b decimal.Decimal) decimal.Decimal {
	return Round(a.Sub(b))
}

// Mul a * b
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return Round(a.Mul(b))
}

// Div a / b，除数为0时返回0
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, DefaultPlaces)
}

// Percent 计算 part / whole * 100，whole为0时返回0
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return Round(part.Mul(hundred).DivRound(whole, DefaultPlaces+2))
}

// IsPositive d > 0
func IsPositive(d decimal.Decimal) bool {
	return d.IsPositive()
}

// IsNonNegative d >= 0
func IsNonNegative(d decimal.Decimal) bool {
	return !d.IsNegative()
}

// Format 格式化为字符串，去除末尾的0
// 例如：Format(1.500000, 3) → "1.5"，Format(100, 3) → "100"
func Format(d decimal.Decimal, places int32) string {
	return d.Round(places).String()
}

// Parse 宽松解析，失败时返回0
func Parse(v interface{}) decimal.Decimal {
	d, err := ParseStrict(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseStrict 严格解析数值
// 支持：decimal.Decimal、字符串、json.Number、整数和浮点数类型
func ParseStrict(v interface{}) (decimal.Decimal, error) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("数值为空")
	case decimal.Decimal:
		return Round(val), nil
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, fmt.Errorf("数值为空")
		}
		return Round(*val), nil
	case string:
		return parseString(val)
	case json.Number:
		return parseString(val.String())
	case float64:
		return fromFloat(val)
	case float32:
		return fromFloat(float64(val))
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int32:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case uint:
		return decimal.NewFromUint64(uint64(val)), nil
	case uint32:
		return decimal.NewFromUint64(uint64(val)), nil
	case uint64:
		return decimal.NewFromUint64(val), nil
	default:
		return decimal.Zero, fmt.Errorf("不支持的数值类型: %T", v)
	}
}

func parseString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("数值为空")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("无效的数值: %q", s)
	}
	return Round(d), nil
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("无效的数值: %v", f)
	}
	return Round(decimal.NewFromFloat(f)), nil
}

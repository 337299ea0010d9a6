package precision

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestArithmetic(t *testing.T) {
	t.Run("连续扣减没有浮点漂移", func(t *testing.T) {
		stock := d("100")
		stock = Sub(stock, d("30"))
		stock = Sub(stock, d("0.1"))
		assert.Equal(t, "69.9", stock.String())

		stock = Add(stock, d("0.1"))
		stock = Add(stock, d("30"))
		assert.True(t, stock.Equal(d("100")))
	})

	t.Run("结果舍入到6位", func(t *testing.T) {
		assert.Equal(t, "0.333333", Div(d("1"), d("3")).String())
		assert.Equal(t, "0.000001", Mul(d("0.001"), d("0.001")).String())
		assert.True(t, Mul(d("0.001"), d("0.0001")).IsZero())
	})

	t.Run("除以0返回0", func(t *testing.T) {
		assert.True(t, Div(d("5"), decimal.Zero).IsZero())
		assert.True(t, Percent(d("5"), decimal.Zero).IsZero())
	})

	t.Run("百分比", func(t *testing.T) {
		assert.True(t, Percent(d("5"), d("100")).Equal(d("5")))
		assert.True(t, Percent(d("20"), d("100")).Equal(d("20")))
		assert.True(t, Percent(d("1"), d("3")).Equal(d("33.333333")))
	})
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsPositive(d("0.000001")))
	assert.False(t, IsPositive(decimal.Zero))
	assert.True(t, IsNonNegative(decimal.Zero))
	assert.False(t, IsNonNegative(d("-0.1")))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.5", Format(d("1.500000"), DisplayPlaces))
	assert.Equal(t, "100", Format(d("100.000"), DisplayPlaces))
	assert.Equal(t, "0.333", Format(d("0.333333"), DisplayPlaces))
}

func TestParseStrict(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    string
		wantErr bool
	}{
		{"字符串", "12.5", "12.5", false},
		{"带空格字符串", "  7 ", "7", false},
		{"json.Number", json.Number("0.25"), "0.25", false},
		{"整数", 42, "42", false},
		{"浮点数", 0.1, "0.1", false},
		{"超过6位小数", "1.23456789", "1.234568", false},
		{"decimal", d("3.3"), "3.3", false},
		{"空字符串", "", "", true},
		{"非法字符串", "abc", "", true},
		{"nil", nil, "", true},
		{"NaN", math.NaN(), "", true},
		{"不支持的类型", []int{1}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStrict(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParse_SoftFallback(t *testing.T) {
	assert.True(t, Parse("not-a-number").IsZero())
	assert.True(t, Parse(nil).IsZero())
	assert.Equal(t, "8", Parse("8").String())
}

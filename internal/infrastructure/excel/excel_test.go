package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xiebiao/labinventory/internal/domain/storage"
	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

// buildSheet 用给定的行构造xlsx
func buildSheet(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf := &bytes.Buffer{}
	require.NoError(t, f.Write(buf))
	return buf.Bytes()
}

func readAll(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	return rows
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"类型", ColCategory},
		{"Type", ColCategory},
		{"产品类型", ColCategory},
		{"Product Name", ColName},
		{" name ", ColName},
		{"Quantity", ColDescriptor},
		{"原始数量", ColDescriptor},
		{"Storage Location", ColLocation},
		{"CAS", ColCAS},
		{"CAS Number", ColCAS},
		{"备注", "备注"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeHeader(tt.in), tt.in)
	}
}

func TestTemplate(t *testing.T) {
	data, err := Template()
	require.NoError(t, err)

	t.Run("模板表头和示例行", func(t *testing.T) {
		rows := readAll(t, data)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{ColCategory, ColName, ColDescriptor, ColLocation, ColCAS}, rows[0])
		assert.Equal(t, "DMSO", rows[3][1])
	})

	t.Run("模板可以直接导入", func(t *testing.T) {
		parsed, err := ReadItems(bytes.NewReader(data), 0)
		require.NoError(t, err)
		require.Len(t, parsed, 3)
		assert.Equal(t, 2, parsed[0].Line)
		assert.Equal(t, "Anti-β-actin", parsed[0].Input.ProductName)
		assert.Equal(t, "100μl", parsed[0].Input.QuantityDescriptor)
		assert.Equal(t, "123-45-6", parsed[0].Input.CASNumber)
	})
}

func TestReadItems(t *testing.T) {
	t.Run("英文表头且没有CAS列", func(t *testing.T) {
		data := buildSheet(t, [][]interface{}{
			{"Type", "Product Name", "Quantity", "Location"},
			{"试剂", "乙醇", "500ml", "试剂柜A"},
		})
		rows, err := ReadItems(bytes.NewReader(data), 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, storage.CreateItemInput{
			Category: "试剂", ProductName: "乙醇", QuantityDescriptor: "500ml", Location: "试剂柜A",
		}, rows[0].Input)
	})

	t.Run("跳过空行且保留原始行号", func(t *testing.T) {
		data := buildSheet(t, [][]interface{}{
			{"类型", "产品名", "数量及数量单位", "存放地"},
			{"试剂", "A", "1g", "柜1"},
			{"", "", "", ""},
			{"试剂", "B", "", "柜2"},
		})
		rows, err := ReadItems(bytes.NewReader(data), 0)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 4, rows[1].Line)
		assert.Empty(t, rows[1].Input.QuantityDescriptor)
	})

	t.Run("缺少必填列", func(t *testing.T) {
		data := buildSheet(t, [][]interface{}{
			{"类型", "产品名"},
			{"试剂", "A"},
		})
		_, err := ReadItems(bytes.NewReader(data), 0)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidParams, apperrors.CodeOf(err))
		assert.Contains(t, err.Error(), ColDescriptor)
	})

	t.Run("超过行数上限", func(t *testing.T) {
		data := buildSheet(t, [][]interface{}{
			{"类型", "产品名", "数量及数量单位", "存放地"},
			{"试剂", "A", "1g", "柜1"},
			{"试剂", "B", "1g", "柜1"},
		})
		_, err := ReadItems(bytes.NewReader(data), 1)
		assert.Error(t, err)
	})

	t.Run("不是xlsx", func(t *testing.T) {
		_, err := ReadItems(bytes.NewReader([]byte("not excel")), 0)
		assert.Equal(t, apperrors.ErrCodeInvalidParams, apperrors.CodeOf(err))
	})
}

func TestExportItems(t *testing.T) {
	updated := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	data, err := ExportItems([]*storage.Item{{
		Category: "化学品", ProductName: "NaCl", QuantityDescriptor: "500g", Location: "柜A",
		CASNumber: "7647-14-5", CurrentStock: decimal.RequireFromString("499.9"), Unit: "g", UpdatedAt: updated,
	}})
	require.NoError(t, err)

	rows := readAll(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, "当前库存量", rows[0][5])
	assert.Equal(t, []string{"化学品", "NaCl", "500g", "柜A", "7647-14-5", "499.9", "g", "2024-01-15 09:30:00"}, rows[1])
}

func TestExportUsageHistory(t *testing.T) {
	item := &storage.Item{ProductName: "NaCl", Location: "柜A"}
	data, err := ExportUsageHistory(item, []*storage.UsageRecord{{
		Person: "张三", UsageDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount: decimal.RequireFromString("0.1"), Remaining: decimal.RequireFromString("99.9"), Unit: "g",
	}})
	require.NoError(t, err)

	rows := readAll(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-15", rows[1][0])
	assert.Equal(t, "0.1", rows[1][2])
	assert.Equal(t, "99.9", rows[1][4])
}

// Package excel 库存清单的Excel导入导出
//
// 导出和模板生成返回xlsx字节，由Handler作为附件下载；
// 导入只负责把表格解析成CreateItemInput，逐行创建和错误收集在应用层完成。
package excel

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/pkg/dateparse"
	apperrors "github.com/xiebiao/labinventory/pkg/errors"
	"github.com/xiebiao/labinventory/pkg/precision"
)

// ContentType xlsx的MIME类型
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// 标准列名
const (
	ColCategory   = "类型"
	ColName       = "产品名"
	ColDescriptor = "数量及数量单位"
	ColLocation   = "存放地"
	ColCAS        = "CAS号"
)

const (
	itemSheet     = "库存清单"
	historySheet  = "使用记录"
	templateSheet = "导入模板"

	timeLayout  = "2006-01-02 15:04:05"
	maxColWidth = 50
)

// headerAliases 表头别名 → 标准列名
var headerAliases = map[string]string{
	"类型": ColCategory, "type": ColCategory, "产品类型": ColCategory, "product type": ColCategory, "category": ColCategory,
	"产品名": ColName, "product name": ColName, "product_name": ColName, "name": ColName, "名称": ColName,
	"数量及数量单位": ColDescriptor, "quantity": ColDescriptor, "数量": ColDescriptor, "原始数量": ColDescriptor,
	"存放地": ColLocation, "storage location": ColLocation, "location": ColLocation, "位置": ColLocation, "存储位置": ColLocation,
	"cas号": ColCAS, "cas number": ColCAS, "cas": ColCAS, "cas_number": ColCAS,
}

var requiredColumns = []string{ColCategory, ColName, ColDescriptor, ColLocation}

// NormalizeHeader 表头归一化，英文别名不区分大小写，不认识的原样返回
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	if std, ok := headerAliases[strings.ToLower(h)]; ok {
		return std
	}
	return h
}

// =========================================
// 导出
// =========================================

// ExportItems 导出库存清单
func ExportItems(items []*storage.Item) ([]byte, error) {
	header := []interface{}{ColCategory, ColName, ColDescriptor, ColLocation, ColCAS, "当前库存量", "单位", "更新时间"}

	rows := make([][]interface{}, 0, len(items))
	for _, it := range items {
		rows = append(rows, []interface{}{
			it.Category,
			it.ProductName,
			it.QuantityDescriptor,
			it.Location,
			it.CASNumber,
			precision.Format(it.CurrentStock, precision.DisplayPlaces),
			it.Unit,
			formatTime(it),
		})
	}
	return writeSheet(itemSheet, header, rows)
}

// ExportUsageHistory 导出单个物品的使用记录
func ExportUsageHistory(item *storage.Item, records []*storage.UsageRecord) ([]byte, error) {
	header := []interface{}{"使用日期", "使用人", "使用量", "单位", "余量", "备注", "产品名", "存放地"}

	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{
			dateparse.Format(r.UsageDate),
			r.Person,
			precision.Format(r.Amount, precision.DisplayPlaces),
			r.Unit,
			precision.Format(r.Remaining, precision.DisplayPlaces),
			r.Notes,
			item.ProductName,
			item.Location,
		})
	}
	return writeSheet(historySheet, header, rows)
}

// Template 导入模板，附三行示例
func Template() ([]byte, error) {
	header := []interface{}{ColCategory, ColName, ColDescriptor, ColLocation, ColCAS}
	rows := [][]interface{}{
		{"化学品", "Anti-β-actin", "100μl", "4°C冰箱A", "123-45-6"},
		{"试剂", "TBST缓冲液", "500ml", "室温试剂柜", "789-12-3"},
		{"化学品", "DMSO", "100ml", "有机试剂柜", "67-68-5"},
	}
	return writeSheet(templateSheet, header, rows)
}

func formatTime(it *storage.Item) string {
	if it.UpdatedAt.IsZero() {
		return ""
	}
	return it.UpdatedAt.Format(timeLayout)
}

// writeSheet 写入单个工作表：加粗灰底表头，列宽按内容自适应
func writeSheet(sheet string, header []interface{}, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, apperrors.Wrap(err, "创建工作表失败")
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, apperrors.Wrap(err, "写入表头失败")
	}

	widths := make([]int, len(header))
	measure := func(values []interface{}) {
		for i, v := range values {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(fmt.Sprint(v)))
			}
		}
	}
	measure(header)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, apperrors.Wrap(err, "计算单元格失败")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, apperrors.Wrapf(err, "写入第%d行失败", i+2)
		}
		measure(row)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "创建样式失败")
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, style); err != nil {
		return nil, apperrors.Wrap(err, "设置表头样式失败")
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		// 中文字符按两个宽度估算
		if err := f.SetColWidth(sheet, col, col, float64(min(w*2+2, maxColWidth))); err != nil {
			return nil, apperrors.Wrap(err, "设置列宽失败")
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, apperrors.Wrap(err, "生成Excel失败")
	}
	return buf.Bytes(), nil
}

// =========================================
// 导入
// =========================================

// Row 解析出的一行，Line是Excel中的行号（表头为第1行）
type Row struct {
	Line  int
	Input storage.CreateItemInput
}

// ReadItems 解析导入文件的第一个工作表
// 1. 表头按别名归一化，缺少必填列直接返回错误
// 2. 全空的行跳过
// 3. 超过maxRows行返回错误（maxRows<=0不限制）
// 单元格内容不在这里校验，交给CreateItem逐行报告
func ReadItems(r io.Reader, maxRows int) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, "无法读取Excel文件(文件损坏或不是xlsx格式)")
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, apperrors.WithCode(apperrors.ErrCodeInvalidParams, err, "读取工作表失败")
	}
	if len(rows) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "文件为空")
	}

	index := make(map[string]int)
	for i, h := range rows[0] {
		name := NormalizeHeader(h)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidParams, "缺少必填列: %s", strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	result := make([]Row, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if maxRows > 0 && len(result) >= maxRows {
			return nil, apperrors.Newf(apperrors.ErrCodeInvalidParams, "导入行数超过上限%d", maxRows)
		}
		result = append(result, Row{
			Line: i + 2,
			Input: storage.CreateItemInput{
				Category:           cell(row, ColCategory),
				ProductName:        cell(row, ColName),
				QuantityDescriptor: cell(row, ColDescriptor),
				Location:           cell(row, ColLocation),
				CASNumber:          cell(row, ColCAS),
			},
		})
	}
	return result, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

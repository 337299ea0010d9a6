package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-viper/mapstructure/v2"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

// 规范字段名
const (
	FieldCategory           = "category"
	FieldProductName        = "product_name"
	FieldQuantityDescriptor = "quantity_descriptor"
	FieldLocation           = "location"
	FieldCASNumber          = "cas_number"
	FieldCurrentStock       = "current_stock"
	FieldUnit               = "unit"
	FieldPerson             = "person"
	FieldUsageDate          = "usage_date"
	FieldAmount             = "amount"
	FieldNotes              = "notes"
)

// aliases 规范字段 → 可接受的请求字段，按优先级排列
// 前端表格直接提交中文列名，旧接口使用英文名，两者都要兼容
var aliases = []struct {
	canonical string
	keys      []string
}{
	{FieldCategory, []string{"类型", "type", "category"}},
	{FieldProductName, []string{"产品名", "name", "product_name"}},
	{FieldQuantityDescriptor, []string{"数量及数量单位", "total_quantity", "quantity", "quantity_descriptor"}},
	{FieldLocation, []string{"存放地", "location", "storage_location"}},
	{FieldCASNumber, []string{"CAS号", "cas_number", "cas"}},
	{FieldCurrentStock, []string{"当前库存量", "current_quantity", "current_stock"}},
	{FieldUnit, []string{"单位", "unit"}},
	{FieldPerson, []string{"使用人", "personnel", "person"}},
	{FieldUsageDate, []string{"使用日期", "usage_date", "date", "config_date"}},
	{FieldAmount, []string{"使用量", "使用量_g", "usage_amount", "volume_used", "amount"}},
	{FieldNotes, []string{"备注", "notes"}},
}

// ResolveAliases 把请求字段归一到规范字段名
// 规则:
// 1. 按优先级取第一个非空的值
// 2. 所有别名都是空字符串时保留空字符串(用于清空备注等字段)
// 3. 没有出现的字段不写入结果，更新请求据此区分"不修改"和"清空"
func ResolveAliases(raw map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(aliases))
	for _, a := range aliases {
		var (
			value   interface{}
			present bool
		)
		for _, k := range a.keys {
			v, ok := raw[k]
			if !ok || v == nil {
				continue
			}
			if !present {
				value, present = v, true
			}
			if s, isStr := v.(string); isStr && s == "" {
				continue
			}
			value = v
			break
		}
		if present {
			out[a.canonical] = value
		}
	}
	return out
}

// DecodeAliased 读取JSON请求体，解析别名后解码到dest
// dest的字段使用mapstructure tag标注规范字段名，数值按原文保留(json.Number → string)
func DecodeAliased(body io.Reader, dest interface{}) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return apperrors.WithCode(apperrors.ErrCodeBindError, err, "读取请求体失败")
	}

	raw := map[string]interface{}{}
	if len(bytes.TrimSpace(data)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return apperrors.New(apperrors.ErrCodeBindError, "请求体必须是JSON对象")
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           dest,
		TagName:          "mapstructure",
	})
	if err != nil {
		return apperrors.Wrap(err, "创建解码器失败")
	}
	if err := decoder.Decode(ResolveAliases(raw)); err != nil {
		return apperrors.New(apperrors.ErrCodeBindError, fmt.Sprintf("参数格式错误: %v", err))
	}
	return nil
}

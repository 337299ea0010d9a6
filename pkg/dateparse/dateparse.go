// Package dateparse 解析实验室记录中常见的日期写法
//
// 使用记录的日期来自手工录入和Excel导入，格式五花八门：
// 2025.04.29、2025.0522、2025-4-29、2025/04/29、04.29.2025、04-29-2025、2025年4月29日……
// 实验室特有的写法先走正则表，其余（RFC3339、英文月份、4/29/2025等）交给araddon/dateparse。
// 解析结果统一为UTC零点的日期（只保留日期精度）。
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	anydate "github.com/araddon/dateparse"
)

// DisplayLayout 日期展示格式
const DisplayLayout = "2006-01-02"

type pattern struct {
	re        *regexp.Regexp
	yearFirst bool
}

// 按顺序尝试，只锚定开头（与录入习惯一致，"2025-04-29 上午"也能识别）
var patterns = []pattern{
	{regexp.MustCompile(`^(\d{4})\.(\d{1,2})\.(\d{1,2})`), true},  // 2025.04.29
	{regexp.MustCompile(`^(\d{4})\.(\d{1,2})(\d{2})`), true},      // 2025.0522
	{regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`), true},    // 2025-04-29
	{regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})`), true},    // 2025/04/29
	{regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日`), true},   // 2025年4月29日
	{regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`), true},         // 20250429
	{regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})`), false}, // 04.29.2025
	{regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})`), false},   // 04-29-2025
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

// Parse 解析日期字符串，无法识别时返回false
//
// 命中正则但日期非法（如2025-02-30）直接判失败，不再交给兜底解析。
// 纯数字只接受8位的YYYYMMDD，避免被当成Unix时间戳。
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, p := range patterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		c, _ := strconv.Atoi(m[3])

		year, month, day := a, b, c
		if !p.yearFirst {
			month, day, year = a, b, c
		}
		return makeDate(year, month, day)
	}

	if digitsOnly.MatchString(s) {
		return time.Time{}, false
	}
	t, err := anydate.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return Truncate(t), true
}

// Format 格式化为YYYY-MM-DD，零值返回空字符串
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayLayout)
}

// Truncate 截断为UTC零点
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// makeDate 构造日期并拒绝2月30日这类会被time.Date自动进位的非法日期
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

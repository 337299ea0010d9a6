package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/labinventory/pkg/precision"
)

const (
	// blockingSampleSize 拒绝删除时返回的记录样本数
	blockingSampleSize = 10
	// infoSampleSize 删除影响分析返回的记录样本数
	infoSampleSize = 5
)

// 删除方式
const (
	DeletionKindCascade = "cascade"
	DeletionKindManual  = "manual"
)

// DeletionResult 删除物品的结果
// Deleted=false时Blocking不为空，说明是哪些使用记录阻止了删除
type DeletionResult struct {
	Item             ItemSummary
	Deleted          bool
	Cascade          bool
	RecordCount      int
	DeletedRecordIDs []uint
	Blocking         *UsageSummary
	Message          string
}

// UsageSummary 使用记录汇总
type UsageSummary struct {
	Count       int
	TotalUsage  decimal.Decimal
	UniqueUsers []string
	Earliest    *time.Time
	Latest      *time.Time
	Samples     []RecordSample
}

// RecordSample 使用记录样本
type RecordSample struct {
	ID        uint
	Person    string
	UsageDate time.Time
	Amount    decimal.Decimal
	Unit      string
}

// DeletionInfo 删除影响分析
type DeletionInfo struct {
	Item            ItemSummary
	CanDeleteSafely bool
	Records         UsageSummary
	Impact          string
	Options         []DeletionOption
}

// DeletionOption 可选的删除方式
type DeletionOption struct {
	Kind        string
	Description string
	Warning     string
	Steps       []string
}

// summarize 汇总使用记录，样本取前limit条
func summarize(records []*UsageRecord, limit int) UsageSummary {
	summary := UsageSummary{
		Count:       len(records),
		TotalUsage:  decimal.Zero,
		UniqueUsers: []string{},
		Samples:     make([]RecordSample, 0, min(limit, len(records))),
	}

	seen := make(map[string]struct{})
	for i, r := range records {
		summary.TotalUsage = precision.Add(summary.TotalUsage, r.Amount)

		if _, ok := seen[r.Person]; !ok && r.Person != "" {
			seen[r.Person] = struct{}{}
			summary.UniqueUsers = append(summary.UniqueUsers, r.Person)
		}

		if !r.UsageDate.IsZero() {
			d := r.UsageDate
			if summary.Earliest == nil || d.Before(*summary.Earliest) {
				summary.Earliest = &d
			}
			if summary.Latest == nil || d.After(*summary.Latest) {
				summary.Latest = &d
			}
		}

		if i < limit {
			summary.Samples = append(summary.Samples, RecordSample{
				ID:        r.ID,
				Person:    r.Person,
				UsageDate: r.UsageDate,
				Amount:    r.Amount,
				Unit:      r.Unit,
			})
		}
	}
	sort.Strings(summary.UniqueUsers)
	return summary
}

// buildDeletionInfo 构造删除影响分析
func buildDeletionInfo(item *Item, records []*UsageRecord) *DeletionInfo {
	summary := summarize(records, infoSampleSize)
	info := &DeletionInfo{
		Item:            item.Summary(),
		CanDeleteSafely: len(records) == 0,
		Records:         summary,
	}

	if info.CanDeleteSafely {
		info.Impact = "No associated records - safe to delete"
		info.Options = []DeletionOption{{
			Kind:        DeletionKindManual,
			Description: "直接删除该物品",
		}}
		return info
	}

	info.Impact = fmt.Sprintf("Deleting this storage item will affect %d usage records from %d users",
		summary.Count, len(summary.UniqueUsers))
	info.Options = []DeletionOption{
		{
			Kind:        DeletionKindCascade,
			Description: fmt.Sprintf("同时删除该物品及其%d条使用记录", summary.Count),
			Warning:     "This action cannot be undone",
		},
		{
			Kind:        DeletionKindManual,
			Description: "先逐条处理使用记录，再删除物品",
			Steps: []string{
				"查看该物品的使用记录",
				"逐条删除或导出需要保留的使用记录",
				"确认使用记录清空后再删除物品",
			},
		},
	}
	return info
}

func deletedMessage(item *Item, recordCount int) string {
	if recordCount == 0 {
		return fmt.Sprintf("已删除物品: %s", item.ProductName)
	}
	return fmt.Sprintf("已删除物品: %s, 同时删除%d条使用记录", item.ProductName, recordCount)
}

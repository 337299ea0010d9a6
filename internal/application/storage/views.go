package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/pkg/dateparse"
)

// 应用层视图对象
// 数量字段使用decimal.Decimal，JSON序列化为字符串（"99.9"），不丢精度

const timeLayout = "2006-01-02 15:04:05"

// ItemView 库存物品
type ItemView struct {
	ID                 uint            `json:"id"`
	Category           string          `json:"category"`
	ProductName        string          `json:"product_name"`
	QuantityDescriptor string          `json:"quantity_descriptor"`
	Location           string          `json:"location"`
	CASNumber          string          `json:"cas_number"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	Unit               string          `json:"unit"`
	CreatedAt          string          `json:"created_at"`
	UpdatedAt          string          `json:"updated_at"`
}

// NewItemView 领域实体 → 视图
func NewItemView(item *storage.Item) *ItemView {
	if item == nil {
		return nil
	}
	return &ItemView{
		ID:                 item.ID,
		Category:           item.Category,
		ProductName:        item.ProductName,
		QuantityDescriptor: item.QuantityDescriptor,
		Location:           item.Location,
		CASNumber:          item.CASNumber,
		CurrentStock:       item.CurrentStock,
		Unit:               item.Unit,
		CreatedAt:          formatTime(item.CreatedAt),
		UpdatedAt:          formatTime(item.UpdatedAt),
	}
}

// RecordView 使用记录
type RecordView struct {
	ID                 uint            `json:"id"`
	StorageID          *uint           `json:"storage_id"`
	UserID             *uint           `json:"user_id,omitempty"`
	Category           string          `json:"category"`
	ProductName        string          `json:"product_name"`
	QuantityDescriptor string          `json:"quantity_descriptor"`
	Location           string          `json:"location"`
	CASNumber          string          `json:"cas_number"`
	Person             string          `json:"person"`
	UsageDate          string          `json:"usage_date"`
	Amount             decimal.Decimal `json:"amount"`
	Remaining          decimal.Decimal `json:"remaining"`
	Unit               string          `json:"unit"`
	Notes              string          `json:"notes"`
	CreatedAt          string          `json:"created_at"`
}

// NewRecordView 领域实体 → 视图
func NewRecordView(r *storage.UsageRecord) *RecordView {
	if r == nil {
		return nil
	}
	return &RecordView{
		ID:                 r.ID,
		StorageID:          r.StorageID,
		UserID:             r.UserID,
		Category:           r.Category,
		ProductName:        r.ProductName,
		QuantityDescriptor: r.QuantityDescriptor,
		Location:           r.Location,
		CASNumber:          r.CASNumber,
		Person:             r.Person,
		UsageDate:          dateparse.Format(r.UsageDate),
		Amount:             r.Amount,
		Remaining:          r.Remaining,
		Unit:               r.Unit,
		Notes:              r.Notes,
		CreatedAt:          formatTime(r.CreatedAt),
	}
}

// NewRecordViews 批量转换
func NewRecordViews(records []*storage.UsageRecord) []*RecordView {
	views := make([]*RecordView, 0, len(records))
	for _, r := range records {
		views = append(views, NewRecordView(r))
	}
	return views
}

// ItemSummaryView 物品摘要
type ItemSummaryView struct {
	ID          uint   `json:"id"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Location    string `json:"location"`
}

func newSummaryView(s storage.ItemSummary) ItemSummaryView {
	return ItemSummaryView{ID: s.ID, ProductName: s.ProductName, Category: s.Category, Location: s.Location}
}

// UsageSummaryView 使用记录汇总
type UsageSummaryView struct {
	Count           int                `json:"count"`
	TotalUsage      decimal.Decimal    `json:"total_usage"`
	UniqueUsers     []string           `json:"unique_users"`
	UniqueUserCount int                `json:"unique_user_count"`
	DateRange       *DateRange         `json:"date_range,omitempty"`
	Samples         []RecordSampleView `json:"samples"`
}

// DateRange 使用日期范围
type DateRange struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

// RecordSampleView 记录样本
type RecordSampleView struct {
	ID        uint            `json:"id"`
	Person    string          `json:"person"`
	UsageDate string          `json:"usage_date"`
	Amount    decimal.Decimal `json:"amount"`
	Unit      string          `json:"unit"`
}

func newUsageSummaryView(s storage.UsageSummary) UsageSummaryView {
	v := UsageSummaryView{
		Count:           s.Count,
		TotalUsage:      s.TotalUsage,
		UniqueUsers:     s.UniqueUsers,
		UniqueUserCount: len(s.UniqueUsers),
		Samples:         make([]RecordSampleView, 0, len(s.Samples)),
	}
	if s.Earliest != nil && s.Latest != nil {
		v.DateRange = &DateRange{Earliest: dateparse.Format(*s.Earliest), Latest: dateparse.Format(*s.Latest)}
	}
	for _, r := range s.Samples {
		v.Samples = append(v.Samples, RecordSampleView{
			ID:        r.ID,
			Person:    r.Person,
			UsageDate: dateparse.Format(r.UsageDate),
			Amount:    r.Amount,
			Unit:      r.Unit,
		})
	}
	return v
}

// DeletionResultView 删除结果
// 被使用记录阻止时Deleted=false，BlockingRecords给出摘要
type DeletionResultView struct {
	Item             ItemSummaryView   `json:"item"`
	Deleted          bool              `json:"deleted"`
	Cascade          bool              `json:"cascade"`
	RecordCount      int               `json:"record_count"`
	DeletedRecordIDs []uint            `json:"deleted_record_ids,omitempty"`
	BlockingRecords  *UsageSummaryView `json:"blocking_records,omitempty"`
	Message          string            `json:"message,omitempty"`
}

func newDeletionResultView(r *storage.DeletionResult) *DeletionResultView {
	v := &DeletionResultView{
		Item:             newSummaryView(r.Item),
		Deleted:          r.Deleted,
		Cascade:          r.Cascade,
		RecordCount:      r.RecordCount,
		DeletedRecordIDs: r.DeletedRecordIDs,
		Message:          r.Message,
	}
	if r.Blocking != nil {
		b := newUsageSummaryView(*r.Blocking)
		v.BlockingRecords = &b
	}
	return v
}

// DeletionInfoView 删除影响分析
type DeletionInfoView struct {
	Item            ItemSummaryView      `json:"item"`
	CanDeleteSafely bool                 `json:"can_delete_safely"`
	Records         UsageSummaryView     `json:"records"`
	Impact          string               `json:"impact"`
	Options         []DeletionOptionView `json:"options"`
}

// DeletionOptionView 删除方式
type DeletionOptionView struct {
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Warning     string   `json:"warning,omitempty"`
	Steps       []string `json:"steps,omitempty"`
}

func newDeletionInfoView(info *storage.DeletionInfo) *DeletionInfoView {
	v := &DeletionInfoView{
		Item:            newSummaryView(info.Item),
		CanDeleteSafely: info.CanDeleteSafely,
		Records:         newUsageSummaryView(info.Records),
		Impact:          info.Impact,
		Options:         make([]DeletionOptionView, 0, len(info.Options)),
	}
	for _, o := range info.Options {
		v.Options = append(v.Options, DeletionOptionView{
			Kind:        o.Kind,
			Description: o.Description,
			Warning:     o.Warning,
			Steps:       o.Steps,
		})
	}
	return v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

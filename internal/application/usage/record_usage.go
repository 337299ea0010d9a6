package usage

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/notify"
	"github.com/xiebiao/labinventory/internal/application/observe"
	appstorage "github.com/xiebiao/labinventory/internal/application/storage"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/infrastructure/events"
)

// RecordUsageRequest 登记使用请求
type RecordUsageRequest struct {
	StorageID uint
	Person    string          // 使用人
	Date      string          // 使用日期原始字符串
	Amount    decimal.Decimal // 使用量
	Unit      string
	Notes     string
	UserID    uint // 操作账号，0表示未知
}

// UsageResponse 使用记录与变更后的物品
type UsageResponse struct {
	Record *appstorage.RecordView `json:"record"`
	Item   *appstorage.ItemView   `json:"item"`
}

// RecordUsageUseCase 登记使用
// 设计说明:
// 1. 扣减库存和写使用记录在领域服务的同一事务里完成
// 2. 事务提交后失效仪表盘缓存并发布usage.recorded事件
type RecordUsageUseCase struct {
	storageService storage.Service
	notifier       *notify.Notifier
	log            *zap.Logger
}

// NewRecordUsageUseCase 创建用例
func NewRecordUsageUseCase(storageService storage.Service, notifier *notify.Notifier, log *zap.Logger) *RecordUsageUseCase {
	return &RecordUsageUseCase{storageService: storageService, notifier: notifier, log: log}
}

// Execute 执行
func (uc *RecordUsageUseCase) Execute(ctx context.Context, req RecordUsageRequest) (resp *UsageResponse, err error) {
	ctx, done := observe.Start(ctx, "record_usage")
	defer func() { done(err) }()

	in := storage.UsageInput{
		Person: req.Person,
		Date:   req.Date,
		Amount: req.Amount,
		Unit:   req.Unit,
		Notes:  req.Notes,
	}
	if req.UserID != 0 {
		uid := req.UserID
		in.UserID = &uid
	}

	record, item, err := uc.storageService.RecordUsage(ctx, req.StorageID, in)
	if err != nil {
		return nil, err
	}

	uc.log.Info("usage recorded",
		zap.Uint("storage_id", item.ID),
		zap.Uint("record_id", record.ID),
		zap.String("person", record.Person),
		zap.String("amount", record.Amount.String()+record.Unit),
		zap.String("remaining", item.CurrentStock.String()+item.Unit),
	)

	resp = &UsageResponse{Record: appstorage.NewRecordView(record), Item: appstorage.NewItemView(item)}
	uc.notifier.Changed(ctx, events.Event{
		Type:      events.UsageRecorded,
		UserID:    req.UserID,
		StorageID: item.ID,
		RecordID:  record.ID,
		Data:      resp,
	})
	return resp, nil
}

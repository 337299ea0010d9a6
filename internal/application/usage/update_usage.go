package usage

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/notify"
	"github.com/xiebiao/labinventory/internal/application/observe"
	appstorage "github.com/xiebiao/labinventory/internal/application/storage"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/infrastructure/events"
)

// UpdateUsageRequest 修改使用记录请求
type UpdateUsageRequest struct {
	RecordID uint
	Patch    storage.UsagePatch
	UserID   uint
}

// UpdateUsageUseCase 修改使用记录，库存按使用量差值调整
type UpdateUsageUseCase struct {
	storageService storage.Service
	notifier       *notify.Notifier
	log            *zap.Logger
}

// NewUpdateUsageUseCase 创建用例
func NewUpdateUsageUseCase(storageService storage.Service, notifier *notify.Notifier, log *zap.Logger) *UpdateUsageUseCase {
	return &UpdateUsageUseCase{storageService: storageService, notifier: notifier, log: log}
}

// Execute 执行
func (uc *UpdateUsageUseCase) Execute(ctx context.Context, req UpdateUsageRequest) (resp *UsageResponse, err error) {
	ctx, done := observe.Start(ctx, "update_usage")
	defer func() { done(err) }()

	record, item, err := uc.storageService.UpdateUsageRecord(ctx, req.RecordID, req.Patch)
	if err != nil {
		return nil, err
	}

	uc.log.Info("usage record updated",
		zap.Uint("record_id", record.ID),
		zap.Uint("storage_id", item.ID),
		zap.String("remaining", item.CurrentStock.String()+item.Unit),
	)

	resp = &UsageResponse{Record: appstorage.NewRecordView(record), Item: appstorage.NewItemView(item)}
	uc.notifier.Changed(ctx, events.Event{
		Type:      events.UsageUpdated,
		UserID:    req.UserID,
		StorageID: item.ID,
		RecordID:  record.ID,
		Data:      resp,
	})
	return resp, nil
}

// DeleteUsageRequest 删除使用记录请求
type DeleteUsageRequest struct {
	RecordID uint
	UserID   uint
}

// DeleteUsageResponse 删除结果：归还库存后的物品
type DeleteUsageResponse struct {
	RecordID uint                 `json:"record_id"`
	Item     *appstorage.ItemView `json:"item"`
}

// DeleteUsageUseCase 删除使用记录并归还库存
type DeleteUsageUseCase struct {
	storageService storage.Service
	notifier       *notify.Notifier
	log            *zap.Logger
}

// NewDeleteUsageUseCase 创建用例
func NewDeleteUsageUseCase(storageService storage.Service, notifier *notify.Notifier, log *zap.Logger) *DeleteUsageUseCase {
	return &DeleteUsageUseCase{storageService: storageService, notifier: notifier, log: log}
}

// Execute 执行
func (uc *DeleteUsageUseCase) Execute(ctx context.Context, req DeleteUsageRequest) (resp *DeleteUsageResponse, err error) {
	ctx, done := observe.Start(ctx, "delete_usage")
	defer func() { done(err) }()

	item, err := uc.storageService.DeleteUsageRecord(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}

	uc.log.Info("usage record deleted",
		zap.Uint("record_id", req.RecordID),
		zap.Uint("storage_id", item.ID),
		zap.String("stock", item.CurrentStock.String()+item.Unit),
	)

	resp = &DeleteUsageResponse{RecordID: req.RecordID, Item: appstorage.NewItemView(item)}
	uc.notifier.Changed(ctx, events.Event{
		Type:      events.UsageDeleted,
		UserID:    req.UserID,
		StorageID: item.ID,
		RecordID:  req.RecordID,
		Data:      resp,
	})
	return resp, nil
}

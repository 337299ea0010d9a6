package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/notify"
	"github.com/xiebiao/labinventory/internal/application/observe"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/infrastructure/events"
)

// DeleteItemRequest 删除物品请求
type DeleteItemRequest struct {
	ID      uint
	Cascade bool // 同时删除使用记录
	UserID  uint
}

// DeleteItemUseCase 删除库存物品
type DeleteItemUseCase struct {
	storageService storage.Service
	notifier       *notify.Notifier
	log            *zap.Logger
}

// NewDeleteItemUseCase 创建用例
func NewDeleteItemUseCase(storageService storage.Service, notifier *notify.Notifier, log *zap.Logger) *DeleteItemUseCase {
	return &DeleteItemUseCase{storageService: storageService, notifier: notifier, log: log}
}

// Execute 执行
// 被使用记录阻止时同时返回结果（阻塞记录摘要）和HasDependencies错误，
// Handler把摘要放在错误响应的data中
func (uc *DeleteItemUseCase) Execute(ctx context.Context, req DeleteItemRequest) (resp *DeletionResultView, err error) {
	ctx, done := observe.Start(ctx, "delete_item")
	defer func() { done(err) }()

	result, err := uc.storageService.DeleteItem(ctx, req.ID, req.Cascade)
	if result != nil {
		resp = newDeletionResultView(result)
	}
	if err != nil {
		return resp, err
	}

	uc.log.Info("storage item deleted",
		zap.Uint("storage_id", req.ID),
		zap.Bool("cascade", result.Cascade),
		zap.Int("records_deleted", result.RecordCount),
		zap.Uint("user_id", req.UserID),
	)

	uc.notifier.Changed(ctx, events.Event{
		Type:      events.StorageDeleted,
		UserID:    req.UserID,
		StorageID: req.ID,
		Data:      resp,
	})
	return resp, nil
}

// DeletionInfoUseCase 删除前的影响分析
type DeletionInfoUseCase struct {
	storageService storage.Service
}

// NewDeletionInfoUseCase 创建用例
func NewDeletionInfoUseCase(storageService storage.Service) *DeletionInfoUseCase {
	return &DeletionInfoUseCase{storageService: storageService}
}

// Execute 执行
func (uc *DeletionInfoUseCase) Execute(ctx context.Context, id uint) (resp *DeletionInfoView, err error) {
	ctx, done := observe.Start(ctx, "deletion_info")
	defer func() { done(err) }()

	info, err := uc.storageService.DeletionInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	return newDeletionInfoView(info), nil
}

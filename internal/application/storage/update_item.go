package storage

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/notify"
	"github.com/xiebiao/labinventory/internal/application/observe"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/infrastructure/events"
)

// UpdateItemRequest 部分更新请求
type UpdateItemRequest struct {
	ID     uint
	Patch  storage.ItemPatch
	UserID uint
}

// UpdateItemUseCase 修改库存物品
type UpdateItemUseCase struct {
	storageService storage.Service
	notifier       *notify.Notifier
	log            *zap.Logger
}

// NewUpdateItemUseCase 创建用例
func NewUpdateItemUseCase(storageService storage.Service, notifier *notify.Notifier, log *zap.Logger) *UpdateItemUseCase {
	return &UpdateItemUseCase{storageService: storageService, notifier: notifier, log: log}
}

// Execute 执行
func (uc *UpdateItemUseCase) Execute(ctx context.Context, req UpdateItemRequest) (resp *ItemView, err error) {
	ctx, done := observe.Start(ctx, "update_item")
	defer func() { done(err) }()

	item, err := uc.storageService.UpdateItem(ctx, req.ID, req.Patch)
	if err != nil {
		return nil, err
	}

	uc.log.Info("storage item updated", zap.Uint("storage_id", item.ID), zap.Uint("user_id", req.UserID))

	view := NewItemView(item)
	uc.notifier.Changed(ctx, events.Event{
		Type:      events.StorageUpdated,
		UserID:    req.UserID,
		StorageID: item.ID,
		Data:      view,
	})
	return view, nil
}

// RestockRequest 补货请求
type RestockRequest struct {
	ID     uint
	Amount decimal.Decimal
	Unit   string
	UserID uint
}

// RestockUseCase 补货
type RestockUseCase struct {
	storageService storage.Service
	notifier       *notify.Notifier
	log            *zap.Logger
}

// NewRestockUseCase 创建用例
func NewRestockUseCase(storageService storage.Service, notifier *notify.Notifier, log *zap.Logger) *RestockUseCase {
	return &RestockUseCase{storageService: storageService, notifier: notifier, log: log}
}

// Execute 执行
func (uc *RestockUseCase) Execute(ctx context.Context, req RestockRequest) (resp *ItemView, err error) {
	ctx, done := observe.Start(ctx, "restock")
	defer func() { done(err) }()

	item, err := uc.storageService.Restock(ctx, req.ID, req.Amount, req.Unit)
	if err != nil {
		return nil, err
	}

	uc.log.Info("storage item restocked",
		zap.Uint("storage_id", item.ID),
		zap.String("amount", req.Amount.String()+req.Unit),
		zap.String("stock", item.CurrentStock.String()+item.Unit),
	)

	view := NewItemView(item)
	uc.notifier.Changed(ctx, events.Event{
		Type:      events.StorageRestocked,
		UserID:    req.UserID,
		StorageID: item.ID,
		Data:      view,
	})
	return view, nil
}

// BulkUpdateRequest 批量校正库存请求
type BulkUpdateRequest struct {
	Updates []storage.StockUpdate
	UserID  uint
}

// BulkUpdateResponse 批量校正结果
type BulkUpdateResponse struct {
	Success      bool              `json:"success"`
	UpdatedCount int               `json:"updated_count"`
	Errors       []BulkUpdateError `json:"errors"`
}

// BulkUpdateError 单项错误
type BulkUpdateError struct {
	Index   int    `json:"index"`
	ID      uint   `json:"id,omitempty"`
	Message string `json:"message"`
}

// BulkUpdateUseCase 批量校正库存（盘点）
type BulkUpdateUseCase struct {
	storageService storage.Service
	notifier       *notify.Notifier
	log            *zap.Logger
}

// NewBulkUpdateUseCase 创建用例
func NewBulkUpdateUseCase(storageService storage.Service, notifier *notify.Notifier, log *zap.Logger) *BulkUpdateUseCase {
	return &BulkUpdateUseCase{storageService: storageService, notifier: notifier, log: log}
}

// Execute 执行
// 单项错误不会使整个请求失败，只有数据库错误才返回error
func (uc *BulkUpdateUseCase) Execute(ctx context.Context, req BulkUpdateRequest) (resp *BulkUpdateResponse, err error) {
	ctx, done := observe.Start(ctx, "bulk_update_stock")
	defer func() { done(err) }()

	result, err := uc.storageService.BulkUpdateStock(ctx, req.Updates)
	if err != nil {
		return nil, err
	}

	resp = &BulkUpdateResponse{
		Success:      result.Success,
		UpdatedCount: result.UpdatedCount,
		Errors:       make([]BulkUpdateError, 0, len(result.Errors)),
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, BulkUpdateError{Index: e.Index, ID: e.ID, Message: e.Message})
	}

	uc.log.Info("bulk stock update",
		zap.Int("requested", len(req.Updates)),
		zap.Int("updated", result.UpdatedCount),
		zap.Int("errors", len(result.Errors)),
	)

	if result.UpdatedCount > 0 {
		uc.notifier.Changed(ctx, events.Event{
			Type:   events.StorageUpdated,
			UserID: req.UserID,
			Data:   resp,
		})
	}
	return resp, nil
}

package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/notify"
	"github.com/xiebiao/labinventory/internal/application/observe"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/infrastructure/events"
)

// CreateItemRequest 新建物品请求
type CreateItemRequest struct {
	Category           string
	ProductName        string
	QuantityDescriptor string
	Location           string
	CASNumber          string
	UserID             uint // 操作账号(从认证中间件获取)
}

func (r CreateItemRequest) input() storage.CreateItemInput {
	return storage.CreateItemInput{
		Category:           r.Category,
		ProductName:        r.ProductName,
		QuantityDescriptor: r.QuantityDescriptor,
		Location:           r.Location,
		CASNumber:          r.CASNumber,
	}
}

// CreateItemUseCase 新建库存物品
type CreateItemUseCase struct {
	storageService storage.Service
	notifier       *notify.Notifier
	log            *zap.Logger
}

// NewCreateItemUseCase 创建用例
func NewCreateItemUseCase(storageService storage.Service, notifier *notify.Notifier, log *zap.Logger) *CreateItemUseCase {
	return &CreateItemUseCase{storageService: storageService, notifier: notifier, log: log}
}

// Execute 执行
// 规格解析、产品名去重等规则由领域服务处理
func (uc *CreateItemUseCase) Execute(ctx context.Context, req CreateItemRequest) (resp *ItemView, err error) {
	ctx, done := observe.Start(ctx, "create_item")
	defer func() { done(err) }()

	item, err := uc.storageService.CreateItem(ctx, req.input())
	if err != nil {
		return nil, err
	}

	uc.log.Info("storage item created",
		zap.Uint("storage_id", item.ID),
		zap.String("product_name", item.ProductName),
		zap.String("stock", item.CurrentStock.String()+item.Unit),
		zap.Uint("user_id", req.UserID),
	)

	view := NewItemView(item)
	uc.notifier.Changed(ctx, events.Event{
		Type:      events.StorageCreated,
		UserID:    req.UserID,
		StorageID: item.ID,
		Data:      view,
	})
	return view, nil
}

// IntakeResponse 入库结果
type IntakeResponse struct {
	Item    *ItemView `json:"item"`
	Created bool      `json:"created"` // false表示合并到已有物品
}

// IntakeUseCase 入库：按CAS号/产品名/存放地匹配已有物品则补货，否则新建
type IntakeUseCase struct {
	storageService storage.Service
	notifier       *notify.Notifier
	log            *zap.Logger
}

// NewIntakeUseCase 创建用例
func NewIntakeUseCase(storageService storage.Service, notifier *notify.Notifier, log *zap.Logger) *IntakeUseCase {
	return &IntakeUseCase{storageService: storageService, notifier: notifier, log: log}
}

// Execute 执行
func (uc *IntakeUseCase) Execute(ctx context.Context, req CreateItemRequest) (resp *IntakeResponse, err error) {
	ctx, done := observe.Start(ctx, "intake")
	defer func() { done(err) }()

	result, err := uc.storageService.Intake(ctx, req.input())
	if err != nil {
		return nil, err
	}

	eventType := events.StorageRestocked
	if result.Created {
		eventType = events.StorageCreated
	}
	uc.log.Info("storage intake",
		zap.Uint("storage_id", result.Item.ID),
		zap.Bool("created", result.Created),
		zap.String("stock", result.Item.CurrentStock.String()+result.Item.Unit),
	)

	view := NewItemView(result.Item)
	uc.notifier.Changed(ctx, events.Event{
		Type:      eventType,
		UserID:    req.UserID,
		StorageID: result.Item.ID,
		Data:      view,
	})
	return &IntakeResponse{Item: view, Created: result.Created}, nil
}

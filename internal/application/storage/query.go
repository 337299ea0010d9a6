package storage

import (
	"context"

	"github.com/xiebiao/labinventory/internal/application/observe"
	"github.com/xiebiao/labinventory/internal/domain/storage"
)

// GetItemUseCase 查询单个物品
type GetItemUseCase struct {
	storageService storage.Service
}

// NewGetItemUseCase 创建用例
func NewGetItemUseCase(storageService storage.Service) *GetItemUseCase {
	return &GetItemUseCase{storageService: storageService}
}

// Execute 执行
func (uc *GetItemUseCase) Execute(ctx context.Context, id uint) (*ItemView, error) {
	item, err := uc.storageService.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewItemView(item), nil
}

// ListItemsRequest 列表查询请求
type ListItemsRequest struct {
	Page     int
	PageSize int
	Keyword  string
	Category string
	Location string
	SortBy   string
}

func (r ListItemsRequest) params() storage.ListParams {
	return storage.ListParams{
		Page:     r.Page,
		PageSize: r.PageSize,
		Keyword:  r.Keyword,
		Category: r.Category,
		Location: r.Location,
		SortBy:   r.SortBy,
	}
}

// ListItemsResponse 列表查询结果
type ListItemsResponse struct {
	Items    []*ItemView
	Total    int64
	Page     int
	PageSize int
}

// ListItemsUseCase 物品列表
type ListItemsUseCase struct {
	storageService storage.Service
}

// NewListItemsUseCase 创建用例
func NewListItemsUseCase(storageService storage.Service) *ListItemsUseCase {
	return &ListItemsUseCase{storageService: storageService}
}

// Execute 执行
func (uc *ListItemsUseCase) Execute(ctx context.Context, req ListItemsRequest) (resp *ListItemsResponse, err error) {
	ctx, done := observe.Start(ctx, "list_items")
	defer func() { done(err) }()

	req.Page, req.PageSize = normalizePage(req.Page, req.PageSize)
	items, total, err := uc.storageService.ListItems(ctx, req.params())
	if err != nil {
		return nil, err
	}

	views := make([]*ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, NewItemView(it))
	}
	return &ListItemsResponse{Items: views, Total: total, Page: req.Page, PageSize: req.PageSize}, nil
}

// UsageHistoryRequest 使用记录查询请求
type UsageHistoryRequest struct {
	StorageID uint
	Page      int
	PageSize  int
}

// UsageHistoryResponse 使用记录
type UsageHistoryResponse struct {
	Item     *ItemView
	Records  []*RecordView
	Total    int64
	Page     int
	PageSize int
}

// UsageHistoryUseCase 物品的使用记录（使用日期倒序）
type UsageHistoryUseCase struct {
	storageService storage.Service
}

// NewUsageHistoryUseCase 创建用例
func NewUsageHistoryUseCase(storageService storage.Service) *UsageHistoryUseCase {
	return &UsageHistoryUseCase{storageService: storageService}
}

// Execute 执行
func (uc *UsageHistoryUseCase) Execute(ctx context.Context, req UsageHistoryRequest) (resp *UsageHistoryResponse, err error) {
	ctx, done := observe.Start(ctx, "usage_history")
	defer func() { done(err) }()

	item, err := uc.storageService.GetItem(ctx, req.StorageID)
	if err != nil {
		return nil, err
	}

	req.Page, req.PageSize = normalizePage(req.Page, req.PageSize)
	records, total, err := uc.storageService.UsageHistory(ctx, req.StorageID, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	return &UsageHistoryResponse{
		Item:     NewItemView(item),
		Records:  NewRecordViews(records),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

// normalizePage 与仓储层一致：默认第1页、每页20条，最多100条
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

const maxPageSize = 100

package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/notify"
	"github.com/xiebiao/labinventory/internal/application/observe"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/infrastructure/events"
	"github.com/xiebiao/labinventory/internal/infrastructure/excel"
	apperrors "github.com/xiebiao/labinventory/pkg/errors"
	"github.com/xiebiao/labinventory/pkg/metrics"
)

// FileResponse 下载文件
type FileResponse struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImportRequest Excel导入请求
type ImportRequest struct {
	File   io.Reader
	UserID uint
}

// ImportResponse 导入结果
type ImportResponse struct {
	SuccessCount int         `json:"success_count"`
	ErrorCount   int         `json:"error_count"`
	Errors       []string    `json:"errors"`
	Items        []*ItemView `json:"items"`
}

// ImportUseCase Excel批量导入物品
// 设计说明：
// 1. 每行单独调用CreateItem，单行失败（格式错误、产品名重复）记录为"第N行: 原因"，不中断导入
// 2. 数据库错误直接返回，已导入的行保留
type ImportUseCase struct {
	storageService storage.Service
	notifier       *notify.Notifier
	maxRows        int
	log            *zap.Logger
}

// NewImportUseCase 创建用例
func NewImportUseCase(storageService storage.Service, notifier *notify.Notifier, maxRows int, log *zap.Logger) *ImportUseCase {
	metrics.InitMetrics()
	return &ImportUseCase{storageService: storageService, notifier: notifier, maxRows: maxRows, log: log}
}

// Execute 执行
func (uc *ImportUseCase) Execute(ctx context.Context, req ImportRequest) (resp *ImportResponse, err error) {
	ctx, done := observe.Start(ctx, "import_items")
	defer func() { done(err) }()

	rows, err := excel.ReadItems(req.File, uc.maxRows)
	if err != nil {
		return nil, err
	}

	resp = &ImportResponse{Errors: []string{}, Items: []*ItemView{}}
	for _, row := range rows {
		item, err := uc.storageService.CreateItem(ctx, row.Input)
		if err != nil {
			if !apperrors.IsClientError(err) {
				return nil, err
			}
			resp.Errors = append(resp.Errors, fmt.Sprintf("第%d行: %s", row.Line, apperrors.GetAppError(err).Message))
			metrics.ExcelImportRows.WithLabelValues(metrics.ResultFailure).Inc()
			continue
		}
		resp.Items = append(resp.Items, NewItemView(item))
		metrics.ExcelImportRows.WithLabelValues(metrics.ResultSuccess).Inc()
	}
	resp.SuccessCount = len(resp.Items)
	resp.ErrorCount = len(resp.Errors)

	uc.log.Info("storage import finished",
		zap.Int("rows", len(rows)),
		zap.Int("success", resp.SuccessCount),
		zap.Int("errors", resp.ErrorCount),
		zap.Uint("user_id", req.UserID),
	)

	if resp.SuccessCount > 0 {
		uc.notifier.Changed(ctx, events.Event{
			Type:   events.StorageCreated,
			UserID: req.UserID,
			Data:   map[string]int{"imported": resp.SuccessCount},
		})
	}
	return resp, nil
}

// ExportItemsUseCase 导出库存清单（支持与列表相同的筛选条件）
type ExportItemsUseCase struct {
	storageService storage.Service
	now            func() time.Time
}

// NewExportItemsUseCase 创建用例
func NewExportItemsUseCase(storageService storage.Service) *ExportItemsUseCase {
	return &ExportItemsUseCase{storageService: storageService, now: time.Now}
}

// Execute 执行，按页读取全部匹配的物品
func (uc *ExportItemsUseCase) Execute(ctx context.Context, req ListItemsRequest) (resp *FileResponse, err error) {
	ctx, done := observe.Start(ctx, "export_items")
	defer func() { done(err) }()

	params := req.params()
	params.PageSize = maxPageSize

	var all []*storage.Item
	for page := 1; ; page++ {
		params.Page = page
		items, total, err := uc.storageService.ListItems(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) == 0 || int64(len(all)) >= total {
			break
		}
	}

	content, err := excel.ExportItems(all)
	if err != nil {
		return nil, err
	}
	return &FileResponse{
		Filename:    fmt.Sprintf("storage_%s.xlsx", uc.now().Format("20060102_150405")),
		ContentType: excel.ContentType,
		Content:     content,
	}, nil
}

// ExportHistoryUseCase 导出单个物品的使用记录
type ExportHistoryUseCase struct {
	storageService storage.Service
}

// NewExportHistoryUseCase 创建用例
func NewExportHistoryUseCase(storageService storage.Service) *ExportHistoryUseCase {
	return &ExportHistoryUseCase{storageService: storageService}
}

// Execute 执行
func (uc *ExportHistoryUseCase) Execute(ctx context.Context, storageID uint) (resp *FileResponse, err error) {
	ctx, done := observe.Start(ctx, "export_history")
	defer func() { done(err) }()

	item, err := uc.storageService.GetItem(ctx, storageID)
	if err != nil {
		return nil, err
	}

	var all []*storage.UsageRecord
	for page := 1; ; page++ {
		records, total, err := uc.storageService.UsageHistory(ctx, storageID, page, maxPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if len(records) == 0 || int64(len(all)) >= total {
			break
		}
	}

	content, err := excel.ExportUsageHistory(item, all)
	if err != nil {
		return nil, err
	}
	return &FileResponse{
		Filename:    fmt.Sprintf("usage_history_%d.xlsx", item.ID),
		ContentType: excel.ContentType,
		Content:     content,
	}, nil
}

// TemplateUseCase 导入模板下载
type TemplateUseCase struct{}

// NewTemplateUseCase 创建用例
func NewTemplateUseCase() *TemplateUseCase {
	return &TemplateUseCase{}
}

// Execute 执行
func (uc *TemplateUseCase) Execute(_ context.Context) (*FileResponse, error) {
	content, err := excel.Template()
	if err != nil {
		return nil, err
	}
	return &FileResponse{Filename: "storage_template.xlsx", ContentType: excel.ContentType, Content: content}, nil
}

package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/observe"
	appstorage "github.com/xiebiao/labinventory/internal/application/storage"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/pkg/metrics"
)

// LowStockView 低库存物品
type LowStockView struct {
	Item           *appstorage.ItemView `json:"item"`
	OriginalAmount decimal.Decimal      `json:"original_amount"`
	Percent        decimal.Decimal      `json:"percent"` // 剩余百分比，保留2位
}

func newLowStockViews(items []storage.LowStockItem) []LowStockView {
	views := make([]LowStockView, 0, len(items))
	for _, it := range items {
		views = append(views, LowStockView{
			Item:           appstorage.NewItemView(it.Item),
			OriginalAmount: it.OriginalAmount,
			Percent:        it.Percent.Round(2),
		})
	}
	return views
}

// LowStockRequest 低库存查询
// Threshold为nil时使用配置的默认阈值
type LowStockRequest struct {
	Threshold *decimal.Decimal
}

// LowStockResponse 低库存提醒
type LowStockResponse struct {
	Threshold decimal.Decimal `json:"threshold"`
	Count     int             `json:"count"`
	Items     []LowStockView  `json:"items"`
}

// LowStockUseCase 低库存提醒
type LowStockUseCase struct {
	analyzer         *storage.LowStockAnalyzer
	defaultThreshold decimal.Decimal
	log              *zap.Logger
}

// NewLowStockUseCase 创建用例
func NewLowStockUseCase(analyzer *storage.LowStockAnalyzer, defaultThreshold decimal.Decimal, log *zap.Logger) *LowStockUseCase {
	metrics.InitMetrics()
	return &LowStockUseCase{analyzer: analyzer, defaultThreshold: defaultThreshold, log: log}
}

// Execute 执行
func (uc *LowStockUseCase) Execute(ctx context.Context, req LowStockRequest) (resp *LowStockResponse, err error) {
	ctx, done := observe.Start(ctx, "low_stock")
	defer func() { done(err) }()

	threshold := uc.defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	items, err := uc.analyzer.LowStockItems(ctx, threshold)
	if err != nil {
		return nil, err
	}

	// 指标只反映默认阈值下的结果
	if threshold.Equal(uc.defaultThreshold) {
		metrics.SetGauge(metrics.LowStockItems, float64(len(items)))
	}
	uc.log.Debug("low stock analyzed", zap.String("threshold", threshold.String()), zap.Int("count", len(items)))

	return &LowStockResponse{Threshold: threshold, Count: len(items), Items: newLowStockViews(items)}, nil
}

package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/notify"
	"github.com/xiebiao/labinventory/internal/application/observe"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/pkg/metrics"
)

// Dashboard 库存概览
type Dashboard struct {
	TotalItems    int64           `json:"total_items"`
	LowStockCount int             `json:"low_stock_count"`
	LocationCount int64           `json:"location_count"`
	MonthlyUsage  int64           `json:"monthly_usage"` // 本月使用记录数
	Categories    []CategoryView  `json:"categories"`
	LowStockItems []LowStockView  `json:"low_stock_items"`
	Threshold     decimal.Decimal `json:"threshold"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// CategoryView 按类型统计
type CategoryView struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// DashboardUseCase 库存概览
// 设计说明:
// 1. 统计直接走仓储(只读查询)，低库存复用LowStockAnalyzer
// 2. 结果缓存在Redis(notify.DashboardCacheKey)，任何库存变更都会通过Notifier删除缓存
// 3. 缓存读写失败只记日志，退化为直接查询
type DashboardUseCase struct {
	items     storage.ItemRepository
	usages    storage.UsageRepository
	analyzer  *storage.LowStockAnalyzer
	cache     notify.Cache
	ttl       time.Duration
	threshold decimal.Decimal
	log       *zap.Logger
	now       func() time.Time
}

// NewDashboardUseCase 创建用例
func NewDashboardUseCase(
	items storage.ItemRepository,
	usages storage.UsageRepository,
	analyzer *storage.LowStockAnalyzer,
	cache notify.Cache,
	ttl time.Duration,
	threshold decimal.Decimal,
	log *zap.Logger,
) *DashboardUseCase {
	metrics.InitMetrics()
	return &DashboardUseCase{
		items:     items,
		usages:    usages,
		analyzer:  analyzer,
		cache:     cache,
		ttl:       ttl,
		threshold: threshold,
		log:       log,
		now:       time.Now,
	}
}

// Execute 执行
func (uc *DashboardUseCase) Execute(ctx context.Context) (resp *Dashboard, err error) {
	ctx, done := observe.Start(ctx, "dashboard")
	defer func() { done(err) }()

	// 1. 读缓存
	var cached Dashboard
	hit, err := uc.cache.GetJSON(ctx, notify.DashboardCacheKey, &cached)
	if err != nil {
		uc.log.Warn("read dashboard cache failed", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	// 2. 物品统计
	stats, err := uc.items.Stats(ctx)
	if err != nil {
		return nil, err
	}

	// 3. 低库存
	low, err := uc.analyzer.LowStockItems(ctx, uc.threshold)
	if err != nil {
		return nil, err
	}
	metrics.SetGauge(metrics.LowStockItems, float64(len(low)))

	// 4. 本月使用记录数(按UTC日期)
	now := uc.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthly, err := uc.usages.CountSince(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	resp = &Dashboard{
		TotalItems:    stats.TotalItems,
		LowStockCount: len(low),
		LocationCount: stats.LocationCount,
		MonthlyUsage:  monthly,
		Categories:    make([]CategoryView, 0, len(stats.CategoryCounts)),
		LowStockItems: newLowStockViews(low),
		Threshold:     uc.threshold,
		GeneratedAt:   now,
	}
	for _, c := range stats.CategoryCounts {
		resp.Categories = append(resp.Categories, CategoryView{Category: c.Category, Count: c.Count})
	}

	// 5. 写缓存
	if err := uc.cache.SetJSON(ctx, notify.DashboardCacheKey, resp, uc.ttl); err != nil {
		uc.log.Warn("write dashboard cache failed", zap.Error(err))
	}
	return resp, nil
}

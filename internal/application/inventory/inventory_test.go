package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/apptest"
	"github.com/xiebiao/labinventory/internal/application/notify"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/infrastructure/events"
)

// consume 登记一次使用
func consume(t *testing.T, env *apptest.Env, item *storage.Item, date string, amount int64) {
	t.Helper()
	_, _, err := env.Service.RecordUsage(context.Background(), item.ID, storage.UsageInput{
		Person: "张三", Date: date, Amount: decimal.NewFromInt(amount), Unit: item.Unit,
	})
	require.NoError(t, err)
}

func TestLowStockUseCase(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)

	low := env.MustCreate(t, "DMSO", "100mL")
	mid := env.MustCreate(t, "无水乙醇", "500mL")
	env.MustCreate(t, "TBST缓冲液", "500mL")
	consume(t, env, low, "2024-03-01", 95) // 5%
	consume(t, env, mid, "2024-03-01", 400) // 20%

	uc := NewLowStockUseCase(storage.NewLowStockAnalyzer(env.Items), decimal.NewFromInt(10), zap.NewNop())

	t.Run("默认阈值", func(t *testing.T) {
		resp, err := uc.Execute(ctx, LowStockRequest{})
		require.NoError(t, err)
		assert.Equal(t, "10", resp.Threshold.String())
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, "DMSO", resp.Items[0].Item.ProductName)
		assert.Equal(t, "5", resp.Items[0].Percent.String())
		assert.Equal(t, "100", resp.Items[0].OriginalAmount.String())
	})

	t.Run("自定义阈值按百分比升序", func(t *testing.T) {
		threshold := decimal.NewFromInt(25)
		resp, err := uc.Execute(ctx, LowStockRequest{Threshold: &threshold})
		require.NoError(t, err)
		require.Equal(t, 2, resp.Count)
		assert.Equal(t, "DMSO", resp.Items[0].Item.ProductName)
		assert.Equal(t, "无水乙醇", resp.Items[1].Item.ProductName)
	})

	t.Run("负数阈值", func(t *testing.T) {
		threshold := decimal.NewFromInt(-1)
		_, err := uc.Execute(ctx, LowStockRequest{Threshold: &threshold})
		assert.ErrorIs(t, err, storage.ErrInvalidThreshold)
	})
}

func newDashboard(env *apptest.Env) *DashboardUseCase {
	uc := NewDashboardUseCase(env.Items, env.Usages, storage.NewLowStockAnalyzer(env.Items),
		env.Cache, time.Minute, decimal.NewFromInt(10), zap.NewNop())
	uc.now = func() time.Time { return time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC) }
	return uc
}

func TestDashboardUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("统计并写入缓存", func(t *testing.T) {
		env := apptest.NewEnv(t)
		a := env.MustCreate(t, "DMSO", "100mL")
		env.MustCreate(t, "无水乙醇", "500mL")
		consume(t, env, a, "2024-02-28", 50)
		consume(t, env, a, "2024-03-02", 45)

		d, err := newDashboard(env).Execute(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(2), d.TotalItems)
		assert.Equal(t, int64(1), d.LocationCount)
		assert.Equal(t, int64(1), d.MonthlyUsage)
		assert.Equal(t, 1, d.LowStockCount)
		require.Len(t, d.Categories, 1)
		assert.Equal(t, CategoryView{Category: "试剂", Count: 2}, d.Categories[0])
		assert.True(t, env.Cache.Has(notify.DashboardCacheKey))
	})

	t.Run("命中缓存", func(t *testing.T) {
		env := apptest.NewEnv(t)
		env.MustCreate(t, "DMSO", "100mL")
		uc := newDashboard(env)

		first, err := uc.Execute(ctx)
		require.NoError(t, err)

		// 绕过Notifier直接写库，缓存不会失效
		env.MustCreate(t, "无水乙醇", "500mL")
		second, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.TotalItems, second.TotalItems)

		// 变更通知后重新统计
		env.Notifier.Changed(ctx, events.Event{Type: events.StorageCreated})
		third, err := uc.Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), third.TotalItems)
	})

	t.Run("缓存不可用时直接查询", func(t *testing.T) {
		env := apptest.NewEnv(t)
		env.MustCreate(t, "DMSO", "100mL")
		env.Cache.Err = errors.New("redis down")

		d, err := newDashboard(env).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), d.TotalItems)
	})
}

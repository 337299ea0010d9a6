package usage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/application/apptest"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/infrastructure/events"
	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

func TestRecordUsageUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("扣减库存并记录余量", func(t *testing.T) {
		env := apptest.NewEnv(t)
		item := env.MustCreate(t, "无水乙醇", "500mL")
		uc := NewRecordUsageUseCase(env.Service, env.Notifier, zap.NewNop())

		resp, err := uc.Execute(ctx, RecordUsageRequest{
			StorageID: item.ID,
			Person:    "张三",
			Date:      "2024/3/5",
			Amount:    decimal.RequireFromString("0.1"),
			Unit:      item.Unit,
			UserID:    7,
		})
		require.NoError(t, err)

		assert.Equal(t, "499.9", resp.Item.CurrentStock.String())
		assert.Equal(t, "499.9", resp.Record.Remaining.String())
		assert.Equal(t, "2024-03-05", resp.Record.UsageDate)
		require.NotNil(t, resp.Record.UserID)
		assert.Equal(t, uint(7), *resp.Record.UserID)

		ev := env.Publisher.Last()
		assert.Equal(t, events.UsageRecorded, ev.Type)
		assert.Equal(t, resp.Record.ID, ev.RecordID)
		assert.Equal(t, item.ID, ev.StorageID)
	})

	t.Run("未知操作账号不关联用户", func(t *testing.T) {
		env := apptest.NewEnv(t)
		item := env.MustCreate(t, "DMSO", "100mL")
		uc := NewRecordUsageUseCase(env.Service, env.Notifier, zap.NewNop())

		resp, err := uc.Execute(ctx, RecordUsageRequest{
			StorageID: item.ID, Person: "李四", Date: "2024-03-05", Amount: decimal.NewFromInt(1), Unit: item.Unit,
		})
		require.NoError(t, err)
		assert.Nil(t, resp.Record.UserID)
	})

	t.Run("库存不足", func(t *testing.T) {
		env := apptest.NewEnv(t)
		item := env.MustCreate(t, "DMSO", "100mL")
		uc := NewRecordUsageUseCase(env.Service, env.Notifier, zap.NewNop())

		_, err := uc.Execute(ctx, RecordUsageRequest{
			StorageID: item.ID, Person: "李四", Date: "2024-03-05", Amount: decimal.NewFromInt(101), Unit: item.Unit,
		})
		assert.Equal(t, apperrors.ErrCodeInsufficientStock, apperrors.CodeOf(err))
		assert.Empty(t, env.Publisher.Events)
	})

	t.Run("单位不一致", func(t *testing.T) {
		env := apptest.NewEnv(t)
		item := env.MustCreate(t, "DMSO", "100mL")
		uc := NewRecordUsageUseCase(env.Service, env.Notifier, zap.NewNop())

		_, err := uc.Execute(ctx, RecordUsageRequest{
			StorageID: item.ID, Person: "李四", Date: "2024-03-05", Amount: decimal.NewFromInt(1), Unit: "g",
		})
		assert.Equal(t, apperrors.ErrCodeUnitMismatch, apperrors.CodeOf(err))
	})

	t.Run("日期无法解析", func(t *testing.T) {
		env := apptest.NewEnv(t)
		item := env.MustCreate(t, "DMSO", "100mL")
		uc := NewRecordUsageUseCase(env.Service, env.Notifier, zap.NewNop())

		_, err := uc.Execute(ctx, RecordUsageRequest{
			StorageID: item.ID, Person: "李四", Date: "昨天", Amount: decimal.NewFromInt(1), Unit: item.Unit,
		})
		assert.Equal(t, apperrors.ErrCodeDateParseError, apperrors.CodeOf(err))
	})
}

func TestUpdateAndDeleteUsage(t *testing.T) {
	ctx := context.Background()
	env := apptest.NewEnv(t)
	item := env.MustCreate(t, "DMSO", "100mL")

	recorded, err := NewRecordUsageUseCase(env.Service, env.Notifier, zap.NewNop()).Execute(ctx, RecordUsageRequest{
		StorageID: item.ID, Person: "张三", Date: "2024-03-05", Amount: decimal.NewFromInt(10), Unit: item.Unit,
	})
	require.NoError(t, err)
	recordID := recorded.Record.ID

	update := NewUpdateUsageUseCase(env.Service, env.Notifier, zap.NewNop())

	t.Run("增加使用量额外扣减", func(t *testing.T) {
		amount := decimal.NewFromInt(25)
		resp, err := update.Execute(ctx, UpdateUsageRequest{RecordID: recordID, Patch: storage.UsagePatch{Amount: &amount}})
		require.NoError(t, err)
		assert.Equal(t, "75", resp.Item.CurrentStock.String())
		assert.Equal(t, "75", resp.Record.Remaining.String())
		assert.Equal(t, events.UsageUpdated, env.Publisher.Last().Type)
	})

	t.Run("空更新", func(t *testing.T) {
		_, err := update.Execute(ctx, UpdateUsageRequest{RecordID: recordID})
		assert.ErrorIs(t, err, storage.ErrNoValidFields)
	})

	t.Run("超出库存", func(t *testing.T) {
		amount := decimal.NewFromInt(200)
		_, err := update.Execute(ctx, UpdateUsageRequest{RecordID: recordID, Patch: storage.UsagePatch{Amount: &amount}})
		assert.Equal(t, apperrors.ErrCodeInsufficientStock, apperrors.CodeOf(err))
	})

	t.Run("删除记录归还库存", func(t *testing.T) {
		resp, err := NewDeleteUsageUseCase(env.Service, env.Notifier, zap.NewNop()).Execute(ctx, DeleteUsageRequest{RecordID: recordID})
		require.NoError(t, err)
		assert.Equal(t, "100", resp.Item.CurrentStock.String())
		assert.Equal(t, events.UsageDeleted, env.Publisher.Last().Type)
	})

	t.Run("记录不存在", func(t *testing.T) {
		_, err := NewDeleteUsageUseCase(env.Service, env.Notifier, zap.NewNop()).Execute(ctx, DeleteUsageRequest{RecordID: recordID})
		assert.ErrorIs(t, err, storage.ErrRecordNotFound)
	})
}

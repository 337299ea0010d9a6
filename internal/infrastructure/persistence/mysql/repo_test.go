package mysql

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xiebiao/labinventory/internal/domain/quantity"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/domain/user"
	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newItem(name, descriptor, location string) *storage.Item {
	q, err := quantity.Parse(descriptor)
	if err != nil {
		panic(err)
	}
	return storage.NewItem("试剂", name, descriptor, location, "", q)
}

func TestItemRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewItemRepository(db)

	item := newItem("乙醇", "500ml", "A柜")
	require.NoError(t, repo.Create(ctx, item))
	require.NotZero(t, item.ID)

	t.Run("decimal往返不丢精度", func(t *testing.T) {
		item.CurrentStock = decimal.RequireFromString("123.456789")
		require.NoError(t, repo.Update(ctx, item))

		got, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "123.456789", got.CurrentStock.String())
		assert.Equal(t, "ml", got.Unit)
	})

	t.Run("产品名重复", func(t *testing.T) {
		err := repo.Create(ctx, newItem("乙醇", "100ml", "B柜"))
		assert.Equal(t, storage.ErrProductNameDuplicate, err)
	})

	t.Run("不存在", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 9999)
		assert.True(t, errors.Is(err, storage.ErrItemNotFound))

		_, err = repo.LockByID(ctx, 9999)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStorageNotFound))
	})

	t.Run("FindOne忽略空字段", func(t *testing.T) {
		got, err := repo.FindOne(ctx, storage.MatchKeys{ProductName: "乙醇", Location: "A柜"})
		require.NoError(t, err)
		assert.Equal(t, item.ID, got.ID)

		_, err = repo.FindOne(ctx, storage.MatchKeys{ProductName: "乙醇", Location: "C柜"})
		assert.Equal(t, storage.ErrItemNotFound, err)
	})

	t.Run("列表与统计", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newItem("丙酮", "1L", "B柜")))
		other := newItem("氯化钠", "500g", "A柜")
		other.Category = "无机盐"
		require.NoError(t, repo.Create(ctx, other))

		items, total, err := repo.List(ctx, storage.ListParams{Page: 1, PageSize: 10, Location: "A柜", SortBy: "name_asc"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, items, 2)

		items, total, err = repo.List(ctx, storage.ListParams{Page: 1, PageSize: 10, Keyword: "丙"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, "丙酮", items[0].ProductName)

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, stats.TotalItems)
		assert.EqualValues(t, 2, stats.LocationCount)
		assert.Equal(t, []storage.CategoryCount{{Category: "无机盐", Count: 1}, {Category: "试剂", Count: 2}}, stats.CategoryCounts)
	})

	t.Run("物理删除后产品名可复用", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, item.ID))
		assert.Equal(t, storage.ErrItemNotFound, repo.Delete(ctx, item.ID))
		assert.NoError(t, repo.Create(ctx, newItem("乙醇", "500ml", "A柜")))
	})
}

func TestUsageRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	items := NewItemRepository(db)
	usages := NewUsageRepository(db)

	item := newItem("乙醇", "500ml", "A柜")
	require.NoError(t, items.Create(ctx, item))

	dates := []time.Time{
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		r := storage.NewUsageRecord(item, fmt.Sprintf("user%d", i), d, decimal.NewFromInt(10), "ml", "", nil)
		require.NoError(t, usages.Create(ctx, r))
	}

	t.Run("按物品查询", func(t *testing.T) {
		records, err := usages.FindByStorageID(ctx, item.ID)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "user0", records[0].Person)
		assert.Equal(t, "乙醇", records[0].ProductName)
	})

	t.Run("分页按使用日期倒序", func(t *testing.T) {
		records, total, err := usages.ListByStorageID(ctx, item.ID, 1, 2)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, records, 2)
		assert.True(t, records[0].UsageDate.Equal(dates[1]))
		assert.True(t, records[1].UsageDate.Equal(dates[2]))
	})

	t.Run("CountSince", func(t *testing.T) {
		n, err := usages.CountSince(ctx, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	t.Run("批量删除", func(t *testing.T) {
		n, err := usages.DeleteByStorageID(ctx, item.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		_, err = usages.FindByID(ctx, 1)
		assert.Equal(t, storage.ErrRecordNotFound, err)
	})
}

func TestTxManager(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewItemRepository(db)
	tx := NewTxManager(db)

	t.Run("返回错误时回滚", func(t *testing.T) {
		boom := errors.New("boom")
		err := tx.Transaction(ctx, func(ctx context.Context) error {
			if err := repo.Create(ctx, newItem("回滚物品", "1g", "A")); err != nil {
				return err
			}
			return boom
		})
		assert.Equal(t, boom, err)

		_, err = repo.FindByProductName(ctx, "回滚物品")
		assert.Equal(t, storage.ErrItemNotFound, err)
	})

	t.Run("嵌套事务", func(t *testing.T) {
		err := tx.Transaction(ctx, func(ctx context.Context) error {
			if err := repo.Create(ctx, newItem("外层", "1g", "A")); err != nil {
				return err
			}
			// 内层失败只回滚到savepoint
			_ = tx.Transaction(ctx, func(ctx context.Context) error {
				if err := repo.Create(ctx, newItem("内层", "1g", "A")); err != nil {
					return err
				}
				return errors.New("inner")
			})
			return nil
		})
		require.NoError(t, err)

		_, err = repo.FindByProductName(ctx, "外层")
		assert.NoError(t, err)
		_, err = repo.FindByProductName(ctx, "内层")
		assert.Equal(t, storage.ErrItemNotFound, err)
	})
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	u := user.NewUser("alice", "hash", "Alice")
	require.NoError(t, repo.Create(ctx, u))

	t.Run("用户名重复", func(t *testing.T) {
		err := repo.Create(ctx, user.NewUser("alice", "hash", ""))
		assert.Equal(t, apperrors.ErrUsernameDuplicate, err)
	})

	t.Run("更新登录时间", func(t *testing.T) {
		u.MarkLogin(time.Now())
		require.NoError(t, repo.Update(ctx, u))

		got, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.NotNil(t, got.LastLoginAt)
		assert.True(t, got.Active)
	})

	t.Run("软删除", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, u.ID))
		_, err := repo.FindByID(ctx, u.ID)
		assert.Equal(t, apperrors.ErrUserNotFound, err)
	})
}

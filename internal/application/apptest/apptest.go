// Package apptest 应用层测试的公共夹具：内存SQLite上的领域服务、假缓存、记录型事件发布器
package apptest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xiebiao/labinventory/internal/application/notify"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/infrastructure/events"
	"github.com/xiebiao/labinventory/internal/infrastructure/persistence/mysql"
)

// Env 一套完整的测试依赖
type Env struct {
	DB        *gorm.DB
	Items     storage.ItemRepository
	Usages    storage.UsageRepository
	Service   storage.Service
	Cache     *Cache
	Publisher *Publisher
	Notifier  *notify.Notifier
}

// NewEnv 每个测试独立的内存库
func NewEnv(t *testing.T) *Env {
	t.Helper()
	db, err := mysql.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	items := mysql.NewItemRepository(db)
	usages := mysql.NewUsageRepository(db)
	cache := NewCache()
	pub := &Publisher{}
	return &Env{
		DB:        db,
		Items:     items,
		Usages:    usages,
		Service:   storage.NewService(items, usages, mysql.NewTxManager(db)),
		Cache:     cache,
		Publisher: pub,
		Notifier:  notify.NewNotifier(cache, pub, zap.NewNop()),
	}
}

// MustCreate 创建物品，失败直接终止测试
func (e *Env) MustCreate(t *testing.T, name, descriptor string) *storage.Item {
	t.Helper()
	item, err := e.Service.CreateItem(context.Background(), storage.CreateItemInput{
		Category:           "试剂",
		ProductName:        name,
		QuantityDescriptor: descriptor,
		Location:           "4℃冰箱",
	})
	require.NoError(t, err)
	return item
}

// =========================================
// 假缓存
// =========================================

// Cache 内存实现的notify.Cache，值按JSON保存以模拟Redis
type Cache struct {
	mu      sync.Mutex
	data    map[string][]byte
	Deleted []string
	Gets    int
	Err     error
}

func NewCache() *Cache {
	return &Cache{data: make(map[string][]byte)}
}

func (c *Cache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	if c.Err != nil {
		return false, c.Err
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *Cache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.Deleted = append(c.Deleted, keys...)
	return c.Err
}

// Has 缓存中是否存在key
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// =========================================
// 记录型事件发布器
// =========================================

// Publisher 记录所有发布的事件
type Publisher struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
}

func (p *Publisher) Publish(_ context.Context, _ string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := payload.(events.Event); ok {
		p.Events = append(p.Events, ev)
	}
	return p.Err
}

// Types 已发布事件的类型序列
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.Events))
	for _, ev := range p.Events {
		types = append(types, ev.Type)
	}
	return types
}

// Last 最后一个事件
func (p *Publisher) Last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Events) == 0 {
		return events.Event{}
	}
	return p.Events[len(p.Events)-1]
}

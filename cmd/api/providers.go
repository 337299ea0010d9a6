package main

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appinventory "github.com/xiebiao/labinventory/internal/application/inventory"
	"github.com/xiebiao/labinventory/internal/application/notify"
	appstorage "github.com/xiebiao/labinventory/internal/application/storage"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/infrastructure/config"
	"github.com/xiebiao/labinventory/internal/infrastructure/events"
	"github.com/xiebiao/labinventory/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/labinventory/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/labinventory/internal/interface/rpc"
	"github.com/xiebiao/labinventory/pkg/jwt"
	"github.com/xiebiao/labinventory/pkg/logger"
)

// App 组装完成的应用
type App struct {
	Config *config.Config
	Log    *zap.Logger
	Engine *gin.Engine
	Health *rpc.HealthServer
}

// =========================================
// 基础设施
// =========================================

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

func provideDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func provideSQLDB(db *gorm.DB) (*sql.DB, error) {
	return db.DB()
}

func provideRedis(cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// providePublisher MQ连接失败时降级为空发布者，库存操作不受影响
func providePublisher(cfg *config.Config, log *zap.Logger) (events.EventPublisher, func()) {
	pub, err := events.New(cfg, log)
	if err != nil {
		log.Warn("event publisher unavailable, events disabled", zap.Error(err))
		pub = events.NoopPublisher{}
	}
	return pub, func() { _ = pub.Close() }
}

func provideNotifier(cache *redis.JSONCache, pub events.EventPublisher, log *zap.Logger) *notify.Notifier {
	return notify.NewNotifier(cache, pub, log)
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

func provideHealthServer(db *sql.DB, log *zap.Logger) *rpc.HealthServer {
	return rpc.NewHealthServer(db, 10*time.Second, log)
}

// =========================================
// 需要从配置取参数的用例
// =========================================

func provideLowStockUseCase(cfg *config.Config, analyzer *storage.LowStockAnalyzer, log *zap.Logger) *appinventory.LowStockUseCase {
	return appinventory.NewLowStockUseCase(analyzer, cfg.Inventory.Threshold(), log)
}

func provideDashboardUseCase(
	cfg *config.Config,
	items storage.ItemRepository,
	usages storage.UsageRepository,
	analyzer *storage.LowStockAnalyzer,
	cache *redis.JSONCache,
	log *zap.Logger,
) *appinventory.DashboardUseCase {
	return appinventory.NewDashboardUseCase(items, usages, analyzer, cache,
		cfg.Inventory.DashboardCacheTTL, cfg.Inventory.Threshold(), log)
}

func provideImportUseCase(cfg *config.Config, svc storage.Service, n *notify.Notifier, log *zap.Logger) *appstorage.ImportUseCase {
	return appstorage.NewImportUseCase(svc, n, cfg.Inventory.ImportMaxRows, log)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/xiebiao/labinventory/docs"
	appstorage "github.com/xiebiao/labinventory/internal/application/storage"
	"github.com/xiebiao/labinventory/internal/application/usage"
	appuser "github.com/xiebiao/labinventory/internal/application/user"
	"github.com/xiebiao/labinventory/internal/domain/storage"
	"github.com/xiebiao/labinventory/internal/domain/user"
	"github.com/xiebiao/labinventory/internal/infrastructure/config"
	"github.com/xiebiao/labinventory/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/labinventory/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/labinventory/internal/interface/http/handler"
	"github.com/xiebiao/labinventory/internal/interface/http/middleware"
	"github.com/xiebiao/labinventory/internal/interface/http/router"
	"github.com/xiebiao/labinventory/pkg/tracing"
)

// @title           实验室库存管理 API
// @version         1.0
// @description     试剂耗材库存、使用登记、低库存预警
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	app, cleanup, err := newApp(cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer cleanup()

	if err := run(app); err != nil {
		app.Log.Error("server exited", zap.Error(err))
	}
}

// newApp 手动组装依赖，与wire.go中的Provider集合保持一致
// 依赖链：Repository ← Service ← UseCase ← Handler ← Router
func newApp(cfg *config.Config) (*App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// 1. 日志
	zlog, closeLog, err := provideLogger(cfg)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeLog)

	// 2. 存储
	db, closeDB, err := provideDB(cfg, zlog)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeDB)

	sqlDB, err := provideSQLDB(db)
	if err != nil {
		return fail(err)
	}

	redisClient, closeRedis, err := provideRedis(cfg, zlog)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeRedis)

	publisher, closePublisher := providePublisher(cfg, zlog)
	cleanups = append(cleanups, closePublisher)

	// 3. 仓储与领域服务
	itemRepo := mysql.NewItemRepository(db)
	usageRepo := mysql.NewUsageRepository(db)
	storageService := storage.NewService(itemRepo, usageRepo, mysql.NewTxManager(db))
	analyzer := storage.NewLowStockAnalyzer(itemRepo)
	userService := user.NewService(mysql.NewUserRepository(db))

	sessionStore := redis.NewSessionStore(redisClient)
	cache := redis.NewJSONCache(redisClient)
	notifier := provideNotifier(cache, publisher, zlog)
	jwtManager := provideJWTManager(cfg)

	// 4. 用例
	lowStock := provideLowStockUseCase(cfg, analyzer, zlog)
	storageUseCases := handler.StorageUseCases{
		Create:       appstorage.NewCreateItemUseCase(storageService, notifier, zlog),
		Intake:       appstorage.NewIntakeUseCase(storageService, notifier, zlog),
		Update:       appstorage.NewUpdateItemUseCase(storageService, notifier, zlog),
		Restock:      appstorage.NewRestockUseCase(storageService, notifier, zlog),
		BulkUpdate:   appstorage.NewBulkUpdateUseCase(storageService, notifier, zlog),
		Delete:       appstorage.NewDeleteItemUseCase(storageService, notifier, zlog),
		DeletionInfo: appstorage.NewDeletionInfoUseCase(storageService),
		Get:          appstorage.NewGetItemUseCase(storageService),
		List:         appstorage.NewListItemsUseCase(storageService),
		History:      appstorage.NewUsageHistoryUseCase(storageService),
		Import:       provideImportUseCase(cfg, storageService, notifier, zlog),
		Export:       appstorage.NewExportItemsUseCase(storageService),
		ExportUsage:  appstorage.NewExportHistoryUseCase(storageService),
		Template:     appstorage.NewTemplateUseCase(),
		RecordUsage:  usage.NewRecordUsageUseCase(storageService, notifier, zlog),
		LowStock:     lowStock,
	}

	// 5. 接口层
	handlers := router.Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService, zlog),
			appuser.NewLoginUseCase(userService, jwtManager, sessionStore, zlog),
			appuser.NewLogoutUseCase(jwtManager, sessionStore, zlog),
			appuser.NewRefreshTokenUseCase(jwtManager),
		),
		Storage: handler.NewStorageHandler(storageUseCases),
		Record: handler.NewRecordHandler(
			usage.NewUpdateUsageUseCase(storageService, notifier, zlog),
			usage.NewDeleteUsageUseCase(storageService, notifier, zlog),
		),
		Inventory: handler.NewInventoryHandler(
			provideDashboardUseCase(cfg, itemRepo, usageRepo, analyzer, cache, zlog),
			lowStock,
		),
	}
	auth := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	return &App{
		Config: cfg,
		Log:    zlog,
		Engine: router.New(cfg, handlers, auth, zlog),
		Health: provideHealthServer(sqlDB, zlog),
	}, cleanup, nil
}

// run 启动HTTP和gRPC健康检查服务，收到SIGINT/SIGTERM后优雅关闭
func run(app *App) error {
	cfg, zlog := app.Config, app.Log
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 链路追踪
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				zlog.Warn("tracer shutdown failed", zap.Error(err))
			}
		}()
		zlog.Info("tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
	}

	errCh := make(chan error, 2)

	// 2. gRPC健康检查
	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
		if err != nil {
			return fmt.Errorf("监听gRPC端口失败: %w", err)
		}
		go app.Health.Run(ctx)
		go func() {
			zlog.Info("grpc health server started", zap.Int("port", cfg.GRPC.Port))
			if err := app.Health.Serve(lis); err != nil {
				errCh <- err
			}
		}()
		defer app.Health.GracefulStop()
	}

	// 3. HTTP
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		zlog.Info("http server started",
			zap.String("addr", srv.Addr),
			zap.String("mode", cfg.Server.Mode),
			zap.String("db_driver", cfg.Database.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// 4. 优雅关闭，等待进行中的请求
	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP服务关闭失败: %w", err)
	}
	zlog.Info("server stopped")
	return nil
}

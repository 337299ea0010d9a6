//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// main.go中的newApp是同一套依赖的手写版本，新增Provider时两边一起改。
// 生成代码：wire gen ./cmd/api

package main

import (
	"github.com/google/wire"

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
)

// ========================================
// Wire Provider Sets
// ========================================

// infrastructureSet 日志、数据库、Redis、事件发布
var infrastructureSet = wire.NewSet(
	provideLogger,
	provideDB,
	provideSQLDB,
	provideRedis,
	providePublisher,
	redis.NewSessionStore,
	redis.NewJSONCache,
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.Blacklist), new(*redis.SessionStore)),
)

// repositorySet 仓储和事务管理器
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewItemRepository,
	mysql.NewUsageRepository,
	mysql.NewTxManager,
	wire.Bind(new(storage.Transactor), new(*mysql.TxManager)),
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	user.NewService,
	storage.NewService,
	storage.NewLowStockAnalyzer,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	provideNotifier,
	provideJWTManager,

	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewRefreshTokenUseCase,

	appstorage.NewCreateItemUseCase,
	appstorage.NewIntakeUseCase,
	appstorage.NewUpdateItemUseCase,
	appstorage.NewRestockUseCase,
	appstorage.NewBulkUpdateUseCase,
	appstorage.NewDeleteItemUseCase,
	appstorage.NewDeletionInfoUseCase,
	appstorage.NewGetItemUseCase,
	appstorage.NewListItemsUseCase,
	appstorage.NewUsageHistoryUseCase,
	appstorage.NewExportItemsUseCase,
	appstorage.NewExportHistoryUseCase,
	appstorage.NewTemplateUseCase,
	provideImportUseCase,

	usage.NewRecordUsageUseCase,
	usage.NewUpdateUsageUseCase,
	usage.NewDeleteUsageUseCase,

	provideLowStockUseCase,
	provideDashboardUseCase,
)

// interfaceSet HTTP处理器、路由和gRPC健康检查
var interfaceSet = wire.NewSet(
	middleware.NewAuthMiddleware,
	wire.Struct(new(handler.StorageUseCases), "*"),
	handler.NewUserHandler,
	handler.NewStorageHandler,
	handler.NewRecordHandler,
	handler.NewInventoryHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
	provideHealthServer,
)

// InitializeApp Wire注入器
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

package mysql

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/labinventory/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. database.driver选择MySQL（生产）或SQLite（单机/演示）
// 3. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 4. 开发环境开启SQL日志，生产环境关闭
// 5. 自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	// 1. 选择驱动
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.SQLitePath)
	default:
		dialector = mysql.Open(cfg.Database.DSN())
	}

	// 2. 配置GORM日志
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	// 3. 连接数据库
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 4. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		// SQLite同一时间只允许一个写事务
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	// 5. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver))

	// 6. 自动迁移表结构
	// 注意：生产环境应使用专门的迁移工具（如golang-migrate）
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// OpenSQLite 打开SQLite数据库并迁移表结构
// 测试使用内存库: OpenSQLite("file:xxx?mode=memory&cache=shared")
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return db, nil
}

// AutoMigrate 自动迁移表结构
// 学习要点：
// 1. AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
// 2. 生产环境应使用版本化的迁移脚本，不要依赖AutoMigrate
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&StorageItemModel{},
		&UsageRecordModel{},
	)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("未配置的字段使用默认值", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 9000\n")

		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "mysql", cfg.Database.Driver)
		assert.Equal(t, "10", cfg.Inventory.LowStockThreshold)
		assert.Equal(t, 30*time.Second, cfg.Inventory.DashboardCacheTTL)
		assert.Equal(t, 5000, cfg.Inventory.ImportMaxRows)
		assert.Equal(t, "labinventory.events", cfg.MQ.Exchange)
		assert.False(t, cfg.MQ.Enabled)
	})

	t.Run("环境变量覆盖", func(t *testing.T) {
		t.Setenv("LABINV_DATABASE_DRIVER", "sqlite")
		t.Setenv("LABINV_INVENTORY_LOW_STOCK_THRESHOLD", "12.5")
		path := writeConfig(t, "database:\n  driver: mysql\n")

		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "12.5", cfg.Inventory.Threshold().String())
	})

	t.Run("不支持的数据库驱动", func(t *testing.T) {
		path := writeConfig(t, "database:\n  driver: postgres\n")
		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("负数阈值", func(t *testing.T) {
		path := writeConfig(t, "inventory:\n  low_stock_threshold: \"-1\"\n")
		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("生产环境默认密钥", func(t *testing.T) {
		path := writeConfig(t, "server:\n  mode: release\n")
		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		User: "root", Password: "pw", Host: "db", Port: 3306, DBName: "lab",
		Charset: "utf8mb4", ParseTime: true, Loc: "Asia/Shanghai",
	}
	assert.Equal(t, "root:pw@tcp(db:3306)/lab?charset=utf8mb4&parseTime=true&loc=Asia%2FShanghai", d.DSN())
}

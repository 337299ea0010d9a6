// Package logger 构建全局使用的zap日志器
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options 日志配置
type Options struct {
	Level        string // debug | info | warn | error
	Format       string // json | console
	Output       string // stdout | stderr | /path/to/file
	EnableCaller bool
}

// New 根据配置构建zap.Logger，并替换zap全局logger
// 设计说明：
// 1. 生产配置为基础，时间字段统一为ts（ISO8601）
// 2. response.Error等包级函数通过zap.L()使用全局logger
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	if strings.EqualFold(opts.Format, "console") {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = !opts.EnableCaller

	level := opts.Level
	if level == "" {
		level = "info"
	}
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", level, err)
	}

	if opts.Output != "" {
		cfg.OutputPaths = []string{opts.Output}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("创建日志器失败: %w", err)
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}

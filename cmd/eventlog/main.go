// eventlog 订阅库存事件并写入结构化日志
//
// 与API进程使用同一份配置（mq.url、mq.exchange、mq.queue），
// 可以单独部署多个实例，消息在同一队列上负载均衡。
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/internal/infrastructure/config"
	"github.com/xiebiao/labinventory/internal/infrastructure/events"
	"github.com/xiebiao/labinventory/pkg/logger"
	"github.com/xiebiao/labinventory/pkg/mq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if !cfg.MQ.Enabled {
		zlog.Fatal("mq.enabled is false, nothing to consume")
	}

	consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, cfg.MQ.Queue, events.SubscribeKeys, zlog)
	if err != nil {
		zlog.Fatal("connect to rabbitmq failed", zap.Error(err))
	}
	defer func() { _ = consumer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Info("event consumer started",
		zap.String("exchange", cfg.MQ.Exchange),
		zap.String("queue", cfg.MQ.Queue),
		zap.Strings("routing_keys", events.SubscribeKeys),
	)
	if err := consumer.Consume(ctx, events.LogHandler(zlog)); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Error("consumer stopped", zap.Error(err))
		return
	}
	zlog.Info("event consumer stopped")
}

// Package rpc gRPC健康检查服务
//
// 负载均衡器和k8s探针通过grpc.health.v1.Health检查实例状态，
// 数据库不可达时状态切为NOT_SERVING，恢复后自动切回SERVING。
package rpc

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName 健康检查里注册的服务名，空串代表整个实例
const ServiceName = "labinventory.Inventory"

// Pinger 数据库连通性检查（*sql.DB实现）
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer 带数据库探测的gRPC健康检查服务
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	db       Pinger
	interval time.Duration
	log      *zap.Logger
}

// NewHealthServer 创建服务
// interval为探测间隔，<=0时使用10秒
func NewHealthServer(db Pinger, interval time.Duration, log *zap.Logger) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	s := &HealthServer{
		server:   grpc.NewServer(),
		health:   health.NewServer(),
		db:       db,
		interval: interval,
		log:      log,
	}
	healthpb.RegisterHealthServer(s.server, s.health)

	// 注册反射服务（用于grpcurl调试）
	reflection.Register(s.server)
	return s
}

// Probe 探测一次数据库并更新状态
func (s *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.log.Warn("database ping failed", zap.Error(err))
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Run 周期探测，ctx取消后返回
func (s *HealthServer) Run(ctx context.Context) {
	s.Probe(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Serve 在listener上提供服务，阻塞到GracefulStop
func (s *HealthServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// GracefulStop 先把状态切为NOT_SERVING，再等待进行中的请求结束
func (s *HealthServer) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

package rpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type fakeDB struct {
	mu  sync.Mutex
	err error
}

func (f *fakeDB) PingContext(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeDB) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func startServer(t *testing.T, db Pinger) (*HealthServer, healthpb.HealthClient) {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := NewHealthServer(db, 0, zap.NewNop())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return srv, healthpb.NewHealthClient(conn)
}

func TestHealthServer(t *testing.T) {
	db := &fakeDB{}
	srv, client := startServer(t, db)
	ctx := context.Background()

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		return resp.Status
	}

	t.Run("数据库可用", func(t *testing.T) {
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, srv.Probe(ctx))
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(""))
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(ServiceName))
	})

	t.Run("数据库不可达", func(t *testing.T) {
		db.fail(errors.New("connection refused"))
		assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, srv.Probe(ctx))
		assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(ServiceName))
	})

	t.Run("恢复", func(t *testing.T) {
		db.fail(nil)
		srv.Probe(ctx)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(ServiceName))
	})

	t.Run("未知服务", func(t *testing.T) {
		_, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown"})
		assert.Error(t, err)
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := NewHealthServer(&fakeDB{}, 0, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}

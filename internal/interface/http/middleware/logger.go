package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/pkg/metrics"
	"github.com/xiebiao/labinventory/pkg/tracing"
)

// slowRequestThreshold 超过该耗时的请求记warn
const slowRequestThreshold = 3 * time.Second

// Logger 访问日志和HTTP指标
// 1. 生成请求ID(客户端传了X-Request-ID则沿用)
// 2. 请求结束后记录方法、路由、状态码、耗时、客户端IP
// 3. 同时更新请求数、耗时、处理中请求数三个指标
func Logger(log *zap.Logger) gin.HandlerFunc {
	metrics.InitMetrics()
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		metrics.IncGauge(metrics.HTTPRequestsInProgress)
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		metrics.DecGauge(metrics.HTTPRequestsInProgress)

		// 用路由模板做标签，避免/storage/1、/storage/2产生不同的序列
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(latency.Seconds())

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			fields = append(fields,
				zap.String("trace_id", traceID),
				zap.String("span_id", tracing.ExtractSpanID(c.Request.Context())),
			)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if latency > slowRequestThreshold {
			log.Warn("slow request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// Tracing 为每个请求创建根Span，应用层的Span挂在它下面
func Tracing(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), serviceName, c.Request.Method+" "+c.FullPath())
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

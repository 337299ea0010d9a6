// Package metrics 提供基于Prometheus的指标收集
//
// 指标分三类:
//   - HTTP: 请求数、耗时、处理中的请求数（middleware.Logger记录）
//   - 库存业务: 每个用例的执行次数/耗时、低库存物品数、Excel导入行数
//   - 基础设施: 熔断器状态、消息发布/消费
//
// # 使用示例
//
//	metrics.InitMetrics()
//	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	start := time.Now()
//	item, err := svc.RecordUsage(ctx, id, in)
//	metrics.ObserveOperation("record_usage", start, err)
//
// # 命名规范
//
//  1. Counter以`_total`结尾，如`inventory_operations_total`
//  2. Histogram以单位结尾，如`inventory_operation_duration_seconds`
//  3. 标签只用有限取值的维度（operation、result），不要用物品ID
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 操作结果标签
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

var (
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板，如/api/v1/storage/:id）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 库存业务指标

	// InventoryOperationsTotal 库存用例执行次数
	// 标签：operation（create_item/record_usage/...）、result（success/failure/rejected）
	// rejected表示业务规则拒绝（库存不足、单位不一致等4xxxx错误）
	InventoryOperationsTotal *prometheus.CounterVec

	// InventoryOperationDuration 库存用例耗时
	InventoryOperationDuration *prometheus.HistogramVec

	// LowStockItems 最近一次分析得到的低库存物品数
	LowStockItems prometheus.Gauge

	// ExcelImportRows Excel导入行数
	// 标签：result（success/failure）
	ExcelImportRows *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数
	// 标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数
	// 标签：exchange、routing_key、result
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费总数
	// 标签：queue、result
	MessagesConsumedTotal *prometheus.CounterVec

	// MessageProcessingDuration 消息处理耗时
	MessageProcessingDuration prometheus.Histogram
)

// InitMetrics 初始化所有Prometheus指标
// 可以重复调用，只有第一次生效（promauto重复注册会panic）
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	InventoryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_operations_total",
			Help: "库存操作总数",
		},
		[]string{"operation", "result"},
	)

	InventoryOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "inventory_operation_duration_seconds",
			Help: "库存操作耗时（秒）",
			// 单个事务内完成，通常在几毫秒到几十毫秒
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	LowStockItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_low_stock_items",
			Help: "低库存物品数",
		},
	)

	ExcelImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_excel_import_rows_total",
			Help: "Excel导入行数",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key", "result"},
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_consumed_total",
			Help: "消息消费总数",
		},
		[]string{"queue", "result"},
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "message_processing_duration_seconds",
			Help:    "消息处理耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)
}

// ObserveOperation 记录一次库存用例的结果和耗时
// classify把err归类为success/failure/rejected，为nil时err非nil一律算failure
func ObserveOperation(operation string, start time.Time, err error, classify func(error) string) {
	InitMetrics()

	result := ResultSuccess
	if err != nil {
		result = ResultFailure
		if classify != nil {
			result = classify(err)
		}
	}

	InventoryOperationsTotal.WithLabelValues(operation, result).Inc()
	InventoryOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// SetGauge 设置Gauge值
func SetGauge(gauge prometheus.Gauge, value float64) {
	gauge.Set(value)
}

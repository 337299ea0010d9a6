// Package tracing 基于OpenTelemetry的链路追踪
//
// 每个库存用例开一个Span（如storage.RecordUsage），HTTP中间件把TraceID写进访问日志，
// 在Jaeger里按TraceID就能找到一次请求里的全部数据库操作和事件发布。
//
// 未调用InitTracer时otel使用空实现，StartSpan仍然可用，只是不导出数据。
//
// # 使用示例
//
//	shutdown, err := tracing.InitTracer("labinventory", "localhost:4317")
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
//
//	ctx, span := tracing.StartSpan(ctx, "storage", "RecordUsage")
//	defer func() { tracing.EndSpan(span, err) }()
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// InitTracer 初始化全局TracerProvider
//
// 参数：
//   - serviceName: 服务名称（Jaeger UI中按它分组）
//   - endpoint: OTLP gRPC地址，host:port形式（如localhost:4317），不带协议前缀
//
// 返回的shutdown必须在退出前调用，否则最后一批Span会丢失。
func InitTracer(serviceName, endpoint string) (func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 1. OTLP gRPC Exporter（连接是惰性的，collector不在线不会导致启动失败）
	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("创建OTLP exporter失败: %w", err)
	}

	// 2. 资源属性，附加到所有Span
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("创建资源属性失败: %w", err)
	}

	return install(sdktrace.WithBatcher(exporter), res), nil
}

// install 设置全局Provider和W3C上下文传播器
// 测试里用同步的SpanProcessor替换Batcher
func install(processor sdktrace.TracerProviderOption, res *resource.Resource) func(context.Context) error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		processor,
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
}

// StartSpan 创建Span，ctx中已有Span时成为其子Span
// spanName用操作名（RecordUsage），物品ID之类的动态值放到属性里
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// EndSpan 按err设置Span状态并结束
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// ExtractTraceID 从Context提取TraceID（32位十六进制），没有有效Span时返回空串
func ExtractTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// ExtractSpanID 从Context提取SpanID（16位十六进制）
func ExtractSpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}

// Package observe 用例级别的链路追踪和指标
package observe

import (
	"context"
	"time"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
	"github.com/xiebiao/labinventory/pkg/metrics"
	"github.com/xiebiao/labinventory/pkg/tracing"
)

const tracerName = "labinventory/application"

// Start 开始一个用例
// 用法（err必须是命名返回值）：
//
//	func (uc *RecordUsageUseCase) Execute(ctx context.Context, req Request) (resp *Response, err error) {
//	    ctx, done := observe.Start(ctx, "record_usage")
//	    defer func() { done(err) }()
func Start(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, operation)
	return ctx, func(err error) {
		tracing.EndSpan(span, err)
		metrics.ObserveOperation(operation, start, err, Classify)
	}
}

// Classify 4xxxx业务错误记为rejected，其余为failure
func Classify(err error) string {
	if apperrors.IsClientError(err) {
		return metrics.ResultRejected
	}
	return metrics.ResultFailure
}

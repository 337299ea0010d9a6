package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/labinventory/pkg/mq"
)

// LogHandler 把收到的事件写入结构化日志（cmd/eventlog使用）
// 格式错误的消息记录后Ack丢弃，重新入队也无法处理
func LogHandler(log *zap.Logger) mq.Handler {
	return func(_ context.Context, msg mq.Message) error {
		var ev struct {
			Event
			Data json.RawMessage `json:"data,omitempty"`
		}
		if err := json.Unmarshal(msg.Body, &ev); err != nil {
			log.Error("malformed event dropped",
				zap.String("routing_key", msg.RoutingKey),
				zap.ByteString("body", msg.Body),
				zap.Error(err),
			)
			return nil
		}
		if ev.Type == "" {
			ev.Type = msg.RoutingKey
		}

		fields := []zap.Field{
			zap.String("type", ev.Type),
			zap.Time("occurred_at", ev.OccurredAt),
		}
		if ev.UserID != 0 {
			fields = append(fields, zap.Uint("user_id", ev.UserID))
		}
		if ev.StorageID != 0 {
			fields = append(fields, zap.Uint("storage_id", ev.StorageID))
		}
		if ev.RecordID != 0 {
			fields = append(fields, zap.Uint("record_id", ev.RecordID))
		}
		if len(ev.Data) > 0 {
			fields = append(fields, zap.String("data", string(ev.Data)))
		}

		log.Info(fmt.Sprintf("inventory event %s", ev.Type), fields...)
		return nil
	}
}

package events

import (
	"time"
)

// RoutingKey 事件类型，同时作为RabbitMQ的RoutingKey
const (
	StorageCreated   = "storage.created"
	StorageUpdated   = "storage.updated"
	StorageDeleted   = "storage.deleted"
	StorageRestocked = "storage.restocked"
	UsageRecorded    = "usage.recorded"
	UsageUpdated     = "usage.updated"
	UsageDeleted     = "usage.deleted"
)

// SubscribeKeys 事件日志消费者订阅的RoutingKey
var SubscribeKeys = []string{"storage.*", "usage.*"}

// Event 库存事件
// Data是事件相关的视图对象（物品、使用记录、删除结果），消费者按Type解读
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	UserID     uint        `json:"user_id,omitempty"`
	StorageID  uint        `json:"storage_id,omitempty"`
	RecordID   uint        `json:"record_id,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

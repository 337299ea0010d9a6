package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

// JSONCache 以JSON保存的读缓存（仪表盘统计）
type JSONCache struct {
	client *redis.Client
}

// NewJSONCache 创建缓存
func NewJSONCache(client *redis.Client) *JSONCache {
	return &JSONCache{client: client}
}

// GetJSON 读取并反序列化到dest，未命中返回false
func (c *JSONCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.WithCode(apperrors.ErrCodeRedisError, err, "读取缓存失败")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// 结构变化后旧缓存无法解析，按未命中处理
		return false, nil
	}
	return true, nil
}

// SetJSON 序列化后写入
func (c *JSONCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.Wrap(err, "缓存序列化失败")
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeRedisError, err, "写入缓存失败")
	}
	return nil
}

// Delete 删除缓存
func (c *JSONCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeRedisError, err, "删除缓存失败")
	}
	return nil
}

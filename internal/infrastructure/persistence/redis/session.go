package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

// SessionStore 登录会话与Token黑名单
// Key设计：
//   - session:{user_id}          Hash，登录信息，TTL与Refresh Token一致
//   - blacklist:{sha256(token)}  已登出的Access Token，TTL与Access Token一致
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("session:%d", userID)
}

// Token较长，哈希后作为Key
func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "blacklist:" + hex.EncodeToString(sum[:])
}

// SaveSession 保存会话，HSet和Expire在一个事务管道里执行
func (s *SessionStore) SaveSession(ctx context.Context, userID uint, data map[string]interface{}, ttl time.Duration) error {
	key := sessionKey(userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, data)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return apperrors.WithCode(apperrors.ErrCodeRedisError, err, "保存会话失败")
	}
	return nil
}

// GetSession 获取会话，不存在返回ErrUnauthorized
func (s *SessionStore) GetSession(ctx context.Context, userID uint) (map[string]string, error) {
	result, err := s.client.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return nil, apperrors.WithCode(apperrors.ErrCodeRedisError, err, "获取会话失败")
	}
	if len(result) == 0 {
		return nil, apperrors.ErrUnauthorized
	}
	return result, nil
}

// DeleteSession 删除会话（登出）
func (s *SessionStore) DeleteSession(ctx context.Context, userID uint) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeRedisError, err, "删除会话失败")
	}
	return nil
}

// AddToBlacklist Token加入黑名单，ttl<=0时不写入（Token已过期）
func (s *SessionStore) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blacklistKey(token), "revoked", ttl).Err(); err != nil {
		return apperrors.WithCode(apperrors.ErrCodeRedisError, err, "添加Token到黑名单失败")
	}
	return nil
}

// IsInBlacklist 检查Token是否已登出
func (s *SessionStore) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, apperrors.WithCode(apperrors.ErrCodeRedisError, err, "检查黑名单失败")
	}
	return n > 0, nil
}

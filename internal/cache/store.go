package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/D3stinn3/HC/internal/util"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store 基于 Redis 的临时键值存储，所有键都带 TTL
// 客户端由外部注入，不允许包级单例
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func blacklistKey(token string) string {
	return "auth:blacklist:" + token
}

func replayKey(signature string) string {
	return "webhook:seen:" + signature
}

// BlacklistToken 将令牌拉黑，TTL 取令牌剩余有效期
func (s *Store) BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// 已过期的令牌无需拉黑
		return nil
	}
	if err := s.client.Set(ctx, blacklistKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsTokenBlacklisted 判断令牌是否被拉黑
// Redis 不可用时放行并记日志，认证仍由 JWT 签名保证
func (s *Store) IsTokenBlacklisted(ctx context.Context, token string) bool {
	n, err := s.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		util.Logger.Warn("查询令牌黑名单失败", zap.Error(err))
		return false
	}
	return n > 0
}

// MarkWebhookSeen 记录一次回调签名，返回之前是否已见过
// 仅用于观测重放，不改变回调处理逻辑
func (s *Store) MarkWebhookSeen(ctx context.Context, signature string, ttl time.Duration) bool {
	ok, err := s.client.SetNX(ctx, replayKey(signature), "1", ttl).Result()
	if err != nil {
		util.Logger.Warn("记录回调签名失败", zap.Error(err))
		return false
	}
	return !ok
}

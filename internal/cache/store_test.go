package cache

import (
	"context"
	"testing"
	"time"

	"github.com/D3stinn3/HC/internal/util"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	util.InitLogger("error")

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client), mr
}

func TestBlacklistToken(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	err := store.BlacklistToken(ctx, "token-a", time.Minute)
	assert.NoError(t, err)
	assert.True(t, store.IsTokenBlacklisted(ctx, "token-a"))
	assert.False(t, store.IsTokenBlacklisted(ctx, "token-b"))

	// TTL 到期后自动放行
	mr.FastForward(2 * time.Minute)
	assert.False(t, store.IsTokenBlacklisted(ctx, "token-a"))
}

func TestBlacklistExpiredToken(t *testing.T) {
	store, _ := newTestStore(t)

	// 剩余有效期为零的令牌无需写入
	err := store.BlacklistToken(context.Background(), "expired", 0)
	assert.NoError(t, err)
	assert.False(t, store.IsTokenBlacklisted(context.Background(), "expired"))
}

func TestMarkWebhookSeen(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	// 第一次未见过，第二次报已见
	assert.False(t, store.MarkWebhookSeen(ctx, "sig-1", time.Minute))
	assert.True(t, store.MarkWebhookSeen(ctx, "sig-1", time.Minute))

	// 标记过期后重新计
	mr.FastForward(2 * time.Minute)
	assert.False(t, store.MarkWebhookSeen(ctx, "sig-1", time.Minute))
}

func TestStoreFailsOpen(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	// Redis 不可用时黑名单放行、重放标记按未见处理
	assert.False(t, store.IsTokenBlacklisted(context.Background(), "token-a"))
	assert.False(t, store.MarkWebhookSeen(context.Background(), "sig-1", time.Minute))
}

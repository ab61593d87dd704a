// internal/locking/redis.go
package locking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vernont/internal/pkg/apperr"
)

const lockKeyPrefix = "lock:{"

// releaseScript 只有持有者（token 匹配）才能删除锁，
// 防止 TTL 过期后误删其他进程新抢到的锁。
var releaseScript = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
else
    return 0
end
`)

// RedisLocker 基于 Redis SET NX PX 实现 Locker。
type RedisLocker struct {
	client *redis.Client
	// retryInterval 是抢锁失败后的轮询间隔。
	retryInterval time.Duration
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client:        client,
		retryInterval: 50 * time.Millisecond,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, wait, ttl time.Duration) (Handle, error) {
	token := uuid.NewString()
	redisKey := lockKeyPrefix + key + "}"
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &redisHandle{client: l.client, key: key, redisKey: redisKey, token: token}, nil
		}

		if time.Now().After(deadline) {
			return nil, &apperr.LockTimeoutError{Key: key, Wait: wait}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}
}

type redisHandle struct {
	client   *redis.Client
	key      string
	redisKey string
	token    string
}

func (h *redisHandle) Key() string { return h.key }

func (h *redisHandle) Release(ctx context.Context) error {
	// token 不匹配（锁已过期、被他人持有）时脚本返回 0，视为幂等释放。
	return releaseScript.Run(ctx, h.client, []string{h.redisKey}, h.token).Err()
}

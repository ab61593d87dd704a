// internal/locking/locker.go

// Package locking 提供 saga 引擎所需的分布式锁抽象。
// 锁必须支持有限等待（抢不到就快速失败）和 TTL
// （持有者崩溃后锁自动过期，购物车不会被永久锁死）。
package locking

import (
	"context"
	"time"
)

// Handle 代表一次成功的加锁，释放时必须使用同一个 Handle。
type Handle interface {
	// Key 返回锁定的资源标识，例如 "cart:<id>"。
	Key() string
	// Release 释放锁。重复释放应当是幂等的。
	Release(ctx context.Context) error
}

// Locker 是分布式锁服务的出站端口。
// 在 wait 时间内抢不到锁时返回 *apperr.LockTimeoutError。
type Locker interface {
	Acquire(ctx context.Context, key string, wait, ttl time.Duration) (Handle, error)
}

package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/inventory-reservation/pkg/errors"
)

// SweepLockKey 过期清理锁的key，cmd/api和cmd/sweep共用
const SweepLockKey = "inventory:reaper:lock"

// releaseScript 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SweepLock 过期清理的分布式锁
// 设计说明：
// 1. 多副本部署时，同一时刻只有一个副本执行过期清理
// 2. SET key token NX PX ttl 加锁，token区分持有者
// 3. 释放时用Lua脚本比较token再删除，避免误删其他副本在锁过期后拿到的锁
// 4. 锁只减少重复工作，正确性由预留单的条件更新保证
type SweepLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewSweepLock 创建清理锁
func NewSweepLock(client *redis.Client, key string, ttl time.Duration) *SweepLock {
	return &SweepLock{client: client, key: key, ttl: ttl}
}

// TryLock 加锁，拿不到锁时ok=false；release释放锁
func (l *SweepLock) TryLock(ctx context.Context) (release func(), ok bool, err error) {
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "获取清理锁失败")
	}
	if !acquired {
		return nil, false, nil
	}

	release = func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
	}
	return release, true, nil
}

package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
)

const lockKey = "dapomaster:validation:engine_lock"

// releaseScript deletes the lock only if this process still owns it, so an
// instance that outlived its TTL cannot release a peer's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock shares the engine lock across instances with SET NX and a TTL.
// The TTL bounds how long a crashed holder can block its peers.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisLock(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLock{client: client, ttl: ttl, logger: logger}
}

func (l *RedisLock) TryAcquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sentinel.ErrBusy
	}
	release := func() {
		// Release outlives the request context.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil && l.logger != nil {
			l.logger.Warn("failed to release engine lock", "error", err)
		}
	}
	return release, nil
}

package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when the holder matches, so a run that
// outlived its TTL cannot release a lock reacquired by a newer run.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// RedisLock backs the per-driver guard with SET NX so multiple orchestrator
// instances exclude each other. The TTL covers the run timeout plus grace so
// a crashed instance frees its drivers without intervention.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, ttl: ttl}
}

func key(driverID string) string {
	return "driveli:verification:lock:" + driverID
}

func (l *RedisLock) Acquire(ctx context.Context, driverID, workflowID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, key(driverID), workflowID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock for %s: %w", driverID, err)
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context, driverID, workflowID string) error {
	if err := releaseScript.Run(ctx, l.client, []string{key(driverID)}, workflowID).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release lock for %s: %w", driverID, err)
	}
	return nil
}

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/repository"
)

// RedisRefreshLocker implements RefreshLocker using SET NX with a TTL.
type RedisRefreshLocker struct {
	client redis.UniversalClient
}

var _ repository.RefreshLocker = (*RedisRefreshLocker)(nil)

// NewRedisRefreshLocker constructs a Redis-backed refresh lock.
func NewRedisRefreshLocker(client redis.UniversalClient) *RedisRefreshLocker {
	return &RedisRefreshLocker{client: client}
}

// releaseScript deletes the lock only when still held by this owner.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// AcquireRefreshLock takes the per-(user, platform) refresh mutex. When the
// lock is already held, acquired is false and release is a no-op.
func (l *RedisRefreshLocker) AcquireRefreshLock(ctx context.Context, userID string, platform domain.Platform, ttl time.Duration) (func(), bool, error) {
	key := fmt.Sprintf("oauth:refresh-lock:%s:%s", userID, platform)
	owner := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire refresh lock: %w", err)
	}
	if !ok {
		return func() {}, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, owner).Err()
	}
	return release, true, nil
}

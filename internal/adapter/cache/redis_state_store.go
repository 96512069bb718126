package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/repository"
)

// RedisStateStore implements StateStore backed by Redis. State entries are
// keyed by (user, platform) so each user holds at most one live
// authorization attempt per platform.
type RedisStateStore struct {
	client redis.UniversalClient
}

var _ repository.StateStore = (*RedisStateStore)(nil)

// NewRedisStateStore constructs a Redis-backed state store.
func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// SaveState stores the encoded authorization request with TTL, replacing any
// previous attempt for the same (user, platform).
func (s *RedisStateStore) SaveState(ctx context.Context, userID string, platform domain.Platform, req domain.AuthorizationRequest, ttl time.Duration) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(userID, platform), payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// ConsumeState atomically loads and deletes the stored request. A second call
// for the same (user, platform) returns nil: replayed callbacks fail state
// validation.
func (s *RedisStateStore) ConsumeState(ctx context.Context, userID string, platform domain.Platform) (*domain.AuthorizationRequest, error) {
	bytes, err := s.client.GetDel(ctx, stateKey(userID, platform)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load state: %w", err)
	}
	var req domain.AuthorizationRequest
	if err := json.Unmarshal(bytes, &req); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &req, nil
}

func stateKey(userID string, platform domain.Platform) string {
	return fmt.Sprintf("oauth:state:%s:%s", userID, platform)
}

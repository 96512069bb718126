package repository

import (
	"context"
	"time"

	"github.com/marketloom/socialconnect/internal/domain"
)

// StateStore persists short-lived authorization state/verifier structures.
// ConsumeState must remove the entry atomically on first read.
type StateStore interface {
	SaveState(ctx context.Context, userID string, platform domain.Platform, req domain.AuthorizationRequest, ttl time.Duration) error
	ConsumeState(ctx context.Context, userID string, platform domain.Platform) (*domain.AuthorizationRequest, error)
}

// ConnectionRepository handles durable token record persistence. Save must be
// a single atomic upsert keyed by (user, platform).
type ConnectionRepository interface {
	Save(ctx context.Context, record domain.TokenRecord) (domain.TokenRecord, error)
	Get(ctx context.Context, userID string, platform domain.Platform) (*domain.TokenRecord, error)
	ListPlatforms(ctx context.Context, userID string) ([]domain.Platform, error)
	Remove(ctx context.Context, userID string, platform domain.Platform) error
	UpdateTokens(ctx context.Context, userID string, platform domain.Platform, accessToken, refreshToken string, expiresAt, refreshedAt time.Time) (*domain.TokenRecord, error)
}

// RefreshLocker serializes token refresh per (user, platform) so a stale
// refresh response cannot clobber a newer token.
type RefreshLocker interface {
	AcquireRefreshLock(ctx context.Context, userID string, platform domain.Platform, ttl time.Duration) (release func(), acquired bool, err error)
}

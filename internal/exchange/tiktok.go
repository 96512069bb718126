package exchange

import (
	"context"

	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/platform"
)

// tiktokStrategy maps TikTok's open_id into the account identity. TikTok
// reports no scope field, so the catalog scope string is used.
type tiktokStrategy struct {
	x *Exchanger
}

func (s tiktokStrategy) Exchange(ctx context.Context, desc platform.Descriptor, in Input) (*domain.ExchangeResult, error) {
	payload, err := s.x.requestToken(ctx, desc, authorizationCodeGrant(desc, in))
	if err != nil {
		return nil, err
	}

	openID := stringValue(payload.Raw["open_id"])
	if openID == "" {
		openID = "unknown"
	}
	return &domain.ExchangeResult{
		AccountID:    openID,
		AccountName:  openID,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
		Scope:        desc.ScopeString(),
	}, nil
}

func (s tiktokStrategy) Refresh(ctx context.Context, desc platform.Descriptor, refreshToken string) (*domain.ExchangeResult, error) {
	payload, err := s.x.requestToken(ctx, desc, refreshTokenGrant(desc, refreshToken))
	if err != nil {
		return nil, err
	}
	return &domain.ExchangeResult{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
		Scope:        desc.ScopeString(),
	}, nil
}

package exchange

import (
	"context"

	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/platform"
)

// snapchatStrategy has no profile endpoint; the connection carries a fixed
// placeholder identity.
type snapchatStrategy struct {
	x *Exchanger
}

func (s snapchatStrategy) Exchange(ctx context.Context, desc platform.Descriptor, in Input) (*domain.ExchangeResult, error) {
	payload, err := s.x.requestToken(ctx, desc, authorizationCodeGrant(desc, in))
	if err != nil {
		return nil, err
	}
	return &domain.ExchangeResult{
		AccountID:    "snapchat-user",
		AccountName:  "Snapchat Account",
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
		Scope:        desc.ScopeString(),
	}, nil
}

func (s snapchatStrategy) Refresh(ctx context.Context, desc platform.Descriptor, refreshToken string) (*domain.ExchangeResult, error) {
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

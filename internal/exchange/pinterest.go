package exchange

import (
	"context"

	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/platform"
)

// pinterestStrategy has no profile endpoint; the connection carries a fixed
// placeholder identity.
type pinterestStrategy struct {
	x *Exchanger
}

func (s pinterestStrategy) Exchange(ctx context.Context, desc platform.Descriptor, in Input) (*domain.ExchangeResult, error) {
	payload, err := s.x.requestToken(ctx, desc, authorizationCodeGrant(desc, in))
	if err != nil {
		return nil, err
	}
	return &domain.ExchangeResult{
		AccountID:    "pinterest-user",
		AccountName:  "Pinterest Account",
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
		Scope:        desc.ScopeString(),
	}, nil
}

func (s pinterestStrategy) Refresh(ctx context.Context, desc platform.Descriptor, refreshToken string) (*domain.ExchangeResult, error) {
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

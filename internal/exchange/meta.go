package exchange

import (
	"context"

	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/platform"
)

// metaStrategy covers the Graph API family (meta, facebook, instagram).
// None of these expose a profile endpoint usable with the short-lived
// exchange token, so identity stays a placeholder; the token itself is what
// the publishing pipeline needs.
type metaStrategy struct {
	x *Exchanger
}

func (s metaStrategy) Exchange(ctx context.Context, desc platform.Descriptor, in Input) (*domain.ExchangeResult, error) {
	payload, err := s.x.requestToken(ctx, desc, authorizationCodeGrant(desc, in))
	if err != nil {
		return nil, err
	}

	accountID := stringValue(payload.Raw["user_id"])
	if accountID == "" {
		accountID = "unknown"
	}
	scope := payload.Scope
	if scope == "" {
		scope = desc.ScopeString()
	}
	return &domain.ExchangeResult{
		AccountID:    accountID,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
		Scope:        scope,
	}, nil
}

func (s metaStrategy) Refresh(ctx context.Context, desc platform.Descriptor, refreshToken string) (*domain.ExchangeResult, error) {
	payload, err := s.x.requestToken(ctx, desc, refreshTokenGrant(desc, refreshToken))
	if err != nil {
		return nil, err
	}
	return &domain.ExchangeResult{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
		Scope:        payload.Scope,
	}, nil
}

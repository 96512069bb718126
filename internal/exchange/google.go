package exchange

import (
	"context"

	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/platform"
)

// googleStrategy covers Google-hosted platforms (youtube). Google returns
// the standard token fields and exposes a userinfo endpoint.
type googleStrategy struct {
	x *Exchanger
}

func (s googleStrategy) Exchange(ctx context.Context, desc platform.Descriptor, in Input) (*domain.ExchangeResult, error) {
	payload, err := s.x.requestToken(ctx, desc, authorizationCodeGrant(desc, in))
	if err != nil {
		return nil, err
	}

	result := &domain.ExchangeResult{
		AccountID:    "unknown",
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
		Scope:        payload.Scope,
	}
	if result.Scope == "" {
		result.Scope = desc.ScopeString()
	}

	if profile := s.x.fetchProfile(ctx, desc, payload.AccessToken); profile != nil {
		result.AccountID = stringValue(profile["id"])
		result.Email = stringValue(profile["email"])
		result.AccountName = stringValue(profile["name"])
		if result.AccountName == "" {
			result.AccountName = result.Email
		}
		if result.AccountID == "" {
			result.AccountID = "unknown"
		}
	}
	return result, nil
}

func (s googleStrategy) Refresh(ctx context.Context, desc platform.Descriptor, refreshToken string) (*domain.ExchangeResult, error) {
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

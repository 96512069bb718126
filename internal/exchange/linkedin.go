package exchange

import (
	"context"
	"strings"

	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/platform"
)

// linkedinStrategy assembles the account name from LinkedIn's localized
// first/last name fields.
type linkedinStrategy struct {
	x *Exchanger
}

func (s linkedinStrategy) Exchange(ctx context.Context, desc platform.Descriptor, in Input) (*domain.ExchangeResult, error) {
	payload, err := s.x.requestToken(ctx, desc, authorizationCodeGrant(desc, in))
	if err != nil {
		return nil, err
	}

	result := &domain.ExchangeResult{
		AccountID:    "unknown",
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
		Scope:        desc.ScopeString(),
	}

	if profile := s.x.fetchProfile(ctx, desc, payload.AccessToken); profile != nil {
		first := stringValue(profile["localizedFirstName"])
		last := stringValue(profile["localizedLastName"])
		result.AccountName = strings.TrimSpace(first + " " + last)
		if id := stringValue(profile["id"]); id != "" {
			result.AccountID = id
		}
	}
	return result, nil
}

func (s linkedinStrategy) Refresh(ctx context.Context, desc platform.Descriptor, refreshToken string) (*domain.ExchangeResult, error) {
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

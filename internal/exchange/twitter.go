package exchange

import (
	"context"

	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/platform"
)

// twitterStrategy handles the X/Twitter divergence: HTTP Basic client auth
// with a form-encoded body and a mandatory PKCE code_verifier. The profile
// comes from /2/users/me, which nests the user under "data".
type twitterStrategy struct {
	x *Exchanger
}

func (s twitterStrategy) Exchange(ctx context.Context, desc platform.Descriptor, in Input) (*domain.ExchangeResult, error) {
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
		if data, ok := profile["data"].(map[string]any); ok {
			result.AccountID = stringValue(data["id"])
			result.AccountName = stringValue(data["username"])
			if result.AccountName == "" {
				result.AccountName = stringValue(data["name"])
			}
			if result.AccountID == "" {
				result.AccountID = "unknown"
			}
		}
	}
	return result, nil
}

func (s twitterStrategy) Refresh(ctx context.Context, desc platform.Descriptor, refreshToken string) (*domain.ExchangeResult, error) {
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

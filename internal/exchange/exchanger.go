// Package exchange performs the server-side authorization-code and refresh
// token exchanges against each platform's token endpoint. This is the only
// code path with access to client secrets; nothing here ever logs token or
// secret values.
package exchange

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/platform"
)

// Input carries the callback parameters needed for a code exchange.
type Input struct {
	Code         string
	CodeVerifier string
	RedirectURI  string
}

// Strategy owns one provider family's field mapping and auth quirks.
type Strategy interface {
	Exchange(ctx context.Context, desc platform.Descriptor, in Input) (*domain.ExchangeResult, error)
	Refresh(ctx context.Context, desc platform.Descriptor, refreshToken string) (*domain.ExchangeResult, error)
}

// Exchanger dispatches exchanges to per-platform strategies through the
// registry.
type Exchanger struct {
	registry   *platform.Registry
	httpClient *http.Client
	logger     *zap.Logger
	strategies map[domain.Platform]Strategy
}

// New constructs the exchanger. A nil client gets a bounded-timeout default;
// provider calls must never hang a callback indefinitely.
func New(registry *platform.Registry, client *http.Client, logger *zap.Logger) *Exchanger {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.L()
	}
	e := &Exchanger{
		registry:   registry,
		httpClient: client,
		logger:     logger,
	}
	google := googleStrategy{e}
	meta := metaStrategy{e}
	e.strategies = map[domain.Platform]Strategy{
		domain.PlatformYouTube:   google,
		domain.PlatformMeta:      meta,
		domain.PlatformFacebook:  meta,
		domain.PlatformInstagram: meta,
		domain.PlatformTikTok:    tiktokStrategy{e},
		domain.PlatformTwitter:   twitterStrategy{e},
		domain.PlatformLinkedIn:  linkedinStrategy{e},
		domain.PlatformPinterest: pinterestStrategy{e},
		domain.PlatformSnapchat:  snapchatStrategy{e},
	}
	return e
}

// Exchange swaps an authorization code for tokens and a normalized identity.
func (e *Exchanger) Exchange(ctx context.Context, p domain.Platform, in Input) (*domain.ExchangeResult, error) {
	desc, err := e.registry.DescriptorFor(p)
	if err != nil {
		return nil, err
	}
	strategy, ok := e.strategies[desc.Platform]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, domain.ErrUnsupportedPlatform)
	}
	return strategy.Exchange(ctx, desc, in)
}

// Refresh swaps a refresh token for a new access token.
func (e *Exchanger) Refresh(ctx context.Context, p domain.Platform, refreshToken string) (*domain.ExchangeResult, error) {
	desc, err := e.registry.DescriptorFor(p)
	if err != nil {
		return nil, err
	}
	strategy, ok := e.strategies[desc.Platform]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, domain.ErrUnsupportedPlatform)
	}
	return strategy.Refresh(ctx, desc, refreshToken)
}

// tokenPayload holds the fields common to every provider's token response
// plus the raw body for strategy-specific lookups.
type tokenPayload struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	Scope        string
	Raw          map[string]any
}

// requestToken posts the grant to the platform token endpoint using the
// descriptor's request style and fails with TokenExchangeError when the
// provider returns an error or no access token.
func (e *Exchanger) requestToken(ctx context.Context, desc platform.Descriptor, grant url.Values) (*tokenPayload, error) {
	var req *http.Request
	var err error

	switch desc.RequestStyle {
	case platform.TokenRequestBasicForm:
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, desc.TokenURL, strings.NewReader(grant.Encode()))
		if err != nil {
			return nil, fmt.Errorf("build token request: %w", err)
		}
		basic := base64.StdEncoding.EncodeToString([]byte(desc.ClientID + ":" + desc.ClientSecret))
		req.Header.Set("Authorization", "Basic "+basic)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		body := make(map[string]string, len(grant))
		for k := range grant {
			body[k] = grant.Get(k)
		}
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode token request: %w", err)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, desc.TokenURL, bytes.NewReader(encoded))
		if err != nil {
			return nil, fmt.Errorf("build token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TokenExchangeError{Platform: desc.Platform, ProviderError: "token endpoint unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &domain.TokenExchangeError{Platform: desc.Platform, ProviderError: "unreadable token response", Err: err}
	}

	raw := map[string]any{}
	_ = json.Unmarshal(body, &raw)

	if resp.StatusCode >= 300 {
		return nil, &domain.TokenExchangeError{Platform: desc.Platform, ProviderError: providerError(raw, resp.StatusCode)}
	}

	payload := &tokenPayload{
		AccessToken:  stringValue(raw["access_token"]),
		RefreshToken: stringValue(raw["refresh_token"]),
		ExpiresIn:    int64Value(raw["expires_in"]),
		Scope:        stringValue(raw["scope"]),
		Raw:          raw,
	}
	if payload.AccessToken == "" {
		return nil, &domain.TokenExchangeError{Platform: desc.Platform, ProviderError: providerError(raw, resp.StatusCode)}
	}
	return payload, nil
}

// authorizationCodeGrant assembles the standard exchange form.
func authorizationCodeGrant(desc platform.Descriptor, in Input) url.Values {
	grant := url.Values{}
	grant.Set("grant_type", "authorization_code")
	grant.Set("code", in.Code)
	grant.Set("redirect_uri", in.RedirectURI)
	if desc.RequestStyle != platform.TokenRequestBasicForm {
		grant.Set("client_id", desc.ClientID)
		grant.Set("client_secret", desc.ClientSecret)
	}
	if in.CodeVerifier != "" {
		grant.Set("code_verifier", in.CodeVerifier)
	}
	return grant
}

// refreshTokenGrant assembles the standard refresh form.
func refreshTokenGrant(desc platform.Descriptor, refreshToken string) url.Values {
	grant := url.Values{}
	grant.Set("grant_type", "refresh_token")
	grant.Set("refresh_token", refreshToken)
	if desc.RequestStyle != platform.TokenRequestBasicForm {
		grant.Set("client_id", desc.ClientID)
		grant.Set("client_secret", desc.ClientSecret)
	}
	return grant
}

// fetchProfile performs the best-effort userinfo GET. Callers treat a nil map
// as "profile unavailable" and fall back to placeholder identity.
func (e *Exchanger) fetchProfile(ctx context.Context, desc platform.Descriptor, accessToken string) map[string]any {
	if desc.UserInfoURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.UserInfoURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Warn("userinfo fetch failed", zap.String("platform", string(desc.Platform)), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || resp.StatusCode >= 300 {
		e.logger.Warn("userinfo fetch failed",
			zap.String("platform", string(desc.Platform)),
			zap.Int("status", resp.StatusCode))
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		e.logger.Warn("userinfo decode failed", zap.String("platform", string(desc.Platform)), zap.Error(err))
		return nil
	}
	return raw
}

// providerError builds a safe, secret-free description of a failed exchange.
func providerError(raw map[string]any, status int) string {
	if desc := stringValue(raw["error_description"]); desc != "" {
		return desc
	}
	if msg := stringValue(raw["error_message"]); msg != "" {
		return msg
	}
	if code := stringValue(raw["error"]); code != "" {
		return code
	}
	return fmt.Sprintf("token endpoint returned status %d", status)
}

func stringValue(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func int64Value(input any) int64 {
	switch v := input.(type) {
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

package authorize

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"github.com/marketloom/socialconnect/internal/config"
	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/platform"
	"github.com/marketloom/socialconnect/internal/repository"
)

// Builder constructs provider authorization URLs and persists the anti-CSRF
// state before handing the URL back. No network calls.
type Builder struct {
	registry   *platform.Registry
	stateStore repository.StateStore
	baseURL    string
	stateTTL   time.Duration
}

// Output carries the prepared authorization URL and its bound state token.
type Output struct {
	AuthorizationURL string
	State            string
}

// NewBuilder wires the URL builder.
func NewBuilder(registry *platform.Registry, stateStore repository.StateStore, cfg config.Config) *Builder {
	return &Builder{
		registry:   registry,
		stateStore: stateStore,
		baseURL:    cfg.AppBaseURL,
		stateTTL:   cfg.StateTTL,
	}
}

// RedirectURI returns the fixed callback location for a platform.
func (b *Builder) RedirectURI(p domain.Platform) string {
	return fmt.Sprintf("%s/auth/%s/callback", b.baseURL, p)
}

// Build generates state (and a PKCE pair where the platform requires one),
// stores them keyed by (user, platform), and returns the consent URL.
func (b *Builder) Build(ctx context.Context, userID string, p domain.Platform) (*Output, error) {
	desc, err := b.registry.DescriptorFor(p)
	if err != nil {
		return nil, err
	}

	state, err := randomToken(24)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	redirect := b.RedirectURI(desc.Platform)
	authURL, err := url.Parse(desc.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("parse auth url: %w", err)
	}

	params := authURL.Query()
	params.Set("client_id", desc.ClientID)
	params.Set("redirect_uri", redirect)
	params.Set("scope", desc.ScopeString())
	params.Set("response_type", "code")
	params.Set("state", state)
	for k, v := range desc.ExtraParams {
		params.Set(k, v)
	}

	req := domain.AuthorizationRequest{
		State:       state,
		Platform:    desc.Platform,
		RedirectURI: redirect,
		CreatedAt:   time.Now().UTC(),
	}

	if desc.RequiresPKCE {
		verifier, err := randomToken(64)
		if err != nil {
			return nil, fmt.Errorf("generate pkce verifier: %w", err)
		}
		req.CodeVerifier = verifier
		params.Set("code_challenge", pkceChallenge(verifier))
		params.Set("code_challenge_method", "S256")
	}
	authURL.RawQuery = params.Encode()

	// State goes to the store before the URL leaves this process, so the
	// callback always has something to validate against.
	if err := b.stateStore.SaveState(ctx, userID, desc.Platform, req, b.stateTTL); err != nil {
		return nil, fmt.Errorf("persist state: %w", err)
	}

	return &Output{AuthorizationURL: authURL.String(), State: state}, nil
}

func randomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

package platform

import (
	"fmt"
	"strings"

	"github.com/marketloom/socialconnect/internal/config"
	"github.com/marketloom/socialconnect/internal/domain"
)

// TokenRequestStyle describes how a platform's token endpoint wants the
// exchange request encoded.
type TokenRequestStyle int

const (
	// TokenRequestJSON posts a JSON body with client credentials inline.
	TokenRequestJSON TokenRequestStyle = iota
	// TokenRequestBasicForm posts form-encoded with HTTP Basic client auth.
	TokenRequestBasicForm
)

// Descriptor is the static OAuth catalog entry for one platform.
type Descriptor struct {
	Platform     domain.Platform
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	ScopeDelim   string
	RequestStyle TokenRequestStyle
	RequiresPKCE bool
	ExtraParams  map[string]string

	ClientIDEnv     string
	ClientSecretEnv string
	ClientID        string
	ClientSecret    string
}

// ScopeString joins the descriptor scopes with the platform's delimiter.
func (d Descriptor) ScopeString() string {
	return strings.Join(d.Scopes, d.ScopeDelim)
}

// Registry is the static platform catalog with credentials resolved once at
// construction. Descriptors are never mutated after New returns.
type Registry struct {
	descriptors map[domain.Platform]Descriptor
}

// New builds the registry and binds each descriptor to the credentials
// configured for its platform.
func New(cfg config.Config) *Registry {
	descriptors := make(map[domain.Platform]Descriptor, len(catalog))
	for _, d := range catalog {
		prefix := strings.ToUpper(string(d.Platform))
		d.ClientIDEnv = prefix + "_CLIENT_ID"
		d.ClientSecretEnv = prefix + "_CLIENT_SECRET"
		if creds, ok := cfg.Platforms[d.Platform]; ok {
			d.ClientID = creds.ClientID
			d.ClientSecret = creds.ClientSecret
		}
		descriptors[d.Platform] = d
	}
	return &Registry{descriptors: descriptors}
}

// DescriptorFor returns the catalog entry for a platform id.
func (r *Registry) DescriptorFor(platform domain.Platform) (Descriptor, error) {
	d, ok := r.descriptors[domain.Platform(strings.ToLower(string(platform)))]
	if !ok {
		return Descriptor{}, fmt.Errorf("%s: %w", platform, domain.ErrUnsupportedPlatform)
	}
	return d, nil
}

// List returns every descriptor in catalog order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(domain.Platforms))
	for _, p := range domain.Platforms {
		out = append(out, r.descriptors[p])
	}
	return out
}

var catalog = []Descriptor{
	{
		Platform:    domain.PlatformYouTube,
		AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL:    "https://oauth2.googleapis.com/token",
		UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		Scopes: []string{
			"https://www.googleapis.com/auth/youtube.readonly",
			"https://www.googleapis.com/auth/youtube.upload",
		},
		ScopeDelim:  " ",
		ExtraParams: map[string]string{"access_type": "offline", "prompt": "consent"},
	},
	{
		Platform: domain.PlatformMeta,
		AuthURL:  "https://www.facebook.com/v18.0/dialog/oauth",
		TokenURL: "https://graph.instagram.com/v18.0/oauth/access_token",
		Scopes: []string{
			"pages_manage_posts",
			"pages_read_engagement",
			"instagram_basic",
			"instagram_manage_insights",
		},
		ScopeDelim:  ",",
		ExtraParams: map[string]string{"display": "popup"},
	},
	{
		Platform:   domain.PlatformFacebook,
		AuthURL:    "https://www.facebook.com/v18.0/dialog/oauth",
		TokenURL:   "https://graph.facebook.com/v18.0/oauth/access_token",
		Scopes:     []string{"pages_manage_posts", "pages_read_engagement"},
		ScopeDelim: ",",
	},
	{
		Platform:   domain.PlatformInstagram,
		AuthURL:    "https://api.instagram.com/oauth/authorize",
		TokenURL:   "https://graph.instagram.com/v18.0/oauth/access_token",
		Scopes:     []string{"instagram_business_basic", "instagram_business_content_publish"},
		ScopeDelim: ",",
	},
	{
		Platform:   domain.PlatformTikTok,
		AuthURL:    "https://www.tiktok.com/oauth/authorize",
		TokenURL:   "https://open.tiktokapis.com/v1/oauth/token",
		Scopes:     []string{"user.info.basic", "video.list", "video.publish"},
		ScopeDelim: ",",
	},
	{
		Platform:     domain.PlatformTwitter,
		AuthURL:      "https://twitter.com/i/oauth2/authorize",
		TokenURL:     "https://token.twitter.com/2/oauth2/token",
		UserInfoURL:  "https://api.twitter.com/2/users/me",
		Scopes:       []string{"tweet.moderate.write", "tweet.write", "tweet.read", "users.read"},
		ScopeDelim:   " ",
		RequestStyle: TokenRequestBasicForm,
		RequiresPKCE: true,
	},
	{
		Platform:    domain.PlatformLinkedIn,
		AuthURL:     "https://www.linkedin.com/oauth/v2/authorization",
		TokenURL:    "https://www.linkedin.com/oauth/v2/accessToken",
		UserInfoURL: "https://api.linkedin.com/v2/me",
		Scopes:      []string{"r_basicprofile", "w_member_social"},
		ScopeDelim:  " ",
	},
	{
		Platform:   domain.PlatformPinterest,
		AuthURL:    "https://api.pinterest.com/oauth/",
		TokenURL:   "https://api.pinterest.com/v1/oauth/token",
		Scopes:     []string{"boards:read", "pins:read", "pins:create", "pins:delete"},
		ScopeDelim: ",",
	},
	{
		Platform:   domain.PlatformSnapchat,
		AuthURL:    "https://accounts.snapchat.com/accounts/oauth2/auth",
		TokenURL:   "https://accounts.snapchat.com/accounts/oauth2/token",
		Scopes:     []string{"snapchat-marketing-api"},
		ScopeDelim: " ",
	},
}

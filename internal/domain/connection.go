package domain

import "time"

// Platform identifies a supported social network.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformMeta      Platform = "meta"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformPinterest Platform = "pinterest"
	PlatformSnapchat  Platform = "snapchat"
)

// Platforms lists every supported platform in catalog order.
var Platforms = []Platform{
	PlatformYouTube,
	PlatformMeta,
	PlatformFacebook,
	PlatformInstagram,
	PlatformTikTok,
	PlatformTwitter,
	PlatformLinkedIn,
	PlatformPinterest,
	PlatformSnapchat,
}

// AuthorizationRequest captures the state/verifier pair persisted while the
// user is off at the provider's consent screen. One live entry per
// (user, platform); consumed on the first matching callback.
type AuthorizationRequest struct {
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier,omitempty"`
	Platform     Platform  `json:"platform"`
	RedirectURI  string    `json:"redirect_uri"`
	CreatedAt    time.Time `json:"created_at"`
}

// ExchangeResult is the normalized shape every provider exchange produces,
// regardless of the field names the provider actually returns.
type ExchangeResult struct {
	AccountID    string
	AccountName  string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	Scope        string
}

// TokenRecord is the durable connection document, one per (user, platform).
type TokenRecord struct {
	ID            int64     `json:"-"`
	UserID        string    `json:"user_id"`
	Platform      Platform  `json:"platform"`
	AccountID     string    `json:"account_id"`
	AccountName   string    `json:"account_name"`
	Email         string    `json:"email,omitempty"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	Scope         string    `json:"scope"`
	ExpiresAt     time.Time `json:"expires_at"`
	ConnectedAt   time.Time `json:"connected_at"`
	LastRefreshAt time.Time `json:"last_refresh_at"`
}

// Expired reports whether the access token is past its expiry.
func (r TokenRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Package session verifies the application session tokens that gate every
// connection endpoint. Sessions are HS256 JWTs signed with the shared app
// key; token issuance belongs to the main application, this service only
// needs to sign in tests and verify in production.
package session

import (
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
)

// Claims is the session JWT payload this service cares about.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Verifier validates session JWTs against the shared signing key.
type Verifier struct {
	key []byte
}

// NewVerifier constructs a verifier for the app session key.
func NewVerifier(key []byte) *Verifier {
	return &Verifier{key: key}
}

// Verify parses and validates the token, returning the user id from the
// subject claim.
func (v *Verifier) Verify(token string) (string, *Claims, error) {
	parsed, err := gojwt.ParseSigned(token, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return "", nil, fmt.Errorf("parse session token: %w", err)
	}

	var std gojwt.Claims
	var custom Claims
	if err := parsed.Claims(v.key, &std, &custom); err != nil {
		return "", nil, fmt.Errorf("verify session token: %w", err)
	}
	if err := std.Validate(gojwt.Expected{Time: time.Now()}); err != nil {
		return "", nil, fmt.Errorf("validate session claims: %w", err)
	}
	if std.Subject == "" {
		return "", nil, fmt.Errorf("session token missing subject")
	}
	return std.Subject, &custom, nil
}

// Sign produces a session token for the given user. Used by tests and local
// tooling; production sessions come from the main application.
func Sign(key []byte, userID string, claims Claims, ttl time.Duration) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: key},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	std := gojwt.Claims{
		Subject:   userID,
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		Expiry:    gojwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := gojwt.Signed(signer).Claims(std).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize session token: %w", err)
	}
	return token, nil
}

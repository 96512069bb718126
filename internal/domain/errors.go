package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform signals a platform id outside the catalog.
	ErrUnsupportedPlatform = errors.New("connect: unsupported platform")
	// ErrNotAuthenticated indicates the caller has no valid app session.
	ErrNotAuthenticated = errors.New("connect: not authenticated")
	// ErrMissingCode indicates a callback without an authorization code.
	ErrMissingCode = errors.New("connect: missing authorization code")
	// ErrProviderDenied indicates the user declined consent at the provider.
	ErrProviderDenied = errors.New("connect: provider denied authorization")
	// ErrStateMismatch indicates a missing, stale, or replayed state token.
	ErrStateMismatch = errors.New("connect: state validation failed")
	// ErrNoRefreshToken indicates a refresh attempt on a connection without one.
	ErrNoRefreshToken = errors.New("connect: no refresh token available")
	// ErrNotConnected signals that no connection exists for (user, platform).
	ErrNotConnected = errors.New("connect: platform not connected")
	// ErrRefreshInProgress indicates another refresh holds the per-connection lock.
	ErrRefreshInProgress = errors.New("connect: refresh already in progress")
)

// TokenExchangeError wraps a provider-side failure during code exchange or
// refresh. ProviderError never contains tokens or client secrets.
type TokenExchangeError struct {
	Platform      Platform
	ProviderError string
	Err           error
}

func (e *TokenExchangeError) Error() string {
	if e.ProviderError != "" {
		return fmt.Sprintf("connect: token exchange failed for %s: %s", e.Platform, e.ProviderError)
	}
	return fmt.Sprintf("connect: token exchange failed for %s", e.Platform)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// PersistError wraps storage failures while writing a token record.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("connect: persist connection: %v", e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

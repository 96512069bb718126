// Package connect drives the platform connection lifecycle: authorization
// start, callback orchestration, token persistence, refresh, and disconnect.
package connect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marketloom/socialconnect/internal/authorize"
	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/exchange"
	"github.com/marketloom/socialconnect/internal/repository"
)

const (
	// Applied when a provider omits expires_in from its token response.
	defaultExpiresIn = 3600

	refreshLockTTL = 30 * time.Second
)

// Exchanger is the outbound provider dependency; satisfied by
// *exchange.Exchanger.
type Exchanger interface {
	Exchange(ctx context.Context, p domain.Platform, in exchange.Input) (*domain.ExchangeResult, error)
	Refresh(ctx context.Context, p domain.Platform, refreshToken string) (*domain.ExchangeResult, error)
}

// Service ties the URL builder, exchanger, and stores together.
type Service struct {
	builder     *authorize.Builder
	stateStore  repository.StateStore
	exchanger   Exchanger
	connections repository.ConnectionRepository
	locker      repository.RefreshLocker
	logger      *zap.Logger
}

// NewService wires the connection service.
func NewService(
	builder *authorize.Builder,
	stateStore repository.StateStore,
	exchanger Exchanger,
	connections repository.ConnectionRepository,
	locker repository.RefreshLocker,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.L()
	}
	return &Service{
		builder:     builder,
		stateStore:  stateStore,
		exchanger:   exchanger,
		connections: connections,
		locker:      locker,
		logger:      logger,
	}
}

// CallbackInput captures the provider redirect parameters.
type CallbackInput struct {
	Platform         domain.Platform
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// StartConnection builds the consent URL and stores a fresh state for the
// user. Any previous pending attempt for the platform is replaced.
func (s *Service) StartConnection(ctx context.Context, userID string, p domain.Platform) (*authorize.Output, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.builder.Build(ctx, userID, p)
}

// HandleCallback runs the callback sequence: provider-denial and
// missing-code checks, state validation, code exchange, persistence. The
// stored state is discarded on every path through here; a failed attempt
// requires a brand new authorization round-trip.
func (s *Service) HandleCallback(ctx context.Context, userID string, in CallbackInput) (*domain.TokenRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrNotAuthenticated
	}

	if in.Error != "" {
		s.discardState(ctx, userID, in.Platform)
		reason := in.ErrorDescription
		if reason == "" {
			reason = in.Error
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderDenied, reason)
	}
	if strings.TrimSpace(in.Code) == "" {
		s.discardState(ctx, userID, in.Platform)
		return nil, domain.ErrMissingCode
	}

	stored, err := s.stateStore.ConsumeState(ctx, userID, in.Platform)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if stored == nil || stored.State == "" || stored.State != in.State {
		return nil, domain.ErrStateMismatch
	}

	result, err := s.exchanger.Exchange(ctx, in.Platform, exchange.Input{
		Code:         in.Code,
		CodeVerifier: stored.CodeVerifier,
		RedirectURI:  stored.RedirectURI,
	})
	if err != nil {
		return nil, err
	}

	record, err := s.SaveExchange(ctx, userID, in.Platform, result)
	if err != nil {
		return nil, err
	}

	s.logger.Info("platform connected",
		zap.String("user_id", userID),
		zap.String("platform", string(in.Platform)),
		zap.String("account_name", record.AccountName))
	return record, nil
}

// ExchangeCode backs the unified exchange endpoint. When the caller supplies
// a state token it is validated and consumed exactly like a callback; without
// one the exchange runs directly against the provider with the caller's
// redirect URI.
func (s *Service) ExchangeCode(ctx context.Context, userID string, p domain.Platform, code, redirectURI, state string) (*domain.TokenRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if strings.TrimSpace(code) == "" {
		return nil, domain.ErrMissingCode
	}
	if redirectURI == "" {
		redirectURI = s.builder.RedirectURI(p)
	}

	var verifier string
	if state != "" {
		stored, err := s.stateStore.ConsumeState(ctx, userID, p)
		if err != nil {
			return nil, fmt.Errorf("load state: %w", err)
		}
		if stored == nil || stored.State != state {
			return nil, domain.ErrStateMismatch
		}
		verifier = stored.CodeVerifier
	}

	result, err := s.exchanger.Exchange(ctx, p, exchange.Input{
		Code:         code,
		CodeVerifier: verifier,
		RedirectURI:  redirectURI,
	})
	if err != nil {
		return nil, err
	}
	return s.SaveExchange(ctx, userID, p, result)
}

// SaveExchange turns a normalized exchange result into the durable token
// record. Expiry is always derived server-side from expires_in.
func (s *Service) SaveExchange(ctx context.Context, userID string, p domain.Platform, result *domain.ExchangeResult) (*domain.TokenRecord, error) {
	now := time.Now().UTC()
	expiresIn := result.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	record := domain.TokenRecord{
		UserID:        userID,
		Platform:      p,
		AccountID:     result.AccountID,
		AccountName:   result.AccountName,
		Email:         result.Email,
		AccessToken:   result.AccessToken,
		RefreshToken:  result.RefreshToken,
		Scope:         result.Scope,
		ExpiresAt:     now.Add(time.Duration(expiresIn) * time.Second),
		ConnectedAt:   now,
		LastRefreshAt: now,
	}

	saved, err := s.connections.Save(ctx, record)
	if err != nil {
		return nil, &domain.PersistError{Err: err}
	}
	return &saved, nil
}

// GetConnection returns the stored record for (user, platform).
func (s *Service) GetConnection(ctx context.Context, userID string, p domain.Platform) (*domain.TokenRecord, error) {
	record, err := s.connections.Get(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotConnected
	}
	return record, nil
}

// ListConnections loads every connected platform's record, driven off the
// user's connected-platform set.
func (s *Service) ListConnections(ctx context.Context, userID string) ([]domain.TokenRecord, error) {
	platforms, err := s.connections.ListPlatforms(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	records := make([]domain.TokenRecord, 0, len(platforms))
	for _, p := range platforms {
		record, err := s.connections.Get(ctx, userID, p)
		if err != nil {
			return nil, fmt.Errorf("load connection %s: %w", p, err)
		}
		if record != nil {
			records = append(records, *record)
		}
	}
	return records, nil
}

// Disconnect removes the connection. Disconnecting an absent platform is a
// no-op.
func (s *Service) Disconnect(ctx context.Context, userID string, p domain.Platform) error {
	if err := s.connections.Remove(ctx, userID, p); err != nil {
		return fmt.Errorf("disconnect %s: %w", p, err)
	}
	return nil
}

// RefreshConnection swaps the refresh token for a fresh access token under a
// per-(user, platform) lock so overlapping refreshes cannot clobber each
// other. Only the access token, expiry, and refresh timestamp change; the
// refresh token is kept unless the provider rotates it.
func (s *Service) RefreshConnection(ctx context.Context, userID string, p domain.Platform) (*domain.TokenRecord, error) {
	record, err := s.GetConnection(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	if record.RefreshToken == "" {
		return nil, domain.ErrNoRefreshToken
	}

	release, acquired, err := s.locker.AcquireRefreshLock(ctx, userID, p, refreshLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrRefreshInProgress
	}
	defer release()

	// Re-read under the lock in case a concurrent refresh just finished.
	record, err = s.GetConnection(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	if record.RefreshToken == "" {
		return nil, domain.ErrNoRefreshToken
	}

	result, err := s.exchanger.Refresh(ctx, p, record.RefreshToken)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expiresIn := result.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	updated, err := s.connections.UpdateTokens(ctx, userID, p,
		result.AccessToken, result.RefreshToken, now.Add(time.Duration(expiresIn)*time.Second), now)
	if err != nil {
		return nil, &domain.PersistError{Err: err}
	}
	if updated == nil {
		return nil, domain.ErrNotConnected
	}

	s.logger.Info("token refreshed",
		zap.String("user_id", userID),
		zap.String("platform", string(p)))
	return updated, nil
}

func (s *Service) discardState(ctx context.Context, userID string, p domain.Platform) {
	if _, err := s.stateStore.ConsumeState(ctx, userID, p); err != nil {
		s.logger.Warn("failed to discard oauth state",
			zap.String("platform", string(p)), zap.Error(err))
	}
}

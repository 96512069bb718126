package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/marketloom/socialconnect/internal/authorize"
	"github.com/marketloom/socialconnect/internal/config"
	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/exchange"
	transport "github.com/marketloom/socialconnect/internal/http"
	"github.com/marketloom/socialconnect/internal/http/handler"
	httpmiddleware "github.com/marketloom/socialconnect/internal/http/middleware"
	"github.com/marketloom/socialconnect/internal/platform"
	"github.com/marketloom/socialconnect/internal/service/connect"
	"github.com/marketloom/socialconnect/internal/session"
)

var sessionKey = []byte("0123456789abcdef0123456789abcdef")

type stubStateStore struct {
	mu      sync.Mutex
	entries map[string]domain.AuthorizationRequest
}

func (s *stubStateStore) SaveState(_ context.Context, userID string, p domain.Platform, req domain.AuthorizationRequest, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID+"/"+string(p)] = req
	return nil
}

func (s *stubStateStore) ConsumeState(_ context.Context, userID string, p domain.Platform) (*domain.AuthorizationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID + "/" + string(p)
	req, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	delete(s.entries, key)
	return &req, nil
}

type stubRepo struct {
	mu      sync.Mutex
	records map[string]domain.TokenRecord
}

func (r *stubRepo) Save(_ context.Context, record domain.TokenRecord) (domain.TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = 1
	r.records[record.UserID+"/"+string(record.Platform)] = record
	return record, nil
}

func (r *stubRepo) Get(_ context.Context, userID string, p domain.Platform) (*domain.TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[userID+"/"+string(p)]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (r *stubRepo) ListPlatforms(_ context.Context, userID string) ([]domain.Platform, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Platform
	for _, p := range domain.Platforms {
		if _, ok := r.records[userID+"/"+string(p)]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubRepo) Remove(_ context.Context, userID string, p domain.Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, userID+"/"+string(p))
	return nil
}

func (r *stubRepo) UpdateTokens(_ context.Context, userID string, p domain.Platform, accessToken, refreshToken string, expiresAt, refreshedAt time.Time) (*domain.TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[userID+"/"+string(p)]
	if !ok {
		return nil, nil
	}
	record.AccessToken = accessToken
	if refreshToken != "" {
		record.RefreshToken = refreshToken
	}
	record.ExpiresAt = expiresAt
	record.LastRefreshAt = refreshedAt
	r.records[userID+"/"+string(p)] = record
	return &record, nil
}

type stubLocker struct{}

func (stubLocker) AcquireRefreshLock(context.Context, string, domain.Platform, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}

type stubExchanger struct {
	result *domain.ExchangeResult
	err    error
}

func (f *stubExchanger) Exchange(context.Context, domain.Platform, exchange.Input) (*domain.ExchangeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.result
	return &out, nil
}

func (f *stubExchanger) Refresh(context.Context, domain.Platform, string) (*domain.ExchangeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.result
	return &out, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubStateStore, *stubRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		AppBaseURL:  "https://app.example.com",
		ServiceName: "socialconnect",
		StateTTL:    10 * time.Minute,
		Platforms: map[domain.Platform]config.PlatformCredentials{
			domain.PlatformYouTube: {ClientID: "yt-id", ClientSecret: "yt-secret"},
		},
	}
	states := &stubStateStore{entries: map[string]domain.AuthorizationRequest{}}
	repo := &stubRepo{records: map[string]domain.TokenRecord{}}
	xchg := &stubExchanger{result: &domain.ExchangeResult{
		AccountID:    "acct-1",
		AccountName:  "Creator",
		Email:        "creator@example.com",
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresIn:    3600,
		Scope:        "scope-a",
	}}

	builder := authorize.NewBuilder(platform.New(cfg), states, cfg)
	svc := connect.NewService(builder, states, xchg, repo, stubLocker{}, zaptest.NewLogger(t))
	auth := &httpmiddleware.Auth{Verifier: session.NewVerifier(sessionKey)}
	router := transport.NewRouter(cfg, handler.NewConnectHandler(svc), auth, nil)
	return router, states, repo
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := session.Sign(sessionKey, userID, session.Claims{}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthzNoAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestConnectionsRequireSession(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/connections", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/connections", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStartReturnsAuthorizationURL(t *testing.T) {
	router, states, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/connect/youtube/start", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body["authorization_url"], "accounts.google.com")
	require.NotEmpty(t, body["state"])
	require.Contains(t, states.entries, "user-1/youtube")
}

func TestStartUnsupportedPlatform(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/connect/myspace/start", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExchangeHappyPath(t *testing.T) {
	router, _, repo := newTestRouter(t)

	payload, err := json.Marshal(map[string]string{
		"platform":    "youtube",
		"code":        "auth-code",
		"redirectUri": "https://app.example.com/auth/youtube/callback",
		"userId":      "user-1",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/oauth/exchange", bytes.NewReader(payload))
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, "acct-1", body["accountId"])
	require.Equal(t, "at-1", body["accessToken"])
	require.InDelta(t, 3600, body["expiresIn"], 5)

	stored, err := repo.Get(context.Background(), "user-1", domain.PlatformYouTube)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestExchangeRejectsUserMismatch(t *testing.T) {
	router, _, _ := newTestRouter(t)

	payload, err := json.Marshal(map[string]string{
		"platform":    "youtube",
		"code":        "auth-code",
		"redirectUri": "https://app.example.com/auth/youtube/callback",
		"userId":      "someone-else",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/oauth/exchange", bytes.NewReader(payload))
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExchangeMissingFields(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/oauth/exchange", bytes.NewReader([]byte(`{"platform":"youtube"}`)))
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallbackFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/connect/youtube/start", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var start map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &start))

	req = httptest.NewRequest(http.MethodGet, "/auth/youtube/callback?code=auth-code&state="+start["state"], nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, "Creator", body["account_name"])
}

func TestCallbackStateMismatch(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/youtube/callback?code=auth-code&state=forged", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/connections/youtube", nil)
		req.Header.Set("Authorization", bearerToken(t, "user-1"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestRefreshNotConnected(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/connections/youtube/refresh", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/oauth/exchange", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSForeignOriginGetsNoAllowHeader(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

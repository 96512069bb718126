package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketloom/socialconnect/internal/domain"
	"github.com/marketloom/socialconnect/internal/http/middleware"
	"github.com/marketloom/socialconnect/internal/service/connect"
)

// ConnectHandler exposes the connection lifecycle endpoints.
type ConnectHandler struct {
	Connect *connect.Service
}

// NewConnectHandler creates the handler set.
func NewConnectHandler(service *connect.Service) *ConnectHandler {
	return &ConnectHandler{Connect: service}
}

// Start builds the provider consent URL and binds a fresh state to the
// session user.
func (h *ConnectHandler) Start(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	platform := domain.Platform(strings.ToLower(c.Param("platform")))
	out, err := h.Connect.StartConnection(c.Request.Context(), userID, platform)
	if err != nil {
		h.respondConnectError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authorization_url": out.AuthorizationURL,
		"state":             out.State,
	})
}

// Callback handles the provider redirect for /auth/:platform/callback.
func (h *ConnectHandler) Callback(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	input := connect.CallbackInput{
		Platform:         domain.Platform(strings.ToLower(c.Param("platform"))),
		Code:             c.Query("code"),
		State:            c.Query("state"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	}
	record, err := h.Connect.HandleCallback(c.Request.Context(), userID, input)
	if err != nil {
		h.respondConnectError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"platform":     record.Platform,
		"account_name": record.AccountName,
	})
}

type exchangeRequest struct {
	Platform    string `json:"platform" binding:"required"`
	Code        string `json:"code" binding:"required"`
	RedirectURI string `json:"redirectUri" binding:"required"`
	UserID      string `json:"userId" binding:"required"`
	State       string `json:"state"`
}

// Exchange is the unified code-exchange endpoint. The body's userId must
// match the session subject; tokens in the response go only to that user.
func (h *ConnectHandler) Exchange(c *gin.Context) {
	sessionUser, ok := middleware.GetUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: platform, code, redirectUri, userId"})
		return
	}
	if req.UserID != sessionUser {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session does not match userId"})
		return
	}

	platform := domain.Platform(strings.ToLower(req.Platform))
	record, err := h.Connect.ExchangeCode(c.Request.Context(), sessionUser, platform, req.Code, req.RedirectURI, req.State)
	if err != nil {
		h.respondConnectError(c, err)
		return
	}

	expiresIn := int64(time.Until(record.ExpiresAt).Seconds())
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"platform":     record.Platform,
		"accountId":    record.AccountID,
		"accountName":  record.AccountName,
		"email":        record.Email,
		"accessToken":  record.AccessToken,
		"refreshToken": record.RefreshToken,
		"expiresIn":    expiresIn,
		"scope":        record.Scope,
	})
}

// List returns every connection for the session user.
func (h *ConnectHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	records, err := h.Connect.ListConnections(c.Request.Context(), userID)
	if err != nil {
		h.respondConnectError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": records})
}

// Disconnect removes a connection; removing an absent one still returns 204.
func (h *ConnectHandler) Disconnect(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	platform := domain.Platform(strings.ToLower(c.Param("platform")))
	if err := h.Connect.Disconnect(c.Request.Context(), userID, platform); err != nil {
		h.respondConnectError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh exchanges the stored refresh token for a new access token.
func (h *ConnectHandler) Refresh(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	platform := domain.Platform(strings.ToLower(c.Param("platform")))
	record, err := h.Connect.RefreshConnection(c.Request.Context(), userID, platform)
	if err != nil {
		h.respondConnectError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "connection": record})
}

// Healthz is the liveness probe.
func (h *ConnectHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func respondUnauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
}

// respondConnectError maps service errors onto the HTTP surface. Messages
// surfaced here never contain token or secret values.
func (h *ConnectHandler) respondConnectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		respondUnauthenticated(c)
	case errors.Is(err, domain.ErrUnsupportedPlatform),
		errors.Is(err, domain.ErrMissingCode),
		errors.Is(err, domain.ErrProviderDenied),
		errors.Is(err, domain.ErrStateMismatch),
		errors.Is(err, domain.ErrNoRefreshToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotConnected):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRefreshInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		var exchangeErr *domain.TokenExchangeError
		if errors.As(err, &exchangeErr) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": exchangeErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete the connection"})
	}
}

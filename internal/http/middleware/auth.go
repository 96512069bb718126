package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marketloom/socialconnect/internal/session"
)

const (
	userIDKey        = "sessionUserID"
	sessionClaimsKey = "sessionClaims"
)

// Auth validates the Authorization header and attaches the session user.
type Auth struct {
	Verifier *session.Verifier
}

// RequireSession ensures the request carries a valid bearer session token.
func (m *Auth) RequireSession(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
		return
	}
	userID, claims, err := m.Verifier.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
		return
	}
	c.Set(userIDKey, userID)
	c.Set(sessionClaimsKey, claims)
	c.Next()
}

// GetUserID returns the authenticated user id attached by RequireSession.
func GetUserID(c *gin.Context) (string, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok && userID != ""
}

// GetSessionClaims exposes the session claims to handlers.
func GetSessionClaims(c *gin.Context) (*session.Claims, bool) {
	value, ok := c.Get(sessionClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*session.Claims)
	return claims, ok
}

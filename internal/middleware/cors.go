package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marketloom/socialconnect/internal/config"
)

// CORS permits only the application's own origin. Preflight requests get a
// bodyless 204 whether or not the origin matches.
func CORS(cfg config.Config) gin.HandlerFunc {
	allowed := cfg.AppOrigin()

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if strings.EqualFold(origin, allowed) {
			header := c.Writer.Header()
			header.Set("Vary", "Origin")
			header.Set("Access-Control-Allow-Origin", allowed)
			header.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/marketloom/socialconnect/internal/config"
	"github.com/marketloom/socialconnect/internal/http/handler"
	httpmiddleware "github.com/marketloom/socialconnect/internal/http/middleware"
	"github.com/marketloom/socialconnect/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, connectHandler *handler.ConnectHandler, authMiddleware *httpmiddleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/healthz", connectHandler.Healthz)

	connectGroup := r.Group("/connect", authMiddleware.RequireSession)
	{
		connectGroup.GET("/:platform/start", connectHandler.Start)
	}

	r.GET("/auth/:platform/callback", authMiddleware.RequireSession, connectHandler.Callback)

	oauth := r.Group("/oauth", authMiddleware.RequireSession)
	{
		oauth.POST("/exchange", connectHandler.Exchange)
	}

	connections := r.Group("/connections", authMiddleware.RequireSession)
	{
		connections.GET("", connectHandler.List)
		connections.DELETE("/:platform", connectHandler.Disconnect)
		connections.POST("/:platform/refresh", connectHandler.Refresh)
	}

	return r
}

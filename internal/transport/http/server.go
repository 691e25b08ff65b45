package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/duochat/internal/auth"
	"github.com/vovakirdan/duochat/internal/config"
	"github.com/vovakirdan/duochat/internal/core"
	"github.com/vovakirdan/duochat/internal/service/messages"
)

// NewServer builds the HTTP server: REST API, health check and the
// WebSocket endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, msgService *messages.Service, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	msgHandlers := NewMessageHandlers(msgService, logger)

	api := router.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.GET("/messages/users", msgHandlers.SidebarUsers)
	authed.GET("/messages/:id", msgHandlers.History)
	authed.POST("/messages/send/:id", msgHandlers.Send)
	authed.DELETE("/messages/:id", msgHandlers.Delete)
	authed.POST("/messages/:id/reactions", msgHandlers.AddReaction)
	authed.DELETE("/messages/:id/reactions/:reactionId", msgHandlers.RemoveReaction)

	router.GET("/healthz", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, cfg.WSMessageRateLimit, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

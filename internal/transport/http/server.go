package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/boardsync/boardsync-server/internal/auth"
	"github.com/boardsync/boardsync-server/internal/config"
	"github.com/boardsync/boardsync-server/internal/core"
	"github.com/boardsync/boardsync-server/internal/store"
)

// NewServer builds the HTTP server: health, auth and room metadata API,
// and the WebSocket endpoint bridging into the hub.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewRoomHandlers(st, hub, logger)

	api := router.Group("/api")
	api.POST("/guest", apiHandlers.GuestLogin)

	authed := api.Group("")
	authed.Use(AuthMiddleware(authService, logger))
	authed.POST("/rooms", roomHandlers.CreateRoom)
	authed.GET("/rooms", roomHandlers.ListRooms)
	authed.GET("/rooms/:id", roomHandlers.GetRoom)
	authed.DELETE("/rooms/:id", roomHandlers.DeleteRoom)

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, cfg.WSMessageLimit, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

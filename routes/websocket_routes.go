package routes

import (
	"swiftserve/internal/middleware"
	"swiftserve/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// SetupWebSocketRoutes exposes the realtime endpoint. Room membership is
// negotiated over the socket after the upgrade.
func SetupWebSocketRoutes(r *gin.RouterGroup, wsHandler *websocket.Handler) {
	r.GET("/ws", middleware.AuthRequired(), wsHandler.HandleWebSocket)
}

// Package httpapi wires the REST surface of the relay: room creation,
// listing, status and teardown, plus the websocket upgrade route.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"voicerelay/internal/adapters/ws"
	"voicerelay/internal/auth"
	"voicerelay/internal/config"
	"voicerelay/internal/core"
	"voicerelay/internal/users"
)

// NewRouter wires HTTP routes (REST + WS).
// REST endpoints sit behind bearer auth; the websocket route carries
// its token as a query parameter and authenticates in its own
// controller, so it stays outside the middleware.
func NewRouter(cfg *config.Config, mgr *core.Manager, verifier *auth.Verifier, dir *users.Directory, wsCtl *ws.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := &Handler{Manager: mgr}

	voice := r.Group("/voice")
	voice.GET("/ws/:room_id", wsCtl.HandleVoice)

	rooms := voice.Group("", AuthRequired(verifier, dir))
	rooms.POST("/rooms", h.CreateRoom)
	rooms.GET("/rooms", h.ListRooms)
	rooms.GET("/rooms/:room_id", h.GetRoom)
	rooms.GET("/my-room", h.MyRoom)
	rooms.POST("/rooms/:room_id/end", h.EndRoom)

	return r
}

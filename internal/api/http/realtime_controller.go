package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/verbis/internal/relay"
	"github.com/immxrtalbeast/verbis/lib/logger/sl"
)

type RealtimeController struct {
	relay    *relay.Relay
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewRealtimeController(r *relay.Relay, log *slog.Logger, allowedOrigins []string) *RealtimeController {
	return &RealtimeController{
		relay: r,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Connect upgrades an authenticated request and serves the realtime session
// until the client disconnects.
func (c *RealtimeController) Connect(ctx *gin.Context) {
	id := identity(ctx)

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("websocket upgrade failed", slog.String("user_id", id.UserID.String()), sl.Err(err))
		return
	}

	c.relay.Serve(context.WithoutCancel(ctx.Request.Context()), conn, id.UserID)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == origin {
				return true
			}
		}
		return false
	}
}

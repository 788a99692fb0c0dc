// Package http wires the gin router: account endpoints, the room
// listing, and the authenticated WebSocket upgrade.
package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kkuzmin/gabble/internal/adapters/ws"
	"github.com/kkuzmin/gabble/internal/app"
	"github.com/kkuzmin/gabble/internal/auth"
	"github.com/kkuzmin/gabble/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, svc *auth.Service, tokens *auth.TokenManager, coord *app.Coordinator, ctl *ws.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := &accountHandlers{svc: svc, coord: coord}

	r.GET("/ping", h.ping)
	r.POST("/register", h.register)
	r.POST("/login", h.login)

	authed := r.Group("/", AuthRequired(tokens))
	authed.POST("/rooms", h.rooms)
	authed.GET("/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})

	return r
}

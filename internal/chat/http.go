package chat

import (
	"context"
	"net/http"

	"github.com/abduss/forum/internal/config"
	"github.com/abduss/forum/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RegisterRoutes mounts the websocket endpoint. The bearer token may be passed
// in the access_token query parameter since browsers cannot set headers on upgrade.
func RegisterRoutes(router *gin.RouterGroup, hub *Hub, cfg config.ChatConfig, requireAuth gin.HandlerFunc) {
	handler := &httpHandler{hub: hub, cfg: cfg, upgrader: newUpgrader(cfg.AllowedOrigins)}
	router.GET("/chat", requireAuth, handler.connect)
}

type httpHandler struct {
	hub      *Hub
	cfg      config.ChatConfig
	upgrader websocket.Upgrader
}

// newUpgrader falls back to gorilla's same-origin check when no origins are configured.
func newUpgrader(allowed []string) websocket.Upgrader {
	upgrader := websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}
	if len(allowed) == 0 {
		return upgrader
	}
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		origins[o] = struct{}{}
	}
	upgrader.CheckOrigin = func(r *http.Request) bool {
		_, ok := origins[r.Header.Get("Origin")]
		return ok
	}
	return upgrader
}

func (h *httpHandler) connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.hub.log.Debug("chat upgrade failed", zap.Error(err))
		return
	}

	burst := h.cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	cl := newClient(h.hub, conn, middleware.Username(c), rate.NewLimiter(rate.Limit(h.cfg.MessagesPerSec), burst))
	h.hub.register(cl)

	// The request context ends when the handler returns, the pumps outlive it.
	go cl.writePump()
	go cl.readPump(context.Background())
}

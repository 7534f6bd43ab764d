package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/abduss/forum/internal/apperr"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 64
)

// client is one websocket connection attached to the hub.
type client struct {
	hub      *Hub
	conn     *websocket.Conn
	username string
	limiter  *rate.Limiter
	send     chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, username string, limiter *rate.Limiter) *client {
	return &client{
		hub:      hub,
		conn:     conn,
		username: username,
		limiter:  limiter,
		send:     make(chan []byte, sendBuffer),
	}
}

// readPump handles inbound frames until the connection fails.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("chat read failed", zap.String("username", c.username), zap.Error(err))
			}
			return
		}
		if !c.limiter.Allow() {
			c.hub.notify(c, Frame{Type: FrameRateLimited})
			continue
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.hub.log.Debug("ignoring malformed chat frame", zap.String("username", c.username), zap.Error(err))
			continue
		}
		c.handle(ctx, frame)
	}
}

func (c *client) handle(ctx context.Context, frame Frame) {
	var err error
	switch frame.Type {
	case FrameGetMessages:
		c.hub.replay(c)
	case FrameSendMessage:
		if frame.Message == nil {
			err = ErrEmptyMessage
			break
		}
		_, err = c.hub.SendMessage(ctx, c.username, frame.Message.Message)
	case FrameDeleteMessage:
		if frame.Message == nil {
			err = ErrMessageNotFound
			break
		}
		err = c.hub.DeleteMessage(ctx, c.username, *frame.Message)
	default:
		c.hub.log.Debug("unknown chat frame", zap.String("type", frame.Type))
	}

	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	if _, known := apperr.KindOf(err); !known {
		c.hub.log.Error("chat frame failed", zap.String("type", frame.Type), zap.Error(err))
	}
	c.hub.notify(c, Frame{Type: FrameError, Errors: apperr.Codes(err)})
}

// writePump drains the send buffer and keeps the connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

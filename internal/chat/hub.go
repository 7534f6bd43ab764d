// Package chat runs the public websocket chat room and its in-memory history.
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/abduss/forum/internal/metrics"
	"github.com/abduss/forum/internal/user"
	"go.uber.org/zap"
)

type accountLookup interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
}

// Hub owns the chat history and the set of connected clients.
type Hub struct {
	accounts accountLookup
	log      *zap.Logger
	nowFunc  func() time.Time

	mu      sync.Mutex
	history *history
	clients map[*client]struct{}
}

// NewHub creates a hub that keeps the last historySize messages.
func NewHub(accounts accountLookup, historySize int) *Hub {
	return &Hub{
		accounts: accounts,
		log:      zap.L().Named("chat"),
		nowFunc:  time.Now,
		history:  newHistory(historySize),
		clients:  make(map[*client]struct{}),
	}
}

// History returns a copy of the retained messages, oldest first.
func (h *Hub) History() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history.snapshot()
}

// SendMessage stamps a message from username and broadcasts it to every client.
func (h *Hub) SendMessage(ctx context.Context, username, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	sender, err := h.accounts.FindByUsername(ctx, username)
	if err != nil {
		return Message{}, err
	}
	if sender.IsBanned {
		return Message{}, user.ErrUserNotAuthorized
	}

	msg := Message{
		Username: sender.Username,
		UserRole: sender.Role,
		Message:  text,
		Date:     h.nowFunc().UTC(),
	}

	h.mu.Lock()
	h.history.append(msg)
	h.broadcastLocked(Frame{Type: FrameMessageReceived, Message: &msg})
	h.mu.Unlock()
	return msg, nil
}

// DeleteMessage redacts target from the history. Authors may delete their own
// messages and moderators anyone's.
func (h *Hub) DeleteMessage(ctx context.Context, username string, target Message) error {
	requester, err := h.accounts.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if requester.Username != target.Username && !requester.Role.AtLeast(user.RoleModerator) {
		return user.ErrUserNotAuthorized
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.history.redact(target, DeletedText) == 0 {
		return ErrMessageNotFound
	}
	h.broadcastLocked(Frame{Type: FrameDeleteMessage, Message: &target})
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// register adds c and queues the current history for it.
func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	metrics.ChatConnected(1)
	h.sendLocked(c, Frame{Type: FrameReceiveMessages, Messages: h.history.snapshot()})
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// replay sends the full history to a single client.
func (h *Hub) replay(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(c, Frame{Type: FrameReceiveMessages, Messages: h.history.snapshot()})
}

func (h *Hub) notify(c *client, frame Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(c, frame)
}

func (h *Hub) broadcastLocked(frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.log.Error("encode frame", zap.String("type", frame.Type), zap.Error(err))
		return
	}
	for c := range h.clients {
		h.deliverLocked(c, payload)
	}
}

func (h *Hub) sendLocked(c *client, frame Frame) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		h.log.Error("encode frame", zap.String("type", frame.Type), zap.Error(err))
		return
	}
	h.deliverLocked(c, payload)
}

// deliverLocked never blocks. A client whose buffer is full is dropped.
func (h *Hub) deliverLocked(c *client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.log.Warn("dropping slow chat client", zap.String("username", c.username))
		h.dropLocked(c)
	}
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.ChatConnected(-1)
}

package chat

import (
	"time"

	"github.com/abduss/forum/internal/user"
)

// DeletedText replaces the content of a deleted chat message.
const DeletedText = "Ce message a été supprimé"

// Frame types exchanged over the socket.
const (
	FrameGetMessages     = "GetMessages"
	FrameSendMessage     = "SendMessage"
	FrameDeleteMessage   = "DeleteMessage"
	FrameReceiveMessages = "ReceiveMessages"
	FrameMessageReceived = "MessageReceived"
	FrameRateLimited     = "RateLimited"
	FrameError           = "Error"
)

// Message is one chat line. Username, UserRole and Date are stamped by the server.
type Message struct {
	Username string    `json:"username"`
	UserRole user.Role `json:"userRole"`
	Message  string    `json:"message"`
	Date     time.Time `json:"date"`
}

// Frame is the envelope of every websocket message. Errors carries the
// failure codes of an Error frame.
type Frame struct {
	Type     string    `json:"type"`
	Message  *Message  `json:"message,omitempty"`
	Messages []Message `json:"messages,omitempty"`
	Errors   []string  `json:"errors,omitempty"`
}

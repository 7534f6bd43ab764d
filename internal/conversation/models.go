package conversation

import (
	"time"

	"github.com/abduss/forum/internal/user"
	"github.com/google/uuid"
)

// Conversation is a private thread between two users.
type Conversation struct {
	ID              int
	FirstUser       uuid.UUID
	SecondUser      uuid.UUID
	LastMessageDate time.Time
}

// Includes reports whether id takes part in the conversation.
func (c Conversation) Includes(id uuid.UUID) bool {
	return c.FirstUser == id || c.SecondUser == id
}

// Other returns the participant that is not id.
func (c Conversation) Other(id uuid.UUID) uuid.UUID {
	if c.FirstUser == id {
		return c.SecondUser
	}
	return c.FirstUser
}

// Summary is a conversation as listed to one of its participants.
type Summary struct {
	ID              int       `json:"id"`
	ContactUsername string    `json:"contactUsername"`
	LastMessageDate time.Time `json:"lastMessageDate"`
}

// MessageRecord is a message row.
type MessageRecord struct {
	ID             int
	ConversationID int
	Content        string
	SenderID       uuid.UUID
	Date           time.Time
}

// Message is a message as returned to participants.
type Message struct {
	ID            int          `json:"id"`
	Conversation  int          `json:"conversation"`
	Content       string       `json:"content"`
	Sender        uuid.UUID    `json:"sender"`
	SenderProfile user.Profile `json:"senderProfile"`
	Receiver      uuid.UUID    `json:"receiver"`
	Date          time.Time    `json:"date"`
}

// SendInput carries a message to deliver. A zero Conversation lets the
// service reuse or open the conversation between both users.
type SendInput struct {
	ReceiverID   string
	Conversation int
	Content      string
}

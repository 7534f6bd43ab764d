package notification

import (
	"time"

	"github.com/google/uuid"
)

// Context tells clients where a notification points to.
type Context int

const (
	ContextPost Context = iota
	ContextMessage
)

// Notification is a message shown to a single user.
type Notification struct {
	ID         int       `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	Content    string    `json:"content"`
	Context    Context   `json:"context"`
	ContextID  int       `json:"contextId"`
	CategoryID *int      `json:"categoryId,omitempty"`
	Date       time.Time `json:"date"`
	Read       bool      `json:"isRead"`
}

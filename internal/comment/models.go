package comment

import (
	"time"

	"github.com/abduss/forum/internal/user"
	"github.com/google/uuid"
)

// Record is a comment row.
type Record struct {
	ID        int
	PostID    int
	Body      string
	AuthorID  *uuid.UUID
	CreatedAt time.Time
}

// Comment is a comment as returned to clients.
type Comment struct {
	ID     int          `json:"id"`
	Post   int          `json:"post"`
	Body   string       `json:"body"`
	Author user.Profile `json:"author"`
	Date   time.Time    `json:"date"`
}

package post

import (
	"time"

	"github.com/abduss/forum/internal/category"
	"github.com/abduss/forum/internal/user"
	"github.com/google/uuid"
)

// Record is a post row. AuthorID is nil once the author's account is gone.
type Record struct {
	ID          int
	CategoryID  int
	Title       string
	Body        string
	AuthorID    *uuid.UUID
	CreatedAt   time.Time
	LastUpdated time.Time
	Locked      bool
}

// Post is a post as returned to clients.
type Post struct {
	ID          int          `json:"id"`
	Category    int          `json:"category"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	Author      user.Profile `json:"author"`
	AuthorID    *uuid.UUID   `json:"-"`
	Date        time.Time    `json:"date"`
	LastUpdated time.Time    `json:"lastUpdated"`
	Locked      bool         `json:"locked"`
	Image       string       `json:"image,omitempty"`
}

// Page is one page of a category's posts.
type Page struct {
	Count int    `json:"count"`
	Posts []Post `json:"posts"`
}

// Section is a category with its latest posts, as shown on the home page.
type Section struct {
	category.Category
	Posts []Post `json:"posts"`
}

// Input carries the user-provided fields of a post.
type Input struct {
	Category int
	Title    string
	Body     string
}

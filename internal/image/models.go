package image

import (
	"io"

	"github.com/google/uuid"
)

// Image is the metadata row of a stored picture. Exactly one of UserID and PostID is set.
type Image struct {
	ID     int
	Name   string
	Path   string
	UserID *uuid.UUID
	PostID *int
}

// Upload is an incoming picture.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

package auth

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a persisted, rotating renewal credential.
type RefreshToken struct {
	ID        int64
	UserID    uuid.UUID
	Value     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ValidAt reports whether the token may still be used at now.
func (t RefreshToken) ValidAt(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

// SigningResult is returned by sign-in and renewal.
type SigningResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	IsBanned     bool   `json:"isBanned"`
}

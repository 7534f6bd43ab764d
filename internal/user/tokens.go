package user

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const emailTokenLength = 32

// TokenPurpose scopes a one-time email token.
type TokenPurpose string

const (
	PurposeConfirmEmail  TokenPurpose = "confirm-email"
	PurposeResetPassword TokenPurpose = "reset-password"
)

type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// TokenStore keeps one-time email tokens in Redis. Issuing a token replaces the previous one.
type TokenStore struct {
	client redisClient
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore whose tokens expire after ttl.
func NewTokenStore(client redisClient, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a token for the user and purpose.
func (s *TokenStore) Issue(ctx context.Context, purpose TokenPurpose, userID uuid.UUID) (string, error) {
	raw := make([]byte, emailTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate email token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	if err := s.client.Set(ctx, tokenKey(purpose, userID), token, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store email token: %w", err)
	}
	return token, nil
}

// Consume checks token and invalidates it on success.
func (s *TokenStore) Consume(ctx context.Context, purpose TokenPurpose, userID uuid.UUID, token string) error {
	key := tokenKey(purpose, userID)

	stored, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidToken
		}
		return fmt.Errorf("load email token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return ErrInvalidToken
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("drop email token: %w", err)
	}
	return nil
}

func tokenKey(purpose TokenPurpose, userID uuid.UUID) string {
	return "forum:token:" + string(purpose) + ":" + userID.String()
}

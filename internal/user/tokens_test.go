package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	s.values[key] = value.(string)
	s.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if s.getErr != nil {
		return redis.NewStringResult("", s.getErr)
	}
	v, ok := s.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := s.values[k]; ok {
			delete(s.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestTokenStoreIssueAndConsume(t *testing.T) {
	client := newStubRedis()
	store := NewTokenStore(client, time.Hour)
	ctx := context.Background()
	id := uuid.New()

	first, err := store.Issue(ctx, PurposeConfirmEmail, id)
	require.NoError(t, err)
	second, err := store.Issue(ctx, PurposeConfirmEmail, id)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, time.Hour, client.ttls["forum:token:confirm-email:"+id.String()])

	assert.ErrorIs(t, store.Consume(ctx, PurposeConfirmEmail, id, first), ErrInvalidToken, "reissue replaces the previous token")
	assert.ErrorIs(t, store.Consume(ctx, PurposeResetPassword, id, second), ErrInvalidToken)
	require.NoError(t, store.Consume(ctx, PurposeConfirmEmail, id, second))
	assert.ErrorIs(t, store.Consume(ctx, PurposeConfirmEmail, id, second), ErrInvalidToken)
}

func TestTokenStoreSurfacesRedisErrors(t *testing.T) {
	client := newStubRedis()
	client.getErr = errors.New("connection refused")
	store := NewTokenStore(client, time.Hour)

	err := store.Consume(context.Background(), PurposeConfirmEmail, uuid.New(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

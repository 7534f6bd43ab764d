package notification

import (
	"context"
	"testing"
	"time"

	"github.com/abduss/forum/internal/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows   map[int]Notification
	nextID int
}

func (r *memoryRepo) Create(_ context.Context, n Notification) (Notification, error) {
	r.nextID++
	n.ID = r.nextID
	r.rows[n.ID] = n
	return n, nil
}

func (r *memoryRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]Notification, error) {
	out := make([]Notification, 0)
	for id := r.nextID; id > 0; id-- {
		if n, ok := r.rows[id]; ok && n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memoryRepo) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for id, n := range r.rows {
		if n.UserID == userID {
			n.Read = true
			r.rows[id] = n
		}
	}
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id int) (Notification, error) {
	n, ok := r.rows[id]
	if !ok {
		return Notification{}, ErrNotificationNotFound
	}
	return n, nil
}

func (r *memoryRepo) Delete(_ context.Context, id int) error {
	delete(r.rows, id)
	return nil
}

type accounts map[string]user.User

func (a accounts) FindByUsername(_ context.Context, username string) (user.User, error) {
	u, ok := a[username]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func newTestService() (*Service, *memoryRepo, accounts) {
	repo := &memoryRepo{rows: map[int]Notification{}}
	users := accounts{
		"alice": {ID: uuid.New(), Username: "alice"},
		"bob":   {ID: uuid.New(), Username: "bob"},
	}
	svc := NewService(repo, users)
	svc.nowFunc = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo, users
}

func TestCreateAndList(t *testing.T) {
	svc, _, users := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, Notification{UserID: users["alice"].ID, Content: "first", Context: ContextPost, ContextID: 3}))
	require.NoError(t, svc.Create(ctx, Notification{UserID: users["alice"].ID, Content: "second", Context: ContextMessage, ContextID: 1}))
	require.NoError(t, svc.Create(ctx, Notification{UserID: users["bob"].ID, Content: "other"}))

	list, err := svc.ListForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Content)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), list[0].Date)
	assert.False(t, list[0].Read)
}

func TestCreateRequiresContent(t *testing.T) {
	svc, _, users := newTestService()
	assert.ErrorIs(t, svc.Create(context.Background(), Notification{UserID: users["bob"].ID, Content: " "}), ErrContentCannotBeNull)
}

func TestMarkAllRead(t *testing.T) {
	svc, repo, users := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, Notification{UserID: users["alice"].ID, Content: "x"}))
	require.NoError(t, svc.Create(ctx, Notification{UserID: users["bob"].ID, Content: "y"}))

	require.NoError(t, svc.MarkAllRead(ctx, "alice"))
	assert.True(t, repo.rows[1].Read)
	assert.False(t, repo.rows[2].Read)

	assert.ErrorIs(t, svc.MarkAllRead(ctx, "ghost"), user.ErrUserNotFound)
}

func TestDeleteOwnerOnly(t *testing.T) {
	svc, repo, users := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, Notification{UserID: users["alice"].ID, Content: "x"}))

	assert.ErrorIs(t, svc.Delete(ctx, 1, "bob"), user.ErrUserNotAuthorized)
	assert.ErrorIs(t, svc.Delete(ctx, 42, "alice"), ErrNotificationNotFound)
	require.NoError(t, svc.Delete(ctx, 1, "alice"))
	assert.Empty(t, repo.rows)
}

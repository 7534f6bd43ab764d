package notification

import (
	"context"
	"strings"
	"time"

	"github.com/abduss/forum/internal/user"
	"github.com/google/uuid"
)

type repository interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Get(ctx context.Context, id int) (Notification, error)
	Delete(ctx context.Context, id int) error
}

type accountLookup interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
}

// Service manages user notifications.
type Service struct {
	repo     repository
	accounts accountLookup
	nowFunc  func() time.Time
}

// NewService constructs a notification service.
func NewService(repo repository, accounts accountLookup) *Service {
	return &Service{repo: repo, accounts: accounts, nowFunc: time.Now}
}

// Create stores a notification for n.UserID, stamping its date.
func (s *Service) Create(ctx context.Context, n Notification) error {
	if strings.TrimSpace(n.Content) == "" {
		return ErrContentCannotBeNull
	}
	n.Date = s.nowFunc().UTC()
	n.Read = false
	_, err := s.repo.Create(ctx, n)
	return err
}

// ListForUser returns the notifications of username.
func (s *Service) ListForUser(ctx context.Context, username string) ([]Notification, error) {
	u, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, u.ID)
}

// MarkAllRead marks every notification of username as read.
func (s *Service) MarkAllRead(ctx context.Context, username string) error {
	u, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.repo.MarkAllRead(ctx, u.ID)
}

// Delete removes a notification owned by username.
func (s *Service) Delete(ctx context.Context, id int, username string) error {
	u, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != u.ID {
		return user.ErrUserNotAuthorized
	}
	return s.repo.Delete(ctx, id)
}

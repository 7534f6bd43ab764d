package comment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/forum/internal/notification"
	"github.com/abduss/forum/internal/post"
	"github.com/abduss/forum/internal/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type repository interface {
	Create(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id int) (Record, error)
	ListByPost(ctx context.Context, postID int) ([]Record, error)
	UpdateBody(ctx context.Context, id int, body string) error
	Delete(ctx context.Context, id int) error
}

type postLookup interface {
	Get(ctx context.Context, id int, role user.Role) (post.Post, error)
	Touch(ctx context.Context, id int) error
}

type accountLookup interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
}

type profileLookup interface {
	ProfileByID(ctx context.Context, id uuid.UUID) (user.Profile, error)
}

type notifier interface {
	Create(ctx context.Context, n notification.Notification) error
}

// Service manages comments on posts.
type Service struct {
	repo     repository
	posts    postLookup
	accounts accountLookup
	profiles profileLookup
	notify   notifier
	nowFunc  func() time.Time
	log      *zap.Logger
}

// NewService constructs a comment service.
func NewService(repo repository, posts postLookup, accounts accountLookup, profiles profileLookup, notify notifier) *Service {
	return &Service{
		repo:     repo,
		posts:    posts,
		accounts: accounts,
		profiles: profiles,
		notify:   notify,
		nowFunc:  time.Now,
		log:      zap.L().Named("comment"),
	}
}

// Create adds a comment by username to an open post, bumps the post and
// notifies its author when someone else replied.
func (s *Service) Create(ctx context.Context, username string, postID int, body string) (Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Comment{}, ErrBodyCannotBeNull
	}

	author, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return Comment{}, err
	}
	if author.IsBanned {
		return Comment{}, user.ErrUserNotAuthorized
	}
	p, err := s.posts.Get(ctx, postID, author.Role)
	if err != nil {
		return Comment{}, err
	}
	if p.Locked {
		return Comment{}, ErrPostLocked
	}

	rec, err := s.repo.Create(ctx, Record{
		PostID:    postID,
		Body:      body,
		AuthorID:  &author.ID,
		CreatedAt: s.nowFunc().UTC(),
	})
	if err != nil {
		return Comment{}, err
	}

	if err := s.posts.Touch(ctx, postID); err != nil {
		s.log.Warn("bump post activity", zap.Int("post_id", postID), zap.Error(err))
	}
	if p.AuthorID != nil && *p.AuthorID != author.ID {
		category := p.Category
		err := s.notify.Create(ctx, notification.Notification{
			UserID:     *p.AuthorID,
			Content:    fmt.Sprintf("<strong>%s</strong> a répondu à votre post !", author.Username),
			Context:    notification.ContextPost,
			ContextID:  p.ID,
			CategoryID: &category,
		})
		if err != nil {
			s.log.Warn("notify post author", zap.Int("post_id", postID), zap.Error(err))
		}
	}

	return s.view(ctx, rec)
}

// ListByPost returns the comments of a post role may see.
func (s *Service) ListByPost(ctx context.Context, postID int, role user.Role) ([]Comment, error) {
	if _, err := s.posts.Get(ctx, postID, role); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments := make([]Comment, 0, len(records))
	for _, rec := range records {
		c, err := s.view(ctx, rec)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// Get returns a single comment when role may see its post.
func (s *Service) Get(ctx context.Context, id int, role user.Role) (Comment, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return Comment{}, err
	}
	if _, err := s.posts.Get(ctx, rec.PostID, role); err != nil {
		return Comment{}, err
	}
	return s.view(ctx, rec)
}

// Edit rewrites a comment. Authors and moderators only.
func (s *Service) Edit(ctx context.Context, username string, id int, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrBodyCannotBeNull
	}
	if err := s.authorize(ctx, username, id); err != nil {
		return err
	}
	return s.repo.UpdateBody(ctx, id, body)
}

// Delete removes a comment. Authors and moderators only.
func (s *Service) Delete(ctx context.Context, username string, id int) error {
	if err := s.authorize(ctx, username, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) authorize(ctx context.Context, username string, id int) error {
	requester, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !post.CanModify(requester, rec.AuthorID) {
		return user.ErrUserNotAuthorized
	}
	return nil
}

func (s *Service) view(ctx context.Context, rec Record) (Comment, error) {
	author := user.UnknownProfile()
	if rec.AuthorID != nil {
		profile, err := s.profiles.ProfileByID(ctx, *rec.AuthorID)
		if err != nil {
			return Comment{}, err
		}
		author = profile
	}
	return Comment{ID: rec.ID, Post: rec.PostID, Body: rec.Body, Author: author, Date: rec.CreatedAt}, nil
}

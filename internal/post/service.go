package post

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abduss/forum/internal/category"
	"github.com/abduss/forum/internal/image"
	"github.com/abduss/forum/internal/paging"
	"github.com/abduss/forum/internal/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	postsPerPage          = 10
	indexPostsPerCategory = 10
)

type repository interface {
	Create(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id int) (Record, error)
	ListByCategory(ctx context.Context, categoryID, limit, offset int) ([]Record, int, error)
	Update(ctx context.Context, id int, title, body string, at time.Time) error
	SetLocked(ctx context.Context, id int, locked bool) error
	Touch(ctx context.Context, id int, at time.Time) error
	Delete(ctx context.Context, id int) error
}

type categoryLookup interface {
	Get(ctx context.Context, id int, role user.Role) (category.Category, error)
	List(ctx context.Context, role user.Role) ([]category.Category, error)
}

type accountLookup interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
}

type profileLookup interface {
	ProfileByID(ctx context.Context, id uuid.UUID) (user.Profile, error)
}

type imageStore interface {
	SavePostImage(ctx context.Context, postID int, up image.Upload) (string, error)
	PostImagePath(ctx context.Context, postID int) (string, error)
	DeletePostImage(ctx context.Context, postID int) error
}

// Service manages forum posts.
type Service struct {
	repo       repository
	categories categoryLookup
	accounts   accountLookup
	profiles   profileLookup
	images     imageStore
	nowFunc    func() time.Time
	log        *zap.Logger
}

// NewService constructs a post service.
func NewService(repo repository, categories categoryLookup, accounts accountLookup, profiles profileLookup, images imageStore) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		accounts:   accounts,
		profiles:   profiles,
		images:     images,
		nowFunc:    time.Now,
		log:        zap.L().Named("post"),
	}
}

// Create publishes a post by username in a category they can see.
func (s *Service) Create(ctx context.Context, username string, in Input) (Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	var missing []error
	if in.Title == "" {
		missing = append(missing, ErrTitleCannotBeNull)
	}
	if in.Body == "" {
		missing = append(missing, ErrBodyCannotBeNull)
	}
	if len(missing) > 0 {
		return Post{}, errors.Join(missing...)
	}

	author, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return Post{}, err
	}
	if author.IsBanned {
		return Post{}, user.ErrUserNotAuthorized
	}
	if _, err := s.categories.Get(ctx, in.Category, author.Role); err != nil {
		return Post{}, err
	}

	rec, err := s.repo.Create(ctx, Record{
		CategoryID: in.Category,
		Title:      in.Title,
		Body:       in.Body,
		AuthorID:   &author.ID,
		CreatedAt:  s.nowFunc().UTC(),
	})
	if err != nil {
		return Post{}, err
	}
	return s.view(ctx, rec)
}

// Get returns a post when role may see its category.
func (s *Service) Get(ctx context.Context, id int, role user.Role) (Post, error) {
	rec, err := s.visible(ctx, id, role)
	if err != nil {
		return Post{}, err
	}
	return s.view(ctx, rec)
}

// ListByCategory returns one 1-based page of a category's posts. Pages past
// the end fall back to the last page.
func (s *Service) ListByCategory(ctx context.Context, categoryID int, role user.Role, page int) (Page, error) {
	if _, err := s.categories.Get(ctx, categoryID, role); err != nil {
		return Page{}, err
	}

	page = paging.Bound(page, postsPerPage)
	records, count, err := s.repo.ListByCategory(ctx, categoryID, postsPerPage, paging.Offset(page, postsPerPage))
	if err != nil {
		return Page{}, err
	}
	if paging.Beyond(page, count, postsPerPage) {
		last := paging.Last(count, postsPerPage)
		if records, count, err = s.repo.ListByCategory(ctx, categoryID, postsPerPage, paging.Offset(last, postsPerPage)); err != nil {
			return Page{}, err
		}
	}

	posts, err := s.views(ctx, records)
	if err != nil {
		return Page{}, err
	}
	return Page{Count: count, Posts: posts}, nil
}

// Index returns every category role may see, each with its most recently active posts.
func (s *Service) Index(ctx context.Context, role user.Role) ([]Section, error) {
	categories, err := s.categories.List(ctx, role)
	if err != nil {
		return nil, err
	}
	sections := make([]Section, 0, len(categories))
	for _, c := range categories {
		records, _, err := s.repo.ListByCategory(ctx, c.ID, indexPostsPerCategory, 0)
		if err != nil {
			return nil, err
		}
		posts, err := s.views(ctx, records)
		if err != nil {
			return nil, err
		}
		sections = append(sections, Section{Category: c, Posts: posts})
	}
	return sections, nil
}

// Update edits the title and body of a post. Authors and moderators only.
func (s *Service) Update(ctx context.Context, username string, id int, in Input) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if in.Title == "" {
		return ErrTitleCannotBeNull
	}
	if in.Body == "" {
		return ErrBodyCannotBeNull
	}
	if _, err := s.editable(ctx, username, id); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, in.Title, in.Body, s.nowFunc().UTC())
}

// Delete removes a post with its comments and image. Authors and moderators only.
func (s *Service) Delete(ctx context.Context, username string, id int) error {
	if _, err := s.editable(ctx, username, id); err != nil {
		return err
	}

	path, err := s.images.PostImagePath(ctx, id)
	if err != nil {
		return err
	}
	if path != "" {
		if err := s.images.DeletePostImage(ctx, id); err != nil {
			s.log.Warn("delete post image", zap.Int("post_id", id), zap.Error(err))
		}
	}
	return s.repo.Delete(ctx, id)
}

// SetLocked opens or closes a post to comments. Moderators only.
func (s *Service) SetLocked(ctx context.Context, username string, id int, locked bool) error {
	requester, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !requester.Role.AtLeast(user.RoleModerator) {
		return user.ErrUserNotAuthorized
	}
	return s.repo.SetLocked(ctx, id, locked)
}

// AttachImage stores up as the image of a post and returns its path.
func (s *Service) AttachImage(ctx context.Context, username string, id int, up image.Upload) (string, error) {
	if _, err := s.editable(ctx, username, id); err != nil {
		return "", err
	}
	return s.images.SavePostImage(ctx, id, up)
}

// DeleteImage removes the image of a post.
func (s *Service) DeleteImage(ctx context.Context, username string, id int) error {
	if _, err := s.editable(ctx, username, id); err != nil {
		return err
	}
	return s.images.DeletePostImage(ctx, id)
}

// Touch marks a post as just active so it rises in its category listing.
func (s *Service) Touch(ctx context.Context, id int) error {
	return s.repo.Touch(ctx, id, s.nowFunc().UTC())
}

func (s *Service) visible(ctx context.Context, id int, role user.Role) (Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if _, err := s.categories.Get(ctx, rec.CategoryID, role); err != nil {
		if errors.Is(err, category.ErrCategoryNotFound) {
			return Record{}, ErrPostNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) editable(ctx context.Context, username string, id int) (Record, error) {
	requester, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return Record{}, err
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !CanModify(requester, rec.AuthorID) {
		return Record{}, user.ErrUserNotAuthorized
	}
	return rec, nil
}

// CanModify reports whether u may edit content written by authorID.
func CanModify(u user.User, authorID *uuid.UUID) bool {
	if u.Role.AtLeast(user.RoleModerator) {
		return true
	}
	return authorID != nil && *authorID == u.ID
}

func (s *Service) views(ctx context.Context, records []Record) ([]Post, error) {
	posts := make([]Post, 0, len(records))
	for _, rec := range records {
		p, err := s.view(ctx, rec)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Service) view(ctx context.Context, rec Record) (Post, error) {
	author := user.UnknownProfile()
	if rec.AuthorID != nil {
		profile, err := s.profiles.ProfileByID(ctx, *rec.AuthorID)
		if err != nil {
			return Post{}, err
		}
		author = profile
	}
	picture, err := s.images.PostImagePath(ctx, rec.ID)
	if err != nil {
		return Post{}, err
	}
	return Post{
		ID:          rec.ID,
		Category:    rec.CategoryID,
		Title:       rec.Title,
		Body:        rec.Body,
		Author:      author,
		AuthorID:    rec.AuthorID,
		Date:        rec.CreatedAt,
		LastUpdated: rec.LastUpdated,
		Locked:      rec.Locked,
		Image:       picture,
	}, nil
}

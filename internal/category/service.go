package category

import (
	"context"
	"strings"

	"github.com/abduss/forum/internal/paging"
	"github.com/abduss/forum/internal/user"
)

const categoriesPerPage = 10

type repository interface {
	List(ctx context.Context, role user.Role) ([]Category, error)
	ListPage(ctx context.Context, role user.Role, limit, offset int) ([]Category, int, error)
	Get(ctx context.Context, id int) (Category, error)
	Create(ctx context.Context, in Input) (Category, error)
	Update(ctx context.Context, id int, in Input) error
	Delete(ctx context.Context, id int) error
}

// Service orchestrates category operations.
type Service struct {
	repo repository
}

// NewService constructs a category service.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// List returns the categories role may see.
func (s *Service) List(ctx context.Context, role user.Role) ([]Category, error) {
	return s.repo.List(ctx, role)
}

// ListPaginated returns one 1-based page of the categories role may see.
// Pages past the end fall back to the last page.
func (s *Service) ListPaginated(ctx context.Context, role user.Role, page int) (Page, error) {
	page = paging.Bound(page, categoriesPerPage)
	categories, count, err := s.repo.ListPage(ctx, role, categoriesPerPage, paging.Offset(page, categoriesPerPage))
	if err != nil {
		return Page{}, err
	}
	if paging.Beyond(page, count, categoriesPerPage) {
		last := paging.Last(count, categoriesPerPage)
		if categories, count, err = s.repo.ListPage(ctx, role, categoriesPerPage, paging.Offset(last, categoriesPerPage)); err != nil {
			return Page{}, err
		}
	}
	return Page{Count: count, Categories: categories}, nil
}

// Get returns a category when role may see it. Hidden categories are reported as missing.
func (s *Service) Get(ctx context.Context, id int, role user.Role) (Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if !role.AtLeast(c.Role) {
		return Category{}, ErrCategoryNotFound
	}
	return c, nil
}

// Create adds a category. Administrators only.
func (s *Service) Create(ctx context.Context, requester user.Role, in Input) (Category, error) {
	in, err := s.prepare(requester, in)
	if err != nil {
		return Category{}, err
	}
	return s.repo.Create(ctx, in)
}

// Update edits a category. Administrators only.
func (s *Service) Update(ctx context.Context, requester user.Role, id int, in Input) error {
	in, err := s.prepare(requester, in)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a category with its posts. Administrators only.
func (s *Service) Delete(ctx context.Context, requester user.Role, id int) error {
	if !requester.AtLeast(user.RoleAdmin) {
		return user.ErrUserNotAuthorized
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) prepare(requester user.Role, in Input) (Input, error) {
	if !requester.AtLeast(user.RoleAdmin) {
		return Input{}, user.ErrUserNotAuthorized
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return Input{}, ErrNameCannotBeNull
	}
	if in.Role < user.RoleGuest || in.Role > user.RoleAdmin {
		return Input{}, ErrInvalidRole
	}
	return in, nil
}

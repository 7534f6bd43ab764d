package category

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abduss/forum/internal/storage"
	"github.com/abduss/forum/internal/user"
	"github.com/jackc/pgx/v5"
)

const repositoryTimeout = 5 * time.Second

const categoryColumns = `id, name, description, role`

// Repository allows access to category persistence.
type Repository struct {
	db storage.DBTX
}

// NewRepository constructs a category repository.
func NewRepository(db storage.DBTX) *Repository {
	return &Repository{db: db}
}

// List returns every category visible to role, ordered by id.
func (r *Repository) List(ctx context.Context, role user.Role) ([]Category, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE role <= $1 ORDER BY id;`, role)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return collectCategories(rows)
}

// ListPage returns one page of categories visible to role and their total count.
func (r *Repository) ListPage(ctx context.Context, role user.Role, limit, offset int) ([]Category, int, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE role <= $1;`, role).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE role <= $1 ORDER BY id LIMIT $2 OFFSET $3;`
	rows, err := r.db.Query(ctx, query, role, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	categories, err := collectCategories(rows)
	if err != nil {
		return nil, 0, err
	}
	return categories, count, nil
}

// Get returns a category by id regardless of its role.
func (r *Repository) Get(ctx context.Context, id int) (Category, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrCategoryNotFound
		}
		return Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// Create inserts a category.
func (r *Repository) Create(ctx context.Context, in Input) (Category, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
INSERT INTO categories (name, description, role)
VALUES ($1, $2, $3)
RETURNING ` + categoryColumns + `;`

	c, err := scanCategory(r.db.QueryRow(ctx, query, in.Name, in.Description, in.Role))
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return Category{}, ErrCategoryNameTaken
		}
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Update overwrites a category.
func (r *Repository) Update(ctx context.Context, id int, in Input) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE categories SET name = $2, description = $3, role = $4 WHERE id = $1;`,
		id, in.Name, in.Description, in.Role)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return ErrCategoryNameTaken
		}
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// Delete removes a category. Posts and their comments go with it through the foreign keys.
func (r *Repository) Delete(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func collectCategories(rows pgx.Rows) ([]Category, error) {
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Role)
	return c, err
}

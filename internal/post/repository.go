package post

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abduss/forum/internal/storage"
	"github.com/jackc/pgx/v5"
)

const repoTimeout = 5 * time.Second

const postColumns = `id, category_id, title, body, author_id, created_at, last_updated, locked`

// Repository stores posts.
type Repository struct {
	db storage.DBTX
}

// NewRepository constructs a Repository.
func NewRepository(db storage.DBTX) *Repository {
	return &Repository{db: db}
}

// Create inserts a post.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO posts (category_id, title, body, author_id, created_at, last_updated)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING ` + postColumns + `;`

	created, err := scanPost(r.db.QueryRow(ctx, query, rec.CategoryID, rec.Title, rec.Body, rec.AuthorID, rec.CreatedAt))
	if err != nil {
		return Record{}, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// Get fetches a post by id.
func (r *Repository) Get(ctx context.Context, id int) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rec, err := scanPost(r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrPostNotFound
		}
		return Record{}, fmt.Errorf("get post: %w", err)
	}
	return rec, nil
}

// ListByCategory returns one page of a category's posts, most recently active first.
func (r *Repository) ListByCategory(ctx context.Context, categoryID, limit, offset int) ([]Record, int, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE category_id = $1;`, categoryID).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE category_id = $1 ORDER BY last_updated DESC, id DESC LIMIT $2 OFFSET $3;`
	rows, err := r.db.Query(ctx, query, categoryID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate posts: %w", err)
	}
	return records, count, nil
}

// Update rewrites the title and body of a post and bumps its activity date.
func (r *Repository) Update(ctx context.Context, id int, title, body string, at time.Time) error {
	return r.exec(ctx, "update post", `UPDATE posts SET title = $2, body = $3, last_updated = $4 WHERE id = $1;`, id, title, body, at)
}

// SetLocked opens or closes a post to new comments.
func (r *Repository) SetLocked(ctx context.Context, id int, locked bool) error {
	return r.exec(ctx, "lock post", `UPDATE posts SET locked = $2 WHERE id = $1;`, id, locked)
}

// Touch bumps the activity date of a post.
func (r *Repository) Touch(ctx context.Context, id int, at time.Time) error {
	return r.exec(ctx, "touch post", `UPDATE posts SET last_updated = $2 WHERE id = $1;`, id, at)
}

// Delete removes a post and, through the foreign keys, its comments.
func (r *Repository) Delete(ctx context.Context, id int) error {
	return r.exec(ctx, "delete post", `DELETE FROM posts WHERE id = $1;`, id)
}

func (r *Repository) exec(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.CategoryID, &rec.Title, &rec.Body, &rec.AuthorID, &rec.CreatedAt, &rec.LastUpdated, &rec.Locked)
	return rec, err
}

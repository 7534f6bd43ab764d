package comment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abduss/forum/internal/post"
	"github.com/abduss/forum/internal/storage"
	"github.com/jackc/pgx/v5"
)

const repoTimeout = 5 * time.Second

const commentColumns = `id, post_id, body, author_id, created_at`

// Repository stores comments.
type Repository struct {
	db storage.DBTX
}

// NewRepository constructs a Repository.
func NewRepository(db storage.DBTX) *Repository {
	return &Repository{db: db}
}

// Create inserts a comment.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO comments (post_id, body, author_id, created_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + commentColumns + `;`

	created, err := scanComment(r.db.QueryRow(ctx, query, rec.PostID, rec.Body, rec.AuthorID, rec.CreatedAt))
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			return Record{}, post.ErrPostNotFound
		}
		return Record{}, fmt.Errorf("create comment: %w", err)
	}
	return created, nil
}

// Get fetches a comment by id.
func (r *Repository) Get(ctx context.Context, id int) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rec, err := scanComment(r.db.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrCommentNotFound
		}
		return Record{}, fmt.Errorf("get comment: %w", err)
	}
	return rec, nil
}

// ListByPost returns the comments of a post in posting order.
func (r *Repository) ListByPost(ctx context.Context, postID int) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+commentColumns+` FROM comments WHERE post_id = $1 ORDER BY created_at, id;`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return records, nil
}

// UpdateBody rewrites a comment.
func (r *Repository) UpdateBody(ctx context.Context, id int, body string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE comments SET body = $2 WHERE id = $1;`, id, body)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Delete removes a comment.
func (r *Repository) Delete(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func scanComment(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.PostID, &rec.Body, &rec.AuthorID, &rec.CreatedAt)
	return rec, err
}

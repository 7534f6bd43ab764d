package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abduss/forum/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const repoTimeout = 5 * time.Second

const imageColumns = `id, name, path, user_id, post_id`

// Repository stores image metadata.
type Repository struct {
	db storage.DBTX
}

// NewRepository constructs a Repository.
func NewRepository(db storage.DBTX) *Repository {
	return &Repository{db: db}
}

// FindByUser returns the profile picture row of a user.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (Image, error) {
	return r.findOne(ctx, `SELECT `+imageColumns+` FROM images WHERE user_id = $1;`, userID)
}

// FindByPost returns the image attached to a post.
func (r *Repository) FindByPost(ctx context.Context, postID int) (Image, error) {
	return r.findOne(ctx, `SELECT `+imageColumns+` FROM images WHERE post_id = $1;`, postID)
}

// SaveForUser inserts or replaces the profile picture row of a user.
func (r *Repository) SaveForUser(ctx context.Context, name, path string, userID uuid.UUID) (Image, error) {
	query := `
INSERT INTO images (name, path, user_id)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET name = EXCLUDED.name, path = EXCLUDED.path
RETURNING ` + imageColumns + `;`
	return r.save(ctx, query, name, path, userID)
}

// SaveForPost inserts or replaces the image row of a post.
func (r *Repository) SaveForPost(ctx context.Context, name, path string, postID int) (Image, error) {
	query := `
INSERT INTO images (name, path, post_id)
VALUES ($1, $2, $3)
ON CONFLICT (post_id) DO UPDATE SET name = EXCLUDED.name, path = EXCLUDED.path
RETURNING ` + imageColumns + `;`
	return r.save(ctx, query, name, path, postID)
}

// DeleteForPost removes the image row of a post, reporting whether one existed.
func (r *Repository) DeleteForPost(ctx context.Context, postID int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM images WHERE post_id = $1;`, postID)
	if err != nil {
		return false, fmt.Errorf("delete post image: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) save(ctx context.Context, query string, args ...any) (Image, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	img, err := scanImage(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return Image{}, fmt.Errorf("save image: %w", err)
	}
	return img, nil
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (Image, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	img, err := scanImage(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Image{}, ErrImageNotFound
		}
		return Image{}, fmt.Errorf("find image: %w", err)
	}
	return img, nil
}

func scanImage(row pgx.Row) (Image, error) {
	var img Image
	err := row.Scan(&img.ID, &img.Name, &img.Path, &img.UserID, &img.PostID)
	return img, err
}

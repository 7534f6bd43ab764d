package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abduss/forum/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultQueryTimeout = 5 * time.Second

const tokenColumns = `id, user_id, value, expires_at, created_at`

// Repository provides database access for refresh tokens.
type Repository struct {
	db storage.DBTX
}

// NewRepository constructs a new Repository.
func NewRepository(db storage.DBTX) *Repository {
	return &Repository{db: db}
}

// Create persists a refresh token. Several rows per user are tolerated.
func (r *Repository) Create(ctx context.Context, t RefreshToken) (RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO refresh_tokens (user_id, value, expires_at)
VALUES ($1, $2, $3)
RETURNING ` + tokenColumns + `;`

	created, err := scanToken(r.db.QueryRow(ctx, query, t.UserID, t.Value, t.ExpiresAt))
	if err != nil {
		return RefreshToken{}, fmt.Errorf("store refresh token: %w", err)
	}
	return created, nil
}

// DeleteByValue removes the rows holding value and reports whether any existed.
func (r *Repository) DeleteByValue(ctx context.Context, value string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE value = $1;`, value)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByUserID removes every refresh token of a user.
func (r *Repository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1;`, userID); err != nil {
		return fmt.Errorf("delete user refresh tokens: %w", err)
	}
	return nil
}

// FindByUserID returns the user's most recently issued token.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (RefreshToken, error) {
	return r.findOne(ctx, `SELECT `+tokenColumns+` FROM refresh_tokens WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1;`, userID)
}

// FindByValue looks a token up by its value.
func (r *Repository) FindByValue(ctx context.Context, value string) (RefreshToken, error) {
	return r.findOne(ctx, `SELECT `+tokenColumns+` FROM refresh_tokens WHERE value = $1 LIMIT 1;`, value)
}

// FindByValueAndUserID looks a token up by value, scoped to its owner.
func (r *Repository) FindByValueAndUserID(ctx context.Context, value string, userID uuid.UUID) (RefreshToken, error) {
	return r.findOne(ctx, `SELECT `+tokenColumns+` FROM refresh_tokens WHERE value = $1 AND user_id = $2 LIMIT 1;`, value, userID)
}

// ConsumeByValueAndUserID deletes and returns the matching token if it is still
// valid at now. Of two concurrent calls for one value, only one gets the row.
func (r *Repository) ConsumeByValueAndUserID(ctx context.Context, value string, userID uuid.UUID, now time.Time) (RefreshToken, error) {
	query := `
DELETE FROM refresh_tokens
WHERE id = (
    SELECT id FROM refresh_tokens
    WHERE value = $1 AND user_id = $2 AND expires_at > $3
    LIMIT 1
)
RETURNING ` + tokenColumns + `;`
	return r.findOne(ctx, query, value, userID, now)
}

// DeleteAllExpired removes every token whose expiry is before now.
func (r *Repository) DeleteAllExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1;`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeAll drops every refresh token, signing every user out at their next renewal.
func (r *Repository) PurgeAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, `TRUNCATE TABLE refresh_tokens;`); err != nil {
		return fmt.Errorf("purge refresh tokens: %w", err)
	}
	return nil
}

func (r *Repository) findOne(ctx context.Context, query string, args ...any) (RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	t, err := scanToken(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RefreshToken{}, ErrRefreshTokenNotFound
		}
		return RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}
	return t, nil
}

func scanToken(row pgx.Row) (RefreshToken, error) {
	var t RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.Value, &t.ExpiresAt, &t.CreatedAt)
	return t, err
}

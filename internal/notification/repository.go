package notification

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

const notificationColumns = `id, user_id, content, context, context_id, category_id, created_at, is_read`

// Repository stores notifications.
type Repository struct {
	db storage.DBTX
}

// NewRepository constructs a Repository.
func NewRepository(db storage.DBTX) *Repository {
	return &Repository{db: db}
}

// Create inserts a notification.
func (r *Repository) Create(ctx context.Context, n Notification) (Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO notifications (user_id, content, context, context_id, category_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + notificationColumns + `;`

	created, err := scanNotification(r.db.QueryRow(ctx, query, n.UserID, n.Content, n.Context, n.ContextID, n.CategoryID, n.Date))
	if err != nil {
		return Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return created, nil
}

// ListByUser returns a user's notifications, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC;`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

// MarkAllRead flags every unread notification of a user as read.
func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE;`, userID); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// Get returns a notification by id.
func (r *Repository) Get(ctx context.Context, id int) (Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	n, err := scanNotification(r.db.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, ErrNotificationNotFound
		}
		return Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// Delete removes a notification.
func (r *Repository) Delete(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Content, &n.Context, &n.ContextID, &n.CategoryID, &n.Date, &n.Read)
	return n, err
}

package conversation

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

const (
	conversationColumns = `id, first_user, second_user, last_message_date`
	messageColumns      = `id, conversation_id, content, sender_id, created_at`
)

// Repository stores conversations and their messages.
type Repository struct {
	db storage.DBTX
}

// NewRepository constructs a Repository.
func NewRepository(db storage.DBTX) *Repository {
	return &Repository{db: db}
}

// Create opens a conversation between two users.
func (r *Repository) Create(ctx context.Context, first, second uuid.UUID, at time.Time) (Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO conversations (first_user, second_user, last_message_date)
VALUES ($1, $2, $3)
RETURNING ` + conversationColumns + `;`

	conv, err := scanConversation(r.db.QueryRow(ctx, query, first, second, at))
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// Get fetches a conversation by id.
func (r *Repository) Get(ctx context.Context, id int) (Conversation, error) {
	return r.findConversation(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1;`, id)
}

// FindBetween returns the conversation two users share, in either order.
func (r *Repository) FindBetween(ctx context.Context, a, b uuid.UUID) (Conversation, error) {
	query := `
SELECT ` + conversationColumns + `
FROM conversations
WHERE (first_user = $1 AND second_user = $2) OR (first_user = $2 AND second_user = $1)
ORDER BY id
LIMIT 1;`
	return r.findConversation(ctx, query, a, b)
}

// ListForUser returns the conversations of a user, most recent activity first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + conversationColumns + `
FROM conversations
WHERE first_user = $1 OR second_user = $1
ORDER BY last_message_date DESC, id DESC;`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return conversations, nil
}

// Touch records a new message date on a conversation.
func (r *Repository) Touch(ctx context.Context, id int, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE conversations SET last_message_date = $2 WHERE id = $1;`, id, at)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// CreateMessage inserts a message.
func (r *Repository) CreateMessage(ctx context.Context, m MessageRecord) (MessageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO messages (conversation_id, content, sender_id, created_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + messageColumns + `;`

	created, err := scanMessage(r.db.QueryRow(ctx, query, m.ConversationID, m.Content, m.SenderID, m.Date))
	if err != nil {
		return MessageRecord{}, fmt.Errorf("create message: %w", err)
	}
	return created, nil
}

// ListMessages returns the messages of a conversation in sending order.
func (r *Repository) ListMessages(ctx context.Context, conversationID int) ([]MessageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+messageColumns+` FROM messages WHERE conversation_id = $1 ORDER BY created_at, id;`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]MessageRecord, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// GetMessage fetches a message by id.
func (r *Repository) GetMessage(ctx context.Context, id int) (MessageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	m, err := scanMessage(r.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MessageRecord{}, ErrMessageNotFound
		}
		return MessageRecord{}, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// DeleteMessage removes a message.
func (r *Repository) DeleteMessage(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *Repository) findConversation(ctx context.Context, query string, args ...any) (Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	conv, err := scanConversation(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, ErrConversationNotFound
		}
		return Conversation{}, fmt.Errorf("find conversation: %w", err)
	}
	return conv, nil
}

func scanConversation(row pgx.Row) (Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.FirstUser, &c.SecondUser, &c.LastMessageDate)
	return c, err
}

func scanMessage(row pgx.Row) (MessageRecord, error) {
	var m MessageRecord
	err := row.Scan(&m.ID, &m.ConversationID, &m.Content, &m.SenderID, &m.Date)
	return m, err
}

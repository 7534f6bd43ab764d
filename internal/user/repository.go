package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/forum/internal/paging"
	"github.com/abduss/forum/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const repoTimeout = 5 * time.Second

const userColumns = `id, username, email, password_hash, email_confirmed, role, is_banned, description, access_failed_count, lockout_end, created_at, updated_at`

// Repository provides database access for user accounts.
type Repository struct {
	db storage.DBTX
}

// NewRepository constructs a new Repository.
func NewRepository(db storage.DBTX) *Repository {
	return &Repository{db: db}
}

// Create persists a new user record.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO users (id, username, email, password_hash, email_confirmed, role, is_banned, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + userColumns + `;`

	row := r.db.QueryRow(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.EmailConfirmed, u.Role, u.IsBanned, u.Description)
	created, err := scanUser(row)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return User{}, duplicateError(err)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// FindByID fetches a user by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1;`, id)
}

// FindByUsername fetches a user by exact username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1;`, username)
}

// FindByEmail fetches a user by email, ignoring case.
func (r *Repository) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1;`, strings.ToLower(email))
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// Update overwrites the mutable columns of a user.
func (r *Repository) Update(ctx context.Context, u User) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE users
SET username = $2, email = $3, password_hash = $4, email_confirmed = $5, role = $6, is_banned = $7,
    description = $8, access_failed_count = $9, lockout_end = $10, updated_at = NOW()
WHERE id = $1;`

	tag, err := r.db.Exec(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.EmailConfirmed, u.Role,
		u.IsBanned, u.Description, u.AccessFailedCount, u.LockoutEnd)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return duplicateError(err)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user row. Only used to roll back a registration that could not be confirmed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1;`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Search returns users whose username contains term, excluding one username.
func (r *Repository) Search(ctx context.Context, term, exclude string, limit int) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + userColumns + `
FROM users
WHERE username ILIKE '%' || $1 || '%' AND username <> $2
ORDER BY username
LIMIT $3;`

	rows, err := r.db.Query(ctx, query, term, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return collectUsers(rows)
}

// List returns one page of users matching q together with the total match count.
func (r *Repository) List(ctx context.Context, q ListQuery, limit int) ([]User, int, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	where, args := listFilter(q)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where+`;`, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	offset := paging.Offset(q.Page, limit)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY username LIMIT $%d OFFSET $%d;`,
		userColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

func listFilter(q ListQuery) (string, []any) {
	var clauses []string
	var args []any

	switch q.Filter {
	case FilterNotBanned:
		clauses = append(clauses, "is_banned = FALSE")
	case FilterBanned:
		clauses = append(clauses, "is_banned = TRUE")
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		args = append(args, term)
		clauses = append(clauses, fmt.Sprintf("username ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.EmailConfirmed,
		&u.Role,
		&u.IsBanned,
		&u.Description,
		&u.AccessFailedCount,
		&u.LockoutEnd,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func duplicateError(err error) error {
	if strings.Contains(storage.ConstraintName(err), "email") {
		return ErrEmailAlreadyTaken
	}
	return ErrUsernameAlreadyTaken
}

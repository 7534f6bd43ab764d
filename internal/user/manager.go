package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/forum/internal/config"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt limit
)

type userRepository interface {
	Create(ctx context.Context, u User) (User, error)
	FindByID(ctx context.Context, id uuid.UUID) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, term, exclude string, limit int) ([]User, error)
	List(ctx context.Context, q ListQuery, limit int) ([]User, int, error)
}

type emailTokens interface {
	Issue(ctx context.Context, purpose TokenPurpose, userID uuid.UUID) (string, error)
	Consume(ctx context.Context, purpose TokenPurpose, userID uuid.UUID, token string) error
}

// Manager is the user store: lookups, password hashing and verification,
// and the one-time email tokens.
type Manager struct {
	repo        userRepository
	tokens      emailTokens
	bcryptCost  int
	maxFailures int
	lockout     time.Duration
	nowFunc     func() time.Time
}

// NewManager wires a Manager.
func NewManager(repo userRepository, tokens emailTokens, cfg config.AuthConfig) *Manager {
	return &Manager{
		repo:        repo,
		tokens:      tokens,
		bcryptCost:  cfg.BcryptCost,
		maxFailures: cfg.MaxFailedAttempts,
		lockout:     cfg.LockoutDuration,
		nowFunc:     time.Now,
	}
}

// FindByUsername returns ErrUserNotFound for blank or unknown names.
func (m *Manager) FindByUsername(ctx context.Context, username string) (User, error) {
	if strings.TrimSpace(username) == "" {
		return User{}, ErrUserNotFound
	}
	return m.repo.FindByUsername(ctx, username)
}

// FindByEmail returns ErrUserNotFound for blank or unknown addresses.
func (m *Manager) FindByEmail(ctx context.Context, email string) (User, error) {
	if strings.TrimSpace(email) == "" {
		return User{}, ErrUserNotFound
	}
	return m.repo.FindByEmail(ctx, strings.TrimSpace(email))
}

// FindByID accepts the textual id used on the wire.
func (m *Manager) FindByID(ctx context.Context, id string) (User, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return User{}, ErrUserNotFound
	}
	return m.repo.FindByID(ctx, parsed)
}

// Create hashes the password and stores a new, unconfirmed standard user.
func (m *Manager) Create(ctx context.Context, in RegisterInput) (User, error) {
	hash, err := m.hashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	return m.repo.Create(ctx, User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         RoleStandard,
	})
}

// Update persists u.
func (m *Manager) Update(ctx context.Context, u User) error {
	return m.repo.Update(ctx, u)
}

// Delete physically removes a user.
func (m *Manager) Delete(ctx context.Context, u User) error {
	return m.repo.Delete(ctx, u.ID)
}

// Search delegates to the repository.
func (m *Manager) Search(ctx context.Context, term, exclude string, limit int) ([]User, error) {
	return m.repo.Search(ctx, term, exclude, limit)
}

// List delegates to the repository.
func (m *Manager) List(ctx context.Context, q ListQuery, limit int) ([]User, int, error) {
	return m.repo.List(ctx, q, limit)
}

// VerifyPassword checks password for u. A correct password on an unconfirmed
// account reports NotAllowed. Failed attempts lock the account only when
// lockout is enabled.
func (m *Manager) VerifyPassword(ctx context.Context, u User, password string) (VerifyResult, error) {
	now := m.nowFunc()
	if u.LockedOut(now) {
		return VerifyResult{LockedOut: true}, nil
	}

	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return m.recordFailure(ctx, u, now)
	}

	if u.AccessFailedCount > 0 || u.LockoutEnd != nil {
		u.AccessFailedCount = 0
		u.LockoutEnd = nil
		if err := m.repo.Update(ctx, u); err != nil {
			return VerifyResult{}, fmt.Errorf("reset failed attempts: %w", err)
		}
	}

	if !u.EmailConfirmed {
		return VerifyResult{NotAllowed: true}, nil
	}
	return VerifyResult{Succeeded: true}, nil
}

func (m *Manager) recordFailure(ctx context.Context, u User, now time.Time) (VerifyResult, error) {
	if m.maxFailures <= 0 {
		return VerifyResult{}, nil
	}

	u.AccessFailedCount++
	locked := false
	if u.AccessFailedCount >= m.maxFailures {
		end := now.Add(m.lockout)
		u.LockoutEnd = &end
		u.AccessFailedCount = 0
		locked = true
	}
	if err := m.repo.Update(ctx, u); err != nil {
		return VerifyResult{}, fmt.Errorf("record failed attempt: %w", err)
	}
	return VerifyResult{LockedOut: locked}, nil
}

// ChangePassword replaces the password after checking the current one.
func (m *Manager) ChangePassword(ctx context.Context, u User, current, next string) error {
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrIncorrectPassword
	}
	return m.setPassword(ctx, u, next)
}

// CheckPassword reports whether password matches without touching lockout state.
func (m *Manager) CheckPassword(u User, password string) bool {
	return u.PasswordHash != "" && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// GenerateConfirmationToken issues a one-time email confirmation token.
func (m *Manager) GenerateConfirmationToken(ctx context.Context, u User) (string, error) {
	return m.tokens.Issue(ctx, PurposeConfirmEmail, u.ID)
}

// ConfirmEmail consumes token and marks the address confirmed.
func (m *Manager) ConfirmEmail(ctx context.Context, u User, token string) error {
	if err := m.tokens.Consume(ctx, PurposeConfirmEmail, u.ID, token); err != nil {
		return err
	}
	u.EmailConfirmed = true
	return m.repo.Update(ctx, u)
}

// GeneratePasswordResetToken issues a one-time password reset token.
func (m *Manager) GeneratePasswordResetToken(ctx context.Context, u User) (string, error) {
	return m.tokens.Issue(ctx, PurposeResetPassword, u.ID)
}

// ResetPassword consumes token and stores the new password.
func (m *Manager) ResetPassword(ctx context.Context, u User, token, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}
	if err := m.tokens.Consume(ctx, PurposeResetPassword, u.ID, token); err != nil {
		return err
	}
	return m.setPassword(ctx, u, next)
}

func (m *Manager) setPassword(ctx context.Context, u User, next string) error {
	hash, err := m.hashPassword(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return m.repo.Update(ctx, u)
}

func (m *Manager) hashPassword(password string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func validatePassword(password string) error {
	switch {
	case strings.TrimSpace(password) == "":
		return ErrPasswordCannotBeNull
	case len(password) < minPasswordLength:
		return ErrPasswordTooShort
	case len(password) > maxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

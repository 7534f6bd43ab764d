package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/forum/internal/config"
	"github.com/abduss/forum/internal/metrics"
	"github.com/abduss/forum/internal/token"
	"github.com/abduss/forum/internal/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	refreshTokenLength = 48
	sweepTimeout       = 30 * time.Second
)

// userStore abstracts the account lookups the session flow needs.
type userStore interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByUsername(ctx context.Context, username string) (user.User, error)
	VerifyPassword(ctx context.Context, u user.User, password string) (user.VerifyResult, error)
}

type confirmationSender interface {
	ResendConfirmation(ctx context.Context, u user.User) error
}

type refreshStore interface {
	Create(ctx context.Context, t RefreshToken) (RefreshToken, error)
	DeleteByValue(ctx context.Context, value string) (bool, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (RefreshToken, error)
	ConsumeByValueAndUserID(ctx context.Context, value string, userID uuid.UUID, now time.Time) (RefreshToken, error)
	DeleteAllExpired(ctx context.Context, now time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
}

type accessIssuer interface {
	Issue(sub token.Subject) (string, time.Time, error)
}

// Service runs sign-in, token renewal and disconnect. It keeps no state of its own.
type Service struct {
	users         userStore
	confirmations confirmationSender
	tokens        refreshStore
	access        accessIssuer
	refreshTTL    time.Duration
	nowFunc       func() time.Time
	runAsync      func(func())
	log           *zap.Logger
}

// NewService creates a Service with dependencies.
func NewService(users userStore, confirmations confirmationSender, tokens refreshStore, access accessIssuer, cfg config.AuthConfig) *Service {
	return &Service{
		users:         users,
		confirmations: confirmations,
		tokens:        tokens,
		access:        access,
		refreshTTL:    cfg.RefreshTokenTTL,
		nowFunc:       time.Now,
		runAsync:      func(f func()) { go f() },
		log:           zap.L().Named("auth"),
	}
}

// SignIn authenticates by email and password and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (SigningResult, error) {
	var missing []error
	if strings.TrimSpace(email) == "" {
		missing = append(missing, ErrEmailCannotBeNull)
	}
	if strings.TrimSpace(password) == "" {
		missing = append(missing, ErrPasswordCannotBeNull)
	}
	if len(missing) > 0 {
		metrics.ObserveSignIn("invalid_input")
		return SigningResult{}, errors.Join(missing...)
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			metrics.ObserveSignIn("wrong_credentials")
			return SigningResult{}, ErrWrongEmailOrPassword
		}
		return SigningResult{}, fmt.Errorf("find user: %w", err)
	}

	verdict, err := s.users.VerifyPassword(ctx, u, password)
	if err != nil {
		return SigningResult{}, fmt.Errorf("verify password: %w", err)
	}
	if err := s.rejectVerdict(ctx, u, verdict); err != nil {
		return SigningResult{}, err
	}

	if u.IsBanned {
		metrics.ObserveSignIn("banned")
		return SigningResult{}, ErrUserBanned
	}

	value, err := s.signInTokenValue(ctx, u)
	if err != nil {
		return SigningResult{}, err
	}
	result, err := s.openSession(ctx, u, value)
	if err != nil {
		return SigningResult{}, err
	}
	metrics.ObserveSignIn("success")
	return result, nil
}

func (s *Service) rejectVerdict(ctx context.Context, u user.User, verdict user.VerifyResult) error {
	switch {
	case verdict.Succeeded:
		return nil
	case verdict.NotAllowed && !u.EmailConfirmed:
		if err := s.confirmations.ResendConfirmation(ctx, u); err != nil {
			s.log.Warn("confirmation resend failed", zap.String("user_id", u.ID.String()), zap.Error(err))
			metrics.ObserveSignIn("not_allowed")
			return ErrAccountNotAllowed
		}
		metrics.ObserveSignIn("unconfirmed")
		return ErrConfirmationEmailResent
	case verdict.LockedOut:
		metrics.ObserveSignIn("locked")
		return ErrAccountLocked
	case verdict.NotAllowed:
		metrics.ObserveSignIn("not_allowed")
		return ErrAccountNotAllowed
	default:
		metrics.ObserveSignIn("wrong_credentials")
		return ErrWrongEmailOrPassword
	}
}

// signInTokenValue reuses the value of an expired token left by a previous
// session and mints a fresh one otherwise.
func (s *Service) signInTokenValue(ctx context.Context, u user.User) (string, error) {
	existing, err := s.tokens.FindByUserID(ctx, u.ID)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return newTokenValue()
		}
		return "", fmt.Errorf("find refresh token: %w", err)
	}

	if existing.ValidAt(s.nowFunc()) {
		return newTokenValue()
	}
	if _, err := s.tokens.DeleteByValue(ctx, existing.Value); err != nil {
		return "", err
	}
	return existing.Value, nil
}

// RenewToken exchanges a valid refresh token for a new token pair.
func (s *Service) RenewToken(ctx context.Context, username, refreshToken string) (SigningResult, error) {
	var missing []error
	if strings.TrimSpace(username) == "" {
		missing = append(missing, ErrUsernameCannotBeNull)
	}
	if strings.TrimSpace(refreshToken) == "" {
		missing = append(missing, ErrRefreshTokenCannotBeNull)
	}
	if len(missing) > 0 {
		metrics.ObserveRenewal("invalid_input")
		return SigningResult{}, errors.Join(missing...)
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			metrics.ObserveRenewal("unknown_user")
		}
		return SigningResult{}, err
	}
	if u.IsBanned {
		metrics.ObserveRenewal("banned")
		return SigningResult{}, ErrUserBanned
	}

	old, err := s.tokens.ConsumeByValueAndUserID(ctx, refreshToken, u.ID, s.nowFunc())
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			metrics.ObserveRenewal("rejected")
			return SigningResult{}, ErrRenewalFailed
		}
		return SigningResult{}, fmt.Errorf("consume refresh token: %w", err)
	}

	value, err := newTokenValue()
	for err == nil && value == old.Value {
		value, err = newTokenValue()
	}
	if err != nil {
		return SigningResult{}, err
	}

	result, err := s.openSession(ctx, u, value)
	if err != nil {
		return SigningResult{}, err
	}
	metrics.ObserveRenewal("success")
	return result, nil
}

// Disconnect drops the user's refresh tokens. Already issued access tokens
// stay valid until they expire.
func (s *Service) Disconnect(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return nil
	}
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}
	return s.tokens.DeleteByUserID(ctx, u.ID)
}

// PurgeAll deletes every refresh token.
func (s *Service) PurgeAll(ctx context.Context) error {
	return s.tokens.PurgeAll(ctx)
}

func (s *Service) openSession(ctx context.Context, u user.User, value string) (SigningResult, error) {
	accessToken, _, err := s.access.Issue(token.Subject{
		Username: u.Username,
		Role:     int(u.Role),
		IsBanned: u.IsBanned,
	})
	if err != nil {
		return SigningResult{}, err
	}

	_, err = s.tokens.Create(ctx, RefreshToken{
		UserID:    u.ID,
		Value:     value,
		ExpiresAt: s.nowFunc().Add(s.refreshTTL),
	})
	if err != nil {
		return SigningResult{}, err
	}
	s.runAsync(s.sweep)

	return SigningResult{Token: accessToken, RefreshToken: value, IsBanned: u.IsBanned}, nil
}

// sweep runs detached from the request that triggered it.
func (s *Service) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.tokens.DeleteAllExpired(ctx, s.nowFunc())
	if err != nil {
		s.log.Warn("refresh token sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		metrics.AddSweptTokens(n)
		s.log.Debug("expired refresh tokens swept", zap.Int64("count", n))
	}
}

func newTokenValue() (string, error) {
	raw := make([]byte, refreshTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

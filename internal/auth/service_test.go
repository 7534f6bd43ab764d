package auth

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/abduss/forum/internal/apperr"
	"github.com/abduss/forum/internal/config"
	"github.com/abduss/forum/internal/token"
	"github.com/abduss/forum/internal/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	user     user.User
	password string
	verdict  *user.VerifyResult
}

type memoryUsers struct {
	byEmail map[string]*account
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: make(map[string]*account)}
}

func (m *memoryUsers) add(username, password string, mutate func(*user.User)) user.User {
	u := user.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          username + "@example.com",
		Role:           user.RoleStandard,
		EmailConfirmed: true,
	}
	if mutate != nil {
		mutate(&u)
	}
	m.byEmail[u.Email] = &account{user: u, password: password}
	return u
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (user.User, error) {
	if a, ok := m.byEmail[email]; ok {
		return a.user, nil
	}
	return user.User{}, user.ErrUserNotFound
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (user.User, error) {
	for _, a := range m.byEmail {
		if a.user.Username == username {
			return a.user, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (m *memoryUsers) VerifyPassword(_ context.Context, u user.User, password string) (user.VerifyResult, error) {
	a := m.byEmail[u.Email]
	if a.verdict != nil {
		return *a.verdict, nil
	}
	if a.password != password {
		return user.VerifyResult{}, nil
	}
	if !u.EmailConfirmed {
		return user.VerifyResult{NotAllowed: true}, nil
	}
	return user.VerifyResult{Succeeded: true}, nil
}

type fakeConfirmations struct {
	fail bool
	sent []uuid.UUID
}

func (f *fakeConfirmations) ResendConfirmation(_ context.Context, u user.User) error {
	if f.fail {
		return user.ErrEmailNotSent
	}
	f.sent = append(f.sent, u.ID)
	return nil
}

type memoryTokens struct {
	mu     sync.Mutex
	rows   []RefreshToken
	nextID int64
	swept  int
}

func (m *memoryTokens) Create(_ context.Context, t RefreshToken) (RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now()
	m.rows = append(m.rows, t)
	return t, nil
}

func (m *memoryTokens) DeleteByValue(_ context.Context, value string) (bool, error) {
	return m.remove(func(t RefreshToken) bool { return t.Value == value }) > 0, nil
}

func (m *memoryTokens) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	m.remove(func(t RefreshToken) bool { return t.UserID == userID })
	return nil
}

func (m *memoryTokens) FindByUserID(_ context.Context, userID uuid.UUID) (RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID == userID {
			return m.rows[i], nil
		}
	}
	return RefreshToken{}, ErrRefreshTokenNotFound
}

func (m *memoryTokens) ConsumeByValueAndUserID(_ context.Context, value string, userID uuid.UUID, now time.Time) (RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.rows {
		if t.Value == value && t.UserID == userID && t.ValidAt(now) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return t, nil
		}
	}
	return RefreshToken{}, ErrRefreshTokenNotFound
}

func (m *memoryTokens) DeleteAllExpired(_ context.Context, now time.Time) (int64, error) {
	m.swept++
	return int64(m.remove(func(t RefreshToken) bool { return t.ExpiresAt.Before(now) })), nil
}

func (m *memoryTokens) PurgeAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	return nil
}

func (m *memoryTokens) remove(match func(RefreshToken) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	removed := 0
	for _, t := range m.rows {
		if match(t) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	m.rows = kept
	return removed
}

func (m *memoryTokens) valuesFor(userID uuid.UUID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var values []string
	for _, t := range m.rows {
		if t.UserID == userID {
			values = append(values, t.Value)
		}
	}
	sort.Strings(values)
	return values
}

var testConfig = config.AuthConfig{
	AccessTokenSecret: "test-secret-test-secret-test-secret-test-secret-test-secret-1234",
	AccessTokenTTL:    5 * time.Minute,
	RefreshTokenTTL:   7 * 24 * time.Hour,
	Issuer:            "Projet_Forum",
	Audience:          "clients",
}

type harness struct {
	users         *memoryUsers
	confirmations *fakeConfirmations
	tokens        *memoryTokens
	issuer        *token.Issuer
	service       *Service
	now           time.Time
}

func newHarness() *harness {
	h := &harness{
		users:         newMemoryUsers(),
		confirmations: &fakeConfirmations{},
		tokens:        &memoryTokens{},
		issuer:        token.NewIssuer(testConfig),
		now:           time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	h.service = NewService(h.users, h.confirmations, h.tokens, h.issuer, testConfig)
	h.service.nowFunc = func() time.Time { return h.now }
	h.service.runAsync = func(f func()) { f() }
	return h
}

func TestSignInSucceeds(t *testing.T) {
	h := newHarness()
	alice := h.users.add("alice", "Password123!", nil)

	result, err := h.service.SignIn(context.Background(), "alice@example.com", "Password123!")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.False(t, result.IsBanned)
	assert.Equal(t, []string{result.RefreshToken}, h.tokens.valuesFor(alice.ID))

	row, err := h.tokens.FindByUserID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, h.now.Add(7*24*time.Hour), row.ExpiresAt)
	assert.Equal(t, 1, h.tokens.swept, "creating a refresh token triggers the sweep")
}

func TestSignInTokenCarriesIdentity(t *testing.T) {
	h := newHarness()
	h.users.add("mona", "Password123!", func(u *user.User) { u.Role = user.RoleModerator })

	result, err := h.service.SignIn(context.Background(), "mona@example.com", "Password123!")
	require.NoError(t, err)

	claims, err := h.issuer.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "mona", claims.Username)
	assert.Equal(t, "2", claims.Role)
	assert.Equal(t, "false", claims.IsBanned)
}

func TestSignInRejectsBlankFields(t *testing.T) {
	h := newHarness()

	tests := []struct {
		name     string
		email    string
		password string
		codes    []string
	}{
		{name: "both", email: " ", password: "", codes: []string{"EmailCannotBeNull", "PasswordCannotBeNull"}},
		{name: "email", email: "", password: "x", codes: []string{"EmailCannotBeNull"}},
		{name: "password", email: "a@b.c", password: "\t", codes: []string{"PasswordCannotBeNull"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.service.SignIn(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			assert.Equal(t, SigningResult{}, result)
			assert.Equal(t, tt.codes, apperr.Codes(err))
			kind, _ := apperr.KindOf(err)
			assert.Equal(t, apperr.KindInvalidInput, kind)
		})
	}
	assert.Empty(t, h.tokens.rows)
}

func TestSignInWrongCredentials(t *testing.T) {
	h := newHarness()
	h.users.add("alice", "Password123!", nil)

	_, err := h.service.SignIn(context.Background(), "nobody@example.com", "Password123!")
	assert.ErrorIs(t, err, ErrWrongEmailOrPassword)

	_, err = h.service.SignIn(context.Background(), "alice@example.com", "nope")
	assert.ErrorIs(t, err, ErrWrongEmailOrPassword)
	assert.Empty(t, h.tokens.rows)
}

func TestSignInBannedUser(t *testing.T) {
	h := newHarness()
	h.users.add("bob", "Password123!", func(u *user.User) { u.IsBanned = true })

	result, err := h.service.SignIn(context.Background(), "bob@example.com", "Password123!")
	require.Error(t, err)
	assert.Equal(t, []string{"UserBanned"}, apperr.Codes(err))
	assert.Equal(t, SigningResult{}, result)
	assert.Empty(t, h.tokens.rows)
}

func TestSignInUnconfirmedResendsConfirmation(t *testing.T) {
	h := newHarness()
	erin := h.users.add("erin", "Password123!", func(u *user.User) { u.EmailConfirmed = false })

	_, err := h.service.SignIn(context.Background(), "erin@example.com", "Password123!")
	assert.ErrorIs(t, err, ErrConfirmationEmailResent)
	assert.Equal(t, []uuid.UUID{erin.ID}, h.confirmations.sent)

	_, err = h.service.SignIn(context.Background(), "erin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrWrongEmailOrPassword)
	assert.Len(t, h.confirmations.sent, 1, "no resend without the right password")

	h.confirmations.fail = true
	_, err = h.service.SignIn(context.Background(), "erin@example.com", "Password123!")
	assert.ErrorIs(t, err, ErrAccountNotAllowed)
	assert.Empty(t, h.tokens.rows)
}

func TestSignInAccountStates(t *testing.T) {
	h := newHarness()
	h.users.add("lock", "Password123!", nil)
	h.users.byEmail["lock@example.com"].verdict = &user.VerifyResult{LockedOut: true}
	h.users.add("deny", "Password123!", nil)
	h.users.byEmail["deny@example.com"].verdict = &user.VerifyResult{NotAllowed: true}

	_, err := h.service.SignIn(context.Background(), "lock@example.com", "Password123!")
	assert.ErrorIs(t, err, ErrAccountLocked)

	_, err = h.service.SignIn(context.Background(), "deny@example.com", "Password123!")
	assert.ErrorIs(t, err, ErrAccountNotAllowed)
	assert.Empty(t, h.confirmations.sent, "confirmed accounts are never sent a confirmation")
}

func TestSignInReusesExpiredTokenValue(t *testing.T) {
	h := newHarness()
	alice := h.users.add("alice", "Password123!", nil)
	_, _ = h.tokens.Create(context.Background(), RefreshToken{UserID: alice.ID, Value: "stale", ExpiresAt: h.now.Add(-time.Hour)})

	result, err := h.service.SignIn(context.Background(), "alice@example.com", "Password123!")
	require.NoError(t, err)
	assert.Equal(t, "stale", result.RefreshToken)
	assert.Equal(t, []string{"stale"}, h.tokens.valuesFor(alice.ID))

	row, _ := h.tokens.FindByUserID(context.Background(), alice.ID)
	assert.True(t, row.ValidAt(h.now))
}

func TestSignInKeepsValidTokenAndMintsNew(t *testing.T) {
	h := newHarness()
	alice := h.users.add("alice", "Password123!", nil)
	_, _ = h.tokens.Create(context.Background(), RefreshToken{UserID: alice.ID, Value: "live", ExpiresAt: h.now.Add(time.Hour)})

	result, err := h.service.SignIn(context.Background(), "alice@example.com", "Password123!")
	require.NoError(t, err)
	assert.NotEqual(t, "live", result.RefreshToken)
	assert.ElementsMatch(t, []string{"live", result.RefreshToken}, h.tokens.valuesFor(alice.ID))
}

func TestRenewTokenExpiredFails(t *testing.T) {
	h := newHarness()
	carol := h.users.add("carol", "Password123!", nil)
	_, _ = h.tokens.Create(context.Background(), RefreshToken{UserID: carol.ID, Value: "v1", ExpiresAt: h.now.Add(-time.Millisecond)})

	result, err := h.service.RenewToken(context.Background(), "carol", "v1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRenewalFailed)
	assert.Empty(t, apperr.Codes(err))
	assert.Equal(t, SigningResult{}, result)
	assert.Equal(t, []string{"v1"}, h.tokens.valuesFor(carol.ID), "no new token created")
	assert.Zero(t, h.tokens.swept)
}

func TestRenewTokenExpiryBoundary(t *testing.T) {
	h := newHarness()
	carol := h.users.add("carol", "Password123!", nil)
	_, _ = h.tokens.Create(context.Background(), RefreshToken{UserID: carol.ID, Value: "v1", ExpiresAt: h.now})

	_, err := h.service.RenewToken(context.Background(), "carol", "v1")
	assert.ErrorIs(t, err, ErrRenewalFailed, "expiry equal to now is expired")
}

func TestRenewTokenRotates(t *testing.T) {
	h := newHarness()
	dave := h.users.add("dave", "Password123!", nil)
	_, _ = h.tokens.Create(context.Background(), RefreshToken{UserID: dave.ID, Value: "v1", ExpiresAt: h.now.Add(7 * 24 * time.Hour)})

	result, err := h.service.RenewToken(context.Background(), "dave", "v1")
	require.NoError(t, err)

	assert.NotEqual(t, "v1", result.RefreshToken)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, []string{result.RefreshToken}, h.tokens.valuesFor(dave.ID))

	_, err = h.service.RenewToken(context.Background(), "dave", "v1")
	assert.ErrorIs(t, err, ErrRenewalFailed, "a consumed value cannot be replayed")
}

func TestRenewTokenRejectsOtherUsersToken(t *testing.T) {
	h := newHarness()
	dave := h.users.add("dave", "Password123!", nil)
	h.users.add("eve", "Password123!", nil)
	_, _ = h.tokens.Create(context.Background(), RefreshToken{UserID: dave.ID, Value: "v1", ExpiresAt: h.now.Add(time.Hour)})

	_, err := h.service.RenewToken(context.Background(), "eve", "v1")
	assert.ErrorIs(t, err, ErrRenewalFailed)
	assert.Equal(t, []string{"v1"}, h.tokens.valuesFor(dave.ID))
}

func TestRenewTokenValidation(t *testing.T) {
	h := newHarness()
	h.users.add("bob", "Password123!", func(u *user.User) { u.IsBanned = true })

	_, err := h.service.RenewToken(context.Background(), "", " ")
	assert.Equal(t, []string{"UsernameCannotBeNull", "RefreshTokenCannotBeNull"}, apperr.Codes(err))

	_, err = h.service.RenewToken(context.Background(), "ghost", "v1")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = h.service.RenewToken(context.Background(), "bob", "v1")
	assert.Equal(t, []string{"UserBanned"}, apperr.Codes(err))
}

func TestDisconnectIsIdempotent(t *testing.T) {
	h := newHarness()
	alice := h.users.add("alice", "Password123!", nil)
	_, err := h.service.SignIn(context.Background(), "alice@example.com", "Password123!")
	require.NoError(t, err)

	require.NoError(t, h.service.Disconnect(context.Background(), "alice"))
	require.NoError(t, h.service.Disconnect(context.Background(), "alice"))
	assert.Empty(t, h.tokens.valuesFor(alice.ID))

	assert.NoError(t, h.service.Disconnect(context.Background(), ""))
	assert.NoError(t, h.service.Disconnect(context.Background(), "ghost"))
}

func TestPurgeAll(t *testing.T) {
	h := newHarness()
	h.users.add("alice", "Password123!", nil)
	h.users.add("dave", "Password123!", nil)
	for _, email := range []string{"alice@example.com", "dave@example.com"} {
		_, err := h.service.SignIn(context.Background(), email, "Password123!")
		require.NoError(t, err)
	}

	require.NoError(t, h.service.PurgeAll(context.Background()))
	assert.Empty(t, h.tokens.rows)
}

func TestSweepRemovesExpiredRowsOnly(t *testing.T) {
	h := newHarness()
	alice := h.users.add("alice", "Password123!", nil)
	other := uuid.New()
	_, _ = h.tokens.Create(context.Background(), RefreshToken{UserID: other, Value: "old", ExpiresAt: h.now.Add(-time.Minute)})
	_, _ = h.tokens.Create(context.Background(), RefreshToken{UserID: other, Value: "fresh", ExpiresAt: h.now.Add(time.Minute)})

	_, err := h.service.SignIn(context.Background(), "alice@example.com", "Password123!")
	require.NoError(t, err)

	assert.Equal(t, []string{"fresh"}, h.tokens.valuesFor(other))
	assert.Len(t, h.tokens.valuesFor(alice.ID), 1)
}

type failingSweepTokens struct {
	*memoryTokens
}

func (failingSweepTokens) DeleteAllExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestSweepFailureIsNotSurfaced(t *testing.T) {
	h := newHarness()
	h.users.add("alice", "Password123!", nil)
	h.service.tokens = failingSweepTokens{h.tokens}

	_, err := h.service.SignIn(context.Background(), "alice@example.com", "Password123!")
	assert.NoError(t, err)
}

package user

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abduss/forum/internal/config"
	"github.com/google/uuid"
)

type memoryRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]User
	lookupErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[uuid.UUID]User)}
}

func (m *memoryRepo) Create(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return User{}, ErrUsernameAlreadyTaken
		}
		if existing.Email == u.Email {
			return User{}, ErrEmailAlreadyTaken
		}
	}
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *memoryRepo) FindByUsername(_ context.Context, username string) (User, error) {
	return m.find(func(u User) bool { return u.Username == username })
}

func (m *memoryRepo) FindByEmail(_ context.Context, email string) (User, error) {
	return m.find(func(u User) bool { return u.Email == strings.ToLower(email) })
}

func (m *memoryRepo) find(match func(User) bool) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return User{}, m.lookupErr
	}
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryRepo) Update(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	for id, existing := range m.users {
		if id != u.ID && existing.Username == u.Username {
			return ErrUsernameAlreadyTaken
		}
		if id != u.ID && existing.Email == u.Email {
			return ErrEmailAlreadyTaken
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memoryRepo) Search(_ context.Context, term, exclude string, limit int) ([]User, error) {
	users := m.sorted(func(u User) bool {
		return strings.Contains(strings.ToLower(u.Username), strings.ToLower(term)) && u.Username != exclude
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (m *memoryRepo) List(_ context.Context, q ListQuery, limit int) ([]User, int, error) {
	users := m.sorted(func(u User) bool {
		switch {
		case q.Filter == FilterBanned && !u.IsBanned, q.Filter == FilterNotBanned && u.IsBanned:
			return false
		}
		return strings.Contains(strings.ToLower(u.Username), strings.ToLower(q.Search))
	})
	count := len(users)
	start := (q.Page - 1) * limit
	if start >= count {
		return nil, count, nil
	}
	end := start + limit
	if end > count {
		end = count
	}
	return users[start:end], count, nil
}

func (m *memoryRepo) sorted(keep func(User) bool) []User {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []User
	for _, u := range m.users {
		if keep(u) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string]string
	seq    int
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: make(map[string]string)}
}

func (m *memoryTokens) Issue(_ context.Context, purpose TokenPurpose, userID uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	token := string(purpose) + "-" + strings.Repeat("x", m.seq)
	m.tokens[tokenKey(purpose, userID)] = token
	return token, nil
}

func (m *memoryTokens) Consume(_ context.Context, purpose TokenPurpose, userID uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tokenKey(purpose, userID)
	if stored, ok := m.tokens[key]; !ok || stored != token {
		return ErrInvalidToken
	}
	delete(m.tokens, key)
	return nil
}

type sentMail struct {
	to     string
	userID uuid.UUID
	token  string
}

type fakeMailer struct {
	fail       bool
	validation []sentMail
	recovery   []sentMail
}

func (f *fakeMailer) SendValidationEmail(_ context.Context, to string, userID uuid.UUID, token string) error {
	if f.fail {
		return errors.New("sendgrid: 503")
	}
	f.validation = append(f.validation, sentMail{to: to, userID: userID, token: token})
	return nil
}

func (f *fakeMailer) SendRecoveryEmail(_ context.Context, to string, userID uuid.UUID, token string) error {
	if f.fail {
		return errors.New("sendgrid: 503")
	}
	f.recovery = append(f.recovery, sentMail{to: to, userID: userID, token: token})
	return nil
}

type fakePictures map[uuid.UUID]string

func (f fakePictures) ProfilePicturePath(_ context.Context, userID uuid.UUID) (string, error) {
	return f[userID], nil
}

type fakeSessions struct {
	revoked []uuid.UUID
}

func (f *fakeSessions) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

var testAuthConfig = config.AuthConfig{BcryptCost: 4, LockoutDuration: 5 * time.Minute}

type fixture struct {
	repo     *memoryRepo
	tokens   *memoryTokens
	manager  *Manager
	mail     *fakeMailer
	pictures fakePictures
	sessions *fakeSessions
	service  *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newMemoryRepo(),
		tokens:   newMemoryTokens(),
		mail:     &fakeMailer{},
		pictures: fakePictures{},
		sessions: &fakeSessions{},
	}
	f.manager = NewManager(f.repo, f.tokens, testAuthConfig)
	f.service = NewService(f.manager, f.mail, f.pictures, f.sessions)
	return f
}

// seed stores a user with the given password, confirmed unless stated otherwise.
func (f *fixture) seed(username, password string, role Role, confirmed bool) User {
	u, err := f.manager.Create(context.Background(), RegisterInput{
		Email:    username + "@example.com",
		Username: username,
		Password: password,
	})
	if err != nil {
		panic(err)
	}
	u.Role = role
	u.EmailConfirmed = confirmed
	if err := f.repo.Update(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

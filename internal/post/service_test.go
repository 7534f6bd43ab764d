package post

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/abduss/forum/internal/apperr"
	"github.com/abduss/forum/internal/category"
	"github.com/abduss/forum/internal/image"
	"github.com/abduss/forum/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows   map[int]Record
	nextID int
}

func (r *memoryRepo) Create(_ context.Context, rec Record) (Record, error) {
	r.nextID++
	rec.ID = r.nextID
	rec.LastUpdated = rec.CreatedAt
	r.rows[rec.ID] = rec
	return rec, nil
}

func (r *memoryRepo) Get(_ context.Context, id int) (Record, error) {
	rec, ok := r.rows[id]
	if !ok {
		return Record{}, ErrPostNotFound
	}
	return rec, nil
}

func (r *memoryRepo) ListByCategory(_ context.Context, categoryID, limit, offset int) ([]Record, int, error) {
	var all []Record
	for _, rec := range r.rows {
		if rec.CategoryID == categoryID {
			all = append(all, rec)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LastUpdated.After(all[j].LastUpdated) })
	if offset >= len(all) {
		return nil, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (r *memoryRepo) update(id int, fn func(*Record)) error {
	rec, ok := r.rows[id]
	if !ok {
		return ErrPostNotFound
	}
	fn(&rec)
	r.rows[id] = rec
	return nil
}

func (r *memoryRepo) Update(_ context.Context, id int, title, body string, at time.Time) error {
	return r.update(id, func(rec *Record) { rec.Title, rec.Body, rec.LastUpdated = title, body, at })
}

func (r *memoryRepo) SetLocked(_ context.Context, id int, locked bool) error {
	return r.update(id, func(rec *Record) { rec.Locked = locked })
}

func (r *memoryRepo) Touch(_ context.Context, id int, at time.Time) error {
	return r.update(id, func(rec *Record) { rec.LastUpdated = at })
}

func (r *memoryRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.rows[id]; !ok {
		return ErrPostNotFound
	}
	delete(r.rows, id)
	return nil
}

type fakeCategories map[int]category.Category

func (f fakeCategories) List(_ context.Context, role user.Role) ([]category.Category, error) {
	var visible []category.Category
	for _, c := range f {
		if role.AtLeast(c.Role) {
			visible = append(visible, c)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].ID < visible[j].ID })
	return visible, nil
}

func (f fakeCategories) Get(_ context.Context, id int, role user.Role) (category.Category, error) {
	c, ok := f[id]
	if !ok || !role.AtLeast(c.Role) {
		return category.Category{}, category.ErrCategoryNotFound
	}
	return c, nil
}

type accounts map[string]user.User

func (a accounts) FindByUsername(_ context.Context, username string) (user.User, error) {
	u, ok := a[username]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (a accounts) ProfileByID(_ context.Context, id uuid.UUID) (user.Profile, error) {
	for _, u := range a {
		if u.ID == id {
			return user.Profile{ID: u.ID.String(), Username: u.Username, ProfilePicture: user.DefaultProfilePicture}, nil
		}
	}
	return user.UnknownProfile(), nil
}

type fakeImages struct {
	paths     map[int]string
	deleted   []int
	deleteErr error
}

func (f *fakeImages) SavePostImage(_ context.Context, postID int, _ image.Upload) (string, error) {
	path := "images/post.jpg"
	f.paths[postID] = path
	return path, nil
}

func (f *fakeImages) PostImagePath(_ context.Context, postID int) (string, error) {
	return f.paths[postID], nil
}

func (f *fakeImages) DeletePostImage(_ context.Context, postID int) error {
	f.deleted = append(f.deleted, postID)
	delete(f.paths, postID)
	return f.deleteErr
}

type fixture struct {
	repo    *memoryRepo
	users   accounts
	images  *fakeImages
	service *Service
	now     time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo: &memoryRepo{rows: map[int]Record{}},
		users: accounts{
			"alice": {ID: uuid.New(), Username: "alice", Role: user.RoleStandard},
			"bob":   {ID: uuid.New(), Username: "bob", Role: user.RoleStandard},
			"mod":   {ID: uuid.New(), Username: "mod", Role: user.RoleModerator},
			"troll": {ID: uuid.New(), Username: "troll", Role: user.RoleStandard, IsBanned: true},
		},
		images: &fakeImages{paths: map[int]string{}},
		now:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	categories := fakeCategories{
		1: {ID: 1, Name: "Général", Role: user.RoleGuest},
		2: {ID: 2, Name: "Staff", Role: user.RoleModerator},
	}
	f.service = NewService(f.repo, categories, f.users, f.users, f.images)
	f.service.nowFunc = func() time.Time { return f.now }
	return f
}

func (f *fixture) post(t *testing.T, author string, categoryID int) Post {
	t.Helper()
	p, err := f.service.Create(context.Background(), author, Input{Category: categoryID, Title: "Hello", Body: "World"})
	require.NoError(t, err)
	return p
}

func TestCreatePost(t *testing.T) {
	f := newFixture()

	p := f.post(t, "alice", 1)
	assert.Equal(t, "alice", p.Author.Username)
	assert.Equal(t, f.now, p.Date)
	assert.False(t, p.Locked)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.service.Create(ctx, "alice", Input{Category: 1})
	assert.Equal(t, []string{"TitleCannotBeNull", "BodyCannotBeNull"}, apperr.Codes(err))

	_, err = f.service.Create(ctx, "alice", Input{Category: 2, Title: "t", Body: "b"})
	assert.ErrorIs(t, err, category.ErrCategoryNotFound)

	_, err = f.service.Create(ctx, "troll", Input{Category: 1, Title: "t", Body: "b"})
	assert.ErrorIs(t, err, user.ErrUserNotAuthorized)
}

func TestGetHidesPostsOfHiddenCategories(t *testing.T) {
	f := newFixture()
	p := f.post(t, "mod", 2)

	_, err := f.service.Get(context.Background(), p.ID, user.RoleStandard)
	assert.ErrorIs(t, err, ErrPostNotFound)

	got, err := f.service.Get(context.Background(), p.ID, user.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, "mod", got.Author.Username)
}

func TestGetFallsBackToUnknownAuthor(t *testing.T) {
	f := newFixture()
	p := f.post(t, "alice", 1)
	f.repo.rows[p.ID] = func(rec Record) Record { rec.AuthorID = nil; return rec }(f.repo.rows[p.ID])

	got, err := f.service.Get(context.Background(), p.ID, user.RoleGuest)
	require.NoError(t, err)
	assert.Equal(t, user.UnknownUsername, got.Author.Username)
}

func TestListByCategoryOrdersByActivity(t *testing.T) {
	f := newFixture()
	first := f.post(t, "alice", 1)
	f.now = f.now.Add(time.Minute)
	f.post(t, "bob", 1)
	f.now = f.now.Add(time.Minute)
	require.NoError(t, f.service.Touch(context.Background(), first.ID))

	page, err := f.service.ListByCategory(context.Background(), 1, user.RoleGuest, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, first.ID, page.Posts[0].ID)

	_, err = f.service.ListByCategory(context.Background(), 2, user.RoleStandard, 1)
	assert.ErrorIs(t, err, category.ErrCategoryNotFound)
}

func TestListByCategoryClampsPastTheEnd(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		f.post(t, "alice", 1)
		f.now = f.now.Add(time.Minute)
	}

	page, err := f.service.ListByCategory(ctx, 1, user.RoleGuest, 50)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Count)
	assert.Len(t, page.Posts, 2)

	page, err = f.service.ListByCategory(ctx, 1, user.RoleGuest, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)

	page, err = f.service.ListByCategory(ctx, 1, user.RoleGuest, -4)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 10)
}

func TestListByCategoryEmptyCategory(t *testing.T) {
	f := newFixture()

	page, err := f.service.ListByCategory(context.Background(), 1, user.RoleGuest, 3)
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.Empty(t, page.Posts)
}

func TestIndexListsVisibleCategoriesWithLatestPosts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for i := 0; i < 11; i++ {
		f.post(t, "alice", 1)
		f.now = f.now.Add(time.Minute)
	}
	latest := f.post(t, "bob", 1)
	f.post(t, "mod", 2)

	sections, err := f.service.Index(ctx, user.RoleStandard)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "Général", sections[0].Name)
	require.Len(t, sections[0].Posts, indexPostsPerCategory)
	assert.Equal(t, latest.ID, sections[0].Posts[0].ID)

	sections, err = f.service.Index(ctx, user.RoleModerator)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Len(t, sections[1].Posts, 1)
}

func TestIndexEndpoint(t *testing.T) {
	f := newFixture()
	f.post(t, "alice", 1)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	guest := func(c *gin.Context) {}
	RegisterRoutes(r.Group("/v1"), f.service, guest, guest)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/index", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Succeeded bool `json:"succeeded"`
		Result    []struct {
			ID    int    `json:"id"`
			Name  string `json:"name"`
			Posts []Post `json:"posts"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Succeeded)
	require.Len(t, body.Result, 1)
	assert.Equal(t, "Général", body.Result[0].Name)
	assert.Len(t, body.Result[0].Posts, 1)
}

func TestUpdateAndDeleteNeedAuthorOrModerator(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.post(t, "alice", 1)

	assert.ErrorIs(t, f.service.Update(ctx, "bob", p.ID, Input{Title: "x", Body: "y"}), user.ErrUserNotAuthorized)
	require.NoError(t, f.service.Update(ctx, "alice", p.ID, Input{Title: "x", Body: "y"}))
	assert.Equal(t, "x", f.repo.rows[p.ID].Title)

	assert.ErrorIs(t, f.service.Delete(ctx, "bob", p.ID), user.ErrUserNotAuthorized)
	require.NoError(t, f.service.Delete(ctx, "mod", p.ID))
	assert.Empty(t, f.repo.rows)
}

func TestDeleteRemovesImageAndToleratesFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.post(t, "alice", 1)
	_, err := f.service.AttachImage(ctx, "alice", p.ID, image.Upload{})
	require.NoError(t, err)

	f.images.deleteErr = errors.New("minio down")
	require.NoError(t, f.service.Delete(ctx, "alice", p.ID))
	assert.Equal(t, []int{p.ID}, f.images.deleted)
}

func TestSetLockedModeratorsOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.post(t, "alice", 1)

	assert.ErrorIs(t, f.service.SetLocked(ctx, "alice", p.ID, true), user.ErrUserNotAuthorized)
	require.NoError(t, f.service.SetLocked(ctx, "mod", p.ID, true))
	assert.True(t, f.repo.rows[p.ID].Locked)
}

func TestViewIncludesImage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.post(t, "alice", 1)

	_, err := f.service.AttachImage(ctx, "bob", p.ID, image.Upload{})
	assert.ErrorIs(t, err, user.ErrUserNotAuthorized)

	path, err := f.service.AttachImage(ctx, "alice", p.ID, image.Upload{})
	require.NoError(t, err)
	got, err := f.service.Get(ctx, p.ID, user.RoleGuest)
	require.NoError(t, err)
	assert.Equal(t, path, got.Image)

	require.NoError(t, f.service.DeleteImage(ctx, "alice", p.ID))
	got, err = f.service.Get(ctx, p.ID, user.RoleGuest)
	require.NoError(t, err)
	assert.Empty(t, got.Image)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/blog"
)

// memUserRepo is an in-memory UserRepository enforcing the same uniqueness
// the schema does.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*auth.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return auth.ErrDuplicate
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return auth.ErrDuplicate
		}
	}
	r.users[user.Username] = user
	return nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return user, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	byHash   map[string]*auth.Session
	sessions map[ulid.ULID]*auth.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		byHash:   make(map[string]*auth.Session),
		sessions: make(map[ulid.ULID]*auth.Session),
	}
}

func (r *memSessionRepo) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byHash[session.TokenHash] = session
	r.sessions[session.ID] = session
	return nil
}

func (r *memSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byHash[tokenHash]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return session, nil
}

func (r *memSessionRepo) UpdateLastSeen(_ context.Context, id ulid.ULID, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return auth.ErrNotFound
	}
	session.LastSeenAt = lastSeen
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok {
		delete(r.byHash, session.TokenHash)
		delete(r.sessions, id)
	}
	return nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, session := range r.sessions {
		if session.IsExpired() {
			delete(r.byHash, session.TokenHash)
			delete(r.sessions, id)
			count++
		}
	}
	return count, nil
}

// memArticleRepo keeps articles in insertion order and lists them newest
// first, matching the SQL implementation.
type memArticleRepo struct {
	mu       sync.Mutex
	articles []*blog.Article
}

func (r *memArticleRepo) Create(_ context.Context, article *blog.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.articles {
		if existing.Title == article.Title {
			return blog.ErrDuplicate
		}
	}
	r.articles = append(r.articles, article)
	return nil
}

func (r *memArticleRepo) GetByID(_ context.Context, id ulid.ULID) (*blog.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, article := range r.articles {
		if article.ID == id {
			return article, nil
		}
	}
	return nil, blog.ErrNotFound
}

func (r *memArticleRepo) ListAll(_ context.Context) ([]*blog.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*blog.Article, 0, len(r.articles))
	for i := len(r.articles) - 1; i >= 0; i-- {
		out = append(out, r.articles[i])
	}
	return out, nil
}

func (r *memArticleRepo) ListByAuthor(_ context.Context, author string) ([]*blog.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*blog.Article, 0)
	for i := len(r.articles) - 1; i >= 0; i-- {
		if r.articles[i].Author == author {
			out = append(out, r.articles[i])
		}
	}
	return out, nil
}

func (r *memArticleRepo) UpdateContent(_ context.Context, id ulid.ULID, title, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, article := range r.articles {
		if article.ID == id {
			article.Title = title
			article.Content = content
			return nil
		}
	}
	return nil
}

func (r *memArticleRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, article := range r.articles {
		if article.ID == id {
			r.articles = append(r.articles[:i], r.articles[i+1:]...)
			return nil
		}
	}
	return nil
}

type testApp struct {
	server   *Server
	articles *memArticleRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := auth.NewService(newMemUserRepo(), newMemSessionRepo(), auth.NewArgon2idHasher(), time.Hour)
	require.NoError(t, err)

	articles := &memArticleRepo{}
	handlers, err := NewHandlers(svc, articles, nil, logger, false)
	require.NoError(t, err)

	server, err := NewServer("127.0.0.1:0", handlers, nil, logger)
	require.NoError(t, err)

	return &testApp{server: server, articles: articles}
}

func (a *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.server.Echo().ServeHTTP(rec, req)
	return rec
}

func (a *testApp) postForm(path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.server.Echo().ServeHTTP(rec, req)
	return rec
}

func registrationValues(name, username, email, password string) url.Values {
	return url.Values{
		"name":     {name},
		"username": {username},
		"email":    {email},
		"password": {password},
		"confirm":  {password},
	}
}

// register creates an account and fails the test if registration is
// rejected.
func (a *testApp) register(t *testing.T, username, password string) {
	t.Helper()
	rec := a.postForm("/register", registrationValues("Test "+username, username, username+"@example.com", password))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

// login authenticates and returns the session cookie.
func (a *testApp) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := a.postForm("/login", url.Values{
		"username": {username},
		"password": {password},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

// flashFrom decodes the flash cookie set on a response, if any.
func flashFrom(rec *httptest.ResponseRecorder) (Flash, bool) {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == flashCookieName && cookie.Value != "" {
			return decodeFlash(cookie.Value)
		}
	}
	return Flash{}, false
}

func TestHomeAndAbout(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Inkpress")

	rec = app.get("/about")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "About")
}

func TestRegisterRejectsShortUsername(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm("/register", registrationValues("Alice Doe", "al", "alice@example.com", "hunter22"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be between 5 and 15 characters")
	// Submitted values are echoed back so the user can correct them.
	assert.Contains(t, rec.Body.String(), `value="alice@example.com"`)
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	app := newTestApp(t)

	values := registrationValues("Alice Doe", "alicedoe", "alice@example.com", "hunter22")
	values.Set("confirm", "different")
	rec := app.postForm("/register", values)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "passwords do not match")
}

func TestRegisterSuccess(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm("/register", registrationValues("Alice Doe", "alicedoe", "alice@example.com", "hunter22"))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	flash, ok := flashFrom(rec)
	require.True(t, ok)
	assert.Equal(t, "success", flash.Category)
	assert.Contains(t, flash.Message, "registered successfully")
}

func TestRegisterDuplicateFailsWithServerError(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")

	// The handler does not catch the unique violation, so the second
	// attempt surfaces as a 500.
	rec := app.postForm("/register", registrationValues("Alice Doe", "alicedoe", "other@example.com", "hunter22"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm("/login", url.Values{
		"username": {"nobody"},
		"password": {"whatever"},
	})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	flash, ok := flashFrom(rec)
	require.True(t, ok)
	assert.Equal(t, "danger", flash.Category)
	assert.Equal(t, "User not found", flash.Message)
}

func TestLoginWrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")

	rec := app.postForm("/login", url.Values{
		"username": {"alicedoe"},
		"password": {"not-it"},
	})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	flash, ok := flashFrom(rec)
	require.True(t, ok)
	assert.Equal(t, "Wrong password", flash.Message)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")

	cookie := app.login(t, "alicedoe", "hunter22")
	assert.True(t, cookie.HttpOnly)

	// The session grants access to gated pages.
	rec := app.get("/dashboard", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dashboard")
	assert.Contains(t, rec.Body.String(), "alicedoe")
}

func TestLogoutClearsSession(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")
	cookie := app.login(t, "alicedoe", "hunter22")

	rec := app.get("/logout", cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// The server-side session is gone, so the old cookie no longer works.
	rec = app.get("/dashboard", cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestGatedRoutesRedirectWhenLoggedOut(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{
		"/dashboard",
		"/addArticle",
		"/articles",
		"/delete/" + ulid.Make().String(),
		"/update/" + ulid.Make().String(),
	} {
		rec := app.get(path)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)

		flash, ok := flashFrom(rec)
		require.True(t, ok, path)
		assert.Equal(t, "Please log in to view this page", flash.Message, path)
	}
}

func TestAddArticleValidation(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")
	cookie := app.login(t, "alicedoe", "hunter22")

	rec := app.postForm("/addArticle", url.Values{
		"title":   {"hey"},
		"content": {"short"},
	}, cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be between 5 and 100 characters")
	assert.Contains(t, rec.Body.String(), "must be at least 10 characters")
}

func TestAddArticleAndDetail(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")
	cookie := app.login(t, "alicedoe", "hunter22")

	rec := app.postForm("/addArticle", url.Values{
		"title":   {"First Post"},
		"content": {"Hello from the test suite."},
	}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))

	articles, err := app.articles.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "alicedoe", articles[0].Author)

	// The detail page is public.
	rec = app.get("/article/" + articles[0].ID.String())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "First Post")
	assert.Contains(t, rec.Body.String(), "Hello from the test suite.")
	assert.Contains(t, rec.Body.String(), "by alicedoe")
}

func TestDetailSanitizesContent(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")
	cookie := app.login(t, "alicedoe", "hunter22")

	rec := app.postForm("/addArticle", url.Values{
		"title":   {"Sneaky Post"},
		"content": {`<p>fine</p><script>alert("no")</script>`},
	}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)

	articles, err := app.articles.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)

	rec = app.get("/article/" + articles[0].ID.String())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>fine</p>")
	assert.NotContains(t, rec.Body.String(), "<script>")
}

func TestDetailUnknownArticle(t *testing.T) {
	app := newTestApp(t)

	for _, id := range []string{ulid.Make().String(), "not-a-ulid"} {
		rec := app.get("/article/" + id)
		assert.Equal(t, http.StatusOK, rec.Code, id)
		assert.Contains(t, rec.Body.String(), "This article does not exist.", id)
	}
}

func TestDashboardFiltersByAuthor(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")
	app.register(t, "bobsmith", "hunter22")
	alice := app.login(t, "alicedoe", "hunter22")
	bob := app.login(t, "bobsmith", "hunter22")

	rec := app.postForm("/addArticle", url.Values{
		"title":   {"Alice Writes"},
		"content": {"Content by alice."},
	}, alice)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = app.postForm("/addArticle", url.Values{
		"title":   {"Bob Writes"},
		"content": {"Content by bob."},
	}, bob)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = app.get("/dashboard", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice Writes")
	assert.NotContains(t, rec.Body.String(), "Bob Writes")

	// The shared list shows both.
	rec = app.get("/articles", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice Writes")
	assert.Contains(t, rec.Body.String(), "Bob Writes")
}

func TestDeleteArticle(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")
	cookie := app.login(t, "alicedoe", "hunter22")

	rec := app.postForm("/addArticle", url.Values{
		"title":   {"Doomed Post"},
		"content": {"This will not last."},
	}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)

	articles, err := app.articles.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)

	rec = app.get("/delete/"+articles[0].ID.String(), cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	articles, err = app.articles.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestDeleteAbsentArticleIsNoOp(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")
	cookie := app.login(t, "alicedoe", "hunter22")

	for _, id := range []string{ulid.Make().String(), "not-a-ulid"} {
		rec := app.get("/delete/"+id, cookie)
		assert.Equal(t, http.StatusFound, rec.Code, id)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"), id)
	}
}

func TestUpdateArticle(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")
	cookie := app.login(t, "alicedoe", "hunter22")

	rec := app.postForm("/addArticle", url.Values{
		"title":   {"Draft Title"},
		"content": {"Draft content here."},
	}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)

	articles, err := app.articles.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)
	id := articles[0].ID
	createdAt := articles[0].CreatedAt

	// The edit form is pre-populated from the stored article.
	rec = app.get("/update/"+id.String(), cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Draft Title")
	assert.Contains(t, rec.Body.String(), "Draft content here.")

	rec = app.postForm("/update/"+id.String(), url.Values{
		"title":   {"Final Title"},
		"content": {"Polished content here."},
	}, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	updated, err := app.articles.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Final Title", updated.Title)
	assert.Equal(t, "Polished content here.", updated.Content)
	assert.Equal(t, "alicedoe", updated.Author)
	assert.Equal(t, createdAt, updated.CreatedAt)
}

func TestUpdateUnknownArticleRedirectsHome(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")
	cookie := app.login(t, "alicedoe", "hunter22")

	rec := app.get("/update/"+ulid.Make().String(), cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	flash, ok := flashFrom(rec)
	require.True(t, ok)
	assert.Equal(t, "No such article", flash.Message)
}

func TestUpdateValidationRerendersForm(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alicedoe", "hunter22")
	cookie := app.login(t, "alicedoe", "hunter22")

	rec := app.postForm("/update/"+ulid.Make().String(), url.Values{
		"title":   {"ok"},
		"content": {"long enough content"},
	}, cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be between 5 and 100 characters")
}

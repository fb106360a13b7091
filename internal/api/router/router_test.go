package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sainmakosam/internal/core/model"
	"sainmakosam/internal/core/repository"
	"sainmakosam/internal/core/service"
	"sainmakosam/internal/observability"
	"sainmakosam/internal/session"
	"sainmakosam/internal/upload"
	"sainmakosam/web"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	server    *httptest.Server
	client    *http.Client
	publicDir string
	reviews   repository.ReviewRepository
	images    *upload.Store
}

type appOption func(*Dependencies)

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	return newTestAppWithStore(t, session.NewMemoryStore(), opts...)
}

func newTestAppWithStore(t *testing.T, store session.Store, opts ...appOption) *testApp {
	t.Helper()
	publicDir := t.TempDir()
	images, err := upload.NewStore(publicDir)
	require.NoError(t, err)

	users := repository.NewInMemoryUserRepository()
	user := model.NewUser("datta", "popcorn")
	require.NoError(t, user.PrepareForSave())
	require.NoError(t, users.Create(context.Background(), user))

	sessions, err := session.NewManager(store, []byte("router-test"), time.Hour, false)
	require.NoError(t, err)

	reviews := repository.NewInMemoryReviewRepository()
	deps := Dependencies{
		ReviewService:  service.NewReviewService(reviews, images),
		AuthService:    service.NewAuthService(users, sessions),
		Sessions:       sessions,
		Metrics:        observability.NewMetrics(),
		Templates:      web.Templates,
		PublicDir:      publicDir,
		MaxUploadBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	h, err := NewRouter(deps)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{server: srv, client: client, publicDir: publicDir, reviews: reviews, images: images}
}

func (a *testApp) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(t, err)
	return a.do(t, req)
}

func (a *testApp) postForm(t *testing.T, path string, values url.Values) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(values.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

type imagePart struct {
	name string
	body []byte
}

func (a *testApp) postMultipart(t *testing.T, path string, fields map[string]string, img *imagePart) (*http.Response, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if img != nil {
		fw, err := mw.CreateFormFile("image", img.name)
		require.NoError(t, err)
		_, err = fw.Write(img.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(t, req)
}

func (a *testApp) login(t *testing.T) *http.Response {
	t.Helper()
	resp, _ := a.postForm(t, "/auth/login", url.Values{"username": {"datta"}, "password": {"popcorn"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	return resp
}

func reviewFields(title string) map[string]string {
	return map[string]string{
		"title":   title,
		"excerpt": "Short and punchy.",
		"content": "Long and chaotic.",
		"author":  "Friend",
	}
}

func TestPublicPages(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/", "/dashboard", "/why", "/contact", "/auth/login"} {
		resp, body := app.get(t, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html", path)
		assert.Contains(t, body, "Sainma Kosam", path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.get(t, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "ok", health["status"])

	resp, body = app.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `sainmakosam_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestNotFoundAndStatic(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(app.publicDir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(app.publicDir, "css", "style.css"), []byte("body{}"), 0o644))

	resp, body := app.get(t, "/css/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "body{}", body)

	resp, body = app.get(t, "/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Not Found")

	resp, _ = app.get(t, "/css")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "directories are not listed")

	resp, _ = app.get(t, "/reviews/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRedirectsToLoginAndBack(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/admin", "/admin/dashboard", "/admin/reviews/new", "/admin/reviews/edit/x"} {
		resp, _ := app.get(t, path)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/auth/login", resp.Header.Get("Location"), path)
	}

	resp, _ := app.get(t, "/admin/reviews/new")
	require.Equal(t, "/auth/login", resp.Header.Get("Location"))

	resp = app.login(t)
	assert.Equal(t, "/admin/reviews/new", resp.Header.Get("Location"))

	resp, body := app.get(t, "/admin/reviews/new")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Create New Review")
}

func TestLoginDefaultsToDashboard(t *testing.T) {
	app := newTestApp(t)

	resp := app.login(t)
	assert.Equal(t, "/admin/dashboard", resp.Header.Get("Location"))

	resp, body := app.get(t, "/admin/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Signed in as datta.")

	resp, _ = app.get(t, "/admin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/dashboard", resp.Header.Get("Location"))
}

func TestLoginFailureMessagesMatch(t *testing.T) {
	app := newTestApp(t)

	resp, wrongPassword := app.postForm(t, "/auth/login", url.Values{"username": {"datta"}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, wrongPassword, "Access Denied: Invalid Username or Password.")

	resp, unknownUser := app.postForm(t, "/auth/login", url.Values{"username": {"ghost"}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, unknownUser, "Access Denied: Invalid Username or Password.")

	resp, _ = app.get(t, "/admin/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	resp, _ := app.get(t, "/auth/logout")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, _ = app.get(t, "/admin/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))
}

// brokenDeleteStore serves sessions normally but cannot remove them.
type brokenDeleteStore struct {
	*session.MemoryStore
}

func (brokenDeleteStore) Delete(context.Context, string) error {
	return errors.New("session store unreachable")
}

func TestLogoutWhenSessionStoreFailsToDelete(t *testing.T) {
	app := newTestAppWithStore(t, brokenDeleteStore{session.NewMemoryStore()})
	app.login(t)

	resp, _ := app.get(t, "/auth/logout")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	// The cookie is cleared even though the stored record survives.
	resp, _ = app.get(t, "/admin/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))
}

func TestReviewLifecycle(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	app.login(t)

	resp, _ := app.postMultipart(t, "/admin/reviews", reviewFields("Eega Returns"), &imagePart{name: "fly.png", body: []byte("png-bytes")})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/dashboard", resp.Header.Get("Location"))

	created, err := app.reviews.FindBySlug(ctx, "eega-returns")
	require.NoError(t, err)
	require.NotNil(t, created)
	oldImage, ok := app.images.Path(created.Image)
	require.True(t, ok)
	assert.FileExists(t, oldImage)

	resp, body := app.get(t, "/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/reviews/eega-returns")

	resp, body = app.get(t, "/reviews/eega-returns")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Long and chaotic.")

	resp, body = app.get(t, created.Image)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png-bytes", body)

	resp, body = app.get(t, "/admin/reviews/edit/"+created.ID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Edit: Eega Returns")
	assert.Contains(t, body, `value="Eega Returns"`)

	resp, _ = app.postMultipart(t, "/admin/reviews/"+created.ID+"?_method=PUT", reviewFields("Eega Forever"), &imagePart{name: "fly2.jpg", body: []byte("jpg-bytes")})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/dashboard", resp.Header.Get("Location"))

	resp, _ = app.get(t, "/reviews/eega-returns")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	updated, err := app.reviews.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "eega-forever", updated.Slug)
	assert.NoFileExists(t, oldImage)
	newImage, ok := app.images.Path(updated.Image)
	require.True(t, ok)
	assert.FileExists(t, newImage)

	resp, _ = app.postForm(t, "/admin/reviews/delete/"+created.ID+"?_method=DELETE", url.Values{})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp, _ = app.get(t, "/reviews/eega-forever")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NoFileExists(t, newImage)

	resp, _ = app.postForm(t, "/admin/reviews/delete/"+created.ID, url.Values{"_method": {"DELETE"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode, "deleting twice is harmless")
}

func TestCreateValidationKeepsInput(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	fields := reviewFields("")
	fields["excerpt"] = "Keep me around"
	resp, body := app.postMultipart(t, "/admin/reviews", fields, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Every review needs a title!")
	assert.Contains(t, body, "Keep me around")

	all, err := app.reviews.FindAll(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateUrlencodedWithoutImage(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	values := url.Values{}
	for k, v := range reviewFields("Plain Form") {
		values.Set(k, v)
	}
	resp, _ := app.postForm(t, "/admin/reviews", values)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	r, err := app.reviews.FindBySlug(context.Background(), "plain-form")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, model.DefaultImage, r.Image)
}

func TestUploadTooLarge(t *testing.T) {
	app := newTestApp(t, func(d *Dependencies) { d.MaxUploadBytes = 1024 })
	app.login(t)

	resp, body := app.postMultipart(t, "/admin/reviews", reviewFields("Huge"), &imagePart{name: "big.png", body: bytes.Repeat([]byte("x"), 4096)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Contains(t, body, "That upload is too large.")
}

func TestEditMissingReview(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	resp, body := app.get(t, "/admin/reviews/edit/doesnotexist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Review not found for editing.")

	resp, _ = app.postMultipart(t, "/admin/reviews/doesnotexist?_method=PUT", reviewFields("Whatever"), nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/dashboard", resp.Header.Get("Location"))
}

func TestUpdateValidationError(t *testing.T) {
	app := newTestApp(t)
	app.login(t)
	resp, _ := app.postMultipart(t, "/admin/reviews", reviewFields("First"), nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	r, err := app.reviews.FindBySlug(context.Background(), "first")
	require.NoError(t, err)

	resp, body := app.postMultipart(t, "/admin/reviews/"+r.ID+"?_method=PUT", map[string]string{"content": ""}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "The review body cannot be empty.")

	unchanged, err := app.reviews.FindByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Long and chaotic.", unchanged.Content)
}

type downReviewService struct {
	service.ReviewService
}

func (downReviewService) List(context.Context, repository.ListOptions) ([]*model.Review, error) {
	return nil, fmt.Errorf("%w: connection reset", service.ErrStorage)
}

func (downReviewService) GetBySlug(context.Context, string) (*model.Review, error) {
	return nil, fmt.Errorf("%w: connection reset", service.ErrStorage)
}

func TestStorageFailures(t *testing.T) {
	app := newTestApp(t, func(d *Dependencies) { d.ReviewService = downReviewService{} })

	resp, body := app.get(t, "/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Could not load reviews right now.")

	resp, body = app.get(t, "/reviews/anything")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Database Error while loading review.")

	app.login(t)
	resp, body = app.get(t, "/admin/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Could not load reviews due to a database error.")
}

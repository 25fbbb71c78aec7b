package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/clock"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/config"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/directory"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/handlers"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/models"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/routes"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/session"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/token"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/tokenstore"
)

type fakeDirectory struct {
	mu        sync.Mutex
	users     map[string]*models.User
	passwords map[string]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: make(map[string]*models.User), passwords: make(map[string]string)}
}

func (d *fakeDirectory) addUser(email, password string, confirmed bool) *models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	user := &models.User{
		BaseModel:      models.BaseModel{ID: uuid.New().String()},
		Email:          email,
		UserName:       email,
		EmailConfirmed: confirmed,
	}
	d.users[user.ID] = user
	d.passwords[user.ID] = password
	return user
}

func (d *fakeDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (d *fakeDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, user := range d.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (d *fakeDirectory) VerifyPassword(ctx context.Context, email, password string) (*models.User, error) {
	user, err := d.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.passwords[user.ID] != password {
		return nil, directory.ErrBadPassword
	}
	return user, nil
}

func (d *fakeDirectory) Register(ctx context.Context, user *models.User, password string) error {
	if _, err := d.FindByEmail(ctx, user.Email); err == nil {
		return directory.ErrDuplicate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	user.ID = uuid.New().String()
	d.users[user.ID] = user
	d.passwords[user.ID] = password
	return nil
}

func (d *fakeDirectory) ConfirmEmail(ctx context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[userID]
	if !ok {
		return directory.ErrNotFound
	}
	user.EmailConfirmed = true
	return nil
}

func (d *fakeDirectory) SetPassword(ctx context.Context, userID, newPassword string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[userID]; !ok {
		return directory.ErrNotFound
	}
	d.passwords[userID] = newPassword
	return nil
}

type memOutbox struct {
	mu       sync.Mutex
	messages []models.EmailMessage
}

func (o *memOutbox) Enqueue(ctx context.Context, recipient, subject, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, models.EmailMessage{Recipient: recipient, Subject: subject, Body: body})
	return nil
}

func (o *memOutbox) Unsent(ctx context.Context, limit int) ([]models.EmailMessage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.EmailMessage(nil), o.messages...), nil
}

func (o *memOutbox) MarkSent(ctx context.Context, id string) error { return nil }

func (o *memOutbox) MarkFailed(ctx context.Context, id string, sendErr error) error { return nil }

func (o *memOutbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}

type testEnv struct {
	router  *gin.Engine
	dir     *fakeDirectory
	outbox  *memOutbox
	oneTime token.OneTimeTokens
	clk     *clock.Fixed
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewFixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	cfg := &config.Config{
		Environment: "development",
		Origin:      "http://localhost:4200",
		JWT: config.JWTConfig{
			Secret:                "test-secret",
			OneTimeSecret:         "onetime-secret",
			Issuer:                "recycle-api",
			Audience:              "recycle-app",
			AccessTokenTTLMinutes: 15,
			RefreshTokenTTLDays:   7,
			OneTimeTokenTTLHours:  24,
		},
	}

	issuer := token.NewIssuer(cfg.JWT, clk)
	oneTime := token.NewJWTOneTimeTokens(cfg.JWT, clk)
	store := tokenstore.NewMemoryStore(clk, cfg.JWT.RefreshTokenTTLDays, "")
	dir := newFakeDirectory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewManager(dir, issuer, store, log)
	outbox := &memOutbox{}

	router := gin.New()
	authHandler := handlers.NewAuthHandler(sessions, dir, oneTime, outbox, cfg)
	routes.SetupRoutes(router, authHandler, issuer)

	return &testEnv{router: router, dir: dir, outbox: outbox, oneTime: oneTime, clk: clk}
}

type request struct {
	method string
	path   string
	body   interface{}
	cookie *http.Cookie
	bearer string
}

func (e *testEnv) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(r.method, r.path, reader)
	req.Header.Set("Content-Type", "application/json")
	if r.cookie != nil {
		req.AddCookie(r.cookie)
	}
	if r.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == handlers.RefreshCookieName {
			return c
		}
	}
	t.Fatal("no refresh cookie in response")
	return nil
}

func accessToken(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Token)
	return envelope.Data.Token
}

func (e *testEnv) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/login",
		body:   gin.H{"email": email, "password": password},
	})
}

func TestLoginSetsCookieAndReturnsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	env.dir.addUser("jane@example.com", "pass12345", true)

	w := env.login(t, "jane@example.com", "pass12345")
	require.Equal(t, http.StatusOK, w.Code)

	assert.NotEmpty(t, accessToken(t, w))
	cookie := refreshCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 7*24*60*60, cookie.MaxAge)
	assert.NotEmpty(t, cookie.Value)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.dir.addUser("jane@example.com", "pass12345", true)

	wrongPassword := env.login(t, "jane@example.com", "wrong-pass")
	unknownEmail := env.login(t, "nobody@example.com", "whatever1")

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, http.StatusBadRequest, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestRefreshWithoutCookie(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	env := newTestEnv(t)
	env.dir.addUser("jane@example.com", "pass12345", true)

	loginResp := env.login(t, "jane@example.com", "pass12345")
	oldCookie := refreshCookie(t, loginResp)

	refreshResp := env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh", cookie: oldCookie})
	require.Equal(t, http.StatusOK, refreshResp.Code)
	newCookie := refreshCookie(t, refreshResp)
	assert.NotEqual(t, oldCookie.Value, newCookie.Value)
	assert.NotEmpty(t, accessToken(t, refreshResp))

	replayResp := env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh", cookie: oldCookie})
	assert.Equal(t, http.StatusUnauthorized, replayResp.Code)

	stillGood := env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh", cookie: newCookie})
	assert.Equal(t, http.StatusOK, stillGood.Code)
}

func TestLogoutRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/logout"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	env.dir.addUser("jane@example.com", "pass12345", true)

	loginResp := env.login(t, "jane@example.com", "pass12345")
	cookie := refreshCookie(t, loginResp)
	bearer := accessToken(t, loginResp)

	logoutResp := env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/logout", cookie: cookie, bearer: bearer})
	require.Equal(t, http.StatusNoContent, logoutResp.Code)
	cleared := refreshCookie(t, logoutResp)
	assert.Less(t, cleared.MaxAge, 0)

	replayResp := env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh", cookie: cookie})
	assert.Equal(t, http.StatusUnauthorized, replayResp.Code)
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	env := newTestEnv(t)
	env.dir.addUser("jane@example.com", "pass12345", true)

	first := env.login(t, "jane@example.com", "pass12345")
	second := env.login(t, "jane@example.com", "pass12345")
	firstCookie := refreshCookie(t, first)
	secondCookie := refreshCookie(t, second)

	w := env.do(t, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/logout-all",
		bearer: accessToken(t, second),
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, http.StatusUnauthorized,
		env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh", cookie: firstCookie}).Code)
	assert.Equal(t, http.StatusUnauthorized,
		env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh", cookie: secondCookie}).Code)
}

func TestUserInfo(t *testing.T) {
	env := newTestEnv(t)
	user := env.dir.addUser("jane@example.com", "pass12345", true)

	anonymous := env.do(t, request{method: http.MethodGet, path: "/api/v1/auth/userinfo"})
	require.Equal(t, http.StatusOK, anonymous.Code)
	var anonInfo handlers.UserInfoResponse
	require.NoError(t, json.Unmarshal(anonymous.Body.Bytes(), &anonInfo))
	assert.False(t, anonInfo.IsAuthenticated)

	loginResp := env.login(t, "jane@example.com", "pass12345")
	authed := env.do(t, request{method: http.MethodGet, path: "/api/v1/auth/userinfo", bearer: accessToken(t, loginResp)})
	require.Equal(t, http.StatusOK, authed.Code)
	var info handlers.UserInfoResponse
	require.NoError(t, json.Unmarshal(authed.Body.Bytes(), &info))
	assert.True(t, info.IsAuthenticated)
	assert.Equal(t, user.ID, info.ID)
}

func TestRegisterAndConfirmFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/register",
		body: gin.H{
			"firstName": "Jane",
			"lastName":  "Doe",
			"userName":  "jane",
			"email":     "jane@example.com",
			"password":  "pass12345",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.outbox.count(), "confirmation email queued")

	// Login before confirmation fails like any other bad login.
	assert.Equal(t, http.StatusBadRequest, env.login(t, "jane@example.com", "pass12345").Code)

	user, err := env.dir.FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	confirmToken, err := env.oneTime.Generate(user.ID, token.PurposeEmailConfirm)
	require.NoError(t, err)

	confirmResp := env.do(t, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/confirm",
		body:   gin.H{"email": "jane@example.com", "token": confirmToken},
	})
	require.Equal(t, http.StatusNoContent, confirmResp.Code)

	assert.Equal(t, http.StatusOK, env.login(t, "jane@example.com", "pass12345").Code)
}

func TestForgotPasswordResponseIsUniform(t *testing.T) {
	env := newTestEnv(t)
	env.dir.addUser("jane@example.com", "pass12345", true)

	known := env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/forgot-password",
		body: gin.H{"email": "jane@example.com"}})
	unknown := env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/forgot-password",
		body: gin.H{"email": "nobody@example.com"}})

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	assert.Equal(t, 1, env.outbox.count(), "only the real account gets an email")
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	env := newTestEnv(t)
	user := env.dir.addUser("jane@example.com", "pass12345", true)

	loginResp := env.login(t, "jane@example.com", "pass12345")
	cookie := refreshCookie(t, loginResp)

	resetToken, err := env.oneTime.Generate(user.ID, token.PurposePasswordReset)
	require.NoError(t, err)

	resetResp := env.do(t, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/reset-password",
		body:   gin.H{"email": "jane@example.com", "token": resetToken, "newPassword": "brandnew99"},
	})
	require.Equal(t, http.StatusOK, resetResp.Code)

	assert.Equal(t, http.StatusUnauthorized,
		env.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh", cookie: cookie}).Code)
	assert.Equal(t, http.StatusBadRequest, env.login(t, "jane@example.com", "pass12345").Code)
	assert.Equal(t, http.StatusOK, env.login(t, "jane@example.com", "brandnew99").Code)
}

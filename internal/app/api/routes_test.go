package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/pms-backend/internal/cache"
	"github.com/magabrotheeeer/pms-backend/internal/config"
	"github.com/magabrotheeeer/pms-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/pms-backend/internal/metrics"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/services/auth"
	"github.com/magabrotheeeer/pms-backend/internal/services/users"
	"github.com/magabrotheeeer/pms-backend/internal/storage"
)

// memStore: хранилище пользователей в памяти.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	users  []*models.User
}

func (s *memStore) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email == email })
}

func (s *memStore) FindByUUID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.UUID == id })
}

func (s *memStore) CreateWithPassword(_ context.Context, _ *models.User, u *models.User, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return storage.ErrEmailExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.UUID = uuid.New()
	u.PasswordHash = hash
	cp := *u
	s.users = append(s.users, &cp)
	return nil
}

func (s *memStore) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			u.LastLogin = &at
			return nil
		}
	}
	return storage.ErrUserNotFound
}

func (s *memStore) Save(_ context.Context, _ *models.User, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.users {
		if existing.ID == u.ID {
			cp := *u
			s.users[i] = &cp
			return nil
		}
	}
	return storage.ErrUserNotFound
}

func (s *memStore) List(_ context.Context, f models.UserFilter) (*models.UserPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := &models.UserPage{Count: len(s.users)}
	for i, u := range s.users {
		if i < f.Offset || (f.Limit > 0 && i >= f.Offset+f.Limit) {
			continue
		}
		cp := *u
		page.Users = append(page.Users, &cp)
	}
	return page, nil
}

func (s *memStore) Autocomplete(_ context.Context, _ string, _ int) ([]models.AutocompleteItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.AutocompleteItem, 0, len(s.users))
	for _, u := range s.users {
		items = append(items, models.AutocompleteItem{ID: u.ID, Name: u.FullName()})
	}
	return items, nil
}

func newTestRouter(t *testing.T) (http.Handler, *memStore) {
	t.Helper()
	return newCachedTestRouter(t, nil)
}

func newCachedTestRouter(t *testing.T, userCache users.Cache) (http.Handler, *memStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &memStore{}
	usersService := users.NewService(store, userCache, logger)
	authService := auth.NewService(store, jwt.NewJWTMaker("test-secret", time.Hour),
		auth.WithListInvalidator(usersService))
	reg := prometheus.NewRegistry()

	r := chi.NewRouter()
	RegisterRoutes(r, logger, Deps{
		Auth:           authService,
		Users:          usersService,
		Resolver:       authService,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		AllowedOrigins: []string{"https://pms.io"},
	})
	return r, store
}

func do(t *testing.T, h http.Handler, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestRegisterLoginMe(t *testing.T) {
	h, store := newTestRouter(t)

	code, resp := do(t, h, http.MethodPost, "/api/v1/users/auth/register/",
		`{"email":"john@example.com","first_name":"John","last_name":"Doe","contact":"9800000000","password":"secret"}`, "")
	require.Equal(t, http.StatusCreated, code, resp)
	assert.Equal(t, "User created successfully", resp["message"])
	profile := resp["data"].(map[string]any)
	assert.Equal(t, "john@example.com", profile["email"])

	created, err := store.FindByEmail(context.Background(), "john@example.com")
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.NotNil(t, created.LastLogin)

	code, resp = do(t, h, http.MethodPost, "/api/v1/users/auth/register/",
		`{"email":"john@example.com","password":"secret"}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email: user with this email address already exists.", resp["message"])

	code, resp = do(t, h, http.MethodPost, "/api/v1/users/auth/login/",
		`{"email":"john@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", resp["message"])

	code, resp = do(t, h, http.MethodPost, "/api/v1/users/auth/login/",
		`{"email":"john@example.com","password":"secret"}`, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Successfully logged in", resp["message"])
	token, ok := resp["data"].(string)
	require.True(t, ok)
	assert.Len(t, strings.Split(token, "."), 3)

	code, resp = do(t, h, http.MethodPost, "/api/v1/users/auth/me/", `{"token":"`+token+`"}`, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Successfully fetched user data", resp["message"])
	assert.Equal(t, profile["uuid"], resp["data"].(map[string]any)["uuid"])

	code, resp = do(t, h, http.MethodPost, "/api/v1/users/auth/me/", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No token Provided", resp["message"])
}

func TestRegister_FormEncoded(t *testing.T) {
	h, _ := newTestRouter(t)

	form := url.Values{"email": {"form@example.com"}, "password": {"pw1", "pw2"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/auth/register/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	code, _ := do(t, h, http.MethodPost, "/api/v1/users/auth/login/", `{"email":"form@example.com","password":"pw1"}`, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestRegister_ByAdminLeavesLastLoginEmpty(t *testing.T) {
	h, store := newTestRouter(t)

	code, _ := do(t, h, http.MethodPost, "/api/v1/users/auth/register/", `{"email":"admin@example.com","password":"secret"}`, "")
	require.Equal(t, http.StatusCreated, code)
	store.mu.Lock()
	store.users[0].IsAdmin = true
	store.mu.Unlock()

	_, resp := do(t, h, http.MethodPost, "/api/v1/users/auth/login/", `{"email":"admin@example.com","password":"secret"}`, "")
	token := resp["data"].(string)

	code, _ = do(t, h, http.MethodPost, "/api/v1/users/auth/register/", `{"email":"staff@example.com","password":"secret"}`, token)
	require.Equal(t, http.StatusCreated, code)

	staff, err := store.FindByEmail(context.Background(), "staff@example.com")
	require.NoError(t, err)
	assert.Nil(t, staff.LastLogin)

	code, resp = do(t, h, http.MethodPost, "/api/v1/users/auth/register/", `{"email":"x@example.com","password":"secret"}`, "garbage")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "token is malformed: token contains an invalid number of segments", resp["message"])
}

func TestUsersEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		code, _ := do(t, h, http.MethodPost, "/api/v1/users/auth/register/", `{"email":"`+email+`","password":"secret"}`, "")
		require.Equal(t, http.StatusCreated, code)
	}
	_, resp := do(t, h, http.MethodPost, "/api/v1/users/auth/login/", `{"email":"a@example.com","password":"secret"}`, "")
	token := resp["data"].(string)

	code, resp := do(t, h, http.MethodGet, "/api/v1/users/", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Authentication credentials were not provided.", resp["message"])

	code, resp = do(t, h, http.MethodGet, "/api/v1/users/?limit=1", "", token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), resp["count"])
	assert.Equal(t, "http://example.com/api/v1/users/?limit=1&offset=1", resp["next"])
	assert.Len(t, resp["data"], 1)

	_, resp = do(t, h, http.MethodPost, "/api/v1/users/auth/me/", `{"token":"`+token+`"}`, "")
	self := resp["data"].(map[string]any)["uuid"].(string)

	code, resp = do(t, h, http.MethodPatch, "/api/v1/users/"+self+"/", `{"first_name":"Alice"}`, token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Updated successfully", resp["message"])

	code, resp = do(t, h, http.MethodGet, "/api/v1/users/"+self+"/", "", token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Alice", resp["data"].(map[string]any)["first_name"])

	_, resp = do(t, h, http.MethodGet, "/api/v1/users/?no_pagination=true", "", token)
	var other string
	for _, p := range resp["data"].([]any) {
		if u := p.(map[string]any)["uuid"].(string); u != self {
			other = u
		}
	}
	require.NotEmpty(t, other)

	code, resp = do(t, h, http.MethodPatch, "/api/v1/users/"+other+"/", `{"first_name":"Mallory"}`, token)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "You do not have permission to perform this action.", resp["message"])

	code, resp = do(t, h, http.MethodGet, "/api/v1/users/autocomplete/", "", token)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["results"], 2)
}

func TestRegister_RefreshesCachedList(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	c, err := cache.InitServer(context.Background(), config.RedisConnection{RedisAddress: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	h, store := newCachedTestRouter(t, c)

	code, _ := do(t, h, http.MethodPost, "/api/v1/users/auth/register/", `{"email":"a@example.com","password":"secret"}`, "")
	require.Equal(t, http.StatusCreated, code)
	_, resp := do(t, h, http.MethodPost, "/api/v1/users/auth/login/", `{"email":"a@example.com","password":"secret"}`, "")
	token := resp["data"].(string)

	code, resp = do(t, h, http.MethodGet, "/api/v1/users/", "", token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), resp["count"])
	assert.NotEmpty(t, mr.Keys())

	code, _ = do(t, h, http.MethodPost, "/api/v1/users/auth/register/", `{"email":"c@example.com","password":"secret"}`, "")
	require.Equal(t, http.StatusCreated, code)

	code, resp = do(t, h, http.MethodGet, "/api/v1/users/", "", token)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), resp["count"])
	assert.Len(t, store.users, 2)
}

func TestUsersEndpoints_InactiveUserRejected(t *testing.T) {
	h, store := newTestRouter(t)

	code, _ := do(t, h, http.MethodPost, "/api/v1/users/auth/register/", `{"email":"a@example.com","password":"secret"}`, "")
	require.Equal(t, http.StatusCreated, code)
	_, resp := do(t, h, http.MethodPost, "/api/v1/users/auth/login/", `{"email":"a@example.com","password":"secret"}`, "")
	token := resp["data"].(string)

	code, _ = do(t, h, http.MethodGet, "/api/v1/users/", "", token)
	require.Equal(t, http.StatusOK, code)

	store.mu.Lock()
	store.users[0].IsActive = false
	store.users[0].Archive = true
	store.mu.Unlock()

	code, resp = do(t, h, http.MethodGet, "/api/v1/users/", "", token)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "User is inactive", resp["message"])
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	do(t, h, http.MethodPost, "/api/v1/users/auth/login/", `{"email":"nobody@example.com","password":"x"}`, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pms_auth_events_total{operation="login",outcome="rejected"} 1`)
	assert.Contains(t, rec.Body.String(), "pms_http_request_duration_seconds")
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/auth/login/", nil)
	req.Header.Set("Origin", "https://pms.io")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://pms.io", rec.Header().Get("Access-Control-Allow-Origin"))
}

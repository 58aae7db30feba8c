package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockmaster/stockmaster/internal/auth"
	"github.com/stockmaster/stockmaster/internal/shared"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) Create(ctx context.Context, user auth.User) (auth.User, error) {
	user.ID = 2
	return user, nil
}

func newTestSetup(t *testing.T, repo auth.Repository) (*chi.Mux, *shared.SessionStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionStore(client, time.Hour)
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	handler := auth.NewHandler(logger, auth.NewService(repo), sessions)

	r := chi.NewRouter()
	handler.MountPublicRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireAuth(sessions))
		handler.MountProtectedRoutes(r)
	})
	return r, sessions
}

func activeUser(t *testing.T, password, role string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           1,
		Email:        "user@test.local",
		PasswordHash: string(hash),
		Name:         "Test User",
		Role:         role,
		Status:       "ACTIVE",
	}
}

func TestLoginIssuesBearerToken(t *testing.T) {
	router, sessions := newTestSetup(t, &stubRepo{user: activeUser(t, "correctpass", shared.RoleStaff)})

	body := `{"email":"user@test.local","password":"correctpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string             `json:"token"`
		User  shared.SessionUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "user@test.local", resp.User.Email)

	stored, err := sessions.Get(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, int64(1), stored.ID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, _ := newTestSetup(t, &stubRepo{user: activeUser(t, "correctpass", shared.RoleStaff)})

	body := `{"email":"user@test.local","password":"wrongpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "correctpass", shared.RoleStaff)
	user.Status = "INACTIVE"
	router, _ := newTestSetup(t, &stubRepo{user: user})

	body := `{"email":"user@test.local","password":"correctpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresToken(t *testing.T) {
	router, sessions := newTestSetup(t, &stubRepo{user: activeUser(t, "correctpass", shared.RoleStaff)})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := sessions.Create(context.Background(), shared.SessionUser{ID: 1, Email: "user@test.local", Role: shared.RoleStaff})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "user@test.local")
}

func TestLogoutRevokesToken(t *testing.T) {
	router, sessions := newTestSetup(t, &stubRepo{user: activeUser(t, "correctpass", shared.RoleStaff)})

	token, err := sessions.Create(context.Background(), shared.SessionUser{ID: 1, Role: shared.RoleStaff})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = sessions.Get(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestRegisterRequiresManager(t *testing.T) {
	router, sessions := newTestSetup(t, &stubRepo{user: activeUser(t, "correctpass", shared.RoleStaff)})

	staffToken, err := sessions.Create(context.Background(), shared.SessionUser{ID: 1, Role: shared.RoleStaff})
	require.NoError(t, err)

	body := `{"email":"new@test.local","password":"secret123","name":"New User"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+staffToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	managerToken, err := sessions.Create(context.Background(), shared.SessionUser{ID: 9, Role: shared.RoleManager})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+managerToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
}

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"newsdesk/internal/config"
	"newsdesk/internal/engine"
	"newsdesk/internal/metadata"
	"newsdesk/internal/store"
)

const secret = "test-secret"

func newAuthApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", Name: name})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Bootstrap(ctx, metadata.NewsEntities(), "admin@localhost", "changeme", logger))

	app := fiber.New(fiber.Config{ErrorHandler: engine.NewErrorHandler(logger)})
	RegisterAuthRoutes(app.Group("/api"), NewAuthHandler(s, secret, time.Hour, false))
	app.Get("/api/admin-only", Middleware(secret), RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app, s
}

func login(t *testing.T, app *fiber.App, email, password string) *http.Response {
	t.Helper()
	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

func TestSessionToken_RoundTrip(t *testing.T) {
	token, err := GenerateSessionToken("u1", "ana@example.com", "editor", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseSessionToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "editor", claims.Role)

	_, err = ParseSessionToken(token, "other-secret")
	assert.Error(t, err)
}

func TestSessionToken_Expired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(past),
		},
		Role: "admin",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = ParseSessionToken(token, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestLogin_SetsCookie(t *testing.T) {
	app, _ := newAuthApp(t)

	resp := login(t, app, "admin@localhost", "changeme")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	var body struct {
		Success bool        `json:"success"`
		Data    SessionUser `json:"data"`
		Token   string      `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "admin", body.Data.Role)
	assert.Equal(t, cookie.Value, body.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	me, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, me.StatusCode)
}

func TestLogin_Rejections(t *testing.T) {
	app, s := newAuthApp(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	_, err = store.Exec(context.Background(), s.DB,
		"INSERT INTO users (id, name, email, password, role, active) VALUES (?1, ?2, ?3, ?4, ?5, ?6)",
		uuid.NewString(), "Former", "former@example.com", string(hash), "author", false)
	require.NoError(t, err)

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "admin@localhost", "nope"},
		{"unknown email", "ghost@example.com", "changeme"},
		{"missing password", "admin@localhost", ""},
		{"disabled account", "former@example.com", "secret-pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := login(t, app, tt.email, tt.password)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Nil(t, sessionCookie(resp))
		})
	}
}

func TestMiddleware_BearerAndRoles(t *testing.T) {
	app, _ := newAuthApp(t)

	get := func(path, header string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	adminToken, err := GenerateSessionToken("u1", "admin@localhost", "admin", secret, time.Hour)
	require.NoError(t, err)
	editorToken, err := GenerateSessionToken("u2", "ed@example.com", "editor", secret, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get("/api/admin-only", ""))
	assert.Equal(t, http.StatusUnauthorized, get("/api/admin-only", "Token abc"))
	assert.Equal(t, http.StatusUnauthorized, get("/api/admin-only", "Bearer garbage"))
	assert.Equal(t, http.StatusForbidden, get("/api/admin-only", "Bearer "+editorToken))
	assert.Equal(t, http.StatusOK, get("/api/admin-only", "Bearer "+adminToken))
	assert.Equal(t, http.StatusOK, get("/api/auth/me", "Bearer "+adminToken))
	assert.Equal(t, http.StatusUnauthorized, get("/api/auth/me", "Bearer "+editorToken))
}

func TestLogout_ClearsCookie(t *testing.T) {
	app, _ := newAuthApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

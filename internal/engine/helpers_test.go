package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/config"
	"newsdesk/internal/metadata"
	"newsdesk/internal/store"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	t     *testing.T
	app   *fiber.App
	store *store.Store
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Code       string          `json:"code"`
	Details    []ErrorDetail   `json:"details"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", Name: name})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, store.NewMigrator(s).MigrateAll(ctx, metadata.NewsEntities()))

	logger, _ := test.NewNullLogger()
	h := NewHandler(s, metadata.NewNewsRegistry(), WithClock(func() time.Time { return testNow }))

	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(logger)})
	// X-Role stands in for the session middleware.
	app.Use(func(c *fiber.Ctx) error {
		if role := c.Get("X-Role"); role != "" {
			c.Locals("user", &metadata.UserContext{ID: "u-test", Email: role + "@example.com", Role: role})
		}
		return c.Next()
	})
	RegisterAdminRoutes(app.Group("/api/admin"), h)
	RegisterPublicRoutes(app.Group("/api"), h)

	return &testEnv{t: t, app: app, store: s}
}

func (e *testEnv) do(method, path, role string, body any) (int, envelope) {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("X-Role", role)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(e.t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

// create posts as admin and returns the stored record.
func (e *testEnv) create(entity string, body map[string]any) map[string]any {
	e.t.Helper()
	status, env := e.do(http.MethodPost, "/api/admin/"+entity, "admin", body)
	require.Equal(e.t, 201, status, env.Error)
	return env.record(e.t)
}

func (env envelope) record(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return m
}

func (env envelope) records(t *testing.T) []map[string]any {
	t.Helper()
	var m []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return m
}

package instrument

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/engine"
)

func TestMiddleware_RecordsRenderedStatus(t *testing.T) {
	m := New()
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		status, body := engine.ToResponse(err)
		return c.Status(status).JSON(body)
	}})
	app.Use(m.Middleware())
	app.Get("/api/:entity", func(c *fiber.Ctx) error {
		if c.Params("entity") == "nope" {
			return engine.UnknownEntityError("nope")
		}
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/posts", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/:entity", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/:entity", "404")))
}

func TestObserveMutation_Outcomes(t *testing.T) {
	m := New()
	m.ObserveMutation("posts", "create", nil)
	m.ObserveMutation("posts", "create", engine.ValidationError(nil))
	m.ObserveMutation("posts", "delete", errors.New("db down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("posts", "create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("posts", "create", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("posts", "delete", "error")))
}

func TestHandler_ServesTextFormat(t *testing.T) {
	m := New()
	m.ObserveMutation("tags", "update", nil)

	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), `newsdesk_mutations_total{action="update",entity="tags",outcome="ok"} 1`))
}

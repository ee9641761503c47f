package logging

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, logrus.PanicLevel, ParseLevel("silent"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("bogus"))
}

func TestMiddleware_LogsRequestAndSetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LogConfig{Level: "info", Format: "json"}, &buf)

	app := fiber.New()
	app.Use(Middleware(logger))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return c.SendStatus(404)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/missing", line["path"])
	assert.Equal(t, float64(404), line["status"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, resp.Header.Get(RequestIDHeader), line["request_id"])
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	logger := NewWithOutput(config.LogConfig{Level: "silent"}, &bytes.Buffer{})

	app := fiber.New()
	app.Use(Middleware(logger))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

package http

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/credit-market/internal/observability"
	apperrors "github.com/spec-kit/credit-market/pkg/util/errorutil"
)

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp(metrics *observability.Metrics) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	return app
}

func TestErrorMiddlewareShapesDomainErrors(t *testing.T) {
	app := newTestApp(observability.NewMetrics())
	app.Get("/missing", func(*fiber.Ctx) error {
		return apperrors.NewNotFound("listing", nil)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
	require.Equal(t, "listing not found", body.Error.Message)
}

func TestErrorMiddlewareWrapsUnknownErrors(t *testing.T) {
	app := newTestApp(observability.NewMetrics())
	app.Get("/broken", func(*fiber.Ctx) error {
		return errors.New("database exploded")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/broken", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "INTERNAL_ERROR", body.Error.Code)
}

func TestErrorMiddlewareRecoversPanics(t *testing.T) {
	app := newTestApp(observability.NewMetrics())
	app.Get("/panic", func(*fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/panic", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestRequestLoggerRecordsMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newTestApp(metrics)
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": "ok"})
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ok", nil))
	require.NoError(t, err)

	requests, _ := metrics.Snapshot()
	require.NotEmpty(t, requests)
}

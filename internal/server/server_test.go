package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/mintari/internal/config"
)

func TestHTTPErrorHandler_WithStackTrace(t *testing.T) {
	// --- Setup ---
	e := echo.New()

	// Capture log output by temporarily redirecting slog's default logger.
	var logBuffer bytes.Buffer
	handler := slog.NewTextHandler(&logBuffer, &slog.HandlerOptions{
		AddSource: true,
	})
	originalLogger := slog.Default()
	slog.SetDefault(slog.New(handler))
	defer slog.SetDefault(originalLogger)

	setupErrorHandling(e)

	e.GET("/test-unhandled-error", func(c echo.Context) error {
		return errors.New("a deliberate unhandled error occurred")
	})
	e.GET("/test-http-error", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "already claimed")
	})

	// --- Act ---
	req := httptest.NewRequest(http.MethodGet, "/test-unhandled-error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// --- Assert ---
	require.Equal(t, http.StatusInternalServerError, rec.Code, "Expected a 500 Internal Server Error response")
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String(), "The cause must not leak to the client")

	logOutput := logBuffer.String()
	assert.Contains(t, logOutput, "Internal Server Error (Unhandled)", "Log message should indicate an unhandled error")
	assert.Contains(t, logOutput, "error=\"a deliberate unhandled error occurred\"", "Log should contain the original error message")
	assert.Contains(t, logOutput, "stack_trace=", "Log must contain the stack_trace field")

	// A real stack trace runs through the debug package and back to this file.
	assert.Contains(t, logOutput, "runtime/debug/stack.go", "Stack trace should originate from the debug package")
	assert.Contains(t, logOutput, "internal/server/server_test.go", "Stack trace should point back to this test file")

	t.Run("http errors keep their status and skip the stack trace", func(t *testing.T) {
		logBuffer.Reset()
		req := httptest.NewRequest(http.MethodGet, "/test-http-error", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"error":"already claimed"}`, rec.Body.String())
		assert.NotContains(t, logBuffer.String(), "stack_trace=")
	})
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KV_DIR", dir+"/kv")
	t.Setenv("UPLOAD_DIR", dir+"/uploads")
	t.Setenv("TRANSFORM_MOCK_DELAY", "0s")
	t.Setenv("APP_BASE_URL", "http://example.test")

	cfg, err := config.Load()
	require.NoError(t, err)

	s, err := New(cfg)
	require.NoError(t, err)
	s.RegisterRoutes()
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, req)
		return rec
	}

	t.Run("health", func(t *testing.T) {
		rec := get("/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("metrics are exposed after a request", func(t *testing.T) {
		rec := get("/metrics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "mintari_http_requests_total")
	})

	t.Run("flow starts at the wallet step", func(t *testing.T) {
		rec := get("/api/flow")
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "wallet", body["state"])
		assert.Equal(t, float64(5), body["credits"])
	})

	t.Run("flow steps require a wallet", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/flow/confirm", nil)
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("upload providers", func(t *testing.T) {
		rec := get("/api/upload/providers")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Walrus")
	})

	t.Run("unknown share page", func(t *testing.T) {
		rec := get("/nft/0xdeadbeef")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML))
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := get("/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
	})
}

func TestServer_TrackSponsorEvent(t *testing.T) {
	s := newTestServer(t)

	body := strings.NewReader(`{"sponsorId":"flowty","eventType":"view"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/analytics/sponsor", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, s.Tracker().Events(), 1)
}

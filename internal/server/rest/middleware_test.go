package rest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLog_RequestID(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", 200))
	rec = httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	got := rec.Header().Get(requestIDHeader)
	assert.Len(t, got, 36)
}

func TestCORS(t *testing.T) {
	e := newTestEnv(t)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		e.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("unknown origin gets no allow headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		e.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestNoRoute(t *testing.T) {
	e := newTestEnv(t)
	r := e.do(http.MethodGet, "/api/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, r.Code)
	assert.NotEmpty(t, r.json(t)["message"])
}

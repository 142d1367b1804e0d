package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolscope/toolscope/internal/infrastructure/config"
	"github.com/toolscope/toolscope/internal/logging"
)

func serve(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.httpSrv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServerWiring(t *testing.T) {
	srv, err := New(config.Default(), logging.NewNop())
	require.NoError(t, err)

	t.Run("health", func(t *testing.T) {
		rec := serve(t, srv, http.MethodGet, "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "healthy")
	})

	t.Run("all providers registered", func(t *testing.T) {
		stats := srv.registry.Stats()
		assert.Equal(t, 4, stats["total_services"])
	})

	t.Run("prometheus endpoint", func(t *testing.T) {
		rec := serve(t, srv, http.MethodGet, "/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("banner", func(t *testing.T) {
		rec := serve(t, srv, http.MethodGet, "/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), Version)
	})
}

func TestServerDefaultsOnNil(t *testing.T) {
	srv, err := New(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, srv.Hub())

	rec := serve(t, srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

package http

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityscope/internal/dataset"
	"cityscope/internal/services"
)

func newHealthRouter(t *testing.T, dir string) chi.Router {
	t.Helper()
	logger := testLogger()
	loader := dataset.NewLoader(dir, logger, nil)
	svc := services.NewHealthService("test", "", dir, loader, logger)
	handler := NewHealthHandler(svc, logger)

	r := chi.NewRouter()
	r.Mount("/api/health", handler.Routes())
	r.Get("/api/version", handler.Version)
	return r
}

func TestHealthCheck(t *testing.T) {
	router := newHealthRouter(t, seedData(t))

	var status services.HealthStatus
	rec := getJSON(t, router, "/api/health", &status)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "test", status.Version)
	assert.Equal(t, "ok", status.Datasets["crimes"])
}

func TestHealthCheckUnhealthy(t *testing.T) {
	router := newHealthRouter(t, t.TempDir())

	rec := getJSON(t, router, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadinessCheck(t *testing.T) {
	router := newHealthRouter(t, seedData(t))

	var body map[string]string
	rec := getJSON(t, router, "/api/health/ready", &body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestLivenessCheck(t *testing.T) {
	router := newHealthRouter(t, seedData(t))

	var body map[string]interface{}
	rec := getJSON(t, router, "/api/health/live", &body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", body["status"])
}

func TestVersionEndpoint(t *testing.T) {
	router := newHealthRouter(t, seedData(t))

	var info services.VersionInfo
	rec := getJSON(t, router, "/api/version", &info)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

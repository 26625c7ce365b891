package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityscope/internal/infrastructure"
)

// newTestApp builds an application rooted in a temp directory with one
// dataset file present.
func newTestApp(t *testing.T) *Application {
	t.Helper()
	infrastructure.ResetLoggerForTesting()

	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "unified_crimes.csv"),
		[]byte("year,crime_type,count,area\n2021,theft,120,North\n2022,theft,150,South\n"), 0o644))

	t.Setenv("CITYSCOPE_PATHS_DATA_DIR", dataDir)
	t.Setenv("CITYSCOPE_PATHS_LOGS_DIR", filepath.Join(dir, "logs"))
	t.Setenv("CITYSCOPE_PATHS_WEB_DIR", filepath.Join(dir, "web"))
	t.Setenv("CITYSCOPE_LOGGING_OUTPUT", "stdout")
	t.Setenv("CITYSCOPE_SECURITY_RATE_LIMIT_ENABLED", "false")

	application, err := NewApplication()
	require.NoError(t, err)
	return application
}

func get(t *testing.T, application *Application, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	application.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewApplication(t *testing.T) {
	application := newTestApp(t)

	assert.NotNil(t, application.Router)
	assert.NotNil(t, application.Server)
	assert.NotNil(t, application.Loader)
	require.NotNil(t, application.Services)
	assert.NotNil(t, application.Services.Dashboard)
	assert.NotNil(t, application.Services.Datasets)
	assert.NotNil(t, application.Services.Health)
}

func TestRouterHealthEndpoints(t *testing.T) {
	application := newTestApp(t)

	rec := get(t, application, "/api/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, application, "/api/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, application, "/api/version")
	assert.Equal(t, http.StatusOK, rec.Code)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, Version, info["version"])
}

func TestRouterDashboardEndpoints(t *testing.T) {
	application := newTestApp(t)

	rec := get(t, application, "/api/dashboard/overview")
	require.Equal(t, http.StatusOK, rec.Code)

	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "overview", view["section"])

	rec = get(t, application, "/api/dashboard/crime")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, application, "/api/dashboard/water")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterDatasetEndpoints(t *testing.T) {
	application := newTestApp(t)

	rec := get(t, application, "/api/datasets")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, application, "/api/datasets/crimes?limit=1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, application, "/api/datasets/crimes/columns")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, application, "/api/datasets/crimes/download")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, application, "/api/datasets/water")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterAPINotFound(t *testing.T) {
	application := newTestApp(t)

	rec := get(t, application, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, float64(http.StatusNotFound), problem["status"])
}

func TestRouterMetricsEndpoint(t *testing.T) {
	application := newTestApp(t)

	rec := get(t, application, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestRouterRequestIDHeader(t *testing.T) {
	application := newTestApp(t)

	rec := get(t, application, "/api/health/live")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCORSHeaders(t *testing.T) {
	application := newTestApp(t)

	// the default config allows the localhost origin
	req := httptest.NewRequest(http.MethodGet, "/api/health/live", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	rec := httptest.NewRecorder()
	application.Router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
}

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/registry-api/internal/config"
	"github.com/nexconsult/registry-api/internal/retrieval"
	"github.com/nexconsult/registry-api/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noopRetriever struct{}

func (noopRetriever) Retrieve(_ context.Context, identifier string, site *retrieval.SiteConfig) (*retrieval.Result, error) {
	return &retrieval.Result{Site: site.Name, Document: identifier, Status: retrieval.StatusNoRecord, Attempts: 1, Table: &retrieval.ResultTable{}}, nil
}

func newTestServer(t *testing.T, burst int) *Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{
		Server:    config.ServerConfig{Environment: "production"},
		Retrieval: config.RetrievalConfig{BatchConcurrency: 2, MaxBatchSize: 10},
		Security: config.SecurityConfig{
			RateLimit: config.RateLimitConfig{RequestsPerMinute: 60, BurstSize: burst},
			CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
			AdminKey:  "secret",
		},
	}

	sites, err := retrieval.DefaultRegistry("")
	require.NoError(t, err)
	cache := services.NewCacheService(nil, time.Hour, log)
	container := &services.Container{
		Sites:            sites,
		CacheService:     cache,
		BrowserService:   services.NewBrowserService(config.BrowserConfig{}, "", log),
		RetrievalService: services.NewRetrievalService(cfg.Retrieval, sites, noopRetriever{}, cache, nil, log),
	}

	s := NewServer(cfg, log, container)
	t.Cleanup(s.Close)
	return s
}

func get(s *Server, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer(t, 100)

	w := get(s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(s, "/api/v1/documents/05828793705")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = get(s, "/api/v1/sites/sigef/records/05828793705")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"no_record"`)

	assert.Equal(t, http.StatusOK, get(s, "/api/v1/sites").Code)
	assert.Equal(t, http.StatusOK, get(s, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, get(s, "/swagger/index.html").Code)
	assert.Equal(t, http.StatusNotFound, get(s, "/nope").Code)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sites", nil)
	w = httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServerAdminRoutes(t *testing.T) {
	s := newTestServer(t, 100)

	assert.Equal(t, http.StatusUnauthorized, get(s, "/api/v1/cache/stats").Code)
	assert.Equal(t, http.StatusOK, get(s, "/api/v1/cache/stats", "X-Admin-Token", "secret").Code)
	assert.Equal(t, http.StatusUnauthorized, get(s, "/api/v1/browser/stats").Code)
	assert.Equal(t, http.StatusOK, get(s, "/api/v1/browser/stats", "X-Admin-Token", "secret").Code)
}

func TestServerRateLimitSparesHealth(t *testing.T) {
	s := newTestServer(t, 1)

	assert.Equal(t, http.StatusOK, get(s, "/api/v1/sites").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(s, "/api/v1/sites").Code)
	assert.Equal(t, http.StatusOK, get(s, "/health/live").Code)
	assert.Equal(t, http.StatusOK, get(s, "/health/live").Code)
}

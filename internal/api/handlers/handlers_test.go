package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/registry-api/internal/captcha"
	"github.com/nexconsult/registry-api/internal/config"
	"github.com/nexconsult/registry-api/internal/models"
	"github.com/nexconsult/registry-api/internal/retrieval"
	"github.com/nexconsult/registry-api/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type stubRetriever struct {
	fn func(identifier string) (*retrieval.Result, error)
}

func (s *stubRetriever) Retrieve(_ context.Context, identifier string, site *retrieval.SiteConfig) (*retrieval.Result, error) {
	return s.fn(identifier)
}

type stubStats struct{}

func (stubStats) Stats() captcha.Stats {
	return captcha.Stats{TotalRequests: 4, SuccessRequests: 3, FailedRequests: 1, AverageTime: 40 * time.Millisecond}
}

func found(identifier string) (*retrieval.Result, error) {
	return &retrieval.Result{
		Site:     "sigef",
		Document: identifier,
		Status:   retrieval.StatusFound,
		Attempts: 2,
		Duration: time.Second,
		Table: &retrieval.ResultTable{
			Columns: []string{"Código"},
			Rows:    []retrieval.Record{{ID: "P001", Values: map[string]string{"Código": "abc"}}},
		},
	}, nil
}

type testEnv struct {
	router    *gin.Engine
	retrieval *services.RetrievalService
	cache     *services.CacheService
}

func newTestEnv(t *testing.T, fn func(string) (*retrieval.Result, error), maxBatch int) *testEnv {
	t.Helper()
	log := quietLogger()

	sites, err := retrieval.DefaultRegistry("")
	require.NoError(t, err)
	cache := services.NewCacheService(nil, time.Hour, log)
	svc := services.NewRetrievalService(config.RetrievalConfig{BatchConcurrency: 2}, sites, &stubRetriever{fn: fn}, cache, stubStats{}, log)
	browser := services.NewBrowserService(config.BrowserConfig{Enabled: false}, "", log)

	r := gin.New()
	documents := NewDocumentHandler(log)
	r.GET("/documents/:document", documents.GetDocument)
	r.POST("/documents/validate", documents.Validate)

	records := NewRecordsHandler(svc, maxBatch, log)
	r.GET("/sites", records.ListSites)
	r.GET("/sites/:site/records/:document", records.GetRecords)
	r.POST("/sites/:site/records/batch", records.GetBatchRecords)

	cacheHandler := NewCacheHandler(cache, svc, log)
	r.GET("/cache/stats", cacheHandler.GetStats)
	r.DELETE("/cache/clear", cacheHandler.Clear)
	r.DELETE("/cache/:site/:document", cacheHandler.Delete)

	browserHandler := NewBrowserHandler(browser, log)
	r.GET("/browser/stats", browserHandler.GetStats)
	r.POST("/browser/restart", browserHandler.Restart)
	r.GET("/browser/health", browserHandler.GetHealth)

	r.GET("/metrics", NewMetricsHandler(svc, cache, browser, log).GetMetrics)

	return &testEnv{router: r, retrieval: svc, cache: cache}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestGetDocument(t *testing.T) {
	env := newTestEnv(t, found, 10)

	w := env.do(http.MethodGet, "/documents/05828793705", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode[models.DocumentResponse](t, w)
	assert.True(t, doc.Valid)
	assert.Equal(t, "CPF", doc.Kind)
	assert.Equal(t, "058.287.937-05", doc.Formatted)

	w = env.do(http.MethodGet, "/documents/11222333000181", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc = decode[models.DocumentResponse](t, w)
	assert.Equal(t, "CNPJ", doc.Kind)
	assert.Equal(t, "MATRIZ", doc.BranchType)

	w = env.do(http.MethodGet, "/documents/05828793700", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[models.DocumentResponse](t, w).Valid)

	w = env.do(http.MethodGet, "/documents/12", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_DOCUMENT", decode[models.ErrorResponse](t, w).Code)
}

func TestValidateDocuments(t *testing.T) {
	env := newTestEnv(t, found, 10)

	w := env.do(http.MethodPost, "/documents/validate", models.ValidateRequest{
		Documents: []string{"058.287.937-05", "abc", "11.222.333/0001-81"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.ValidateResponse](t, w)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Valid)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "abc", resp.Results[1].Input)
	assert.False(t, resp.Results[1].Valid)

	w = env.do(http.MethodPost, "/documents/validate", map[string]interface{}{"documents": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSites(t *testing.T) {
	env := newTestEnv(t, found, 10)

	w := env.do(http.MethodGet, "/sites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.SitesResponse](t, w)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "sigef", resp.Sites[0].Name)
	assert.True(t, resp.Sites[0].Captcha)
}

func TestGetRecordsCachesResult(t *testing.T) {
	env := newTestEnv(t, found, 10)

	w := env.do(http.MethodGet, "/sites/sigef/records/058.287.937-05", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "found", body["status"])
	assert.Equal(t, false, body["cache"])

	w = env.do(http.MethodGet, "/sites/SIGEF/records/05828793705", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func TestGetRecordsErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		site     string
		document string
		err      error
		status   int
		code     string
	}{
		{"captcha exhausted", "sigef", "05828793705", fmt.Errorf("%w after 10 attempts", retrieval.ErrRetryExhausted), http.StatusServiceUnavailable, "CAPTCHA_ERROR"},
		{"upstream down", "sigef", "05828793705", retrieval.ErrUpstreamUnavailable, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"unexpected page", "sigef", "05828793705", retrieval.ErrUnexpectedResponse, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"timeout", "sigef", "05828793705", context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{"other", "sigef", "05828793705", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"unknown site", "nowhere", "05828793705", nil, http.StatusNotFound, "UNKNOWN_SITE"},
		{"malformed", "sigef", "12", nil, http.StatusBadRequest, "INVALID_DOCUMENT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, func(string) (*retrieval.Result, error) {
				if tc.err == nil {
					t.Fatal("retriever must not be called")
				}
				return nil, tc.err
			}, 10)

			w := env.do(http.MethodGet, "/sites/"+tc.site+"/records/"+tc.document, nil)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decode[models.ErrorResponse](t, w).Code)
		})
	}
}

func TestGetBatchRecords(t *testing.T) {
	env := newTestEnv(t, found, 2)

	w := env.do(http.MethodPost, "/sites/sigef/records/batch", models.BatchRequest{
		Documents: []string{"05828793705", "12"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.BatchResponse](t, w)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Success)
	assert.Equal(t, 1, resp.Errors)
	assert.Equal(t, "05828793705", resp.Results[0].Document)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)

	w = env.do(http.MethodPost, "/sites/sigef/records/batch", models.BatchRequest{
		Documents: []string{"05828793705", "11222333000181", "12"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BATCH_TOO_LARGE", decode[models.ErrorResponse](t, w).Code)

	w = env.do(http.MethodPost, "/sites/nowhere/records/batch", models.BatchRequest{Documents: []string{"05828793705"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCacheEndpoints(t *testing.T) {
	env := newTestEnv(t, found, 10)

	w := env.do(http.MethodDelete, "/cache/sigef/05828793705", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/sites/sigef/records/05828793705", nil).Code)

	w = env.do(http.MethodDelete, "/cache/sigef/058.287.937-05", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "058.287.937-05", decode[map[string]interface{}](t, w)["document"])

	w = env.do(http.MethodDelete, "/cache/nowhere/05828793705", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UNKNOWN_SITE", decode[models.ErrorResponse](t, w).Code)

	w = env.do(http.MethodDelete, "/cache/sigef/12", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/cache/stats", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/cache/clear", nil).Code)
}

func TestBrowserEndpointsWhenDisabled(t *testing.T) {
	env := newTestEnv(t, found, 10)

	w := env.do(http.MethodPost, "/browser/restart", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "BROWSER_DISABLED", decode[models.ErrorResponse](t, w).Code)

	w = env.do(http.MethodGet, "/browser/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"disabled"`)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/browser/stats", nil).Code)
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, found, 10)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/sites/sigef/records/05828793705", nil).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/sites/sigef/records/05828793705", nil).Code)

	w := env.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	m := decode[models.MetricsResponse](t, w)

	assert.Equal(t, int64(1), m.Retrievals.Found)
	assert.Equal(t, int64(2), m.Retrievals.Attempts)
	assert.Equal(t, int64(3), m.Captcha.Decoded)
	assert.Equal(t, int64(1), m.Captcha.Failed)
	assert.Equal(t, int64(1), m.Cache.Hits)
	assert.Equal(t, int64(1), m.Cache.Misses)
	assert.InDelta(t, 50.0, m.Cache.HitRate, 0.001)
	assert.False(t, m.Browser.Enabled)
	assert.Positive(t, m.System.Goroutines)
}

type fakeHealth map[string]interface{}

func (f fakeHealth) Health() map[string]interface{} { return f }

func TestHealthEndpoints(t *testing.T) {
	cases := []struct {
		name        string
		health      fakeHealth
		status      string
		code        int
		readyStatus int
	}{
		{
			name:        "healthy",
			health:      fakeHealth{"cache": map[string]interface{}{"status": "healthy"}, "retrieval": map[string]interface{}{"status": "healthy"}},
			status:      "healthy",
			code:        http.StatusOK,
			readyStatus: http.StatusOK,
		},
		{
			name:        "degraded cache",
			health:      fakeHealth{"cache": map[string]interface{}{"status": "degraded", "error": "redis down"}, "retrieval": map[string]interface{}{"status": "healthy"}},
			status:      "degraded",
			code:        http.StatusOK,
			readyStatus: http.StatusOK,
		},
		{
			name:        "unhealthy browser",
			health:      fakeHealth{"browser": map[string]interface{}{"status": "unhealthy"}},
			status:      "unhealthy",
			code:        http.StatusServiceUnavailable,
			readyStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(tc.health, quietLogger())
			r := gin.New()
			r.GET("/health", h.GetHealth)
			r.GET("/health/ready", h.GetReadiness)
			r.GET("/health/live", h.GetLiveness)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tc.code, w.Code)
			resp := decode[models.HealthResponse](t, w)
			assert.Equal(t, tc.status, resp.Status)
			assert.Equal(t, Version, resp.Version)

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tc.readyStatus, w.Code)

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), `"alive":true`))
		})
	}

	resp := fakeHealth{"cache": map[string]interface{}{"status": "degraded", "error": "redis down"}}
	h := NewHealthHandler(resp, quietLogger())
	r := gin.New()
	r.GET("/health", h.GetHealth)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "redis down", decode[models.HealthResponse](t, w).Services["cache"].Error)
}

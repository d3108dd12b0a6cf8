package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/registry-api/internal/captcha"
	"github.com/nexconsult/registry-api/internal/config"
	"github.com/nexconsult/registry-api/internal/retrieval"
)

type stubRetriever struct {
	mu    sync.Mutex
	calls []string
	fn    func(identifier string) (*retrieval.Result, error)
}

func (s *stubRetriever) Retrieve(_ context.Context, identifier string, site *retrieval.SiteConfig) (*retrieval.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, site.Name+":"+identifier)
	s.mu.Unlock()
	return s.fn(identifier)
}

type stubStats struct{}

func (stubStats) Stats() captcha.Stats {
	return captcha.Stats{SuccessRequests: 7, FailedRequests: 1, AverageTime: 30 * time.Millisecond}
}

func found(identifier string) (*retrieval.Result, error) {
	return &retrieval.Result{
		Site:     "sigef",
		Document: identifier,
		Status:   retrieval.StatusFound,
		Attempts: 3,
		Duration: 2 * time.Second,
		Table: &retrieval.ResultTable{
			Columns: []string{"Código"},
			Rows:    []retrieval.Record{{ID: "P001", Values: map[string]string{"Código": "x"}}},
		},
	}, nil
}

func newTestRetrievalService(t *testing.T, r Retriever) *RetrievalService {
	t.Helper()
	sites, err := retrieval.DefaultRegistry("")
	require.NoError(t, err)
	cache := NewCacheService(nil, time.Hour, quietLogger())
	return NewRetrievalService(config.RetrievalConfig{BatchConcurrency: 2}, sites, r, cache, stubStats{}, quietLogger())
}

func TestRetrieveCachesResult(t *testing.T) {
	stub := &stubRetriever{fn: found}
	svc := newTestRetrievalService(t, stub)
	ctx := context.Background()

	first, err := svc.Retrieve(ctx, "sigef", "058.287.937-05")
	require.NoError(t, err)
	assert.False(t, first.Cache)
	assert.Equal(t, retrieval.StatusFound, first.Status)

	second, err := svc.Retrieve(ctx, "SIGEF", "05828793705")
	require.NoError(t, err)
	assert.True(t, second.Cache)
	assert.Equal(t, "x", second.Table.Rows[0].Values["Código"])

	assert.Equal(t, []string{"sigef:05828793705"}, stub.calls)

	require.NoError(t, svc.Forget(ctx, "sigef", "05828793705"))
	_, err = svc.Retrieve(ctx, "sigef", "05828793705")
	require.NoError(t, err)
	assert.Len(t, stub.calls, 2)

	require.NoError(t, svc.Forget(ctx, "sigef", "05828793705"))
	assert.ErrorIs(t, svc.Forget(ctx, "sigef", "05828793705"), ErrCacheMiss)
	assert.ErrorIs(t, svc.Forget(ctx, "sigef", "12"), retrieval.ErrMalformedIdentifier)
}

func TestRetrieveErrors(t *testing.T) {
	stub := &stubRetriever{fn: func(string) (*retrieval.Result, error) {
		return nil, retrieval.ErrRetryExhausted
	}}
	svc := newTestRetrievalService(t, stub)
	ctx := context.Background()

	_, err := svc.Retrieve(ctx, "nowhere", "05828793705")
	assert.ErrorIs(t, err, retrieval.ErrUnknownSite)

	_, err = svc.Retrieve(ctx, "sigef", "12")
	assert.ErrorIs(t, err, retrieval.ErrMalformedIdentifier)

	_, err = svc.Retrieve(ctx, "sigef", "05828793705")
	assert.ErrorIs(t, err, retrieval.ErrRetryExhausted)

	assert.Len(t, stub.calls, 1)
	m := svc.Metrics()
	assert.Equal(t, int64(1), m.Errors)
	assert.Equal(t, int64(1), m.RetryExhausted)
}

func TestRetrieveBatchKeepsOrder(t *testing.T) {
	stub := &stubRetriever{fn: func(id string) (*retrieval.Result, error) {
		if id == "11222333000181" {
			return nil, errors.New("boom")
		}
		return found(id)
	}}
	svc := newTestRetrievalService(t, stub)

	docs := []string{"05828793705", "11222333000181", "abc", "11144477735"}
	results, err := svc.RetrieveBatch(context.Background(), "sigef", docs)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, r := range results {
		assert.Equal(t, docs[i], r.Document)
	}
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "boom", results[1].Error)
	assert.False(t, results[2].Success)
	assert.True(t, results[3].Success)

	m := svc.Metrics()
	assert.Equal(t, int64(3), m.Total)
	assert.Equal(t, int64(2), m.Found)
	assert.Equal(t, int64(6), m.Attempts)
	assert.InDelta(t, 3.0, m.AvgAttempts, 0.001)
	assert.Equal(t, int64(2000), m.AvgDurationMs)

	_, err = svc.RetrieveBatch(context.Background(), "nowhere", docs)
	assert.ErrorIs(t, err, retrieval.ErrUnknownSite)
}

func TestCaptchaMetrics(t *testing.T) {
	svc := newTestRetrievalService(t, &stubRetriever{fn: found})
	m := svc.CaptchaMetrics()
	assert.Equal(t, int64(7), m.Decoded)
	assert.Equal(t, int64(1), m.Failed)
	assert.Equal(t, int64(30), m.AvgDurationMs)
	assert.Equal(t, "healthy", svc.Health()["status"])
}

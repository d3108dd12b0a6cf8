package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/registry-api/internal/captcha"
	"github.com/nexconsult/registry-api/internal/config"
	"github.com/nexconsult/registry-api/internal/models"
	"github.com/nexconsult/registry-api/internal/retrieval"
	"github.com/nexconsult/registry-api/internal/utils"
)

// Retriever runs one captcha-gated retrieval
type Retriever interface {
	Retrieve(ctx context.Context, identifier string, site *retrieval.SiteConfig) (*retrieval.Result, error)
}

// CaptchaStatsSource exposes decoder counters
type CaptchaStatsSource interface {
	Stats() captcha.Stats
}

// RetrievalService serves registry lookups with caching and counters
type RetrievalService struct {
	config    config.RetrievalConfig
	sites     *retrieval.Registry
	retriever Retriever
	cache     CacheServiceInterface
	decoder   CaptchaStatsSource
	logger    *logrus.Logger

	mu             sync.RWMutex
	requestCounter int64
	found          int64
	noRecord       int64
	failed         int64
	retryExhausted int64
	attempts       int64
	totalDuration  time.Duration
}

// NewRetrievalService creates a new retrieval service. decoder may be nil.
func NewRetrievalService(cfg config.RetrievalConfig, sites *retrieval.Registry, retriever Retriever, cache CacheServiceInterface, decoder CaptchaStatsSource, logger *logrus.Logger) *RetrievalService {
	return &RetrievalService{
		config:    cfg,
		sites:     sites,
		retriever: retriever,
		cache:     cache,
		decoder:   decoder,
		logger:    logger,
	}
}

// Sites lists configured sites
func (s *RetrievalService) Sites() []*retrieval.SiteConfig {
	return s.sites.List()
}

func cacheKey(site, digits string) string {
	return fmt.Sprintf("retrieval:%s:%s", site, digits)
}

// Retrieve returns the records for document at site, from cache when possible
func (s *RetrievalService) Retrieve(ctx context.Context, siteName, document string) (*models.RecordsResponse, error) {
	start := time.Now()

	site, err := s.sites.Get(siteName)
	if err != nil {
		return nil, err
	}

	info := utils.ValidateDocument(document)
	if info.Malformed() {
		return nil, fmt.Errorf("%w: %q", retrieval.ErrMalformedIdentifier, document)
	}

	s.mu.Lock()
	s.requestCounter++
	requestID := s.requestCounter
	s.mu.Unlock()

	logger := s.logger.WithFields(logrus.Fields{
		"site":       site.Name,
		"document":   info.Digits,
		"request_id": requestID,
	})

	logger.Info("Starting registry retrieval")

	key := cacheKey(site.Name, info.Digits)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var result retrieval.Result
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			logger.WithField("duration", time.Since(start)).Info("Result found in cache")
			return &models.RecordsResponse{
				Result:        &result,
				Cache:         true,
				TempoConsulta: time.Since(start).Milliseconds(),
			}, nil
		}
		logger.WithError(err).Warn("Failed to unmarshal cached result")
	}

	result, err := s.retriever.Retrieve(ctx, info.Digits, site)
	s.record(result, err)
	if err != nil {
		logger.WithError(err).Error("Registry retrieval failed")
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, string(data)); err != nil {
			logger.WithError(err).Warn("Failed to cache result")
		}
	}

	logger.WithFields(logrus.Fields{
		"duration": time.Since(start),
		"status":   result.Status,
		"attempts": result.Attempts,
	}).Info("Registry retrieval completed")

	return &models.RecordsResponse{
		Result:        result,
		Cache:         false,
		TempoConsulta: time.Since(start).Milliseconds(),
	}, nil
}

func (s *RetrievalService) record(result *retrieval.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.failed++
		if errors.Is(err, retrieval.ErrRetryExhausted) {
			s.retryExhausted++
		}
		return
	}

	s.attempts += int64(result.Attempts)
	s.totalDuration += result.Duration
	switch result.Status {
	case retrieval.StatusFound:
		s.found++
	case retrieval.StatusNoRecord:
		s.noRecord++
	}
}

// RetrieveBatch runs one independent session per document, bounded by the
// configured concurrency. Results keep request order.
func (s *RetrievalService) RetrieveBatch(ctx context.Context, siteName string, documents []string) ([]models.BatchResult, error) {
	if _, err := s.sites.Get(siteName); err != nil {
		return nil, err
	}

	results := make([]models.BatchResult, len(documents))

	concurrency := s.config.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, doc := range documents {
		wg.Add(1)
		go func(index int, document string) {
			defer wg.Done()

			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			start := time.Now()
			response, err := s.Retrieve(ctx, siteName, document)
			duration := time.Since(start)

			if err != nil {
				results[index] = models.BatchResult{
					Document:   document,
					Success:    false,
					Error:      err.Error(),
					DurationMs: duration.Milliseconds(),
				}
				return
			}
			results[index] = models.BatchResult{
				Document:   document,
				Success:    true,
				Data:       response,
				DurationMs: duration.Milliseconds(),
			}
		}(i, doc)
	}

	wg.Wait()
	return results, nil
}

// Forget drops the cached result for one document. ErrCacheMiss is
// returned when nothing was cached.
func (s *RetrievalService) Forget(ctx context.Context, siteName, document string) error {
	site, err := s.sites.Get(siteName)
	if err != nil {
		return err
	}
	info := utils.ValidateDocument(document)
	if info.Malformed() {
		return fmt.Errorf("%w: %q", retrieval.ErrMalformedIdentifier, document)
	}
	key := cacheKey(site.Name, info.Digits)
	exists, err := s.cache.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCacheMiss
	}
	return s.cache.Delete(ctx, key)
}

// Metrics returns retrieval counters
func (s *RetrievalService) Metrics() models.RetrievalMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	completed := s.found + s.noRecord
	total := completed + s.failed
	m := models.RetrievalMetrics{
		Total:          total,
		Found:          s.found,
		NoRecord:       s.noRecord,
		Errors:         s.failed,
		Attempts:       s.attempts,
		RetryExhausted: s.retryExhausted,
	}
	if completed > 0 {
		m.AvgAttempts = float64(s.attempts) / float64(completed)
		m.AvgDurationMs = (s.totalDuration / time.Duration(completed)).Milliseconds()
	}
	if total > 0 {
		m.SuccessRate = float64(completed) / float64(total) * 100
	}
	return m
}

// CaptchaMetrics returns OCR counters
func (s *RetrievalService) CaptchaMetrics() models.CaptchaMetrics {
	if s.decoder == nil {
		return models.CaptchaMetrics{}
	}
	st := s.decoder.Stats()
	return models.CaptchaMetrics{
		Decoded:       st.SuccessRequests,
		Failed:        st.FailedRequests,
		AvgDurationMs: st.AverageTime.Milliseconds(),
	}
}

// Health returns service health status
func (s *RetrievalService) Health() map[string]interface{} {
	s.mu.RLock()
	requestCount := s.requestCounter
	s.mu.RUnlock()

	return map[string]interface{}{
		"status":        "healthy",
		"request_count": requestCount,
		"sites":         len(s.sites.List()),
		"cache_enabled": s.cache != nil,
	}
}

// Close closes the service and releases resources
func (s *RetrievalService) Close() error {
	s.logger.Info("Retrieval service closed")
	return nil
}

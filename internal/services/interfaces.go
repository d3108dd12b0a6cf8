package services

import (
	"context"
	"net/http"

	"github.com/nexconsult/registry-api/internal/models"
	"github.com/nexconsult/registry-api/internal/retrieval"
)

// RetrievalServiceInterface defines the interface for registry retrieval
type RetrievalServiceInterface interface {
	// Sites lists configured sites
	Sites() []*retrieval.SiteConfig

	// Retrieve runs (or serves from cache) one retrieval
	Retrieve(ctx context.Context, site, document string) (*models.RecordsResponse, error)

	// RetrieveBatch runs independent retrievals concurrently
	RetrieveBatch(ctx context.Context, site string, documents []string) ([]models.BatchResult, error)

	// Forget drops the cached result for one document
	Forget(ctx context.Context, site, document string) error

	// Metrics returns retrieval counters
	Metrics() models.RetrievalMetrics

	// CaptchaMetrics returns OCR counters
	CaptchaMetrics() models.CaptchaMetrics

	// Health returns service health status
	Health() map[string]interface{}

	// Close closes the service and releases resources
	Close() error
}

// CacheServiceInterface defines the interface for cache service
type CacheServiceInterface interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value string) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear clears all cache entries
	Clear(ctx context.Context) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// GetStats returns cache statistics
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Health returns cache service health status
	Health() map[string]interface{}
}

// BrowserServiceInterface defines the interface for browser service
type BrowserServiceInterface interface {
	// SessionCookies loads a page in a pooled browser and returns its cookies
	SessionCookies(ctx context.Context, pageURL string) ([]*http.Cookie, error)

	// GetStats returns browser pool statistics
	GetStats() map[string]interface{}

	// Health returns browser service health status
	Health() map[string]interface{}

	// Restart restarts the browser pool
	Restart() error

	// Close closes all browsers and releases resources
	Close() error
}

package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/registry-api/internal/models"
	"github.com/nexconsult/registry-api/internal/services"
)

// HitCounter exposes cache hit and miss totals
type HitCounter interface {
	HitStats() (hits, misses int64)
}

// MetricsHandler handles metrics requests
type MetricsHandler struct {
	retrievalService services.RetrievalServiceInterface
	cache            HitCounter
	browserService   services.BrowserServiceInterface
	logger           *logrus.Logger
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(retrievalService services.RetrievalServiceInterface, cache HitCounter, browserService services.BrowserServiceInterface, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		retrievalService: retrievalService,
		cache:            cache,
		browserService:   browserService,
		logger:           logger,
	}
}

// GetMetrics handles metrics request
// @Summary Get application metrics
// @Description Retrieval outcomes, captcha decoding, cache and browser pool counters
// @Tags Metrics
// @Produce json
// @Success 200 {object} models.MetricsResponse
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	h.logger.WithField("request_id", c.GetString("request_id")).Debug("Getting application metrics")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := models.MetricsResponse{
		Retrievals: h.retrievalService.Metrics(),
		Captcha:    h.retrievalService.CaptchaMetrics(),
		System: models.SystemMetrics{
			MemoryMB:   float64(m.Alloc) / 1024 / 1024,
			Goroutines: runtime.NumGoroutine(),
		},
		Timestamp: time.Now(),
	}

	if h.cache != nil {
		hits, misses := h.cache.HitStats()
		response.Cache = models.CacheMetrics{Hits: hits, Misses: misses}
		if total := hits + misses; total > 0 {
			response.Cache.HitRate = float64(hits) / float64(total) * 100
		}
	}

	if h.browserService != nil {
		stats := h.browserService.GetStats()
		response.Browser = models.BrowserMetrics{
			TotalBrowsers:  getIntFromStats(stats, "total_browsers"),
			AvailableSlots: getIntFromStats(stats, "available"),
		}
		response.Browser.Enabled, _ = stats["enabled"].(bool)
	}

	c.JSON(http.StatusOK, response)
}

func getIntFromStats(stats map[string]interface{}, key string) int {
	if value, ok := stats[key].(int); ok {
		return value
	}
	return 0
}

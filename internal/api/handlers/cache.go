package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/registry-api/internal/retrieval"
	"github.com/nexconsult/registry-api/internal/services"
	"github.com/nexconsult/registry-api/internal/utils"
)

// CacheHandler handles cache management requests
type CacheHandler struct {
	cacheService     services.CacheServiceInterface
	retrievalService services.RetrievalServiceInterface
	logger           *logrus.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cacheService services.CacheServiceInterface, retrievalService services.RetrievalServiceInterface, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{
		cacheService:     cacheService,
		retrievalService: retrievalService,
		logger:           logger,
	}
}

// GetStats handles cache statistics request
// @Summary Get cache statistics
// @Description Get detailed cache statistics and metrics
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /cache/stats [get]
func (h *CacheHandler) GetStats(c *gin.Context) {
	requestID := c.GetString("request_id")

	stats, err := h.cacheService.GetStats(c.Request.Context())
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to get cache statistics")
		writeError(c, http.StatusInternalServerError, "Internal server error", "Failed to retrieve cache statistics", "CACHE_STATS_ERROR")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":     stats,
		"timestamp": time.Now(),
		"health":    h.cacheService.Health(),
	})
}

// Clear handles cache clear request
// @Summary Clear all cache
// @Description Drop every cached retrieval result
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /cache/clear [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	requestID := c.GetString("request_id")

	if err := h.cacheService.Clear(c.Request.Context()); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to clear cache")
		writeError(c, http.StatusInternalServerError, "Internal server error", "Failed to clear cache", "CACHE_CLEAR_ERROR")
		return
	}

	h.logger.WithField("request_id", requestID).Info("Cache cleared successfully")

	c.JSON(http.StatusOK, gin.H{
		"message":   "Cache cleared successfully",
		"timestamp": time.Now(),
		"success":   true,
	})
}

// Delete handles deletion of one cached retrieval
// @Summary Delete a cached retrieval
// @Description Forget the cached result of one site/document pair
// @Tags Cache
// @Param site path string true "Site name" example(sigef)
// @Param document path string true "CPF or CNPJ"
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /cache/{site}/{document} [delete]
func (h *CacheHandler) Delete(c *gin.Context) {
	requestID := c.GetString("request_id")
	site := c.Param("site")
	info := utils.ValidateDocument(c.Param("document"))

	err := h.retrievalService.Forget(c.Request.Context(), site, info.Digits)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrCacheMiss):
		writeError(c, http.StatusNotFound, "Not found", "Document not found in cache", "NOT_IN_CACHE")
		return
	case errors.Is(err, retrieval.ErrMalformedIdentifier), errors.Is(err, retrieval.ErrUnknownSite):
		writeRetrievalError(c, err)
		return
	default:
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"site":       site,
			"document":   info.Digits,
			"error":      err.Error(),
		}).Error("Failed to delete cached retrieval")
		writeError(c, http.StatusInternalServerError, "Internal server error", "Failed to delete from cache", "CACHE_DELETE_ERROR")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"site":       site,
		"document":   info.Digits,
	}).Info("Cached retrieval deleted")

	c.JSON(http.StatusOK, gin.H{
		"message":   "Cached retrieval deleted successfully",
		"site":      site,
		"document":  info.Formatted,
		"timestamp": time.Now(),
		"success":   true,
	})
}

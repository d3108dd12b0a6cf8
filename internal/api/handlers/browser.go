package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/registry-api/internal/services"
)

// BrowserHandler handles the pool of headless browsers used to obtain
// session cookies from sites that gate their forms behind scripts
type BrowserHandler struct {
	browserService services.BrowserServiceInterface
	logger         *logrus.Logger
}

// NewBrowserHandler creates a new browser handler
func NewBrowserHandler(browserService services.BrowserServiceInterface, logger *logrus.Logger) *BrowserHandler {
	return &BrowserHandler{
		browserService: browserService,
		logger:         logger,
	}
}

// GetStats handles browser pool statistics request
// @Summary Get browser pool statistics
// @Description Get detailed browser pool statistics and metrics
// @Tags Browser
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /browser/stats [get]
func (h *BrowserHandler) GetStats(c *gin.Context) {
	requestID := c.GetString("request_id")

	h.logger.WithField("request_id", requestID).Debug("Getting browser pool statistics")

	c.JSON(http.StatusOK, gin.H{
		"stats":     h.browserService.GetStats(),
		"timestamp": time.Now(),
		"health":    h.browserService.Health(),
	})
}

// Restart handles browser pool restart request
// @Summary Restart browser pool
// @Description Restart all browsers in the pool
// @Tags Browser
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /browser/restart [post]
func (h *BrowserHandler) Restart(c *gin.Context) {
	requestID := c.GetString("request_id")

	h.logger.WithField("request_id", requestID).Info("Restarting browser pool")

	if err := h.browserService.Restart(); err != nil {
		if errors.Is(err, services.ErrBrowserDisabled) {
			writeError(c, http.StatusConflict, "Browser pool disabled", "Set BROWSER_ENABLED=true to use the browser pool", "BROWSER_DISABLED")
			return
		}
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to restart browser pool")
		writeError(c, http.StatusInternalServerError, "Internal server error", "Failed to restart browser pool", "BROWSER_RESTART_ERROR")
		return
	}

	h.logger.WithField("request_id", requestID).Info("Browser pool restarted successfully")

	c.JSON(http.StatusOK, gin.H{
		"message":   "Browser pool restarted successfully",
		"timestamp": time.Now(),
		"success":   true,
		"stats":     h.browserService.GetStats(),
	})
}

// GetHealth handles browser pool health check request
// @Summary Get browser pool health
// @Description Get the health status of the browser pool
// @Tags Browser
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} models.ErrorResponse
// @Router /browser/health [get]
func (h *BrowserHandler) GetHealth(c *gin.Context) {
	health := h.browserService.Health()

	httpStatus := http.StatusOK
	if health["status"] == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"health":    health,
		"stats":     h.browserService.GetStats(),
		"timestamp": time.Now(),
	})
}

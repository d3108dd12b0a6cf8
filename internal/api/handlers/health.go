package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/registry-api/internal/models"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// HealthChecker reports per-service health maps keyed by service name
type HealthChecker interface {
	Health() map[string]interface{}
}

// HealthHandler handles health check requests
type HealthHandler struct {
	services  HealthChecker
	logger    *logrus.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(services HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		services:  services,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetHealth handles general health check
// @Summary Health check
// @Description Get the health status of the API and its dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *gin.Context) {
	servicesHealth := h.services.Health()

	status := "healthy"
	for _, serviceHealth := range servicesHealth {
		healthMap, ok := serviceHealth.(map[string]interface{})
		if !ok {
			continue
		}
		switch healthMap["status"] {
		case "unhealthy":
			status = "unhealthy"
		case "degraded":
			if status == "healthy" {
				status = "degraded"
			}
		}
	}

	response := models.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   Version,
		Services:  make(map[string]models.ServiceInfo),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	for serviceName, serviceHealth := range servicesHealth {
		healthMap, ok := serviceHealth.(map[string]interface{})
		if !ok {
			continue
		}
		info := models.ServiceInfo{LastCheck: time.Now()}
		if s, ok := healthMap["status"].(string); ok {
			info.Status = s
		}
		if e, ok := healthMap["error"].(string); ok {
			info.Error = e
		}
		response.Services[serviceName] = info
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetReadiness handles readiness probe
// @Summary Readiness check
// @Description Check if the API is ready to serve requests
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	servicesHealth := h.services.Health()

	issues := make([]string, 0)
	// A degraded cache falls back to memory; only these block readiness.
	for _, name := range []string{"retrieval", "browser"} {
		healthMap, ok := servicesHealth[name].(map[string]interface{})
		if ok && healthMap["status"] == "unhealthy" {
			issues = append(issues, name+" service is unhealthy")
		}
	}

	ready := len(issues) == 0
	response := gin.H{
		"ready":     ready,
		"timestamp": time.Now(),
		"services":  servicesHealth,
	}
	if !ready {
		response["issues"] = issues
		h.logger.WithField("issues", issues).Warn("Readiness check failed")
	}

	httpStatus := http.StatusOK
	if !ready {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetLiveness handles liveness probe
// @Summary Liveness check
// @Description Check if the API is alive and responding
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"alive":     true,
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"version":   Version,
	})
}

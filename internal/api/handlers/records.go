package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/registry-api/internal/models"
	"github.com/nexconsult/registry-api/internal/services"
)

// RecordsHandler serves captcha-gated registry lookups
type RecordsHandler struct {
	retrievalService services.RetrievalServiceInterface
	maxBatchSize     int
	logger           *logrus.Logger
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(retrievalService services.RetrievalServiceInterface, maxBatchSize int, logger *logrus.Logger) *RecordsHandler {
	return &RecordsHandler{
		retrievalService: retrievalService,
		maxBatchSize:     maxBatchSize,
		logger:           logger,
	}
}

// ListSites handles the site listing
// @Summary List registry sites
// @Description List configured registry sites that can be queried
// @Tags Records
// @Produce json
// @Success 200 {object} models.SitesResponse
// @Router /sites [get]
func (h *RecordsHandler) ListSites(c *gin.Context) {
	sites := h.retrievalService.Sites()
	response := models.SitesResponse{
		Sites: make([]models.SiteInfo, 0, len(sites)),
		Total: len(sites),
	}
	for _, s := range sites {
		response.Sites = append(response.Sites, models.NewSiteInfo(s))
	}
	c.JSON(http.StatusOK, response)
}

// GetRecords handles a single retrieval
// @Summary Retrieve registry records
// @Description Solve the site's captcha, submit the form for the document and assemble its records
// @Tags Records
// @Produce json
// @Param site path string true "Site name" example(sigef)
// @Param document path string true "CPF or CNPJ" example(05828793705)
// @Success 200 {object} models.RecordsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /sites/{site}/records/{document} [get]
func (h *RecordsHandler) GetRecords(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("request_id")
	site := c.Param("site")
	document := c.Param("document")

	result, err := h.retrievalService.Retrieve(c.Request.Context(), site, document)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"site":       site,
			"document":   document,
			"error":      err.Error(),
			"duration":   time.Since(start),
		}).Error("Failed to retrieve records")
		writeRetrievalError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"site":       site,
		"status":     result.Status,
		"cache":      result.Cache,
		"duration":   time.Since(start),
	}).Info("Records retrieved")

	if result.Cache {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.Header("Cache-Control", "public, max-age=3600")

	c.JSON(http.StatusOK, result)
}

// GetBatchRecords handles batch retrieval
// @Summary Retrieve records for several documents
// @Description Run independent retrievals concurrently, one session per document
// @Tags Records
// @Accept json
// @Produce json
// @Param site path string true "Site name" example(sigef)
// @Param request body models.BatchRequest true "Documents to retrieve"
// @Success 200 {object} models.BatchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /sites/{site}/records/batch [post]
func (h *RecordsHandler) GetBatchRecords(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("request_id")
	site := c.Param("site")

	var request models.BatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request format", err.Error(), "INVALID_REQUEST")
		return
	}
	if h.maxBatchSize > 0 && len(request.Documents) > h.maxBatchSize {
		writeError(c, http.StatusBadRequest, "Batch too large",
			fmt.Sprintf("At most %d documents per batch", h.maxBatchSize), "BATCH_TOO_LARGE")
		return
	}

	results, err := h.retrievalService.RetrieveBatch(c.Request.Context(), site, request.Documents)
	if err != nil {
		writeRetrievalError(c, err)
		return
	}

	response := models.BatchResponse{
		Site:       site,
		Results:    results,
		Total:      len(results),
		DurationMs: time.Since(start).Milliseconds(),
		Timestamp:  time.Now(),
	}
	for _, r := range results {
		if r.Success {
			response.Success++
		} else {
			response.Errors++
		}
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"site":       site,
		"total":      response.Total,
		"success":    response.Success,
		"errors":     response.Errors,
		"duration":   time.Since(start),
	}).Info("Batch retrieval completed")

	c.JSON(http.StatusOK, response)
}


package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/registry-api/internal/models"
	"github.com/nexconsult/registry-api/internal/utils"
)

// DocumentHandler validates CPF/CNPJ numbers
type DocumentHandler struct {
	logger *logrus.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(logger *logrus.Logger) *DocumentHandler {
	return &DocumentHandler{logger: logger}
}

// GetDocument handles single document validation
// @Summary Validate a CPF or CNPJ
// @Description Normalize, classify and checksum-validate a taxpayer identifier
// @Tags Documents
// @Produce json
// @Param document path string true "CPF or CNPJ, formatted or digits only" example(05828793705)
// @Success 200 {object} models.DocumentResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /documents/{document} [get]
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	info := utils.ValidateDocument(c.Param("document"))

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"document":   info.Digits,
		"kind":       info.Kind,
		"valid":      info.Valid,
	}).Debug("Document validated")

	if info.Malformed() {
		writeError(c, http.StatusBadRequest, "Invalid document", "Document must have between 5 and 14 digits", "INVALID_DOCUMENT")
		return
	}

	c.JSON(http.StatusOK, models.NewDocumentResponse(info))
}

// Validate handles bulk validation
// @Summary Validate several documents
// @Description Validate a list of CPF/CNPJ numbers. Malformed entries are reported, not rejected
// @Tags Documents
// @Accept json
// @Produce json
// @Param request body models.ValidateRequest true "Documents to validate"
// @Success 200 {object} models.ValidateResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /documents/validate [post]
func (h *DocumentHandler) Validate(c *gin.Context) {
	var request models.ValidateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request format", err.Error(), "INVALID_REQUEST")
		return
	}

	response := models.ValidateResponse{
		Results: make([]models.DocumentResponse, 0, len(request.Documents)),
		Total:   len(request.Documents),
	}
	for _, doc := range request.Documents {
		info := utils.ValidateDocument(doc)
		if info.Valid {
			response.Valid++
		}
		response.Results = append(response.Results, models.NewDocumentResponse(info))
	}

	c.JSON(http.StatusOK, response)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nexconsult/registry-api/internal/models"
	"github.com/nexconsult/registry-api/internal/retrieval"
)

func writeError(c *gin.Context, status int, title, message, code string) {
	c.JSON(status, models.ErrorResponse{
		Error:     title,
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

// writeRetrievalError maps retrieval sentinels to HTTP status codes
func writeRetrievalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, retrieval.ErrMalformedIdentifier):
		writeError(c, http.StatusBadRequest, "Invalid document", "Document must have between 5 and 14 digits", "INVALID_DOCUMENT")
	case errors.Is(err, retrieval.ErrUnknownSite):
		writeError(c, http.StatusNotFound, "Unknown site", err.Error(), "UNKNOWN_SITE")
	case errors.Is(err, retrieval.ErrRetryExhausted):
		writeError(c, http.StatusServiceUnavailable, "Captcha not solved", "The captcha could not be solved within the attempt limit. Please try again later", "CAPTCHA_ERROR")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusGatewayTimeout, "Request timeout", "The registry took too long to answer. Please try again later", "TIMEOUT")
	case errors.Is(err, retrieval.ErrUpstreamUnavailable), errors.Is(err, retrieval.ErrUnexpectedResponse):
		writeError(c, http.StatusBadGateway, "Upstream error", err.Error(), "UPSTREAM_ERROR")
	default:
		writeError(c, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred while processing your request", "INTERNAL_ERROR")
	}
}

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/apperrors"
)

// respondError renders err with the status apperrors assigns it. Upstream
// and internal details are logged, not returned.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	status := apperrors.Status(err)

	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		c.JSON(status, gin.H{"error": "validation failed", "errors": verr.Fields})
		return
	}

	var msg string
	switch status {
	case http.StatusNotFound:
		msg = "not found"
	case http.StatusUnauthorized:
		msg = "login required"
	case http.StatusForbidden:
		msg = "forbidden"
	case http.StatusBadGateway:
		msg = "upstream service failed"
	case http.StatusGatewayTimeout:
		msg = "upstream service timed out"
	default:
		msg = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": msg})
}

// badRequest renders a malformed request body or query
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

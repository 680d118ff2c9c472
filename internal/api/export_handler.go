package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/service"
	"github.com/suspect-registry-api/internal/session"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamProfiles handles GET /v1/exports/profiles?format=...
// Streams the export directly to the response
func (h *ExportHandler) StreamProfiles(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatNDJSON)

	h.log.Info().Str("format", format).Msg("Starting streaming export")

	err := h.services.Export.StreamProfiles(c.Request.Context(), session.ActorFrom(c), c.Writer, format)
	if err == nil {
		return
	}
	if c.Writer.Written() {
		// Can't return error JSON after streaming has started
		h.log.Error().Err(err).Str("format", format).Msg("Export failed mid-stream")
		return
	}
	c.Writer.Header().Del("Content-Type")
	c.Writer.Header().Del("Content-Disposition")
	respondError(c, h.log, err)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/service"
	"github.com/suspect-registry-api/internal/session"
)

// ReportHandler handles report endpoints
type ReportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(services *service.Services, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		services: services,
		log:      log.With().Str("handler", "report").Logger(),
	}
}

// Submit handles POST /v1/reports with a JSON or form body
func (h *ReportHandler) Submit(c *gin.Context) {
	var form models.ReportForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.services.Report.Submit(c.Request.Context(), session.ActorFrom(c), &form, c.ClientIP())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Feed handles GET /v1/reports?page=&page_size=
func (h *ReportHandler) Feed(c *gin.Context) {
	var page models.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, "page and page_size must be integers")
		return
	}

	items, err := h.services.Report.Feed(c.Request.Context(), page)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load report feed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "reports are temporarily unavailable",
			"reports": []*models.AccusationFeedItem{},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": items})
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/service"
	"github.com/suspect-registry-api/internal/session"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(services *service.Services, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		services: services,
		log:      log.With().Str("handler", "profile").Logger(),
	}
}

// List handles GET /v1/profiles?page=&page_size=
func (h *ProfileHandler) List(c *gin.Context) {
	var page models.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, "page and page_size must be integers")
		return
	}

	page = h.services.Profile.NormalizePage(page)
	profiles, err := h.services.Profile.ListProfiles(c.Request.Context(), page)
	if err != nil {
		// listing pages render an empty state rather than failing hard
		h.log.Error().Err(err).Msg("Failed to list profiles")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":    "profiles are temporarily unavailable",
			"profiles": []*models.EnrichedProfile{},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profiles":  profiles,
		"page":      page.Number,
		"page_size": page.Size,
	})
}

// Get handles GET /v1/profiles/:id
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.services.Profile.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Related handles GET /v1/profiles/:id/related
func (h *ProfileHandler) Related(c *gin.Context) {
	related, err := h.services.Profile.RelatedProfiles(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"related_profiles": related})
}

// Reports handles GET /v1/profiles/:id/reports
func (h *ProfileHandler) Reports(c *gin.Context) {
	reports, err := h.services.Profile.Accusations(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// Evidence handles GET /v1/profiles/:id/evidence
func (h *ProfileHandler) Evidence(c *gin.Context) {
	evidence, err := h.services.Profile.Evidence(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evidence": evidence})
}

// SetConfirmed handles PUT /v1/profiles/:id/confirmed
func (h *ProfileHandler) SetConfirmed(c *gin.Context) {
	var req struct {
		Confirmed *bool `json:"confirmed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Confirmed == nil {
		badRequest(c, "confirmed must be a boolean")
		return
	}

	profile, err := h.services.Moderation.SetConfirmed(c.Request.Context(), session.ActorFrom(c), c.Param("id"), *req.Confirmed)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

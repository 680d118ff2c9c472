package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/service"
	"github.com/suspect-registry-api/internal/session"
)

// EvidenceHandler handles evidence endpoints
type EvidenceHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewEvidenceHandler creates a new EvidenceHandler
func NewEvidenceHandler(services *service.Services, log zerolog.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		services: services,
		log:      log.With().Str("handler", "evidence").Logger(),
	}
}

// Submit handles POST /v1/profiles/:id/evidence
func (h *EvidenceHandler) Submit(c *gin.Context) {
	var form models.EvidenceForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	evidence, err := h.services.Evidence.Submit(c.Request.Context(), session.ActorFrom(c), c.Param("id"), &form)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, evidence)
}

// Vote handles POST /v1/evidence/:id/vote
func (h *EvidenceHandler) Vote(c *gin.Context) {
	var req struct {
		Vote models.EvidenceVote `json:"vote"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	evidence, err := h.services.Evidence.Vote(c.Request.Context(), session.ActorFrom(c), c.Param("id"), req.Vote)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         evidence.ID,
		"up_votes":   evidence.UpVotes,
		"down_votes": evidence.DownVotes,
	})
}

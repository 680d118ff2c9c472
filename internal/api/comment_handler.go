package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/service"
	"github.com/suspect-registry-api/internal/session"
)

// CommentHandler handles comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// Thread handles GET /v1/profiles/:id/comments
func (h *CommentHandler) Thread(c *gin.Context) {
	thread, err := h.services.Comment.Thread(c.Request.Context(), c.Param("id"), session.ActorFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": thread})
}

// Create handles POST /v1/profiles/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req struct {
		Content  string  `json:"content"`
		ParentID *string `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	comment, err := h.services.Comment.Create(c.Request.Context(), session.ActorFrom(c), c.Param("id"), req.Content, req.ParentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Delete handles DELETE /v1/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.services.Comment.Delete(c.Request.Context(), session.ActorFrom(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Vote handles POST /v1/comments/:id/vote
func (h *CommentHandler) Vote(c *gin.Context) {
	var req struct {
		Kind models.VoteKind `json:"vote_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	outcome, err := h.services.Comment.Vote(c.Request.Context(), session.ActorFrom(c), c.Param("id"), req.Kind)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

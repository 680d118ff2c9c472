package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/session"
)

// SessionHandler exposes the caller's session
type SessionHandler struct {
	store *session.Store
	log   zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(store *session.Store, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		store: store,
		log:   log.With().Str("handler", "session").Logger(),
	}
}

// Current handles GET /v1/session
func (h *SessionHandler) Current(c *gin.Context) {
	actor := session.ActorFrom(c)
	if !actor.Authenticated() {
		respondError(c, h.log, apperrors.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, actor)
}

// Logout handles POST /v1/session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.store.Clear(c.Writer, c.Request); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

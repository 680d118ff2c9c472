// Package session reads and writes the signed, encrypted session cookie
// that identifies the caller.
package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/config"
	"github.com/suspect-registry-api/internal/models"
)

const actorKey = "actor"

// Session value keys
const (
	keySteamID64 = "steam_id_64"
	keySteamID32 = "steam_id_32"
	keySteamURL  = "steam_url"
	keyName      = "steam_name"
	keyAvatar    = "steam_avatar_url"
	keyRole      = "role"
)

// Store wraps a cookie store with the actor model
type Store struct {
	cookies *sessions.CookieStore
	name    string
	log     zerolog.Logger
}

// NewStore creates a session store. The hash key signs the cookie and the
// block key encrypts it.
func NewStore(cfg config.SessionConfig, log zerolog.Logger) *Store {
	cookies := sessions.NewCookieStore([]byte(cfg.HashKey), []byte(cfg.BlockKey))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Store{
		cookies: cookies,
		name:    cfg.CookieName,
		log:     log.With().Str("component", "session").Logger(),
	}
}

// Load returns the actor in the request cookie, or nil when the caller is
// anonymous or the cookie does not verify
func (s *Store) Load(r *http.Request) *models.Actor {
	sess, err := s.cookies.Get(r, s.name)
	if err != nil {
		s.log.Debug().Err(err).Msg("Ignoring invalid session cookie")
		return nil
	}

	steamID64, _ := sess.Values[keySteamID64].(string)
	if steamID64 == "" {
		return nil
	}

	actor := &models.Actor{SteamID64: steamID64, Role: models.RoleUser}
	actor.SteamID32, _ = sess.Values[keySteamID32].(string)
	actor.ProfileURL, _ = sess.Values[keySteamURL].(string)
	actor.DisplayName, _ = sess.Values[keyName].(string)
	actor.AvatarURL, _ = sess.Values[keyAvatar].(string)
	if role, ok := sess.Values[keyRole].(string); ok && models.ValidRoles[models.Role(role)] {
		actor.Role = models.Role(role)
	}
	return actor
}

// Save writes actor into the session cookie
func (s *Store) Save(w http.ResponseWriter, r *http.Request, actor *models.Actor) error {
	sess, _ := s.cookies.Get(r, s.name)
	sess.Values[keySteamID64] = actor.SteamID64
	sess.Values[keySteamID32] = actor.SteamID32
	sess.Values[keySteamURL] = actor.ProfileURL
	sess.Values[keyName] = actor.DisplayName
	sess.Values[keyAvatar] = actor.AvatarURL
	sess.Values[keyRole] = string(actor.Role)
	return sess.Save(r, w)
}

// Clear expires the session cookie
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.cookies.Get(r, s.name)
	sess.Values = make(map[interface{}]interface{})
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Middleware loads the actor once per request
func (s *Store) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor := s.Load(c.Request); actor != nil {
			c.Set(actorKey, actor)
		}
		c.Next()
	}
}

// ActorFrom returns the actor loaded by Middleware, or nil
func ActorFrom(c *gin.Context) *models.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*models.Actor)
	return actor
}

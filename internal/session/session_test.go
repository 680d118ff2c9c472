package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/config"
	"github.com/suspect-registry-api/internal/models"
)

func testStore() *Store {
	return NewStore(config.SessionConfig{
		CookieName: "test-session",
		HashKey:    strings.Repeat("h", 32),
		BlockKey:   strings.Repeat("b", 32),
		MaxAge:     time.Hour,
	}, zerolog.Nop())
}

// roundTrip saves actor and returns a request carrying the issued cookie
func roundTrip(t *testing.T, s *Store, actor *models.Actor) *http.Request {
	t.Helper()
	w := httptest.NewRecorder()
	if err := s.Save(w, httptest.NewRequest("GET", "/", nil), actor); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestStore_SaveLoad(t *testing.T) {
	s := testStore()
	req := roundTrip(t, s, &models.Actor{
		SteamID64:   "76561198000000001",
		SteamID32:   "39734273",
		DisplayName: "alice",
		Role:        models.RoleModerator,
	})

	actor := s.Load(req)
	if actor == nil {
		t.Fatal("Expected an actor from the cookie")
	}
	if actor.SteamID64 != "76561198000000001" {
		t.Errorf("Expected steam id 76561198000000001, got %s", actor.SteamID64)
	}
	if actor.Role != models.RoleModerator {
		t.Errorf("Expected moderator role, got %s", actor.Role)
	}
	if !actor.Authoritative() {
		t.Error("Moderator should be authoritative")
	}
}

func TestStore_Load(t *testing.T) {
	s := testStore()

	if actor := s.Load(httptest.NewRequest("GET", "/", nil)); actor != nil {
		t.Errorf("Expected anonymous request, got %+v", actor)
	}

	tampered := httptest.NewRequest("GET", "/", nil)
	tampered.AddCookie(&http.Cookie{Name: "test-session", Value: "forged"})
	if actor := s.Load(tampered); actor != nil {
		t.Errorf("Expected forged cookie to be rejected, got %+v", actor)
	}

	// unknown roles fall back to user
	req := roundTrip(t, s, &models.Actor{SteamID64: "1", Role: "root"})
	if actor := s.Load(req); actor == nil || actor.Role != models.RoleUser {
		t.Errorf("Expected user role, got %+v", actor)
	}
}

func TestStore_Clear(t *testing.T) {
	s := testStore()
	w := httptest.NewRecorder()
	if err := s.Clear(w, httptest.NewRequest("GET", "/", nil)); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("Expected an expired cookie, got MaxAge %d", cookies[0].MaxAge)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := testStore()

	router := gin.New()
	router.Use(s.Middleware())
	router.GET("/", func(c *gin.Context) {
		if actor := ActorFrom(c); actor != nil {
			c.String(http.StatusOK, actor.SteamID64)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Body.String() != "anonymous" {
		t.Errorf("Expected anonymous, got %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, roundTrip(t, s, &models.Actor{SteamID64: "42"}))
	if w.Body.String() != "42" {
		t.Errorf("Expected 42, got %s", w.Body.String())
	}
}

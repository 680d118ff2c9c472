package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/config"
	"github.com/suspect-registry-api/internal/metrics"
	"github.com/suspect-registry-api/internal/service"
	"github.com/suspect-registry-api/internal/session"
	"github.com/suspect-registry-api/pkg/logger"
)

// Deps are the collaborators of the router besides the services
type Deps struct {
	Sessions *session.Store
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// HealthCheck probes the store; nil skips the probe
	HealthCheck func(ctx context.Context) error
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, deps Deps, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigin))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}
	router.Use(deps.Sessions.Middleware())

	// Handlers
	profileHandler := NewProfileHandler(services, log)
	reportHandler := NewReportHandler(services, log)
	evidenceHandler := NewEvidenceHandler(services, log)
	commentHandler := NewCommentHandler(services, log)
	sessionHandler := NewSessionHandler(deps.Sessions, log)
	exportHandler := NewExportHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(deps.HealthCheck))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1
	v1 := router.Group("/v1")
	{
		v1.GET("/stats", statsHandler(services))

		sessions := v1.Group("/session")
		{
			sessions.GET("", sessionHandler.Current)
			sessions.POST("/logout", sessionHandler.Logout)
		}

		profiles := v1.Group("/profiles")
		{
			profiles.GET("", profileHandler.List)
			profiles.GET("/:id", profileHandler.Get)
			profiles.GET("/:id/related", profileHandler.Related)
			profiles.GET("/:id/reports", profileHandler.Reports)
			profiles.GET("/:id/evidence", profileHandler.Evidence)
			profiles.POST("/:id/evidence", evidenceHandler.Submit)
			profiles.GET("/:id/comments", commentHandler.Thread)
			profiles.POST("/:id/comments", commentHandler.Create)
			profiles.PUT("/:id/confirmed", profileHandler.SetConfirmed)
		}

		comments := v1.Group("/comments")
		{
			comments.DELETE("/:id", commentHandler.Delete)
			comments.POST("/:id/vote", commentHandler.Vote)
		}

		v1.POST("/evidence/:id/vote", evidenceHandler.Vote)

		reports := v1.Group("/reports")
		{
			reports.GET("", reportHandler.Feed)
			reports.POST("", reportHandler.Submit)
		}

		// Export endpoints
		exports := v1.Group("/exports")
		{
			exports.GET("/profiles", exportHandler.StreamProfiles)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(probe func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   logger.ServiceName,
		}
		if probe != nil {
			if err := probe(c.Request.Context()); err != nil {
				body["status"] = "unhealthy"
				body["error"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
		}
		c.JSON(http.StatusOK, body)
	}
}

// statsHandler returns record counts
func statsHandler(services *service.Services) gin.HandlerFunc {
	resources := []string{
		service.ResourceProfiles,
		service.ResourceReports,
		service.ResourceEvidence,
		service.ResourceComments,
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		counts := gin.H{}
		for _, resource := range resources {
			n, err := services.Export.GetCount(ctx, resource)
			if err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": "failed to count " + resource})
				return
			}
			counts[resource] = n
		}

		c.JSON(http.StatusOK, gin.H{
			"database":  counts,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS. Credentialed requests need an explicit
// origin, so "*" disables credentials.
func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowedOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if allowedOrigin != "*" {
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

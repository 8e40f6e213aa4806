package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/grid-nexus/nexus-api/internal/config"
	"github.com/grid-nexus/nexus-api/internal/repository"
	"github.com/grid-nexus/nexus-api/internal/service"
	"github.com/grid-nexus/nexus-api/pkg/logger"
)

// HeaderUserID carries the caller's user id
const HeaderUserID = "X-User-ID"

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	comments := NewCommentHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(cfg))
	router.GET("/metrics", metricsHandler(repos, log))

	// API v1
	v1 := router.Group("/v1")
	v1.Use(actorMiddleware(services.Identity, log))
	{
		articles := v1.Group("/articles/:article_id")
		{
			articles.GET("/stats", comments.Stats)
			articles.GET("/export", comments.Export)

			articles.GET("/comments", comments.List)
			articles.POST("/comments", comments.Post)
			articles.GET("/comments/:comment_id", comments.Get)
			articles.PATCH("/comments/:comment_id", comments.Edit)
			articles.DELETE("/comments/:comment_id", comments.Delete)
			articles.GET("/comments/:comment_id/replies", comments.Replies)
			articles.POST("/comments/:comment_id/votes", comments.Vote)
			articles.POST("/comments/:comment_id/reactions", comments.React)
			articles.POST("/comments/:comment_id/reports", comments.Report)
			articles.POST("/comments/:comment_id/moderation", comments.Moderate)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   logger.ServiceName,
			"store":     cfg.Store.Driver,
		})
	}
}

// metricsHandler returns record counts per store
func metricsHandler(repos *repository.Repositories, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		counts := gin.H{}
		for name, counter := range map[string]interface {
			Count(ctx context.Context) (int, error)
		}{
			"users":    repos.User,
			"articles": repos.Article,
			"comments": repos.Comment,
		} {
			n, err := counter.Count(ctx)
			if err != nil {
				log.Error().Err(err).Str("resource", name).Msg("Failed to count records")
				n = -1
			}
			counts[name] = n
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
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
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
			Str("user_id", c.GetHeader(HeaderUserID)).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderUserID)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// actorMiddleware resolves the X-User-ID header into an actor. Unknown ids
// continue anonymously; mutations then fail with 401.
func actorMiddleware(identity service.IdentityService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := identity.Resolve(c.Request.Context(), c.GetHeader(HeaderUserID))
		if err != nil {
			respondError(c, log, err)
			c.Abort()
			return
		}
		if actor != nil {
			c.Set(actorKey, actor)
		}
		c.Next()
	}
}

package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP server with all routes configured.
func NewServer(handler *Handler, cronSecret string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	setupRoutes(r, handler, cronSecret)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, cronSecret string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/articles", handler.GetArticles)

	// Trigger endpoints mutate the store, so they stay disabled until a
	// shared secret is configured.
	if cronSecret != "" {
		triggers := r.Group("/")
		triggers.Use(authMiddleware(cronSecret))
		{
			triggers.POST("/sync", handler.PostSync)
			triggers.POST("/ingest", handler.PostIngest)
		}
		slog.Info("Trigger endpoints enabled with authentication")
	} else {
		slog.Info("Trigger endpoints disabled (CRON_SECRET not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"articles": "/articles",
			"health":   "/health",
		}

		if cronSecret != "" {
			endpoints["sync"] = "/sync (POST, requires Authorization: Bearer <secret>)"
			endpoints["ingest"] = "/ingest (POST, requires Authorization: Bearer <secret>)"
		}

		c.JSON(200, gin.H{
			"service":     "Newswire",
			"version":     handler.version,
			"description": "Content ingestion and sync engine for RSS/Atom sources",
			"endpoints":   endpoints,
			"triggers": map[string]interface{}{
				"enabled": cronSecret != "",
				"header":  "Authorization: Bearer <secret> or X-Cron-Key",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware guards the trigger endpoints. Scheduled invocations from the
// hosting platform identify themselves by User-Agent; everything else must
// present the shared secret.
func authMiddleware(cronSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.UserAgent(), "vercel-cron/") {
			c.Next()
			return
		}

		providedKey := c.GetHeader("X-Cron-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Provide the secret in X-Cron-Key header or Authorization: Bearer <secret>",
			})
			c.Abort()
			return
		}

		if providedKey != cronSecret {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid secret",
				"message": "The provided secret is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

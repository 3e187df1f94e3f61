package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"

	"github.com/watchtogether/server/internal/config"
	"github.com/watchtogether/server/internal/logger"
)

const corsMaxAge = 600

// corsMiddleware lets the browser frontend call the API from the configured
// origins. Preflight requests are answered by the cors handler and never
// reach the routes.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, strings.TrimSuffix(origin, "/"))
		}
	}

	handler := cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", logger.CorrelationIDHeader},
		ExposedHeaders: []string{logger.CorrelationIDHeader},
		MaxAge:         corsMaxAge,
	})

	return func(c *gin.Context) {
		passed := false
		handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}

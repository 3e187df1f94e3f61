package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/watchtogether/server/internal/logger"
)

// recovery turns a handler panic into a generic 500 that carries the
// correlation id, so a user report can be matched to the log line.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.FromContext(c.Request.Context()).Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("route", c.FullPath()),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":         "internal error",
			"correlationId": logger.CorrelationID(c),
		})
	})
}

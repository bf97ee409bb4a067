package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) loggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next()

	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)),
		zap.String("ip", c.ClientIP()),
	}

	switch status := c.Writer.Status(); {
	case status >= 500:
		h.logger.Error("request", fields...)
	case status >= 400:
		h.logger.Warn("request", fields...)
	default:
		h.logger.Info("request", fields...)
	}
}

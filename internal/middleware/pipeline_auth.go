package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "empire/internal/errors"
)

// PipelineAuthMiddleware guards the ops endpoints with the X-API-Key header.
// With no key configured every request is refused with 503.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			AbortWithError(c, apperrors.ErrNotConfigured)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			AbortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}

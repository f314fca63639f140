package middleware

import (
	"github.com/gin-gonic/gin"
)

// ErrorHandler converts errors attached with c.Error into the failure
// envelope when no response has been written yet. The last error wins.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		AbortWithError(c, c.Errors.Last().Err)
	}
}

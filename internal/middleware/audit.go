package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/miqaat-rms-api/internal/service"
)

// AuditOrigin stamps the caller address and user agent on the request
// context so audit entries written while handling it carry them.
func AuditOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := service.WithAuditOrigin(c.Request.Context(), c.ClientIP(), c.GetHeader("User-Agent"))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

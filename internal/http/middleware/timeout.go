package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Deadline attaches a per-request deadline to the request context. Handlers
// observe it at their suspension points (gate wait, editor work) and map
// expiry to a 503; cancellation is cooperative, in-flight engine operations
// are never aborted mid-export.
func Deadline(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

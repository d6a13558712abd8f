package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"waz-calendar/internal/observability"
)

const RequestIDKey = "request_id"

// RequestID reuses the caller's X-Request-Id or assigns a new one and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(observability.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(observability.HeaderRequestID, id)
		c.Next()
	}
}

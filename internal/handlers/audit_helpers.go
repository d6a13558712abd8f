package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"waz-calendar/internal/middleware"
	"waz-calendar/internal/observability"
	"waz-calendar/internal/telemetry"
)

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(middleware.RequestIDKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader(observability.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}

// usernameFromContext returns the user set by the auth middleware, or "".
func usernameFromContext(c *gin.Context) string {
	return c.GetString(middleware.UsernameKey)
}

func auditRecord(c *gin.Context, action, text, username string) telemetry.AuditRecord {
	return telemetry.AuditRecord{
		Action:    action,
		Text:      text,
		RequestID: requestIDFromContext(c),
		Username:  username,
		IP:        observability.IPFromRequest(c.Request),
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"waz-calendar/internal/telemetry"
)

// DebugTools are the hooks exposed under /debug when DEBUG_ROUTES is set.
type DebugTools struct {
	Audit     *telemetry.AuditEmitter
	Reminders interface {
		Run(ctx context.Context, now time.Time) (int, error)
	}
	Online interface {
		Connected() []string
	}
}

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router gin.IRouter, tools DebugTools, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if tools.Audit == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		tools.Audit.Emit(c.Request.Context(), auditRecord(c, telemetry.ActionTest, "audit test", usernameFromContext(c)))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Runs the reminder sweep now instead of waiting for the schedule.
	router.POST("/debug/reminders/run", func(c *gin.Context) {
		if tools.Reminders == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reminders not configured"})
			return
		}
		sent, err := tools.Reminders.Run(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "sent": sent})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": sent})
	})

	router.GET("/debug/ws/online", func(c *gin.Context) {
		online := []string{}
		if tools.Online != nil {
			online = append(online, tools.Online.Connected()...)
		}
		c.JSON(http.StatusOK, gin.H{"online": online})
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waz-calendar/internal/services"
)

type NotificationHandler struct {
	notifications services.NotificationService
}

func NewNotificationHandler(notifications services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.notifications.List(c.Request.Context(), usernameFromContext(c))
	if err != nil {
		respondError(c, err, "failed to load notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(c.Request.Context(), usernameFromContext(c))
	if err != nil {
		respondError(c, err, "failed to count notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), usernameFromContext(c), c.Param("notification_id")); err != nil {
		respondError(c, err, "failed to mark notification read")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	marked, err := h.notifications.MarkAllRead(c.Request.Context(), usernameFromContext(c))
	if err != nil {
		respondError(c, err, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.notifications.Delete(c.Request.Context(), usernameFromContext(c), c.Param("notification_id")); err != nil {
		respondError(c, err, "failed to delete notification")
		return
	}
	c.Status(http.StatusNoContent)
}
